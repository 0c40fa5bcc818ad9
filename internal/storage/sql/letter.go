package sql

import (
	"database/sql"
	"errors"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/storage"
)

// ========== Letter Repository ==========

// SaveLetter 写入信件记录
func (s *Store) SaveLetter(letter *domain.Letter) error {
	query := s.rebind(`
		INSERT INTO letters (id, slug, recipient_name, message, sender_name, created_at, opened_at, open_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.Exec(query,
		letter.ID,
		letter.Slug,
		letter.RecipientName,
		letter.Message,
		letter.SenderName,
		letter.CreatedAt,
		letter.OpenedAt,
		letter.OpenCount,
	)
	if err != nil && isUniqueViolation(err) {
		return storage.ErrSlugConflict
	}
	return err
}

// GetLetterBySlug 按 slug 查询信件
func (s *Store) GetLetterBySlug(slug string) (*domain.Letter, error) {
	query := s.rebind(`
		SELECT id, slug, recipient_name, message, sender_name, created_at, opened_at, open_count
		FROM letters
		WHERE slug = ?
	`)

	var letter domain.Letter
	var senderName sql.NullString
	var openedAt sql.NullTime

	err := s.db.QueryRow(query, slug).Scan(
		&letter.ID,
		&letter.Slug,
		&letter.RecipientName,
		&letter.Message,
		&senderName,
		&letter.CreatedAt,
		&openedAt,
		&letter.OpenCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrLetterNotFound
		}
		return nil, err
	}

	if senderName.Valid {
		letter.SenderName = &senderName.String
	}
	if openedAt.Valid {
		letter.OpenedAt = &openedAt.Time
	}

	return &letter, nil
}

// SaveAttachment 写入一条附件记录
func (s *Store) SaveAttachment(attachment *domain.LetterAttachment) error {
	query := s.rebind(`
		INSERT INTO letter_attachments (id, letter_id, file_url, file_type, display_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	_, err := s.db.Exec(query,
		attachment.ID,
		attachment.LetterID,
		attachment.FileURL,
		attachment.FileType,
		attachment.DisplayOrder,
		attachment.CreatedAt,
	)
	return err
}

// ListAttachments 返回信件的全部附件，按 display_order 升序
func (s *Store) ListAttachments(letterID string) ([]domain.LetterAttachment, error) {
	query := s.rebind(`
		SELECT id, letter_id, file_url, file_type, display_order, created_at
		FROM letter_attachments
		WHERE letter_id = ?
		ORDER BY display_order ASC
	`)

	rows, err := s.db.Query(query, letterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attachments := make([]domain.LetterAttachment, 0)
	for rows.Next() {
		var att domain.LetterAttachment
		if err := rows.Scan(
			&att.ID,
			&att.LetterID,
			&att.FileURL,
			&att.FileType,
			&att.DisplayOrder,
			&att.CreatedAt,
		); err != nil {
			return nil, err
		}
		attachments = append(attachments, att)
	}

	return attachments, rows.Err()
}

// RecordOpen 打开计数 +1，opened_at 仅首次写入。
// 单条 UPDATE 语句保证计数原子递增，不依赖应用层读-改-写。
func (s *Store) RecordOpen(letterID string, openedAt time.Time) error {
	query := s.rebind(`
		UPDATE letters
		SET open_count = open_count + 1,
		    opened_at = COALESCE(opened_at, ?)
		WHERE id = ?
	`)

	result, err := s.db.Exec(query, openedAt, letterID)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return storage.ErrLetterNotFound
	}
	return nil
}

// isUniqueViolation 判断错误是否为唯一索引冲突（slug 撞号）
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}

	return false
}
