package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/storage"
)

// schema 信件表结构，启动时幂等创建
const schema = `
CREATE TABLE IF NOT EXISTS letters (
	id             VARCHAR(36) PRIMARY KEY,
	slug           VARCHAR(12) NOT NULL UNIQUE,
	recipient_name VARCHAR(255) NOT NULL,
	message        TEXT NOT NULL,
	sender_name    VARCHAR(255),
	created_at     TIMESTAMPTZ NOT NULL,
	opened_at      TIMESTAMPTZ,
	open_count     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS letter_attachments (
	id            VARCHAR(36) PRIMARY KEY,
	letter_id     VARCHAR(36) NOT NULL REFERENCES letters(id),
	file_url      VARCHAR(500) NOT NULL,
	file_type     VARCHAR(100),
	display_order INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_letter_attachments_letter_id ON letter_attachments(letter_id);
`

// Store PostgreSQL 存储实现（基于 pgx 连接池）
type Store struct {
	client *Client
}

// NewStore 基于已建立的客户端创建存储实例，并初始化表结构。
func NewStore(client *Client) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := client.Pool().Exec(ctx, schema); err != nil {
		return nil, err
	}

	return &Store{client: client}, nil
}

// ========== Letter Repository ==========

// SaveLetter 写入信件记录
func (s *Store) SaveLetter(letter *domain.Letter) error {
	_, err := s.client.Pool().Exec(context.Background(), `
		INSERT INTO letters (id, slug, recipient_name, message, sender_name, created_at, opened_at, open_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`,
		letter.ID,
		letter.Slug,
		letter.RecipientName,
		letter.Message,
		letter.SenderName,
		letter.CreatedAt,
		letter.OpenedAt,
		letter.OpenCount,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return storage.ErrSlugConflict
		}
		return err
	}
	return nil
}

// GetLetterBySlug 按 slug 查询信件
func (s *Store) GetLetterBySlug(slug string) (*domain.Letter, error) {
	var letter domain.Letter
	err := s.client.Pool().QueryRow(context.Background(), `
		SELECT id, slug, recipient_name, message, sender_name, created_at, opened_at, open_count
		FROM letters
		WHERE slug = $1
	`, slug).Scan(
		&letter.ID,
		&letter.Slug,
		&letter.RecipientName,
		&letter.Message,
		&letter.SenderName,
		&letter.CreatedAt,
		&letter.OpenedAt,
		&letter.OpenCount,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrLetterNotFound
		}
		return nil, err
	}
	return &letter, nil
}

// SaveAttachment 写入一条附件记录
func (s *Store) SaveAttachment(attachment *domain.LetterAttachment) error {
	_, err := s.client.Pool().Exec(context.Background(), `
		INSERT INTO letter_attachments (id, letter_id, file_url, file_type, display_order, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`,
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
	rows, err := s.client.Pool().Query(context.Background(), `
		SELECT id, letter_id, file_url, file_type, display_order, created_at
		FROM letter_attachments
		WHERE letter_id = $1
		ORDER BY display_order ASC
	`, letterID)
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

// RecordOpen 打开计数 +1，opened_at 仅首次写入（数据库侧原子更新）。
func (s *Store) RecordOpen(letterID string, openedAt time.Time) error {
	tag, err := s.client.Pool().Exec(context.Background(), `
		UPDATE letters
		SET open_count = open_count + 1,
		    opened_at = COALESCE(opened_at, $1)
		WHERE id = $2
	`, openedAt, letterID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrLetterNotFound
	}
	return nil
}

// Close 关闭数据库连接池
func (s *Store) Close() error {
	s.client.Close()
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.client.Ping(ctx)
}
