package storage

import (
	"errors"
	"time"

	"nakupenda/backend/internal/domain"
)

var (
	// ErrLetterNotFound 信件未找到错误
	ErrLetterNotFound = errors.New("letter not found")
	// ErrSlugConflict 短链接标识冲突错误（唯一索引拒绝写入）
	ErrSlugConflict = errors.New("slug already exists")
)

// LetterRepository 定义信件数据存取操作。
type LetterRepository interface {
	// SaveLetter 写入信件记录；slug 冲突时返回 ErrSlugConflict。
	SaveLetter(letter *domain.Letter) error
	// GetLetterBySlug 按 slug 查询信件；不存在时返回 ErrLetterNotFound。
	GetLetterBySlug(slug string) (*domain.Letter, error)
	// SaveAttachment 写入一条附件记录，信件必须已存在。
	SaveAttachment(attachment *domain.LetterAttachment) error
	// ListAttachments 返回信件的全部附件，按 display_order 升序。
	ListAttachments(letterID string) ([]domain.LetterAttachment, error)
	// RecordOpen 打开计数 +1；opened_at 仅在为空时写入 openedAt，之后不再变化。
	RecordOpen(letterID string, openedAt time.Time) error
}

// RateLimitRepository 定义限流计数操作。
type RateLimitRepository interface {
	// IncrementRateLimit 对 key 计数 +1 并返回窗口内的当前值。
	IncrementRateLimit(key string, window time.Duration) (int64, error)
}

// Store 聚合所有存储接口。
type Store interface {
	LetterRepository

	Close() error
	Health() error
}
