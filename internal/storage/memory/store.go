package memory

import (
	"sort"
	"sync"
	"time"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/storage"
)

// Store 使用内存保存信件与附件数据，主要用于开发验证与单元测试。
type Store struct {
	mu          sync.RWMutex
	letters     map[string]*domain.Letter             // letterID -> letter
	bySlug      map[string]string                     // slug -> letterID
	attachments map[string][]*domain.LetterAttachment // letterID -> attachments

	// 速率限制相关
	rateLimits map[string]*rateLimitEntry
}

// rateLimitEntry 速率限制条目
type rateLimitEntry struct {
	Count     int64
	ExpiresAt time.Time
}

// NewStore 创建一个内存存储实例。
func NewStore() *Store {
	return &Store{
		letters:     make(map[string]*domain.Letter),
		bySlug:      make(map[string]string),
		attachments: make(map[string][]*domain.LetterAttachment),
		rateLimits:  make(map[string]*rateLimitEntry),
	}
}

// SaveLetter 保存信件信息。slug 冲突时返回 ErrSlugConflict。
func (s *Store) SaveLetter(letter *domain.Letter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bySlug[letter.Slug]; exists {
		return storage.ErrSlugConflict
	}

	clone := *letter
	s.letters[letter.ID] = &clone
	s.bySlug[letter.Slug] = letter.ID
	return nil
}

// GetLetterBySlug 根据 slug 获取信件。
func (s *Store) GetLetterBySlug(slug string) (*domain.Letter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.bySlug[slug]
	if !ok {
		return nil, storage.ErrLetterNotFound
	}
	clone := *s.letters[id]
	return &clone, nil
}

// SaveAttachment 保存一条附件记录。
func (s *Store) SaveAttachment(attachment *domain.LetterAttachment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.letters[attachment.LetterID]; !ok {
		return storage.ErrLetterNotFound
	}

	clone := *attachment
	s.attachments[attachment.LetterID] = append(s.attachments[attachment.LetterID], &clone)
	return nil
}

// ListAttachments 返回信件的全部附件，按 display_order 升序。
func (s *Store) ListAttachments(letterID string) ([]domain.LetterAttachment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items := s.attachments[letterID]
	out := make([]domain.LetterAttachment, 0, len(items))
	for _, att := range items {
		out = append(out, *att)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out, nil
}

// RecordOpen 打开计数 +1；opened_at 只写一次。
func (s *Store) RecordOpen(letterID string, openedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	letter, ok := s.letters[letterID]
	if !ok {
		return storage.ErrLetterNotFound
	}

	letter.OpenCount++
	if letter.OpenedAt == nil {
		t := openedAt
		letter.OpenedAt = &t
	}
	return nil
}

// IncrementRateLimit 对 key 计数 +1 并返回窗口内的当前值。
func (s *Store) IncrementRateLimit(key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	entry, ok := s.rateLimits[key]
	if !ok || now.After(entry.ExpiresAt) {
		entry = &rateLimitEntry{ExpiresAt: now.Add(window)}
		s.rateLimits[key] = entry
	}
	entry.Count++
	return entry.Count, nil
}

// Close 关闭存储（内存实现为空操作）。
func (s *Store) Close() error {
	return nil
}

// Health 检查存储健康状态。
func (s *Store) Health() error {
	return nil
}
