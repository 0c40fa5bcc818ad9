package compose

import (
	"fmt"
	"sync"

	"nakupenda/backend/internal/storage/blob"
)

// PreviewAllocator 为一段附件内容分配本地预览资源。
// release 负责回收资源，Session 保证对每个句柄恰好调用一次。
type PreviewAllocator interface {
	Acquire(name string, content []byte) (url string, release func(), err error)
}

// PreviewHandle 一个预览资源句柄，释放操作幂等。
type PreviewHandle struct {
	url     string
	once    sync.Once
	release func()
}

// URL 返回预览资源的访问地址
func (h *PreviewHandle) URL() string {
	return h.url
}

// Release 释放预览资源。重复调用无副作用。
func (h *PreviewHandle) Release() {
	h.once.Do(func() {
		if h.release != nil {
			h.release()
		}
	})
}

func newHandle(url string, release func()) *PreviewHandle {
	return &PreviewHandle{url: url, release: release}
}

// memoryPreviews 进程内预览分配器，不落盘，只发放可识别的占位地址。
type memoryPreviews struct {
	mu   sync.Mutex
	next int
}

func (m *memoryPreviews) Acquire(name string, content []byte) (string, func(), error) {
	m.mu.Lock()
	id := m.next
	m.next++
	m.mu.Unlock()

	return fmt.Sprintf("memory://previews/%d/%s", id, name), func() {}, nil
}

// BlobPreviews 以附件存储为后端的预览分配器：写入 previews/ 前缀，
// 释放时删除对象。
type BlobPreviews struct {
	store *blob.Store

	mu   sync.Mutex
	next int
}

// NewBlobPreviews 创建基于附件存储的预览分配器
func NewBlobPreviews(store *blob.Store) *BlobPreviews {
	return &BlobPreviews{store: store}
}

// Acquire 写入预览对象并返回其公开地址与删除回调
func (p *BlobPreviews) Acquire(name string, content []byte) (string, func(), error) {
	p.mu.Lock()
	key := fmt.Sprintf("previews/%d_%s", p.next, name)
	p.next++
	p.mu.Unlock()

	url, err := p.store.Save(key, content)
	if err != nil {
		return "", nil, err
	}

	return url, func() { _ = p.store.Delete(key) }, nil
}
