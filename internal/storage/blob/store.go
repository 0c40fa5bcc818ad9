package blob

import (
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Store 文件系统附件存储实现。
// 附件以对象键（如 "<letterID>/1700000000000_0.jpg"）落盘，
// 并通过配置的公开基础 URL 解析为可直接访问的链接。
type Store struct {
	basePath      string // 附件存储根目录
	publicBaseURL string // 公开访问前缀，如 "https://example.com/attachments"
}

// NewStore 创建文件系统附件存储实例
func NewStore(basePath, publicBaseURL string) (*Store, error) {
	cleaned := filepath.Clean(basePath)

	// 确保基础目录存在
	if err := os.MkdirAll(cleaned, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &Store{
		basePath:      cleaned,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}, nil
}

// Save 将附件内容按对象键写入磁盘，返回公开访问 URL。
// 同键重复写入会覆盖旧对象（语音留言键是确定性的，依赖该行为）。
// MIME 类型由附件记录保存，这里只负责二进制内容。
func (s *Store) Save(key string, content []byte) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create object directory: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write object: %w", err)
	}

	return s.PublicURL(key), nil
}

// Read 按对象键读取附件内容
func (s *Store) Read(key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("object not found: %s", key)
		}
		return nil, fmt.Errorf("failed to open object: %w", err)
	}
	return file, nil
}

// Delete 删除单个对象，对象不存在时视为成功。
func (s *Store) Delete(key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// PublicURL 解析对象键对应的公开访问 URL
func (s *Store) PublicURL(key string) string {
	escaped := make([]string, 0, 4)
	for _, part := range strings.Split(key, "/") {
		escaped = append(escaped, url.PathEscape(part))
	}
	return s.publicBaseURL + "/" + path.Join(escaped...)
}

// BasePath 返回存储根目录（供静态文件路由挂载）
func (s *Store) BasePath() string {
	return s.basePath
}

// resolve 将对象键解析为根目录下的绝对路径，并拦截路径穿越。
func (s *Store) resolve(key string) (string, error) {
	if key == "" {
		return "", fmt.Errorf("object key must not be empty")
	}

	cleaned := filepath.Clean(filepath.FromSlash(key))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object key: %s", key)
	}

	return filepath.Join(s.basePath, cleaned), nil
}
