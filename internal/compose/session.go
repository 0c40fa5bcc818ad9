package compose

import (
	"errors"
	"fmt"
	"sync"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/service"
)

var (
	// ErrPhotoTooLarge 单张照片超过大小上限
	ErrPhotoTooLarge = errors.New("photo exceeds size limit")
	// ErrSessionClosed 会话已经结束
	ErrSessionClosed = errors.New("compose session closed")
	// ErrRecordingInProgress 已有录音在进行中
	ErrRecordingInProgress = errors.New("a recording is already in progress")
)

// PhotoFile 一张待加入会话的照片
type PhotoFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// Photo 会话中的一张照片及其预览句柄
type Photo struct {
	File    PhotoFile
	Preview *PreviewHandle
}

// PhotoResult 单张照片的加入结果。超出剩余槽位的照片不会出现在
// 结果里（静默截断），超限照片带 Err 但不影响同批其余照片。
type PhotoResult struct {
	Filename string
	Added    bool
	Err      error
}

// VoiceNote 会话中的语音留言
type VoiceNote struct {
	ContentType string
	Content     []byte
	Preview     *PreviewHandle
}

// Session 信件撰写期间的附件采集会话。
// 照片上限 5 张，语音留言至多一条；所有预览句柄由会话托管，
// 移除、替换或会话结束时恰好释放一次。
type Session struct {
	previews PreviewAllocator

	mu       sync.Mutex
	photos   []Photo
	voice    *VoiceNote
	recorder *Recorder
	closed   bool
}

// NewSession 创建采集会话。previews 为 nil 时使用进程内分配器。
func NewSession(previews PreviewAllocator) *Session {
	if previews == nil {
		previews = &memoryPreviews{}
	}
	return &Session{previews: previews}
}

// AddPhotos 将一批照片加入会话。
// 超出剩余槽位的照片被静默丢弃；超过 5MB 的照片被拒绝并在结果中
// 携带 ErrPhotoTooLarge，同批其余照片照常加入。
func (s *Session) AddPhotos(files []PhotoFile) ([]PhotoResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}

	remaining := domain.MaxPhotoCount - len(s.photos)
	if remaining < 0 {
		remaining = 0
	}
	if len(files) > remaining {
		files = files[:remaining]
	}

	results := make([]PhotoResult, 0, len(files))
	for _, file := range files {
		if len(file.Content) > domain.MaxPhotoSize {
			results = append(results, PhotoResult{Filename: file.Filename, Err: ErrPhotoTooLarge})
			continue
		}

		url, release, err := s.previews.Acquire(file.Filename, file.Content)
		if err != nil {
			results = append(results, PhotoResult{Filename: file.Filename, Err: fmt.Errorf("failed to acquire preview: %w", err)})
			continue
		}

		s.photos = append(s.photos, Photo{
			File:    file,
			Preview: newHandle(url, release),
		})
		results = append(results, PhotoResult{Filename: file.Filename, Added: true})
	}

	return results, nil
}

// RemovePhoto 按序号移除照片并释放其预览句柄
func (s *Session) RemovePhoto(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSessionClosed
	}
	if index < 0 || index >= len(s.photos) {
		return fmt.Errorf("photo index %d out of range", index)
	}

	s.photos[index].Preview.Release()
	s.photos = append(s.photos[:index], s.photos[index+1:]...)
	return nil
}

// Photos 返回当前照片列表的副本
func (s *Session) Photos() []Photo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Photo, len(s.photos))
	copy(out, s.photos)
	return out
}

// PreviewURLs 返回照片预览地址，顺序与照片一致
func (s *Session) PreviewURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]string, 0, len(s.photos))
	for _, p := range s.photos {
		urls = append(urls, p.Preview.URL())
	}
	return urls
}

// VoiceNote 返回当前语音留言，没有则为 nil
func (s *Session) VoiceNote() *VoiceNote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.voice
}

// RemoveVoiceNote 丢弃当前语音留言并释放其预览句柄
func (s *Session) RemoveVoiceNote() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropVoiceLocked()
}

// dropVoiceLocked 释放并清除语音留言。调用方必须持有锁。
func (s *Session) dropVoiceLocked() {
	if s.voice != nil {
		s.voice.Preview.Release()
		s.voice = nil
	}
}

// setVoiceNote 录音完成时写入新的语音留言，替换旧留言。
func (s *Session) setVoiceNote(contentType string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.recorder = nil
	if s.closed {
		return ErrSessionClosed
	}

	url, release, err := s.previews.Acquire("voice-note", content)
	if err != nil {
		return fmt.Errorf("failed to acquire voice preview: %w", err)
	}

	// 替换旧语音时先释放其预览
	s.dropVoiceLocked()
	s.voice = &VoiceNote{
		ContentType: contentType,
		Content:     content,
		Preview:     newHandle(url, release),
	}
	return nil
}

// BuildInput 汇总会话内容，生成提交流水线的输入。
func (s *Session) BuildInput(recipientName, message, senderName string) service.CreateLetterInput {
	s.mu.Lock()
	defer s.mu.Unlock()

	input := service.CreateLetterInput{
		RecipientName: recipientName,
		Message:       message,
		SenderName:    senderName,
	}
	for _, p := range s.photos {
		input.Photos = append(input.Photos, service.PhotoUpload{
			Filename:    p.File.Filename,
			ContentType: p.File.ContentType,
			Content:     p.File.Content,
		})
	}
	if s.voice != nil {
		input.VoiceNote = &service.VoiceNoteUpload{
			ContentType: s.voice.ContentType,
			Content:     s.voice.Content,
		}
	}
	return input
}

// Close 结束会话：停止进行中的录音并释放全部预览句柄。
func (s *Session) Close() {
	s.mu.Lock()
	recorder := s.recorder
	s.mu.Unlock()

	// 录音完成回调会再进入会话锁，必须在锁外停止
	if recorder != nil {
		recorder.discard()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	s.closed = true

	for i := range s.photos {
		s.photos[i].Preview.Release()
	}
	s.photos = nil
	s.dropVoiceLocked()
}
