package service

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/storage"
)

var (
	// ErrRecipientRequired 收件人姓名缺失
	ErrRecipientRequired = errors.New("recipient name is required")
	// ErrMessageRequired 信件正文缺失
	ErrMessageRequired = errors.New("message is required")
)

// BlobStore 附件二进制存储接口
type BlobStore interface {
	// Save 按对象键写入内容，返回公开访问 URL。
	// MIME 类型由附件记录承载，存储层只处理二进制内容。
	Save(key string, content []byte) (string, error)
}

// LetterService 封装信件创建与读取的业务逻辑。
type LetterService struct {
	repo  storage.LetterRepository
	blobs BlobStore
	log   *zap.Logger
}

// NewLetterService 创建信件业务服务。
func NewLetterService(repo storage.LetterRepository, blobs BlobStore, log *zap.Logger) *LetterService {
	if log == nil {
		log = zap.NewNop()
	}
	return &LetterService{
		repo:  repo,
		blobs: blobs,
		log:   log,
	}
}

// PhotoUpload 一张待上传的照片
type PhotoUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// VoiceNoteUpload 一段待上传的语音留言
type VoiceNoteUpload struct {
	ContentType string
	Content     []byte
}

// CreateLetterInput 定义创建信件所需的输入。
type CreateLetterInput struct {
	RecipientName string
	Message       string
	SenderName    string
	Photos        []PhotoUpload
	VoiceNote     *VoiceNoteUpload
}

// AttachmentOutcome 单个附件的处理结果，仅用于日志与观测，不影响请求结果。
type AttachmentOutcome struct {
	Kind    string // "photo" 或 "voice_note"
	Index   int    // 照片提交序号；语音固定 0
	FileURL string // 成功时的公开 URL
	Skipped bool   // 因大小/空内容被跳过
	Err     error  // 上传或落库失败原因
}

// CreateLetterResult 创建信件的返回结果。
type CreateLetterResult struct {
	Letter   *domain.Letter
	Outcomes []AttachmentOutcome
}

// Create 执行信件创建流水线。
//
// 信件落库是唯一决定成败的步骤：落库失败则整个请求失败且不再处理附件；
// 落库成功后附件逐个尽力处理，单个附件失败只记录、不中断、不影响返回。
// 整个流水线没有事务包裹，信件在落库成功的瞬间即持久。
func (s *LetterService) Create(input CreateLetterInput) (*CreateLetterResult, error) {
	if input.RecipientName == "" {
		return nil, ErrRecipientRequired
	}
	if input.Message == "" {
		return nil, ErrMessageRequired
	}

	letter := &domain.Letter{
		ID:            uuid.NewString(),
		Slug:          domain.GenerateSlug(),
		RecipientName: input.RecipientName,
		Message:       input.Message,
		CreatedAt:     time.Now().UTC(),
	}
	if input.SenderName != "" {
		letter.SenderName = &input.SenderName
	}

	if err := s.repo.SaveLetter(letter); err != nil {
		return nil, fmt.Errorf("failed to create letter: %w", err)
	}

	s.log.Info("letter created",
		zap.String("letter_id", letter.ID),
		zap.String("slug", letter.Slug),
		zap.Int("photos", len(input.Photos)),
		zap.Bool("voice_note", input.VoiceNote != nil),
	)

	outcomes := make([]AttachmentOutcome, 0, len(input.Photos)+1)
	for i, photo := range input.Photos {
		outcomes = append(outcomes, s.processPhoto(letter.ID, i, photo))
	}
	if input.VoiceNote != nil {
		outcomes = append(outcomes, s.processVoiceNote(letter.ID, *input.VoiceNote))
	}

	return &CreateLetterResult{
		Letter:   letter,
		Outcomes: outcomes,
	}, nil
}

// processPhoto 处理单张照片：超限或为空静默跳过，上传/落库失败只记录。
func (s *LetterService) processPhoto(letterID string, index int, photo PhotoUpload) AttachmentOutcome {
	outcome := AttachmentOutcome{Kind: "photo", Index: index}

	if len(photo.Content) == 0 || len(photo.Content) > domain.MaxPhotoSize {
		s.log.Warn("photo skipped",
			zap.String("letter_id", letterID),
			zap.Int("index", index),
			zap.Int("size", len(photo.Content)),
		)
		outcome.Skipped = true
		return outcome
	}

	contentType := photo.ContentType
	if contentType == "" {
		contentType = "image/jpeg"
	}

	key := fmt.Sprintf("%s/%d_%d.%s", letterID, time.Now().UnixMilli(), index, photoExtension(photo.Filename))

	fileURL, err := s.blobs.Save(key, photo.Content)
	if err != nil {
		s.log.Error("photo upload failed",
			zap.String("letter_id", letterID),
			zap.Int("index", index),
			zap.Error(err),
		)
		outcome.Err = err
		return outcome
	}

	if err := s.saveAttachment(letterID, fileURL, contentType, index); err != nil {
		s.log.Error("photo attachment record failed",
			zap.String("letter_id", letterID),
			zap.Int("index", index),
			zap.Error(err),
		)
		outcome.Err = err
		return outcome
	}

	outcome.FileURL = fileURL
	return outcome
}

// processVoiceNote 处理语音留言：对象键是确定性的（不含时间戳），排序固定 999。
func (s *LetterService) processVoiceNote(letterID string, voice VoiceNoteUpload) AttachmentOutcome {
	outcome := AttachmentOutcome{Kind: "voice_note"}

	if len(voice.Content) == 0 || len(voice.Content) > domain.MaxVoiceNoteSize {
		s.log.Warn("voice note skipped",
			zap.String("letter_id", letterID),
			zap.Int("size", len(voice.Content)),
		)
		outcome.Skipped = true
		return outcome
	}

	contentType := voice.ContentType
	if contentType == "" {
		contentType = "audio/webm"
	}

	key := fmt.Sprintf("%s/voice-note.%s", letterID, VoiceNoteExtension(contentType))

	fileURL, err := s.blobs.Save(key, voice.Content)
	if err != nil {
		s.log.Error("voice note upload failed",
			zap.String("letter_id", letterID),
			zap.Error(err),
		)
		outcome.Err = err
		return outcome
	}

	if err := s.saveAttachment(letterID, fileURL, contentType, domain.VoiceNoteDisplayOrder); err != nil {
		s.log.Error("voice note attachment record failed",
			zap.String("letter_id", letterID),
			zap.Error(err),
		)
		outcome.Err = err
		return outcome
	}

	outcome.FileURL = fileURL
	return outcome
}

func (s *LetterService) saveAttachment(letterID, fileURL, fileType string, displayOrder int) error {
	return s.repo.SaveAttachment(&domain.LetterAttachment{
		ID:           uuid.NewString(),
		LetterID:     letterID,
		FileURL:      fileURL,
		FileType:     fileType,
		DisplayOrder: displayOrder,
		CreatedAt:    time.Now().UTC(),
	})
}

// Get 按 slug 读取信件与附件，并记录一次打开。
//
// 打开计数是尽力而为的副作用：计数失败只记录日志，读取仍然成功。
func (s *LetterService) Get(slug string) (*domain.Letter, []domain.LetterAttachment, error) {
	letter, err := s.repo.GetLetterBySlug(slug)
	if err != nil {
		return nil, nil, err
	}

	attachments, err := s.repo.ListAttachments(letter.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	now := time.Now().UTC()
	if err := s.repo.RecordOpen(letter.ID, now); err != nil {
		// 计数失败不能掩盖成功的读取
		s.log.Warn("failed to record letter open",
			zap.String("letter_id", letter.ID),
			zap.Error(err),
		)
	} else {
		letter.OpenCount++
		if letter.OpenedAt == nil {
			letter.OpenedAt = &now
		}
	}

	return letter, attachments, nil
}

// photoExtension 从原始文件名推导存储扩展名，缺失时默认 jpg。
func photoExtension(filename string) string {
	ext := strings.TrimPrefix(filepath.Ext(filename), ".")
	if ext == "" {
		return "jpg"
	}
	return strings.ToLower(ext)
}

// VoiceNoteExtension 按 MIME 类型推导语音文件扩展名。
func VoiceNoteExtension(mimeType string) string {
	switch {
	case strings.Contains(mimeType, "mp4"), strings.Contains(mimeType, "m4a"):
		return "mp4"
	case strings.Contains(mimeType, "ogg"):
		return "ogg"
	case strings.Contains(mimeType, "wav"):
		return "wav"
	default:
		return "webm"
	}
}
