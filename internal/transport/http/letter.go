package httptransport

import (
	"errors"
	"io"
	"mime/multipart"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/service"
	"nakupenda/backend/internal/storage"
)

type createLetterResponse struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
}

type letterResponse struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	RecipientName string     `json:"recipient_name"`
	Message       string     `json:"message"`
	SenderName    *string    `json:"sender_name"`
	CreatedAt     time.Time  `json:"created_at"`
	OpenedAt      *time.Time `json:"opened_at"`
	OpenCount     int        `json:"open_count"`
}

type attachmentResponse struct {
	ID           string    `json:"id"`
	LetterID     string    `json:"letter_id"`
	FileURL      string    `json:"file_url"`
	FileType     string    `json:"file_type"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

type getLetterResponse struct {
	Letter      letterResponse       `json:"letter"`
	Attachments []attachmentResponse `json:"attachments"`
}

// createLetter godoc
// @Summary 创建信件
// @Description 以 multipart 表单创建一封信，照片与语音留言按尽力而为处理
// @Tags Letters
// @Accept multipart/form-data
// @Produce json
// @Param recipientName formData string true "收信人"
// @Param message formData string true "信件正文"
// @Param senderName formData string false "署名"
// @Param photos formData file false "照片（可多张）"
// @Param voiceNote formData file false "语音留言"
// @Success 201 {object} createLetterResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/letters [post]
func (h *Handler) createLetter(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		BadRequest(c, MsgInvalidForm)
		return
	}

	input := service.CreateLetterInput{
		RecipientName: c.PostForm("recipientName"),
		Message:       c.PostForm("message"),
		SenderName:    c.PostForm("senderName"),
	}

	for _, fh := range form.File["photos"] {
		content, err := readFilePart(fh)
		if err != nil {
			// 读取失败按上传失败处理：跳过该照片，不影响整个请求
			h.logger.Warn("failed to read photo part",
				zap.String("filename", fh.Filename),
				zap.Error(err),
			)
			continue
		}
		input.Photos = append(input.Photos, service.PhotoUpload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Content:     content,
		})
	}

	if parts := form.File["voiceNote"]; len(parts) > 0 {
		content, err := readFilePart(parts[0])
		if err != nil {
			h.logger.Warn("failed to read voice note part", zap.Error(err))
		} else {
			input.VoiceNote = &service.VoiceNoteUpload{
				ContentType: parts[0].Header.Get("Content-Type"),
				Content:     content,
			}
		}
	}

	result, err := h.letters.Create(input)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRecipientRequired), errors.Is(err, service.ErrMessageRequired):
			BadRequest(c, GetErrorMessage(err))
		default:
			InternalError(c, MsgLetterCreateFailed)
		}
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLetterCreated()
		for _, outcome := range result.Outcomes {
			switch {
			case outcome.Err != nil:
				h.metrics.RecordAttachmentFailure(outcome.Kind)
			case outcome.Skipped:
				h.metrics.RecordAttachmentSkipped(outcome.Kind)
			case outcome.Kind == "photo":
				h.metrics.RecordAttachmentSaved(outcome.Kind, int64(len(input.Photos[outcome.Index].Content)))
			default:
				h.metrics.RecordAttachmentSaved(outcome.Kind, int64(len(input.VoiceNote.Content)))
			}
		}
	}

	Created(c, createLetterResponse{
		Slug: result.Letter.Slug,
		ID:   result.Letter.ID,
	})
}

// getLetter godoc
// @Summary 读取信件
// @Description 按 slug 读取信件与附件并记录一次打开
// @Tags Letters
// @Produce json
// @Param slug path string true "信件链接标识"
// @Success 200 {object} getLetterResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /api/letters/{slug} [get]
func (h *Handler) getLetter(c *gin.Context) {
	slug := c.Param("slug")

	letter, attachments, err := h.letters.Get(slug)
	if err != nil {
		if errors.Is(err, storage.ErrLetterNotFound) {
			if h.metrics != nil {
				h.metrics.RecordLetterMissed()
			}
			NotFound(c, MsgLetterNotFound)
			return
		}
		InternalError(c, MsgLetterGetFailed)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordLetterOpen(letter.OpenCount == 1)
	}

	Success(c, toGetLetterResponse(letter, attachments))
}

func toGetLetterResponse(letter *domain.Letter, attachments []domain.LetterAttachment) getLetterResponse {
	items := make([]attachmentResponse, 0, len(attachments))
	for _, att := range attachments {
		items = append(items, attachmentResponse{
			ID:           att.ID,
			LetterID:     att.LetterID,
			FileURL:      att.FileURL,
			FileType:     att.FileType,
			DisplayOrder: att.DisplayOrder,
			CreatedAt:    att.CreatedAt,
		})
	}

	return getLetterResponse{
		Letter: letterResponse{
			ID:            letter.ID,
			Slug:          letter.Slug,
			RecipientName: letter.RecipientName,
			Message:       letter.Message,
			SenderName:    letter.SenderName,
			CreatedAt:     letter.CreatedAt,
			OpenedAt:      letter.OpenedAt,
			OpenCount:     letter.OpenCount,
		},
		Attachments: items,
	}
}

func readFilePart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return io.ReadAll(f)
}
