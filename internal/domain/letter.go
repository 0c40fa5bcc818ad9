package domain

import "time"

// 附件相关限制（与前端采集层保持一致）
const (
	// MaxPhotoCount 每封信最多可附的照片数量
	MaxPhotoCount = 5
	// MaxPhotoSize 单张照片大小上限（5 MiB）
	MaxPhotoSize = 5 * 1024 * 1024
	// MaxVoiceNoteSize 语音留言大小上限（10 MiB）
	MaxVoiceNoteSize = 10 * 1024 * 1024
	// MaxRecordingSeconds 语音录制时长上限（秒）
	MaxRecordingSeconds = 60
	// VoiceNoteDisplayOrder 语音附件的排序哨兵值，保证永远排在照片之后
	VoiceNoteDisplayOrder = 999
)

// Letter 表示一封待分享的信件。
// slug 是唯一对外暴露的路由键，内部 ID 不作为路由令牌。
type Letter struct {
	ID            string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Slug          string     `json:"slug" gorm:"type:varchar(12);uniqueIndex;not null"` // 短链接标识，如 "luv-x7k2"
	RecipientName string     `json:"recipient_name" gorm:"type:varchar(255);not null"`
	Message       string     `json:"message" gorm:"type:text;not null"` // 保留换行符
	SenderName    *string    `json:"sender_name" gorm:"type:varchar(255)"`
	CreatedAt     time.Time  `json:"created_at"`
	OpenedAt      *time.Time `json:"opened_at"`                          // 首次打开时间，只写一次
	OpenCount     int        `json:"open_count" gorm:"default:0"`        // 每次成功读取都 +1
}

// LetterAttachment 表示信件附件（照片或语音）。
// 附件严格在信件落库之后创建，不存在孤儿附件。
type LetterAttachment struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	LetterID     string    `json:"letter_id" gorm:"type:varchar(36);index;not null"`
	FileURL      string    `json:"file_url" gorm:"type:varchar(500);not null"` // 可公开访问的 URL
	FileType     string    `json:"file_type" gorm:"type:varchar(100)"`         // MIME 类型，客户端据此区分图片/音频
	DisplayOrder int       `json:"display_order"`                              // 照片用提交序号，语音固定 999
	CreatedAt    time.Time `json:"created_at"`
}

// IsVoiceNote 判断附件是否为语音留言。
func (a *LetterAttachment) IsVoiceNote() bool {
	return a.DisplayOrder == VoiceNoteDisplayOrder
}
