package service

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/storage"
	"nakupenda/backend/internal/storage/memory"
)

// fakeBlobStore 内存附件存储，可按对象键注入上传失败。
type fakeBlobStore struct {
	objects  map[string][]byte
	failKeys []string // 包含这些子串的键上传失败
	saves    int
}

func newFakeBlobStore(failKeys ...string) *fakeBlobStore {
	return &fakeBlobStore{
		objects:  make(map[string][]byte),
		failKeys: failKeys,
	}
}

func (f *fakeBlobStore) Save(key string, content []byte) (string, error) {
	f.saves++
	for _, fail := range f.failKeys {
		if strings.Contains(key, fail) {
			return "", errors.New("injected upload failure")
		}
	}
	f.objects[key] = content
	return "https://cdn.example.com/" + key, nil
}

func newService(t *testing.T) (*LetterService, *memory.Store, *fakeBlobStore) {
	t.Helper()
	store := memory.NewStore()
	blobs := newFakeBlobStore()
	return NewLetterService(store, blobs, nil), store, blobs
}

func TestCreate_RequiredFields(t *testing.T) {
	svc, _, _ := newService(t)

	_, err := svc.Create(CreateLetterInput{Message: "hi"})
	assert.ErrorIs(t, err, ErrRecipientRequired)

	_, err = svc.Create(CreateLetterInput{RecipientName: "Asha"})
	assert.ErrorIs(t, err, ErrMessageRequired)
}

func TestCreate_ReturnsSlugAndID(t *testing.T) {
	svc, _, _ := newService(t)

	result, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "I love you",
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^(luv|xo|4u|hey|hi)-[0-9a-z]{4}$`), result.Letter.Slug)
	assert.NotEmpty(t, result.Letter.ID)
	assert.Empty(t, result.Outcomes)
}

func TestCreate_RoundTrip(t *testing.T) {
	svc, _, _ := newService(t)

	result, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "line one\nline two",
		SenderName:    "Juma",
	})
	require.NoError(t, err)

	letter, attachments, err := svc.Get(result.Letter.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Asha", letter.RecipientName)
	assert.Equal(t, "line one\nline two", letter.Message)
	require.NotNil(t, letter.SenderName)
	assert.Equal(t, "Juma", *letter.SenderName)
	assert.Empty(t, attachments)
}

func TestCreate_AttachmentOrdering(t *testing.T) {
	svc, store, _ := newService(t)

	result, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "with media",
		Photos: []PhotoUpload{
			{Filename: "a.jpg", ContentType: "image/jpeg", Content: []byte("a")},
			{Filename: "b.png", ContentType: "image/png", Content: []byte("b")},
			{Filename: "c.jpg", ContentType: "image/jpeg", Content: []byte("c")},
		},
		VoiceNote: &VoiceNoteUpload{ContentType: "audio/webm", Content: []byte("voice")},
	})
	require.NoError(t, err)

	attachments, err := store.ListAttachments(result.Letter.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 4)

	orders := make([]int, 0, 4)
	for _, att := range attachments {
		orders = append(orders, att.DisplayOrder)
	}
	assert.Equal(t, []int{0, 1, 2, domain.VoiceNoteDisplayOrder}, orders)
	assert.Equal(t, "audio/webm", attachments[3].FileType)
}

func TestCreate_PartialUploadFailureTolerated(t *testing.T) {
	store := memory.NewStore()
	// 第二张照片（序号 1）上传失败
	blobs := newFakeBlobStore("_1.")
	svc := NewLetterService(store, blobs, nil)

	result, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "partial",
		Photos: []PhotoUpload{
			{Filename: "a.jpg", Content: []byte("a")},
			{Filename: "b.jpg", Content: []byte("b")},
			{Filename: "c.jpg", Content: []byte("c")},
		},
		VoiceNote: &VoiceNoteUpload{Content: []byte("voice")},
	})
	require.NoError(t, err, "单个附件失败不应影响创建结果")

	attachments, err := store.ListAttachments(result.Letter.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 3) // 两张照片 + 语音

	orders := make([]int, 0, 3)
	for _, att := range attachments {
		orders = append(orders, att.DisplayOrder)
	}
	assert.Equal(t, []int{0, 2, domain.VoiceNoteDisplayOrder}, orders)

	require.Len(t, result.Outcomes, 4)
	assert.Error(t, result.Outcomes[1].Err)
	assert.NoError(t, result.Outcomes[0].Err)
}

func TestCreate_PhotoSizeBoundary(t *testing.T) {
	svc, store, _ := newService(t)

	exact := make([]byte, domain.MaxPhotoSize)
	oversized := make([]byte, domain.MaxPhotoSize+1)

	result, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "boundary",
		Photos: []PhotoUpload{
			{Filename: "exact.jpg", Content: exact},
			{Filename: "big.jpg", Content: oversized},
			{Filename: "empty.jpg", Content: nil},
		},
	})
	require.NoError(t, err)

	attachments, err := store.ListAttachments(result.Letter.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 1, "恰好 5 MiB 保留，超限与空文件跳过")
	assert.Equal(t, 0, attachments[0].DisplayOrder)

	assert.False(t, result.Outcomes[0].Skipped)
	assert.True(t, result.Outcomes[1].Skipped)
	assert.True(t, result.Outcomes[2].Skipped)
}

func TestCreate_VoiceNoteSizeBoundary(t *testing.T) {
	svc, store, _ := newService(t)

	result, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "voice boundary",
		VoiceNote:     &VoiceNoteUpload{Content: make([]byte, domain.MaxVoiceNoteSize)},
	})
	require.NoError(t, err)
	attachments, _ := store.ListAttachments(result.Letter.ID)
	assert.Len(t, attachments, 1)

	result, err = svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "voice boundary",
		VoiceNote:     &VoiceNoteUpload{Content: make([]byte, domain.MaxVoiceNoteSize+1)},
	})
	require.NoError(t, err)
	attachments, _ = store.ListAttachments(result.Letter.ID)
	assert.Empty(t, attachments, "超限语音被静默跳过")
	assert.True(t, result.Outcomes[0].Skipped)
}

func TestCreate_VoiceNoteKeyDeterministic(t *testing.T) {
	store := memory.NewStore()
	blobs := newFakeBlobStore()
	svc := NewLetterService(store, blobs, nil)

	result, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "voice",
		VoiceNote:     &VoiceNoteUpload{ContentType: "audio/ogg", Content: []byte("v")},
	})
	require.NoError(t, err)

	key := result.Letter.ID + "/voice-note.ogg"
	_, ok := blobs.objects[key]
	assert.True(t, ok, "语音对象键应为 <letterID>/voice-note.<ext>")
}

func TestCreate_LetterInsertFailureSkipsAttachments(t *testing.T) {
	blobs := newFakeBlobStore()
	failing := &failingRepo{saveLetterErr: errors.New("db down")}
	svc := NewLetterService(failing, blobs, nil)

	_, err := svc.Create(CreateLetterInput{
		RecipientName: "Asha",
		Message:       "x",
		Photos:        []PhotoUpload{{Filename: "a.jpg", Content: []byte("a")}},
	})
	require.Error(t, err)
	assert.Zero(t, blobs.saves, "信件落库失败后不应尝试任何附件上传")
}

func TestGet_NotFound(t *testing.T) {
	svc, _, _ := newService(t)

	_, _, err := svc.Get("luv-none")
	assert.ErrorIs(t, err, storage.ErrLetterNotFound)
}

func TestGet_OpenCounting(t *testing.T) {
	svc, _, _ := newService(t)

	result, err := svc.Create(CreateLetterInput{RecipientName: "Asha", Message: "I love you"})
	require.NoError(t, err)

	letter, _, err := svc.Get(result.Letter.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, letter.OpenCount)
	require.NotNil(t, letter.OpenedAt)
	firstOpened := *letter.OpenedAt

	for i := 2; i <= 5; i++ {
		letter, _, err = svc.Get(result.Letter.Slug)
		require.NoError(t, err)
		assert.Equal(t, i, letter.OpenCount)
		require.NotNil(t, letter.OpenedAt)
		assert.Equal(t, firstOpened, *letter.OpenedAt, "opened_at 只写一次")
	}
}

func TestGet_RecordOpenFailureDoesNotMaskRead(t *testing.T) {
	repo := &failingRepo{
		letter:        &domain.Letter{ID: "l1", Slug: "xo-ab12", RecipientName: "Asha", Message: "hi"},
		recordOpenErr: errors.New("counter update failed"),
	}
	svc := NewLetterService(repo, newFakeBlobStore(), nil)

	letter, attachments, err := svc.Get("xo-ab12")
	require.NoError(t, err)
	assert.Equal(t, "Asha", letter.RecipientName)
	assert.Equal(t, 0, letter.OpenCount, "计数失败时返回读取到的原值")
	assert.Empty(t, attachments)
}

func TestVoiceNoteExtension(t *testing.T) {
	cases := map[string]string{
		"audio/mp4":        "mp4",
		"audio/x-m4a":      "mp4", // m4a 统一映射到 mp4
		"audio/ogg":        "ogg",
		"audio/wav":        "wav",
		"audio/webm":       "webm",
		"application/blob": "webm",
		"":                 "webm",
	}
	for mimeType, want := range cases {
		assert.Equal(t, want, VoiceNoteExtension(mimeType), "mime %q", mimeType)
	}
}

// failingRepo 可注入失败的信件仓储测试替身。
type failingRepo struct {
	letter        *domain.Letter
	saveLetterErr error
	recordOpenErr error
}

func (r *failingRepo) SaveLetter(letter *domain.Letter) error {
	return r.saveLetterErr
}

func (r *failingRepo) GetLetterBySlug(slug string) (*domain.Letter, error) {
	if r.letter != nil && r.letter.Slug == slug {
		clone := *r.letter
		return &clone, nil
	}
	return nil, storage.ErrLetterNotFound
}

func (r *failingRepo) SaveAttachment(att *domain.LetterAttachment) error {
	return fmt.Errorf("unexpected SaveAttachment call")
}

func (r *failingRepo) ListAttachments(letterID string) ([]domain.LetterAttachment, error) {
	return nil, nil
}

func (r *failingRepo) RecordOpen(letterID string, openedAt time.Time) error {
	return r.recordOpenErr
}
