package memory

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nakupenda/backend/internal/domain"
	"nakupenda/backend/internal/storage"
)

func newLetter(slug string) *domain.Letter {
	return &domain.Letter{
		ID:            uuid.NewString(),
		Slug:          slug,
		RecipientName: "Asha",
		Message:       "I love you",
		CreatedAt:     time.Now().UTC(),
	}
}

func TestStore_SaveAndGetLetter(t *testing.T) {
	store := NewStore()

	letter := newLetter("luv-a1b2")
	require.NoError(t, store.SaveLetter(letter))

	got, err := store.GetLetterBySlug("luv-a1b2")
	require.NoError(t, err)
	assert.Equal(t, letter.ID, got.ID)
	assert.Equal(t, "Asha", got.RecipientName)
	assert.Equal(t, 0, got.OpenCount)
	assert.Nil(t, got.OpenedAt)
}

func TestStore_GetLetterBySlug_NotFound(t *testing.T) {
	store := NewStore()

	_, err := store.GetLetterBySlug("xo-zzzz")
	assert.ErrorIs(t, err, storage.ErrLetterNotFound)
}

func TestStore_SaveLetter_SlugConflict(t *testing.T) {
	store := NewStore()

	require.NoError(t, store.SaveLetter(newLetter("hi-1234")))
	err := store.SaveLetter(newLetter("hi-1234"))
	assert.ErrorIs(t, err, storage.ErrSlugConflict)
}

func TestStore_SaveAttachment_RequiresLetter(t *testing.T) {
	store := NewStore()

	err := store.SaveAttachment(&domain.LetterAttachment{
		ID:       uuid.NewString(),
		LetterID: uuid.NewString(),
	})
	assert.ErrorIs(t, err, storage.ErrLetterNotFound)
}

func TestStore_ListAttachments_OrderedByDisplayOrder(t *testing.T) {
	store := NewStore()

	letter := newLetter("4u-ab12")
	require.NoError(t, store.SaveLetter(letter))

	// 乱序写入：语音（999）先写，照片后写
	orders := []int{domain.VoiceNoteDisplayOrder, 2, 0, 1}
	for _, order := range orders {
		require.NoError(t, store.SaveAttachment(&domain.LetterAttachment{
			ID:           uuid.NewString(),
			LetterID:     letter.ID,
			FileURL:      "http://example.com/f",
			DisplayOrder: order,
		}))
	}

	attachments, err := store.ListAttachments(letter.ID)
	require.NoError(t, err)
	require.Len(t, attachments, 4)

	got := make([]int, 0, len(attachments))
	for _, att := range attachments {
		got = append(got, att.DisplayOrder)
	}
	assert.Equal(t, []int{0, 1, 2, domain.VoiceNoteDisplayOrder}, got)
	assert.True(t, attachments[3].IsVoiceNote())
}

func TestStore_RecordOpen_CountAndFirstOpen(t *testing.T) {
	store := NewStore()

	letter := newLetter("hey-9x8y")
	require.NoError(t, store.SaveLetter(letter))

	first := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordOpen(letter.ID, first))

	got, err := store.GetLetterBySlug(letter.Slug)
	require.NoError(t, err)
	assert.Equal(t, 1, got.OpenCount)
	require.NotNil(t, got.OpenedAt)
	assert.Equal(t, first, *got.OpenedAt)

	// 第二次打开：计数 +1，opened_at 不变
	second := first.Add(time.Hour)
	require.NoError(t, store.RecordOpen(letter.ID, second))

	got, err = store.GetLetterBySlug(letter.Slug)
	require.NoError(t, err)
	assert.Equal(t, 2, got.OpenCount)
	assert.Equal(t, first, *got.OpenedAt)
}

func TestStore_RecordOpen_UnknownLetter(t *testing.T) {
	store := NewStore()

	err := store.RecordOpen(uuid.NewString(), time.Now())
	assert.ErrorIs(t, err, storage.ErrLetterNotFound)
}

func TestStore_IncrementRateLimit(t *testing.T) {
	store := NewStore()

	for want := int64(1); want <= 3; want++ {
		got, err := store.IncrementRateLimit("ip:1.2.3.4", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// 窗口过期后计数重置
	store.rateLimits["ip:1.2.3.4"].ExpiresAt = time.Now().Add(-time.Second)
	got, err := store.IncrementRateLimit("ip:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)
}
