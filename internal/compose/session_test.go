package compose

import (
	"bytes"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nakupenda/backend/internal/domain"
)

// trackingPreviews 记录每个预览句柄的获取与释放次数
type trackingPreviews struct {
	mu       sync.Mutex
	acquired int
	released map[string]int
}

func newTrackingPreviews() *trackingPreviews {
	return &trackingPreviews{released: make(map[string]int)}
}

func (p *trackingPreviews) Acquire(name string, content []byte) (string, func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.acquired++
	url := fmt.Sprintf("preview://%d/%s", p.acquired, name)
	return url, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.released[url]++
	}, nil
}

// leaked 返回已获取但未释放的句柄数；多次释放会使计数为负
func (p *trackingPreviews) leaked() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	released := 0
	for _, n := range p.released {
		released += n
	}
	return p.acquired - released
}

func photoOf(name string, size int) PhotoFile {
	return PhotoFile{
		Filename:    name,
		ContentType: "image/jpeg",
		Content:     bytes.Repeat([]byte{0xAB}, size),
	}
}

func TestAddPhotos(t *testing.T) {
	t.Run("截断超出剩余槽位的照片", func(t *testing.T) {
		s := NewSession(nil)
		defer s.Close()

		files := make([]PhotoFile, 7)
		for i := range files {
			files[i] = photoOf(fmt.Sprintf("p%d.jpg", i), 10)
		}

		results, err := s.AddPhotos(files)
		require.NoError(t, err)

		// 超出上限的两张被静默丢弃，不出现在结果里
		assert.Len(t, results, domain.MaxPhotoCount)
		assert.Len(t, s.Photos(), domain.MaxPhotoCount)
	})

	t.Run("超限照片被拒绝但同批其余照常加入", func(t *testing.T) {
		s := NewSession(nil)
		defer s.Close()

		results, err := s.AddPhotos([]PhotoFile{
			photoOf("ok1.jpg", 10),
			photoOf("big.jpg", domain.MaxPhotoSize+1),
			photoOf("ok2.jpg", 10),
		})
		require.NoError(t, err)

		require.Len(t, results, 3)
		assert.True(t, results[0].Added)
		assert.False(t, results[1].Added)
		assert.ErrorIs(t, results[1].Err, ErrPhotoTooLarge)
		assert.True(t, results[2].Added)

		assert.Len(t, s.Photos(), 2)
	})

	t.Run("恰好5MB的照片可以加入", func(t *testing.T) {
		s := NewSession(nil)
		defer s.Close()

		results, err := s.AddPhotos([]PhotoFile{photoOf("edge.jpg", domain.MaxPhotoSize)})
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.True(t, results[0].Added)
	})

	t.Run("分批加入同样遵守总上限", func(t *testing.T) {
		s := NewSession(nil)
		defer s.Close()

		_, err := s.AddPhotos([]PhotoFile{photoOf("a.jpg", 1), photoOf("b.jpg", 1), photoOf("c.jpg", 1)})
		require.NoError(t, err)

		results, err := s.AddPhotos([]PhotoFile{photoOf("d.jpg", 1), photoOf("e.jpg", 1), photoOf("f.jpg", 1)})
		require.NoError(t, err)

		assert.Len(t, results, 2)
		assert.Len(t, s.Photos(), 5)
	})
}

func TestRemovePhotoReleasesPreview(t *testing.T) {
	previews := newTrackingPreviews()
	s := NewSession(previews)

	_, err := s.AddPhotos([]PhotoFile{photoOf("a.jpg", 1), photoOf("b.jpg", 1)})
	require.NoError(t, err)
	require.Len(t, s.PreviewURLs(), 2)

	require.NoError(t, s.RemovePhoto(0))
	assert.Len(t, s.Photos(), 1)
	assert.Equal(t, "b.jpg", s.Photos()[0].File.Filename)
	assert.Equal(t, 1, previews.leaked())

	assert.Error(t, s.RemovePhoto(5))

	s.Close()
	assert.Equal(t, 0, previews.leaked())
}

func TestVoiceRecording(t *testing.T) {
	t.Run("录音完成后写入会话", func(t *testing.T) {
		s := NewSession(nil)
		defer s.Close()

		rec, err := s.StartRecording("audio/webm")
		require.NoError(t, err)

		rec.Write([]byte("chunk1"))
		rec.Write([]byte("chunk2"))
		require.NoError(t, rec.Stop())

		voice := s.VoiceNote()
		require.NotNil(t, voice)
		assert.Equal(t, "audio/webm", voice.ContentType)
		assert.Equal(t, []byte("chunk1chunk2"), voice.Content)
	})

	t.Run("同时只允许一次录音", func(t *testing.T) {
		s := NewSession(nil)
		defer s.Close()

		rec, err := s.StartRecording("")
		require.NoError(t, err)

		_, err = s.StartRecording("")
		assert.ErrorIs(t, err, ErrRecordingInProgress)

		require.NoError(t, rec.Stop())

		// 结束后可以再次录音
		_, err = s.StartRecording("")
		assert.NoError(t, err)
	})

	t.Run("重复Stop无副作用", func(t *testing.T) {
		s := NewSession(nil)
		defer s.Close()

		rec, err := s.StartRecording("")
		require.NoError(t, err)
		rec.Write([]byte("x"))

		require.NoError(t, rec.Stop())
		require.NoError(t, rec.Stop())

		voice := s.VoiceNote()
		require.NotNil(t, voice)
		assert.Equal(t, []byte("x"), voice.Content)
	})

	t.Run("新录音替换旧留言并释放其预览", func(t *testing.T) {
		previews := newTrackingPreviews()
		s := NewSession(previews)
		defer s.Close()

		rec, err := s.StartRecording("")
		require.NoError(t, err)
		rec.Write([]byte("old"))
		require.NoError(t, rec.Stop())

		rec2, err := s.StartRecording("")
		require.NoError(t, err)
		rec2.Write([]byte("new"))
		require.NoError(t, rec2.Stop())

		voice := s.VoiceNote()
		require.NotNil(t, voice)
		assert.Equal(t, []byte("new"), voice.Content)

		// 只剩新留言的预览未释放
		assert.Equal(t, 1, previews.leaked())
	})

	t.Run("移除留言释放预览", func(t *testing.T) {
		previews := newTrackingPreviews()
		s := NewSession(previews)
		defer s.Close()

		rec, err := s.StartRecording("")
		require.NoError(t, err)
		rec.Write([]byte("v"))
		require.NoError(t, rec.Stop())

		s.RemoveVoiceNote()
		assert.Nil(t, s.VoiceNote())
		assert.Equal(t, 0, previews.leaked())
	})
}

func TestRecorderElapsed(t *testing.T) {
	s := NewSession(nil)
	defer s.Close()

	rec, err := s.StartRecording("")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	assert.Greater(t, rec.Elapsed(), time.Duration(0))
	assert.LessOrEqual(t, rec.Elapsed(), time.Duration(domain.MaxRecordingSeconds)*time.Second)

	require.NoError(t, rec.Stop())
}

func TestBuildInput(t *testing.T) {
	s := NewSession(nil)
	defer s.Close()

	_, err := s.AddPhotos([]PhotoFile{photoOf("a.jpg", 3), photoOf("b.jpg", 4)})
	require.NoError(t, err)

	rec, err := s.StartRecording("audio/ogg")
	require.NoError(t, err)
	rec.Write([]byte("voice"))
	require.NoError(t, rec.Stop())

	input := s.BuildInput("Asha", "I love you", "Juma")

	assert.Equal(t, "Asha", input.RecipientName)
	assert.Equal(t, "I love you", input.Message)
	assert.Equal(t, "Juma", input.SenderName)
	require.Len(t, input.Photos, 2)
	assert.Equal(t, "a.jpg", input.Photos[0].Filename)
	require.NotNil(t, input.VoiceNote)
	assert.Equal(t, "audio/ogg", input.VoiceNote.ContentType)
	assert.Equal(t, []byte("voice"), input.VoiceNote.Content)
}

func TestCloseReleasesEverything(t *testing.T) {
	previews := newTrackingPreviews()
	s := NewSession(previews)

	_, err := s.AddPhotos([]PhotoFile{photoOf("a.jpg", 1), photoOf("b.jpg", 1), photoOf("c.jpg", 1)})
	require.NoError(t, err)

	rec, err := s.StartRecording("")
	require.NoError(t, err)
	rec.Write([]byte("v"))
	require.NoError(t, rec.Stop())

	s.Close()

	assert.Equal(t, 0, previews.leaked())

	// 关闭后的操作全部拒绝
	_, err = s.AddPhotos([]PhotoFile{photoOf("d.jpg", 1)})
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = s.StartRecording("")
	assert.ErrorIs(t, err, ErrSessionClosed)

	// 重复关闭无副作用
	s.Close()
	assert.Equal(t, 0, previews.leaked())
}
