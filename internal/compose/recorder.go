package compose

import (
	"bytes"
	"sync"
	"time"

	"nakupenda/backend/internal/domain"
)

// Recorder 一次语音录制。通过 Write 追加音频数据，Stop 结束并把
// 结果写回会话；达到时长上限时自动结束。
type Recorder struct {
	session     *Session
	contentType string
	maxDuration time.Duration

	mu      sync.Mutex
	buf     bytes.Buffer
	started time.Time
	timer   *time.Timer
	done    bool
}

// StartRecording 开始录音。同一会话同时只允许一次录音。
// contentType 为空时按 audio/webm 处理。
func (s *Session) StartRecording(contentType string) (*Recorder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.recorder != nil {
		return nil, ErrRecordingInProgress
	}

	if contentType == "" {
		contentType = "audio/webm"
	}

	r := &Recorder{
		session:     s,
		contentType: contentType,
		maxDuration: time.Duration(domain.MaxRecordingSeconds) * time.Second,
		started:     time.Now(),
	}
	// 时长上限到达时自动停止
	r.timer = time.AfterFunc(r.maxDuration, func() { _ = r.Stop() })

	s.recorder = r
	return r, nil
}

// Write 追加一段音频数据。录音结束后的写入被忽略。
func (r *Recorder) Write(chunk []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return
	}
	r.buf.Write(chunk)
}

// Elapsed 返回已录制的时长
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return 0
	}
	elapsed := time.Since(r.started)
	if elapsed > r.maxDuration {
		return r.maxDuration
	}
	return elapsed
}

// Stop 结束录音并把结果作为语音留言写入会话，替换已有留言。
// 重复调用无副作用。
func (r *Recorder) Stop() error {
	content, ok := r.finish()
	if !ok {
		return nil
	}
	return r.session.setVoiceNote(r.contentType, content)
}

// discard 结束录音但不写回会话，用于会话关闭。
func (r *Recorder) discard() {
	r.finish()

	r.session.mu.Lock()
	if r.session.recorder == r {
		r.session.recorder = nil
	}
	r.session.mu.Unlock()
}

// finish 标记录音结束并取出缓冲内容。只有第一次调用返回 ok。
func (r *Recorder) finish() ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.done {
		return nil, false
	}
	r.done = true
	r.timer.Stop()
	return r.buf.Bytes(), true
}
