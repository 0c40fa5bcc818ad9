package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateLetter(t *testing.T) {
	var gotRecipient, gotMessage, gotSender string
	var gotPhotos []string
	var gotVoiceType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/letters", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(64<<20))
		gotRecipient = r.FormValue("recipientName")
		gotMessage = r.FormValue("message")
		gotSender = r.FormValue("senderName")

		for _, fh := range r.MultipartForm.File["photos"] {
			f, err := fh.Open()
			require.NoError(t, err)
			content, err := io.ReadAll(f)
			require.NoError(t, err)
			f.Close()
			gotPhotos = append(gotPhotos, string(content))
		}
		if parts := r.MultipartForm.File["voiceNote"]; len(parts) > 0 {
			gotVoiceType = parts[0].Header.Get("Content-Type")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"slug": "luv-a3b2", "id": "letter-1"})
	}))
	defer server.Close()

	c := New(server.URL)

	result, err := c.CreateLetter(context.Background(), CreateLetterRequest{
		RecipientName: "Asha",
		Message:       "I love you",
		SenderName:    "Juma",
		Photos: []Photo{
			{Filename: "a.jpg", ContentType: "image/jpeg", Content: []byte("photo-a")},
			{Filename: "b.jpg", ContentType: "image/jpeg", Content: []byte("photo-b")},
		},
		VoiceNote: &VoiceNote{ContentType: "audio/webm", Content: []byte("voice")},
	})
	require.NoError(t, err)

	assert.Equal(t, "luv-a3b2", result.Slug)
	assert.Equal(t, "letter-1", result.ID)
	assert.Equal(t, "Asha", gotRecipient)
	assert.Equal(t, "I love you", gotMessage)
	assert.Equal(t, "Juma", gotSender)
	assert.Equal(t, []string{"photo-a", "photo-b"}, gotPhotos)
	assert.Equal(t, "audio/webm", gotVoiceType)
}

func TestCreateLetterServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "recipient name is required"})
	}))
	defer server.Close()

	c := New(server.URL)

	_, err := c.CreateLetter(context.Background(), CreateLetterRequest{Message: "hi"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "recipient name is required")
}

func TestGetLetter(t *testing.T) {
	openedAt := time.Date(2026, 2, 14, 12, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/letters/luv-a3b2", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"letter": map[string]interface{}{
				"id":             "letter-1",
				"slug":           "luv-a3b2",
				"recipient_name": "Asha",
				"message":        "I love you",
				"open_count":     2,
				"opened_at":      openedAt,
			},
			"attachments": []map[string]interface{}{
				{"id": "att-1", "letter_id": "letter-1", "file_url": "http://x/1.jpg", "file_type": "image/jpeg", "display_order": 0},
				{"id": "att-2", "letter_id": "letter-1", "file_url": "http://x/voice.webm", "file_type": "audio/webm", "display_order": 999},
			},
		})
	}))
	defer server.Close()

	c := New(server.URL)

	envelope, err := c.GetLetter(context.Background(), "luv-a3b2")
	require.NoError(t, err)

	assert.Equal(t, "Asha", envelope.Letter.RecipientName)
	assert.Equal(t, 2, envelope.Letter.OpenCount)
	require.NotNil(t, envelope.Letter.OpenedAt)
	assert.True(t, envelope.Letter.OpenedAt.Equal(openedAt))
	require.Len(t, envelope.Attachments, 2)
	assert.Equal(t, 999, envelope.Attachments[1].DisplayOrder)
}

func TestGetLetterNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "letter not found"})
	}))
	defer server.Close()

	c := New(server.URL)

	_, err := c.GetLetter(context.Background(), "luv-zzzz")
	assert.ErrorIs(t, err, ErrLetterNotFound)
}

func TestGetLetterContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	c := New(server.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.GetLetter(ctx, "luv-a3b2")
	assert.Error(t, err)
}
