package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"
)

// ErrLetterNotFound slug 没有对应的信件
var ErrLetterNotFound = errors.New("letter not found")

// Client 信件 API 的 HTTP 客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New 创建客户端。baseURL 形如 "https://nakupenda.co.tz"。
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// NewWithHTTPClient 使用自定义 http.Client 创建客户端
func NewWithHTTPClient(baseURL string, httpClient *http.Client) *Client {
	c := New(baseURL)
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c
}

// Photo 一张待提交的照片
type Photo struct {
	Filename    string
	ContentType string
	Content     []byte
}

// VoiceNote 一段待提交的语音留言
type VoiceNote struct {
	ContentType string
	Content     []byte
}

// CreateLetterRequest 创建信件的请求内容
type CreateLetterRequest struct {
	RecipientName string
	Message       string
	SenderName    string
	Photos        []Photo
	VoiceNote     *VoiceNote
}

// CreateLetterResult 创建成功的响应
type CreateLetterResult struct {
	Slug string `json:"slug"`
	ID   string `json:"id"`
}

// Letter 信件数据
type Letter struct {
	ID            string     `json:"id"`
	Slug          string     `json:"slug"`
	RecipientName string     `json:"recipient_name"`
	Message       string     `json:"message"`
	SenderName    *string    `json:"sender_name"`
	CreatedAt     time.Time  `json:"created_at"`
	OpenedAt      *time.Time `json:"opened_at"`
	OpenCount     int        `json:"open_count"`
}

// Attachment 信件附件元数据
type Attachment struct {
	ID           string    `json:"id"`
	LetterID     string    `json:"letter_id"`
	FileURL      string    `json:"file_url"`
	FileType     string    `json:"file_type"`
	DisplayOrder int       `json:"display_order"`
	CreatedAt    time.Time `json:"created_at"`
}

// LetterEnvelope 读取信件的响应
type LetterEnvelope struct {
	Letter      Letter       `json:"letter"`
	Attachments []Attachment `json:"attachments"`
}

type apiError struct {
	Error string `json:"error"`
}

// CreateLetter 以 multipart 表单提交一封信
func (c *Client) CreateLetter(ctx context.Context, req CreateLetterRequest) (*CreateLetterResult, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if err := writer.WriteField("recipientName", req.RecipientName); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	if err := writer.WriteField("message", req.Message); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}
	if req.SenderName != "" {
		if err := writer.WriteField("senderName", req.SenderName); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}

	for _, photo := range req.Photos {
		if err := writeFilePart(writer, "photos", photo.Filename, photo.ContentType, photo.Content); err != nil {
			return nil, err
		}
	}
	if req.VoiceNote != nil {
		if err := writeFilePart(writer, "voiceNote", "voice-note", req.VoiceNote.ContentType, req.VoiceNote.Content); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/letters", body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, decodeError(resp)
	}

	var result CreateLetterResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// GetLetter 按 slug 读取信件与附件。未知 slug 返回 ErrLetterNotFound。
func (c *Client) GetLetter(ctx context.Context, slug string) (*LetterEnvelope, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/letters/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrLetterNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}

	var envelope LetterEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &envelope, nil
}

// writeFilePart 写入一个携带 Content-Type 的文件分部
func writeFilePart(writer *multipart.Writer, field, filename, contentType string, content []byte) error {
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	part, err := writer.CreatePart(header)
	if err != nil {
		return fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		return fmt.Errorf("failed to write form part: %w", err)
	}
	return nil
}

// decodeError 把错误响应转换为 error
func decodeError(resp *http.Response) error {
	var apiErr apiError
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
