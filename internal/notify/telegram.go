package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"reclaim/internal/provider"
)

func init() {
	Register("telegram", NewTelegram)
}

// maxAudioBytes is Telegram's bot API upload limit for audio files.
const maxAudioBytes = 50 * 1024 * 1024

// Telegram delivers messages through the Telegram bot API. When an audio
// file is attached it uses sendAudio with the message as caption,
// otherwise sendMessage.
type Telegram struct {
	instanceName string
	botToken     string
	chatID       string
	apiBase      string
	maxRetries   int
	retryDelay   time.Duration

	httpClient *http.Client
}

// NewTelegram builds a Telegram provider from its settings block.
func NewTelegram(instanceName string, cfg provider.Settings) Provider {
	return &Telegram{
		instanceName: instanceName,
		botToken:     cfg.String("bot_token", ""),
		chatID:       cfg.String("chat_id", ""),
		apiBase:      strings.TrimRight(cfg.String("api_base", "https://api.telegram.org"), "/"),
		maxRetries:   cfg.Int("max_retries", 3),
		retryDelay:   time.Duration(cfg.Int("retry_delay_seconds", 2)) * time.Second,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.Int("timeout_seconds", 60)) * time.Second,
		},
	}
}

// Name returns the display name including the instance name.
func (t *Telegram) Name() string {
	return fmt.Sprintf("Telegram (%s)", t.instanceName)
}

// IsConfigured requires a chat id and a token of the bot API shape:
// a numeric bot id, a colon, then the secret.
func (t *Telegram) IsConfigured() bool {
	if strings.TrimSpace(t.chatID) == "" {
		return false
	}
	token := strings.TrimSpace(t.botToken)
	parts := strings.SplitN(token, ":", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return false
	}
	for _, r := range parts[0] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (t *Telegram) methodURL(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", t.apiBase, t.botToken, method)
}

// retryable reports whether the error looks like a transient network
// problem worth another attempt.
func retryable(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "no such host")
}

// doWithRetry runs the request builder up to maxRetries times, backing
// off between attempts. API-level errors are not retried.
func (t *Telegram) doWithRetry(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	var lastErr error
	for attempt := 1; attempt <= t.maxRetries; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}
		resp, err := t.httpClient.Do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !retryable(err) || attempt == t.maxRetries {
			break
		}
		select {
		case <-time.After(t.retryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

type telegramResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

func parseTelegramResponse(resp *http.Response) (telegramResponse, error) {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return telegramResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	var parsed telegramResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return telegramResponse{}, fmt.Errorf("failed to decode response (%d): %s", resp.StatusCode, string(body))
	}
	if !parsed.OK {
		return parsed, fmt.Errorf("Telegram API error %d: %s", resp.StatusCode, parsed.Description)
	}
	return parsed, nil
}

// Send delivers the message. With an attached audio file under the size
// cap it uses sendAudio with the message as caption; otherwise, or when
// the file is oversized or unreadable, it falls back to sendMessage.
func (t *Telegram) Send(ctx context.Context, message, audioPath string) Result {
	if !t.IsConfigured() {
		return Failed("Telegram provider is not configured: bot_token or chat_id missing or malformed")
	}
	if strings.TrimSpace(message) == "" {
		return Failed("message cannot be empty")
	}

	start := time.Now()

	if audioPath != "" {
		info, err := os.Stat(audioPath)
		switch {
		case err != nil:
			// Fall through to a plain message; the audio is a bonus.
		case info.Size() > maxAudioBytes:
			// Same: deliver the text, skip the oversized file.
		default:
			result := t.sendAudio(ctx, message, audioPath)
			result.DeliveryTime = time.Since(start)
			return result
		}
	}

	result := t.sendMessage(ctx, message)
	result.DeliveryTime = time.Since(start)
	return result
}

func (t *Telegram) sendMessage(ctx context.Context, message string) Result {
	payload, err := json.Marshal(map[string]string{
		"chat_id": t.chatID,
		"text":    message,
	})
	if err != nil {
		return Failed(fmt.Sprintf("failed to marshal request: %v", err))
	}

	resp, err := t.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendMessage"), bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return Failed(fmt.Sprintf("Telegram sendMessage failed: %v", err))
	}

	parsed, err := parseTelegramResponse(resp)
	if err != nil {
		return Failed(err.Error())
	}

	return Result{
		Status:  StatusSuccess,
		Message: message,
		ProviderResponse: map[string]any{
			"method": "sendMessage",
			"result": string(parsed.Result),
		},
	}
}

func (t *Telegram) sendAudio(ctx context.Context, caption, audioPath string) Result {
	// The multipart body is rebuilt per attempt since a request body
	// cannot be replayed.
	build := func() (*http.Request, error) {
		file, err := os.Open(audioPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open audio file: %w", err)
		}
		defer func() { _ = file.Close() }()

		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		if err := w.WriteField("chat_id", t.chatID); err != nil {
			return nil, err
		}
		if err := w.WriteField("caption", caption); err != nil {
			return nil, err
		}
		part, err := w.CreateFormFile("audio", filepath.Base(audioPath))
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, fmt.Errorf("failed to read audio file: %w", err)
		}
		if err := w.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.methodURL("sendAudio"), &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}

	resp, err := t.doWithRetry(ctx, build)
	if err != nil {
		return Failed(fmt.Sprintf("Telegram sendAudio failed: %v", err))
	}

	parsed, err := parseTelegramResponse(resp)
	if err != nil {
		return Failed(err.Error())
	}

	return Result{
		Status:  StatusSuccess,
		Message: caption,
		ProviderResponse: map[string]any{
			"method": "sendAudio",
			"audio":  filepath.Base(audioPath),
			"result": string(parsed.Result),
		},
	}
}

// TestConnection calls getMe to verify the token and reachability.
func (t *Telegram) TestConnection(ctx context.Context) Result {
	if !t.IsConfigured() {
		return Failed("Telegram provider is not configured")
	}

	start := time.Now()
	resp, err := t.doWithRetry(ctx, func() (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, t.methodURL("getMe"), nil)
	})
	if err != nil {
		return Failed(fmt.Sprintf("Telegram getMe failed: %v", err))
	}

	parsed, err := parseTelegramResponse(resp)
	if err != nil {
		return Failed(err.Error())
	}

	var me struct {
		Username string `json:"username"`
	}
	_ = json.Unmarshal(parsed.Result, &me)

	return Result{
		Status:       StatusSuccess,
		Message:      fmt.Sprintf("Connection successful. Bot: @%s", me.Username),
		DeliveryTime: time.Since(start),
	}
}

// Cleanup closes idle connections held by the HTTP client.
func (t *Telegram) Cleanup() {
	t.httpClient.CloseIdleConnections()
}
