package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
)

const parseModeHTML = "HTML"

var ErrMissingToken = errors.New("missing_bot_token")

// APIError is a non-OK Bot API reply.
type APIError struct {
	Method      string
	StatusCode  int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: status %d: %s", e.Method, e.StatusCode, e.Description)
}

// Retryable reports whether a later attempt may succeed.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries uint64
}

// Client calls the Bot API over HTTPS. Network errors, 429 and 5xx replies
// are retried with exponential backoff, never sooner than a 429's
// retry_after; other 4xx replies fail immediately.
type Client struct {
	inner      *http.Client
	baseURL    string
	token      string
	maxRetries uint64
	newBackOff func() backoff.BackOff
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrMissingToken
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.telegram.org"
	}
	return &Client{
		inner:      &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		maxRetries: cfg.MaxRetries,
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, markup *InlineKeyboardMarkup) (*Message, error) {
	var msg Message
	err := c.call(ctx, "sendMessage", sendMessageRequest{
		ChatID:      chatID,
		Text:        text,
		ParseMode:   parseModeHTML,
		ReplyMarkup: markup,
	}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) EditMessageText(ctx context.Context, chatID, messageID int64, text string, markup *InlineKeyboardMarkup) error {
	return c.call(ctx, "editMessageText", editMessageTextRequest{
		ChatID:      chatID,
		MessageID:   messageID,
		Text:        text,
		ParseMode:   parseModeHTML,
		ReplyMarkup: markup,
	}, nil)
}

func (c *Client) AnswerCallbackQuery(ctx context.Context, id, text string, showAlert bool) error {
	return c.call(ctx, "answerCallbackQuery", answerCallbackQueryRequest{
		CallbackQueryID: id,
		Text:            text,
		ShowAlert:       showAlert,
	}, nil)
}

func (c *Client) GetChatMember(ctx context.Context, chatID, userID int64) (*ChatMember, error) {
	var m ChatMember
	if err := c.call(ctx, "getChatMember", getChatMemberRequest{ChatID: chatID, UserID: userID}, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// IsAdmin reports whether userID is the creator or an administrator of chatID.
// Lookup failures count as "not an admin".
func (c *Client) IsAdmin(ctx context.Context, chatID, userID int64) bool {
	m, err := c.GetChatMember(ctx, chatID, userID)
	if err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Int64("user_id", userID).Msg("admin lookup failed")
		return false
	}
	return m.IsAdmin()
}

func (c *Client) call(ctx context.Context, method string, payload, out any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	endpoint := c.baseURL + "/bot" + c.token + "/" + method

	ra := &retryAfterBackOff{BackOff: backoff.WithMaxRetries(c.newBackOff(), c.maxRetries)}
	b := backoff.WithContext(ra, ctx)
	attempt := 0
	return backoff.Retry(func() error {
		attempt++
		result, err := c.do(ctx, method, endpoint, raw)
		if err != nil {
			var apiErr *APIError
			if errors.As(err, &apiErr) && !apiErr.Retryable() {
				return backoff.Permanent(err)
			}
			if ctx.Err() != nil {
				return backoff.Permanent(err)
			}
			if apiErr != nil && apiErr.RetryAfter > 0 {
				if deadline, ok := ctx.Deadline(); ok && time.Until(deadline) < apiErr.RetryAfter {
					return backoff.Permanent(err)
				}
				ra.wait = apiErr.RetryAfter
			}
			log.Debug().Err(err).Str("method", method).Int("attempt", attempt).Msg("telegram call failed; retrying")
			return err
		}
		if out == nil || len(result) == 0 {
			return nil
		}
		if err := json.Unmarshal(result, out); err != nil {
			return backoff.Permanent(fmt.Errorf("telegram %s: decode result: %w", method, err))
		}
		return nil
	}, b)
}

func (c *Client) do(ctx context.Context, method, endpoint string, raw []byte) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.inner.Do(req)
	if err != nil {
		// The URL embeds the token; keep it out of logs.
		return nil, fmt.Errorf("telegram %s: %w", method, redact(err, c.token))
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("telegram %s: read body: %w", method, err)
	}

	var ar apiResponse
	if err := json.Unmarshal(body, &ar); err != nil {
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil, backoff.Permanent(fmt.Errorf("telegram %s: decode response: %w", method, err))
		}
		return nil, &APIError{Method: method, StatusCode: resp.StatusCode, Description: http.StatusText(resp.StatusCode)}
	}
	if !ar.OK || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, StatusCode: resp.StatusCode, Description: ar.Description}
		if ar.ErrorCode != 0 {
			apiErr.StatusCode = ar.ErrorCode
		}
		if ar.Parameters != nil {
			apiErr.RetryAfter = time.Duration(ar.Parameters.RetryAfter) * time.Second
		}
		return nil, apiErr
	}
	return ar.Result, nil
}

// retryAfterBackOff stretches the next delay to the wait the Bot API asked
// for in its last 429 reply.
type retryAfterBackOff struct {
	backoff.BackOff
	wait time.Duration
}

func (b *retryAfterBackOff) NextBackOff() time.Duration {
	next := b.BackOff.NextBackOff()
	if next == backoff.Stop {
		return next
	}
	if b.wait > next {
		next = b.wait
	}
	b.wait = 0
	return next
}

func (b *retryAfterBackOff) Reset() {
	b.wait = 0
	b.BackOff.Reset()
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), token, "<token>"))
}

// BotIDFromToken returns the numeric bot id that prefixes a Bot API token.
func BotIDFromToken(token string) (int64, error) {
	id, _, ok := strings.Cut(token, ":")
	if !ok {
		return 0, ErrMissingToken
	}
	return strconv.ParseInt(id, 10, 64)
}
