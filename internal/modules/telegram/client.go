// Package telegram talks to the Telegram Bot API for notifications and the
// interactive approval conversation.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nohatek/autoblog/internal/pkg/apperr"
)

const (
	defaultEndpoint = "https://api.telegram.org"

	// sendTimeout bounds every call except getUpdates, which long-polls.
	sendTimeout = 10 * time.Second
)

// Client is a thin Bot API client. All sends target the single configured
// chat; HTML parse mode is used throughout.
type Client struct {
	endpoint string
	token    string
	chatID   int64
	http     *http.Client
}

func NewClient(token string, chatID int64, endpoint string) *Client {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    token,
		chatID:   chatID,
		// Long polls hold the connection open for up to 30s.
		http: &http.Client{Timeout: 45 * time.Second},
	}
}

// ChatID is the chat every message goes to, and the only chat the bot obeys.
func (c *Client) ChatID() int64 { return c.chatID }

// SendMessage posts an HTML-formatted message, returning its message id.
func (c *Client) SendMessage(ctx context.Context, text string) (int64, error) {
	return c.SendMessageWithKeyboard(ctx, text, nil)
}

// SendMessageWithKeyboard posts a message with an optional inline keyboard.
func (c *Client) SendMessageWithKeyboard(ctx context.Context, text string, keyboard Keyboard) (int64, error) {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(c.chatID, 10))
	form.Set("text", text)
	form.Set("parse_mode", "HTML")
	form.Set("disable_web_page_preview", "true")
	if err := attachKeyboard(form, keyboard); err != nil {
		return 0, err
	}

	var msg Message
	if err := c.call(ctx, "sendMessage", form, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendMessageTo posts a plain message to an arbitrary chat. The bot uses it
// for the denial reply to chats other than the configured one.
func (c *Client) SendMessageTo(ctx context.Context, chatID int64, text string) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(chatID, 10))
	form.Set("text", text)
	return c.call(ctx, "sendMessage", form, nil)
}

// SendPhoto posts a photo by URL with an HTML caption and optional keyboard.
func (c *Client) SendPhoto(ctx context.Context, photoURL, caption string, keyboard Keyboard) (int64, error) {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(c.chatID, 10))
	form.Set("photo", photoURL)
	form.Set("caption", caption)
	form.Set("parse_mode", "HTML")
	if err := attachKeyboard(form, keyboard); err != nil {
		return 0, err
	}

	var msg Message
	if err := c.call(ctx, "sendPhoto", form, &msg); err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// AnswerCallback acknowledges a button press with a short toast.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	form := url.Values{}
	form.Set("callback_query_id", callbackID)
	if text != "" {
		form.Set("text", text)
	}
	return c.call(ctx, "answerCallbackQuery", form, nil)
}

// EditReplyMarkup replaces a message's inline keyboard. A nil keyboard
// removes it, which is how consumed approval prompts are disarmed.
func (c *Client) EditReplyMarkup(ctx context.Context, messageID int64, keyboard Keyboard) error {
	form := url.Values{}
	form.Set("chat_id", strconv.FormatInt(c.chatID, 10))
	form.Set("message_id", strconv.FormatInt(messageID, 10))
	if keyboard == nil {
		keyboard = Keyboard{}
	}
	if err := attachKeyboard(form, keyboard); err != nil {
		return err
	}
	return c.call(ctx, "editMessageReplyMarkup", form, nil)
}

// GetUpdates long-polls for new updates after offset.
func (c *Client) GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]Update, error) {
	form := url.Values{}
	form.Set("offset", strconv.FormatInt(offset, 10))
	form.Set("timeout", strconv.Itoa(int(timeout.Seconds())))
	form.Set("allowed_updates", `["message","callback_query"]`)

	var updates []Update
	if err := c.call(ctx, "getUpdates", form, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
}

func (c *Client) call(ctx context.Context, method string, form url.Values, result interface{}) error {
	if method != "getUpdates" {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sendTimeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", c.endpoint, c.token, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &apperr.RemoteError{Service: "telegram", StatusCode: resp.StatusCode, Body: string(body)}
	}

	var envelope apiResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("telegram %s: %w", method, err)
	}
	if !envelope.OK {
		return &apperr.RemoteError{Service: "telegram", StatusCode: resp.StatusCode, Body: envelope.Description}
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("telegram %s result: %w", method, err)
		}
	}
	return nil
}

func attachKeyboard(form url.Values, keyboard Keyboard) error {
	if keyboard == nil {
		return nil
	}
	markup, err := json.Marshal(map[string]interface{}{"inline_keyboard": keyboard})
	if err != nil {
		return err
	}
	form.Set("reply_markup", string(markup))
	return nil
}
