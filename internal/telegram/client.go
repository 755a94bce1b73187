// Package telegram is a minimal Bot API client: sending plain-text messages
// and discovering the chat that last talked to the bot.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// DefaultAPIURL is the public Bot API base URL.
const DefaultAPIURL = "https://api.telegram.org"

// ErrNoUpdates is returned when the bot has no pending message to learn a chat from.
var ErrNoUpdates = errors.New("no telegram messages found, send /start to the bot first")

// APIError is an unsuccessful Bot API reply.
type APIError struct {
	Method      string
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Client talks to the Bot API for one bot token.
type Client struct {
	bot *tgbotapi.BotAPI
}

type options struct {
	apiURL string
	client *http.Client
}

// Option configures Client.
type Option func(*options)

// WithAPIURL overrides the Bot API base URL.
func WithAPIURL(url string) Option {
	return func(o *options) {
		o.apiURL = url
	}
}

// WithHTTPClient sets custom http.Client. Its timeout bounds every call.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// NewClient creates a Bot API client. The token is checked with getMe.
func NewClient(token string, opts ...Option) (*Client, error) {
	o := options{
		apiURL: DefaultAPIURL,
		client: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(&o)
	}

	endpoint := strings.TrimRight(o.apiURL, "/") + "/bot%s/%s"
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, o.client)
	if err != nil {
		return nil, wrapError("getMe", err)
	}

	return &Client{bot: bot}, nil
}

// Username returns the bot's username as reported by getMe.
func (c *Client) Username() string {
	return c.bot.Self.UserName
}

// SendMessage posts text to chatID with link previews disabled. chatID is a
// numeric chat id or an @channel username.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.MessageConfig{
		Text:                  text,
		DisableWebPagePreview: true,
	}
	if id, err := strconv.ParseInt(chatID, 10, 64); err == nil {
		msg.ChatID = id
	} else {
		msg.ChannelUsername = chatID
	}

	if _, err := c.bot.Send(msg); err != nil {
		return wrapError("sendMessage", err)
	}
	return nil
}

// ResolveChatID returns the chat of the most recent message or channel post
// the bot received.
func (c *Client) ResolveChatID(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	updates, err := c.bot.GetUpdates(tgbotapi.NewUpdate(0))
	if err != nil {
		return "", wrapError("getUpdates", err)
	}

	for i := len(updates) - 1; i >= 0; i-- {
		u := updates[i]
		for _, m := range []*tgbotapi.Message{u.Message, u.ChannelPost} {
			if m != nil && m.Chat != nil {
				return strconv.FormatInt(m.Chat.ID, 10), nil
			}
		}
	}

	return "", ErrNoUpdates
}

// wrapError maps library errors onto APIError and keeps the token-bearing
// request URL out of the message.
func wrapError(method string, err error) error {
	var tgErr *tgbotapi.Error
	if errors.As(err, &tgErr) {
		return &APIError{Method: method, Code: tgErr.Code, Description: tgErr.Message}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	return fmt.Errorf("telegram %s: %w", method, err)
}
