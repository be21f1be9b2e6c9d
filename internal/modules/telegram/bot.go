package telegram

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
)

const pollTimeout = 30 * time.Second

// CommandFunc handles one slash command. args is the text after the command,
// trimmed. The returned string, when non-empty, is sent back as the reply.
type CommandFunc func(ctx context.Context, args string) string

// CallbackFunc handles an inline-button press. It returns the toast shown to
// the user when answering the callback query.
type CallbackFunc func(ctx context.Context, messageID int64, data string) string

// Bot long-polls for updates and dispatches commands and button presses.
// Only the configured chat is served; anything else gets a fixed denial.
type Bot struct {
	client     *Client
	commands   map[string]CommandFunc
	onCallback CallbackFunc
	logger     *zap.Logger
}

func NewBot(client *Client, logger *zap.Logger) *Bot {
	return &Bot{
		client:   client,
		commands: make(map[string]CommandFunc),
		logger:   logger.Named("TelegramBot"),
	}
}

// Handle registers a command handler, e.g. Handle("generate", fn) for
// "/generate".
func (b *Bot) Handle(command string, fn CommandFunc) {
	b.commands[command] = fn
}

// HandleCallback registers the single handler for inline-button presses.
func (b *Bot) HandleCallback(fn CallbackFunc) {
	b.onCallback = fn
}

// Run polls until ctx is cancelled. Poll errors are logged and retried after
// a short pause.
func (b *Bot) Run(ctx context.Context) {
	b.logger.Info("bot polling started")
	var offset int64
	for {
		if ctx.Err() != nil {
			b.logger.Info("bot polling stopped")
			return
		}

		updates, err := b.client.GetUpdates(ctx, offset, pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				b.logger.Info("bot polling stopped")
				return
			}
			b.logger.Warn("poll failed", zap.Error(err))
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
			}
			continue
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *Message) {
	if msg.Chat.ID != b.client.ChatID() {
		b.logger.Warn("message from unauthorized chat", zap.Int64("chat_id", msg.Chat.ID))
		if err := b.client.SendMessageTo(ctx, msg.Chat.ID, "⛔ Unauthorized."); err != nil {
			b.logger.Warn("denial reply failed", zap.Error(err))
		}
		return
	}
	command, args, ok := parseCommand(msg.Text)
	if !ok {
		return
	}

	fn, known := b.commands[command]
	if !known {
		if _, err := b.client.SendMessage(ctx, "Unknown command. Send /help for the list."); err != nil {
			b.logger.Warn("reply failed", zap.Error(err))
		}
		return
	}

	b.logger.Info("command received", zap.String("command", command))
	if reply := fn(ctx, args); reply != "" {
		if _, err := b.client.SendMessage(ctx, reply); err != nil {
			b.logger.Warn("reply failed", zap.Error(err))
		}
	}
}

func (b *Bot) handleCallback(ctx context.Context, query *CallbackQuery) {
	toast := ""
	if query.Message == nil || query.Message.Chat.ID != b.client.ChatID() {
		toast = "Not authorized."
	} else if b.onCallback != nil {
		toast = b.onCallback(ctx, query.Message.MessageID, query.Data)
	}
	if err := b.client.AnswerCallback(ctx, query.ID, toast); err != nil {
		b.logger.Warn("callback answer failed", zap.Error(err))
	}
}

// parseCommand splits "/generate kubernetes tips" into ("generate",
// "kubernetes tips"). Bot-suffixed forms like "/status@myblogbot" are
// accepted.
func parseCommand(text string) (command, args string, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", "", false
	}
	head, rest, _ := strings.Cut(text[1:], " ")
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return "", "", false
	}
	return strings.ToLower(head), strings.TrimSpace(rest), true
}
