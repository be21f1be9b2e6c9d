package app

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/nohatek/autoblog/internal/modules/telegram"
	"go.uber.org/zap"
)

const helpText = `<b>Commands</b>
/generate [topic] — run the content pipeline now
/topics — propose a few article topics
/status — scheduler and draft status
/help — this message`

func (a *App) registerBotHandlers(bot *telegram.Bot) {
	bot.Handle("start", func(ctx context.Context, args string) string {
		return "👋 Content bot online.\n\n" + helpText
	})
	bot.Handle("help", func(ctx context.Context, args string) string {
		return helpText
	})

	bot.Handle("generate", func(ctx context.Context, topic string) string {
		go func() {
			runCtx, cancel := context.WithTimeout(context.Background(), runTimeout)
			defer cancel()
			if err := a.runner.Run(runCtx, topic); err != nil {
				a.logger.Error("bot-triggered run failed", zap.Error(err))
				if _, serr := a.tg.SendMessage(context.WithoutCancel(runCtx), fmt.Sprintf("❌ Run failed: %s", html.EscapeString(err.Error()))); serr != nil {
					a.logger.Warn("failed to report run error", zap.Error(serr))
				}
			}
		}()
		if topic != "" {
			return fmt.Sprintf("⏳ Generating an article about <b>%s</b>…", html.EscapeString(topic))
		}
		return "⏳ Generating an article, picking the topic myself…"
	})

	bot.Handle("topics", func(ctx context.Context, args string) string {
		proposeCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
		defer cancel()

		recent, err := a.blog.RecentTitles(proposeCtx, a.cfg.Publish.RecentTitleLimit)
		if err != nil {
			a.logger.Warn("recent titles unavailable", zap.Error(err))
		}
		topics, err := a.synth.ProposeTopics(proposeCtx, 5, recent)
		if err != nil {
			return "❌ Could not come up with topics right now."
		}

		var b strings.Builder
		b.WriteString("💡 <b>Topic ideas</b>\n")
		for i, topic := range topics {
			fmt.Fprintf(&b, "%d. %s\n", i+1, html.EscapeString(topic))
		}
		b.WriteString("\nSend /generate &lt;topic&gt; to use one.")
		return b.String()
	})

	bot.Handle("status", func(ctx context.Context, args string) string {
		var b strings.Builder
		fmt.Fprintf(&b, "Mode: <b>%s</b>\n", a.cfg.Publish.Mode)
		fmt.Fprintf(&b, "Pending drafts: <b>%d</b>\n\n", a.drafts.Len())
		for _, job := range a.sched.List() {
			fmt.Fprintf(&b, "• %s — %s, next run %s\n", job.Name, job.Status, job.NextDate.UTC().Format("Jan 2 15:04 MST"))
		}
		return b.String()
	})

	bot.HandleCallback(func(ctx context.Context, messageID int64, data string) string {
		return a.approval.HandleCallback(ctx, messageID, data)
	})
}
