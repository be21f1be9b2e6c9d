package app

import (
	"context"
	"html"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nohatek/autoblog/internal/middleware"
	"github.com/nohatek/autoblog/internal/pkg/response"
	"go.uber.org/zap"
)

// runTimeout bounds one manually triggered pipeline pass.
const runTimeout = 10 * time.Minute

func (a *App) registerRoutes() {
	a.router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{
			"status":         "ok",
			"mode":           a.cfg.Publish.Mode,
			"pending_drafts": a.drafts.Len(),
		})
	})

	admin := a.router.Group("/", middleware.AdminAuth(a.cfg.AdminToken))

	admin.GET("/cron", func(c *gin.Context) {
		response.OK(c, gin.H{"jobs": a.sched.List()})
	})

	admin.POST("/cron/:name/run", func(c *gin.Context) {
		name := c.Param("name")
		// Run is itself non-blocking; the job keeps executing after the
		// response goes out.
		if err := a.sched.Run(context.WithoutCancel(c.Request.Context()), name); err != nil {
			response.NotFound(c, err.Error())
			return
		}
		response.Accepted(c, gin.H{"job": name, "status": "started"})
	})

	admin.POST("/generate", func(c *gin.Context) {
		var body struct {
			Topic string `json:"topic"`
		}
		if c.Request.ContentLength > 0 {
			if err := c.ShouldBindJSON(&body); err != nil {
				response.BadRequest(c, "invalid request body")
				return
			}
		}
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
			defer cancel()
			if err := a.runner.Run(ctx, body.Topic); err != nil {
				a.logger.Error("manual run failed", zap.Error(err))
				if _, serr := a.tg.SendMessage(context.WithoutCancel(ctx), "❌ Manually triggered run failed: "+html.EscapeString(err.Error())); serr != nil {
					a.logger.Warn("failed to report run error", zap.Error(serr))
				}
			}
		}()
		response.Accepted(c, gin.H{"status": "started", "topic": body.Topic})
	})

	admin.GET("/drafts", func(c *gin.Context) {
		type draftSummary struct {
			ID        string    `json:"id"`
			Title     string    `json:"title"`
			Topic     string    `json:"topic"`
			CreatedAt time.Time `json:"created_at"`
		}
		drafts := a.drafts.List()
		out := make([]draftSummary, 0, len(drafts))
		for _, d := range drafts {
			out = append(out, draftSummary{
				ID:        d.ID,
				Title:     d.Enriched.Article.Title,
				Topic:     d.Topic,
				CreatedAt: d.CreatedAt,
			})
		}
		response.OK(c, gin.H{"drafts": out})
	})

	a.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": http.StatusNotFound, "message": "not found"})
	})
}
