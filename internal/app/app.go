// Package app wires configuration, clients and services into the running
// server: HTTP admin API, Telegram bot and the publish schedule.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/nohatek/autoblog/internal/config"
	"github.com/nohatek/autoblog/internal/middleware"
	"github.com/nohatek/autoblog/internal/modules/approval"
	"github.com/nohatek/autoblog/internal/modules/ghost"
	"github.com/nohatek/autoblog/internal/modules/media"
	"github.com/nohatek/autoblog/internal/modules/pipeline"
	"github.com/nohatek/autoblog/internal/modules/synthesizer"
	"github.com/nohatek/autoblog/internal/modules/telegram"
	"github.com/nohatek/autoblog/internal/modules/trending"
	"github.com/nohatek/autoblog/internal/pkg/cache"
	pkgcron "github.com/nohatek/autoblog/internal/pkg/cron"
	pkgredis "github.com/nohatek/autoblog/internal/pkg/redis"
	"go.uber.org/zap"
)

// App holds all application dependencies.
type App struct {
	cfg      *config.AppConfig
	router   *gin.Engine
	logger   *zap.Logger
	cancel   context.CancelFunc
	sched    *pkgcron.Scheduler
	runner   *pipeline.Runner
	synth    *synthesizer.Service
	blog     *ghost.Client
	approval *approval.Service
	drafts   *approval.Store
	tg       *telegram.Client
}

// New initializes the application: clients → services → bot → routes.
func New(logger *zap.Logger, cfg *config.AppConfig) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	var store cache.Store = cache.NewMemory()
	if cfg.RedisURL != "" {
		rc, err := pkgredis.Connect(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis: %w", err)
		}
		store = cache.NewRedis(rc, "autoblog:")
	}

	blog, err := ghost.NewClient(cfg.Ghost.URL, cfg.Ghost.AdminAPIKey, logger)
	if err != nil {
		return nil, fmt.Errorf("ghost: %w", err)
	}

	provider, err := synthesizer.NewProvider(cfg.ActiveProvider())
	if err != nil {
		return nil, fmt.Errorf("ai provider: %w", err)
	}
	synth := synthesizer.NewService(provider, cfg.Publish.Topics, logger)

	resolver := media.NewResolver(
		media.NewUnsplashClient(cfg.Unsplash.AccessKey, cfg.Unsplash.Endpoint),
		media.NewYouTubeClient(cfg.YouTube.APIKey, cfg.YouTube.Endpoint),
		store, logger,
	)

	tg := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.Endpoint)

	var trendSvc *trending.Service
	var trendSrc pipeline.TrendSource
	if cfg.Trending.Enable {
		feeds := make([]trending.FeedSource, 0, len(cfg.Trending.Feeds))
		for _, f := range cfg.Trending.Feeds {
			feeds = append(feeds, trending.FeedSource{Name: f.Name, URL: f.URL})
		}
		trendSvc = trending.NewService(trending.NewHNClient(cfg.Trending.HNEndpoint), trending.NewRSSClient(), feeds, store, logger)
		trendSrc = trendSvc
	}

	drafts := approval.NewStore()
	reviewer := approval.NewService(drafts, blog, synth, resolver, tg, logger)

	runner := pipeline.NewRunner(blog, synth, resolver, trendSrc, reviewer, tg, pipeline.Options{
		Mode:             cfg.Publish.Mode,
		MaxRetries:       cfg.Publish.Retries(),
		RetryDelay:       cfg.Publish.RetryDelay(),
		RecentTitleLimit: cfg.Publish.RecentTitleLimit,
	}, logger)

	if cfg.IsDev() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.HandleMethodNotAllowed = true
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(cors.New(corsConfig(cfg)))

	ctx, cancel := context.WithCancel(context.Background())

	sched := pkgcron.New()
	app := &App{
		cfg:      cfg,
		router:   router,
		logger:   logger,
		cancel:   cancel,
		sched:    sched,
		runner:   runner,
		synth:    synth,
		blog:     blog,
		approval: reviewer,
		drafts:   drafts,
		tg:       tg,
	}
	if err := app.registerCronJobs(trendSvc); err != nil {
		cancel()
		return nil, err
	}
	go sched.Start(ctx)

	bot := telegram.NewBot(tg, logger)
	app.registerBotHandlers(bot)
	go bot.Run(ctx)

	go func() {
		if !blog.TestConnection(ctx) {
			logger.Warn("blog connection test failed, publishing may not work")
		} else {
			logger.Info("blog connection verified")
		}
	}()

	app.registerRoutes()
	return app, nil
}

// Addr returns the listen address.
func (a *App) Addr() string { return fmt.Sprintf(":%d", a.cfg.Port) }

// Router returns the HTTP handler.
func (a *App) Router() http.Handler { return a.router }

// Shutdown stops background goroutines.
func (a *App) Shutdown() { a.cancel() }

func corsConfig(cfg *config.AppConfig) cors.Config {
	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}
	if len(cfg.AllowedOrigins) > 0 && !cfg.IsDev() {
		allowed := cfg.AllowedOrigins
		corsCfg.AllowOriginFunc = func(origin string) bool {
			for _, candidate := range allowed {
				if strings.EqualFold(candidate, origin) {
					return true
				}
			}
			return false
		}
	} else {
		corsCfg.AllowOriginFunc = func(origin string) bool { return true }
	}
	return corsCfg
}
