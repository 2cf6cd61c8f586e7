package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/zillah777/fixia.com.ar-sub001/internal/config"
	"github.com/zillah777/fixia.com.ar-sub001/internal/database"
	"github.com/zillah777/fixia.com.ar-sub001/internal/disclosure"
	"github.com/zillah777/fixia.com.ar-sub001/internal/handler"
	"github.com/zillah777/fixia.com.ar-sub001/internal/hub"
	"github.com/zillah777/fixia.com.ar-sub001/internal/lifecycle"
	"github.com/zillah777/fixia.com.ar-sub001/internal/middleware"
	"github.com/zillah777/fixia.com.ar-sub001/internal/queue"
	"github.com/zillah777/fixia.com.ar-sub001/internal/repository"
	"github.com/zillah777/fixia.com.ar-sub001/internal/review"
	"github.com/zillah777/fixia.com.ar-sub001/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment directly

	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	if err := database.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("schema: %v", err)
	}

	rdb := config.NewRedisClient() // nil disables rate limiting and the unread hint cache

	// Repositories.
	matchRepo := repository.NewMatchRepo(db)
	tokenRepo := repository.NewRevealTokenRepo(db)
	notifRepo := repository.NewNotificationRepo(db)
	reviewRepo := repository.NewReviewRepo(db)
	userRepo := repository.NewUserRepo(db)
	requestRepo := repository.NewServiceRequestRepo(db)

	// Event pipeline: lifecycle publishes, the consumer persists and
	// pushes through the hub.
	brokerURL := cfg.BrokerURL
	if brokerURL == "" {
		brokerURL = queue.BrokerURL()
	}
	publisher := queue.NewPublisher(brokerURL)
	notifHub := hub.New(notifRepo)
	consumer := &queue.NotifierConsumer{
		URL:           brokerURL,
		Notifications: notifRepo,
		Hub:           notifHub,
		Redis:         rdb,
	}

	// Domain services.
	lifecycleMgr := lifecycle.NewManager(matchRepo, publisher)
	disclosureSvc := disclosure.NewService(matchRepo, tokenRepo, userRepo, publisher)
	reviewGate := review.NewGate(matchRepo, reviewRepo)
	reviewBlocker := review.NewBlocker(reviewRepo)

	// HTTP surface.
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Handlers{
		Matches:       handler.NewMatchHandler(lifecycleMgr, matchRepo),
		Phones:        handler.NewPhoneHandler(disclosureSvc),
		Reviews:       handler.NewReviewHandler(reviewGate, reviewBlocker),
		Notifications: handler.NewNotificationHandler(notifRepo),
		Requests:      handler.NewRequestHandler(requestRepo, reviewBlocker),
		Hub:           notifHub,
		Limiter:       middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
	}, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return notifHub.Run(ctx) })
	g.Go(func() error { return consumer.Run(ctx) })
	g.Go(func() error {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}
