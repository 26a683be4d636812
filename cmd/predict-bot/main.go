package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/park285/Cheese-Predict-bot/internal/board"
	"github.com/park285/Cheese-Predict-bot/internal/bot"
	appcfg "github.com/park285/Cheese-Predict-bot/internal/config"
	"github.com/park285/Cheese-Predict-bot/internal/inflight"
	"github.com/park285/Cheese-Predict-bot/internal/irisfast"
	"github.com/park285/Cheese-Predict-bot/internal/metrics"
	"github.com/park285/Cheese-Predict-bot/internal/msgcat"
	"github.com/park285/Cheese-Predict-bot/internal/obslog"
	"github.com/park285/Cheese-Predict-bot/internal/opsserver"
	"github.com/park285/Cheese-Predict-bot/internal/predict"
)

func main() {
	cfg, err := appcfg.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := obslog.Init(obslog.Options(cfg.Log)); err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	logger := obslog.L()
	defer func() { _ = logger.Sync() }()

	headers := cfg.Headers

	client := irisfast.NewClient(cfg.IrisBaseURL, irisfast.WithHeaderProvider(headers))
	ws := irisfast.NewWebSocket(cfg.IrisWSURL, cfg.WSReconnectAttempts, cfg.WSReconnectDelay)
	ws.SetHeaderProvider(headers)
	ws.SetLogger(logger.Named("ws"))
	ws.OnStateChange(func(state irisfast.WebSocketState) {
		logger.Info("ws_state", zap.String("state", state.String()))
	})
	egress := irisfast.NewEgress(cfg.EgressMode, cfg.EgressDryRun, client, ws, logger.Named("egress"))

	catalog, err := msgcat.New(cfg.MessagesDir)
	if err != nil {
		logger.Fatal("message catalog error", zap.Error(err))
	}

	predictor := predict.NewClient(cfg.PredictBaseURL,
		predict.WithPath(cfg.PredictPath),
		predict.WithMaxConnsPerHost(cfg.PredictMaxConns),
	)

	var guard inflight.Guard = inflight.NewMemory(cfg.InflightTTL)
	var redisGuard *inflight.Redis
	if cfg.RedisURL != "" {
		rctx, rcancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisGuard, err = inflight.NewRedis(rctx, cfg.RedisURL, cfg.InflightTTL)
		rcancel()
		if err != nil {
			logger.Fatal("redis guard init error", zap.Error(err))
		}
		guard = redisGuard
	}

	rec := metrics.New(metrics.WithRuntimeCollectors())
	opsOpts := []opsserver.Option{opsserver.WithGatherer(rec.Registry())}
	opsOpts = append(opsOpts, opsserver.WithCheck("iris_ws", func(context.Context) error {
		if s := ws.State(); s != irisfast.WSStateConnected {
			return &wsStateError{state: s}
		}
		return nil
	}))
	ops := opsserver.New(cfg.OpsAddr, logger.Named("ops"), opsOpts...)
	ops.Start()

	handler, err := bot.New(bot.Deps{
		Prefix:       cfg.BotPrefix,
		AllowedRooms: cfg.AllowedRooms,
		Predictor:    predictor,
		Egress:       egress,
		Guard:        guard,
		Catalog:      catalog,
		Metrics:      rec,
		Renderer:     board.NewRenderer(),
		Logger:       logger,
	})
	if err != nil {
		logger.Fatal("bot init error", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ws.OnMessage(func(msg *irisfast.Message) {
		// Avoid blocking the WS loop
		go handler.Handle(rootCtx, msg)
	})

	cctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := ws.Connect(cctx); err != nil {
		cancel()
		logger.Fatal("ws connect error", zap.Error(err))
	}
	cancel()
	logger.Info("predict_bot_started",
		zap.String("prefix", cfg.BotPrefix),
		zap.String("predict_url", predictor.Endpoint()),
		zap.String("egress", cfg.EgressMode),
		zap.Bool("redis_guard", redisGuard != nil),
	)

	<-rootCtx.Done()
	logger.Info("predict_bot_stopping")

	sctx, scancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer scancel()
	var g errgroup.Group
	g.Go(func() error { return ws.Close(sctx) })
	g.Go(func() error { return ops.Shutdown(sctx) })
	if redisGuard != nil {
		g.Go(redisGuard.Close)
	}
	if err := g.Wait(); err != nil {
		logger.Warn("shutdown_error", zap.Error(err))
	}
}

type wsStateError struct{ state irisfast.WebSocketState }

func (e *wsStateError) Error() string { return "ws " + e.state.String() }
