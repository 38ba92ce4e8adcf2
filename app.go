package main

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/AstroAssist-core/server/internal/api"
	"github.com/AstroAssist-core/server/internal/mission/classifier"
	"github.com/AstroAssist-core/server/internal/mission/classifier/graph"
	"github.com/AstroAssist-core/server/internal/mission/emergency"
	"github.com/AstroAssist-core/server/internal/mission/events"
	"github.com/AstroAssist-core/server/internal/mission/feed"
	"github.com/AstroAssist-core/server/internal/mission/history"
	"github.com/AstroAssist-core/server/internal/mission/metrics"
	"github.com/AstroAssist-core/server/internal/mission/model"
	"github.com/AstroAssist-core/server/internal/mission/notifier"
	"github.com/AstroAssist-core/server/internal/mission/sensors"
	"github.com/AstroAssist-core/server/internal/mission/station"
	logx "github.com/AstroAssist-core/server/pkg/logger"
)

// App is the wired station with its background workers.
type App struct {
	Station *station.Station
	API     *api.Server

	cfg       AppConfig
	publisher *events.Publisher
	rdb       *redis.Client
	feed      *feed.Client
}

func buildApp(ctx context.Context, cfg AppConfig) (*App, error) {
	app := &App{cfg: cfg}

	var logOpts []history.Option
	if cfg.Redis.Enabled() {
		rdb, err := cfg.Redis.New()
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		app.rdb = rdb
		logOpts = append(logOpts,
			history.WithMirror(history.NewRedisRepository(rdb, cfg.History.RedisKey, cfg.History.TTL)),
			history.WithMirrorTimeout(cfg.History.MirrorTimeout),
		)
		logx.Info().Str("key", cfg.History.RedisKey).Msg("history mirrored to redis")
	}
	log := history.NewLog(logOpts...)

	c, err := buildClassifier(ctx, cfg, log)
	if err != nil {
		app.Close()
		return nil, err
	}

	pub, err := events.NewPublisher(cfg.Events)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("events publisher: %w", err)
	}
	app.publisher = pub

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app.Station = station.New(station.Deps{
		Sensors:    sensors.NewFromConfig(cfg.Sensor),
		Controller: emergency.NewController(),
		Classifier: c,
		History:    log,
		Hazards:    notifier.NewEngine(cfg.Hazard, nil),
		Speaker:    notifier.LogSpeaker{},
		Events:     pub,
		Metrics:    metrics.NewRecorder(reg),
	})

	if cfg.Sensor.FeedURL != "" {
		app.feed = feed.NewClient(cfg.Sensor.FeedURL, app.Station)
	}

	app.API = api.NewServer(api.Config{
		Station:      app.Station,
		Gatherer:     reg,
		Simulator:    feed.NewSimulator(nil),
		FeedInterval: feed.DefaultInterval,
		Location:     time.Local,
	})
	return app, nil
}

// buildClassifier picks the prediction backend. The Gemini graph reads
// recent commands from hist as context.
func buildClassifier(ctx context.Context, cfg AppConfig, hist *history.Log) (classifier.Classifier, error) {
	switch cfg.Classifier.Backend {
	case model.BackendHTTP, "":
		logx.Info().Str("url", cfg.Classifier.PredictURL).Msg("using http intent classifier")
		return classifier.NewHTTPClient(cfg.Classifier, nil), nil
	case model.BackendGemini:
		runner, err := graph.BuildClassifier(ctx, graph.Config{
			IntentModel: cfg.IntentModel,
			History:     hist,
		})
		if err != nil {
			return nil, fmt.Errorf("build intent graph: %w", err)
		}
		logx.Info().Str("model", cfg.IntentModel.Model).Msg("using gemini intent classifier")
		return runner, nil
	default:
		return nil, fmt.Errorf("unknown classifier backend %q", cfg.Classifier.Backend)
	}
}

// Start launches the tick loop, the event publisher and the feed client.
// They stop when ctx is done.
func (a *App) Start(ctx context.Context) {
	a.publisher.Start(ctx)
	go a.Station.Run(ctx, a.cfg.Sensor.TickInterval)
	if a.feed != nil {
		go a.feed.Run(ctx)
	}
	logx.Info().
		Dur("tick", a.cfg.Sensor.TickInterval).
		Bool("events", a.publisher.Enabled()).
		Bool("feed", a.feed != nil).
		Msg("station started")
}

func (a *App) Close() {
	if a.publisher != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := a.publisher.Stop(ctx); err != nil {
			logx.Warn().Err(err).Msg("events publisher stop failed")
		}
		cancel()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			logx.Warn().Err(err).Msg("redis close failed")
		}
	}
}
