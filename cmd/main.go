package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hvac_scheduler/internal/events"
	"hvac_scheduler/internal/handlers"
	"hvac_scheduler/internal/logger"
	"hvac_scheduler/internal/metricstore"
	"hvac_scheduler/internal/models"
	"hvac_scheduler/internal/notify"
	"hvac_scheduler/internal/queue"
	"hvac_scheduler/internal/repository"
	"hvac_scheduler/internal/repository/db"
	"hvac_scheduler/internal/server"
	"hvac_scheduler/internal/service"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

func main() {
	log := logger.Get(logger.InfoLevel)

	// load config.yml
	if err := loadConfig(); err != nil {
		log.Fatalw("error reading config", "err", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// open configuration store
	store, err := openDB(log)
	if err != nil {
		log.Fatalw("failed to init sqlite", "err", err)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	// time-series metrics store
	metrics, err := metricstore.NewPGStore(ctx, viper.GetString("metrics.dsn"), viper.GetString("metrics.table"))
	if err != nil {
		log.Fatalw("failed to connect metrics store", "err", err)
	}
	defer metrics.Close()

	// job queue broker
	rdb := redis.NewClient(&redis.Options{
		Addr:     viper.GetString("redis.addr"),
		Password: viper.GetString("redis.password"),
		DB:       viper.GetInt("redis.db"),
	})
	defer func() { _ = rdb.Close() }()
	broker := queue.NewRedisBroker(rdb, viper.GetString("redis.prefix"))

	// wire dependencies
	repos := repository.NewRepository(store)
	notifier := notify.NewBridgeNotifier(viper.GetString("email.bridge_url"), 10*time.Second)
	hub := events.NewHub()
	services := service.New(repos, metrics, broker, notifier, hub, log, service.Options{
		WeatherURL:        viper.GetString("weather.url"),
		MetricsLookback:   viper.GetDuration("metrics.lookback"),
		ThresholdInterval: viper.GetDuration("thresholds.interval"),
		EnergyInterval:    viper.GetDuration("energy.interval"),
		RateCeilings:      rateCeilings(),
	})
	apiHandler := handlers.NewHandler(services, log)

	// start engine loops
	if err := services.Start(ctx); err != nil {
		log.Fatalw("failed to start scheduler", "err", err)
	}

	// start job runner
	runner := queue.NewRunner(services.Queue, controlExecutor(log), log, retryPolicy(), viper.GetDuration("queue.poll_interval"))
	go runner.Run(ctx)

	// start HTTP server
	srv := &server.Server{}
	runHTTPServer(srv, viper.GetString("port"), apiHandler, log)

	// graceful shutdown
	waitForShutdown(cancel, srv, log)
}

func loadConfig() error {
	viper.AddConfigPath("configs") // configs/config.yml
	viper.SetConfigName("config")
	viper.AutomaticEnv()
	return viper.ReadInConfig()
}

// openDB initializes the SQLite configuration store.
func openDB(log *logger.Logger) (*sql.DB, error) {
	dbPath := viper.GetString("db.path")
	if dbPath == "" {
		log.Infow("db.path not set in config; using default file", "default", "scheduler.db")
		dbPath = "scheduler.db"
	}
	return db.InitDB(dbPath)
}

// controlExecutor posts approved control passes to the control-logic
// endpoint. The control algorithms themselves live behind that endpoint.
func controlExecutor(log *logger.Logger) queue.Executor {
	url := viper.GetString("control.url")
	if url == "" {
		log.Warnw("control.url not set; jobs will complete without dispatch")
		return queue.ExecutorFunc(func(ctx context.Context, _ models.Job) error { return nil })
	}
	return queue.NewHTTPExecutor(url, viper.GetDuration("control.timeout"))
}

// rateCeilings reads per-class rate-of-change ceilings; absent config
// falls back to the validator's defaults.
func rateCeilings() service.RateCeilings {
	raw := viper.GetStringMap("validation.rate_ceilings")
	if len(raw) == 0 {
		return nil
	}
	out := make(service.RateCeilings, len(raw))
	for class := range raw {
		out[class] = viper.GetFloat64("validation.rate_ceilings." + class)
	}
	return out
}

func retryPolicy() queue.RetryPolicy {
	policy := queue.DefaultRetryPolicy
	if attempts := viper.GetInt("queue.max_attempts"); attempts > 0 {
		policy.MaxAttempts = attempts
	}
	if backoff := viper.GetDuration("queue.backoff"); backoff > 0 {
		policy.Backoff = backoff
	}
	return policy
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler *handlers.Handler, log *logger.Logger) {
	go func() {
		if port == "" {
			port = "8080"
		}
		if err := srv.Run(port, handler.InitRoutes()); err != nil {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down scheduler...")

	// stop background loops
	cancel()

	// allow in-flight requests to complete
	ctx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server forced to shutdown", "err", err)
	}
}
