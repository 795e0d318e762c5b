package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	txStdLib "github.com/Thiht/transactor/stdlib"
	dg "github.com/bwmarrin/discordgo"
	"github.com/charmbracelet/log"

	"github.com/benjamonnguyen/pomostudy"
	"github.com/benjamonnguyen/pomostudy/history"
	"github.com/benjamonnguyen/pomostudy/metrics"
	"github.com/benjamonnguyen/pomostudy/notify"
	"github.com/benjamonnguyen/pomostudy/sqlite"
)

const (
	RepoURL = "https://github.com/benjamonnguyen/pomostudy"
	Version = "0.1.0"
)

func main() {
	var isProd bool
	var configPath string
	flag.BoolVar(&isProd, "prod", false, "load .env instead of .env.dev")
	flag.StringVar(&configPath, "config", "", "optional YAML config file")
	flag.Parse()

	topCtx, topCtxC := context.WithCancel(context.Background())
	initTimeout, initTimeoutC := context.WithTimeout(topCtx, 10*time.Second)

	// config
	pomostudy.LoadEnv(isProd)
	cfg, err := pomostudy.LoadConfig(configPath)
	if err != nil {
		log.Fatal(err)
	}
	panicif(cfg.RequireBotToken())

	// logger
	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatal("invalid log level", "level", cfg.LogLevel, "err", err)
	}
	log.SetLevel(level)
	log.SetReportCaller(level == log.DebugLevel)

	// db
	log.Info("opening db", "path", cfg.DatabasePath)
	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		log.Fatal("failed database open", "err", err)
	}
	defer db.Close() //nolint

	tx, dbGetter := txStdLib.NewTransactor(
		db,
		txStdLib.NestedTransactionsSavepoints,
	)

	sessionRepo := sqlite.NewSessionRepo(dbGetter, log.Default())
	recorder := history.NewRecorder(sessionRepo, tx, log.Default())
	panicif(recorder.Restore(initTimeout))

	collector := metrics.NewCollector()
	recorder.OnRecord(collector.ObserveSession)

	// set up discord cl
	cl, err := dg.New("Bot " + cfg.BotToken)
	if err != nil {
		log.Fatal(err)
	}
	cl.ShouldRetryOnRateLimit = false
	cl.Client = &http.Client{Timeout: (20 * time.Second)}
	cl.UserAgent = fmt.Sprintf("%s (%s, v%s)", cfg.BotName, RepoURL, Version)
	cl.Identify.Intents = dg.IntentsGuilds

	dm := NewDiscordMessenger(cl)

	// timer manager
	timerManager := NewTimerManager(
		topCtx,
		recorder,
		func(channelID string) notify.Notifier {
			return notify.Discord(cl, channelID)
		},
		collector,
		log.Default(),
	)

	// discord event hooks
	cl.AddHandler(func(s *dg.Session, m *dg.InteractionCreate) {
		_ = StartTimer(topCtx, timerManager, dm, m) ||
			PauseTimer(timerManager, dm, m) ||
			ResetTimer(timerManager, dm, m) ||
			SwitchInterval(timerManager, dm, m) ||
			StopTimer(timerManager, dm, m) ||
			ShowStats(recorder, dm, m, time.Now())
	})

	// metrics
	var metricsSrv *http.Server
	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		metricsSrv = &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server stopped", "err", err)
			}
		}()
	}

	// open connection
	if err := cl.Open(); err != nil {
		log.Fatal("Error opening connection", "err", err)
	}
	log.Info(cfg.BotName + " running. Press CTRL-C to exit.")

	// init done
	initTimeoutC()

	// graceful shutdown
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
	log.Info("terminating " + cfg.BotName)
	shutdownTimeout, shutdownTimeoutC := context.WithTimeout(context.Background(), time.Minute)
	go func() {
		// close timers before cancelling topCtx so open intervals are recorded
		timerManager.Shutdown()
		topCtxC()
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(shutdownTimeout); err != nil {
				log.Error(err)
			}
		}
		if err := cl.Close(); err != nil {
			log.Error(err)
		}
		shutdownTimeoutC()
	}()
	<-shutdownTimeout.Done()
	if shutdownTimeout.Err() != context.Canceled {
		log.Error("failed to shut down gracefully", "err", shutdownTimeout.Err())
	}
}

func panicif(err error) {
	if err != nil {
		panic(err)
	}
}
