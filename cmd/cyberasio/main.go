// cmd/cyberasio/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cyberasio/core/pkg/config"
	"github.com/cyberasio/core/pkg/db"
	"github.com/cyberasio/core/pkg/devices"
	"github.com/cyberasio/core/pkg/engine"
	"github.com/cyberasio/core/pkg/lifecycle"
	"github.com/cyberasio/core/pkg/metrics"
	"github.com/cyberasio/core/pkg/models"
	"github.com/cyberasio/core/pkg/settings"
	"github.com/cyberasio/core/pkg/web"
)

const usage = `CyberASIO Control Panel Server

Usage:
  cyberasio [options]

Options:
  --port <int>         HTTP listen port (default 7788)
  --static-dir <path>  Static asset directory (default "static")
  --config <path>      JSON configuration file
  --log-level <level>  debug, info, warn or error (default "info")
  --help, -h           Show this help

Environment variables (CYBERASIO_PORT, CYBERASIO_STATIC_DIR, ...) are applied
first; the configuration file and explicit options override them.
`

// cliArgs carries the recognized command line options. Anything the scanner
// does not recognize is ignored.
type cliArgs struct {
	port       *int
	staticDir  *string
	logLevel   *string
	configFile string
	help       bool
}

func parseArgs(argv []string) (*cliArgs, error) {
	args := &cliArgs{}

	for i := 0; i < len(argv); i++ {
		switch argv[i] {
		case "--help", "-h":
			args.help = true
		case "--port":
			if i+1 >= len(argv) {
				return nil, errors.New("--port requires a value")
			}

			i++

			port, err := strconv.Atoi(argv[i])
			if err != nil {
				return nil, fmt.Errorf("invalid --port value %q", argv[i])
			}

			args.port = &port
		case "--static-dir":
			if i+1 >= len(argv) {
				return nil, errors.New("--static-dir requires a value")
			}

			i++
			dir := argv[i]
			args.staticDir = &dir
		case "--config":
			if i+1 >= len(argv) {
				return nil, errors.New("--config requires a value")
			}

			i++
			args.configFile = argv[i]
		case "--log-level":
			if i+1 >= len(argv) {
				return nil, errors.New("--log-level requires a value")
			}

			i++
			level := argv[i]
			args.logLevel = &level
		default:
			// Unrecognized tokens are ignored.
		}
	}

	return args, nil
}

func (a *cliArgs) apply(cfg *config.Config) {
	if a.port != nil {
		cfg.Port = *a.port
	}

	if a.staticDir != nil {
		cfg.StaticDir = *a.staticDir
	}

	if a.logLevel != nil {
		cfg.LogLevel = *a.logLevel
	}
}

func main() {
	args, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "cyberasio: %v\n", err)
		os.Exit(1)
	}

	if args.help {
		fmt.Print(usage)
		return
	}

	if err := run(args); err != nil {
		fmt.Fprintf(os.Stderr, "cyberasio: %v\n", err)
		os.Exit(1)
	}
}

func run(args *cliArgs) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if args.configFile != "" {
		if err := config.LoadAndValidate(args.configFile, cfg); err != nil {
			return err
		}
	}

	args.apply(cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := initLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting cyberasio control panel",
		zap.Int("port", cfg.Port),
		zap.String("static_dir", cfg.StaticDir),
		zap.String("db_path", cfg.DBPath))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	collector := metrics.NewCollector(registry)
	history := metrics.NewHistory(cfg.HistorySize)

	var store db.Service

	if cfg.DBPath != "" {
		store, err = db.New(cfg.DBPath, logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}

		defer func() {
			if err := store.Close(); err != nil {
				logger.Warn("failed to close database", zap.Error(err))
			}
		}()
	}

	settingsMgr := settings.NewManager(store, logger)
	if err := settingsMgr.Load(); err != nil {
		logger.Warn("could not load persisted settings", zap.Error(err))
	}

	deviceMgr := devices.NewManager(logger)

	eng, err := engine.New(engine.Options{
		Config:    settingsMgr.AudioConfig(),
		Interval:  time.Duration(cfg.TickInterval),
		History:   history,
		Collector: collector,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create audio engine: %w", err)
	}

	if id := settingsMgr.Get().ActiveDeviceID; id > 0 {
		if err := deviceMgr.Activate(id); err != nil {
			logger.Warn("could not restore active device", zap.Int("id", id), zap.Error(err))
		} else {
			eng.SetActiveDevice(id)
		}
	}

	unsubscribe := settingsMgr.OnChange(func(sys models.SystemConfig) {
		if err := eng.SetConfig(sys.Audio); err != nil {
			logger.Warn("engine rejected configuration", zap.Error(err))
		}
	})
	defer unsubscribe()

	srv := web.NewServer(web.Options{
		Config: web.Config{
			ListenAddr:    cfg.ListenAddr(),
			StaticDir:     cfg.StaticDir,
			MaxConcurrent: cfg.MaxConcurrent,
			RateLimit:     cfg.RateLimit,
		},
		Engine:    eng,
		Devices:   deviceMgr,
		Settings:  settingsMgr,
		History:   history,
		Collector: collector,
		Gatherer:  registry,
		Logger:    logger,
	})

	return lifecycle.Run(context.Background(), lifecycle.Options{
		Name:            "cyberasio",
		Services:        []lifecycle.Service{eng, srv},
		ShutdownTimeout: time.Duration(cfg.ShutdownTimeout),
		Logger:          logger,
	})
}

// initLogger initializes the logger based on log level.
func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level

	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}

	return logger
}
