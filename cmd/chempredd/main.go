package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"chempredd/internal/config"
	"chempredd/internal/descriptor"
	"chempredd/internal/httpapi"
	"chempredd/internal/predictor"
	"chempredd/internal/registry"
)

func main() {
	// Flags with environment variable defaults
	defaultAddr := ":8080"
	if v := os.Getenv("CHEMPREDD_ADDR"); v != "" {
		defaultAddr = v
	}
	defaultConfig := os.Getenv("CHEMPREDD_CONFIG")

	configPath := flag.String("config", defaultConfig, "Config file (.yaml/.json/.toml); flags override its values")
	addr := flag.String("addr", defaultAddr, "HTTP listen address, e.g. :8080")
	modelsDir := flag.String("models-dir", "~/models/chem", "Directory of model subdirectories (hyperparameters.json + network.json each)")
	keyFile := flag.String("key-file", "", "Encryption key json for the descriptor bit shuffle")
	parametersFile := flag.String("parameters-file", "", "Preparation parameters json for the descriptor tool")
	toolBinary := flag.String("tool", "tuner", "Descriptor tool executable")
	device := flag.String("device", predictor.DefaultDevice, "Device to load networks on (only cpu is executed)")
	defaultModel := flag.String("default-model", "", "Default model id when request omits model")
	batchSize := flag.Int("batch-size", 0, "Rows per prediction batch (0=default)")
	watch := flag.Bool("watch", false, "Re-scan the models dir on changes")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg := config.Config{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("config", *configPath).Msg("failed to load config")
		}
	}
	if cfg.LogLevel != "" {
		if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
			log = log.Level(lvl)
		} else {
			log.Warn().Str("log_level", cfg.LogLevel).Msg("unknown log level, keeping default")
		}
	}
	// Flags set on the command line win over the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	applyFlag := func(name string, dst *string, v string) {
		if set[name] || *dst == "" {
			*dst = v
		}
	}
	applyFlag("addr", &cfg.Addr, *addr)
	applyFlag("models-dir", &cfg.ModelsDir, *modelsDir)
	applyFlag("key-file", &cfg.KeyFile, *keyFile)
	applyFlag("parameters-file", &cfg.ParametersFile, *parametersFile)
	applyFlag("tool", &cfg.ToolBinary, *toolBinary)
	applyFlag("device", &cfg.Device, *device)
	applyFlag("default-model", &cfg.DefaultModel, *defaultModel)
	if set["batch-size"] || cfg.BatchSize == 0 {
		cfg.BatchSize = *batchSize
	}
	if set["watch"] {
		cfg.WatchModels = *watch
	}

	reg, err := registry.LoadDir(cfg.ModelsDir)
	if err != nil {
		log.Fatal().Err(err).Str("models_dir", cfg.ModelsDir).Msg("failed to load models")
	}
	if len(reg) == 0 {
		log.Warn().Str("models_dir", cfg.ModelsDir).Msg("no models found")
	}

	provider, err := descriptor.NewToolProvider(descriptor.ToolConfig{
		Binary:         cfg.ToolBinary,
		ParametersFile: cfg.ParametersFile,
		KeyFile:        cfg.KeyFile,
		NumCPU:         cfg.ToolNumCPU,
		WorkDir:        cfg.ToolWorkDir,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("descriptor tool setup failed")
	}

	sys, err := predictor.New(predictor.Config{
		Registry:     reg,
		Provider:     provider,
		Device:       cfg.Device,
		BatchSize:    cfg.BatchSize,
		DefaultModel: cfg.DefaultModel,
		Logger:       log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("prediction system setup failed")
	}

	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()
	httpapi.SetBaseContext(baseCtx)
	httpapi.SetLogger(log)
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetPredictTimeoutSeconds(cfg.PredictTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.CORSEnabled, cfg.CORSAllowedOrigins, cfg.CORSAllowedMethods, cfg.CORSAllowedHeaders)

	if cfg.WatchModels {
		go func() {
			if err := registry.Watch(baseCtx, cfg.ModelsDir, log, sys.SetRegistry); err != nil && baseCtx.Err() == nil {
				log.Error().Err(err).Msg("models dir watch stopped")
			}
		}()
	}

	mux := httpapi.NewMux(sys)
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Int("models", len(reg)).Msg("chempredd listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Graceful shutdown (Ctrl+C / SIGTERM)
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	baseCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown error")
	}
}
