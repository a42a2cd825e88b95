package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/smartkrishi/smsgate/internal/ai"
	"github.com/smartkrishi/smsgate/internal/config"
	"github.com/smartkrishi/smsgate/internal/conversation"
	"github.com/smartkrishi/smsgate/internal/handlers"
	"github.com/smartkrishi/smsgate/internal/ledger"
	"github.com/smartkrishi/smsgate/internal/logger"
	"github.com/smartkrishi/smsgate/internal/pipeline"
	"github.com/smartkrishi/smsgate/internal/server"
	"github.com/smartkrishi/smsgate/internal/sms"
	"github.com/smartkrishi/smsgate/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "smsgate",
		Short:        "SMS to AI relay gateway",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default config.toml)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("smsgate %s\n", version.GetInfo())
		},
	}
	cmd.AddCommand(serve, versionCmd)
	return cmd
}

func runServe(configPath string) error {
	app := fx.New(
		fx.Provide(
			provideConfig(configPath),
			provideLogger,

			provideTransport,
			provideLedger,
			provideConversationStore,
			provideBackend,
			ai.NewSessions,
			providePipeline,

			provideServerHandler(handlers.NewStatusHandler),
			provideServerHandler(handlers.NewMessagesHandler),
			provideServerHandler(handlers.NewHistoryHandler),

			provideServer,
		),
		fx.Invoke(
			startPipeline,
			startServer,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	)
	app.Run()
	return app.Err()
}

func provideConfig(configPath string) func() (config.Config, error) {
	return func() (config.Config, error) {
		if configPath == "" {
			configPath = os.Getenv("CONFIG_PATH")
		}
		cfg, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, fmt.Errorf("load config: %w", err)
		}
		return cfg, nil
	}
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideTransport(log *slog.Logger, cfg config.Config) sms.Transport {
	return sms.NewTermux(log, cfg.SMS.ListLimit)
}

func provideLedger(log *slog.Logger, cfg config.Config) *ledger.Ledger {
	return ledger.Load(log, filepath.Join(cfg.Store.DataDir, cfg.Store.ProcessedFile))
}

func provideConversationStore(log *slog.Logger, cfg config.Config) *conversation.Store {
	return conversation.NewStore(log, filepath.Join(cfg.Store.DataDir, cfg.Store.HistoryFile))
}

func provideBackend(log *slog.Logger, cfg config.Config) (ai.Backend, error) {
	backend, err := ai.NewGemini(context.Background(), log, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.Prompt())
	if err != nil {
		return nil, fmt.Errorf("gemini backend: %w", err)
	}
	return backend, nil
}

func providePipeline(log *slog.Logger, cfg config.Config, transport sms.Transport, led *ledger.Ledger, conv *conversation.Store, sessions *ai.Sessions) *pipeline.Service {
	return pipeline.NewService(log, pipeline.Config{
		PollInterval:      cfg.SMS.Interval(),
		LongPollTimeout:   cfg.Pipeline.Timeout(),
		ChunkDelay:        cfg.SMS.Delay(),
		DispatchQueueSize: cfg.Pipeline.DispatchQueueSize,
		SendQueueSize:     cfg.Pipeline.SendQueueSize,
		DispatchWorkers:   cfg.Pipeline.DispatchWorkers,
		Grounding:         cfg.Gemini.Grounding,
		AckText:           cfg.Pipeline.AckText,
		ApologyText:       cfg.Pipeline.ApologyText,
	}, transport, led, conv, sessions)
}

func provideServerHandler(fn any) any {
	return fx.Annotate(
		fn,
		fx.As(new(server.Handler)),
		fx.ResultTags(`group:"server_handlers"`),
	)
}

type serverParams struct {
	fx.In

	Logger         *slog.Logger
	Config         config.Config
	ServerHandlers []server.Handler `group:"server_handlers"`
}

func provideServer(params serverParams) *server.Server {
	return server.NewServer(params.Logger, params.Config.Server.Addr, params.ServerHandlers...)
}

func startPipeline(lc fx.Lifecycle, svc *pipeline.Service) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			svc.Start(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, logger *slog.Logger, srv *server.Server, shutdowner fx.Shutdowner) {
	fmt.Printf("Starting smsgate %s\n", version.GetInfo())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil { // block until server is stopped
					logger.Error("server failed", slog.Any("error", err))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := srv.Stop(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server stop: %w", err)
			}
			return nil
		},
	})
}
