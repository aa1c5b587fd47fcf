package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ezachrisen/verdict"
	"github.com/ezachrisen/verdict/cel"
	"github.com/ezachrisen/verdict/internal/config"
	"github.com/ezachrisen/verdict/internal/logger"
	"github.com/ezachrisen/verdict/internal/server"
	"github.com/ezachrisen/verdict/store"
	"github.com/ezachrisen/verdict/store/redisstore"
	"github.com/ezachrisen/verdict/store/sqlstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the rule API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address; overrides the config file")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.New(cfg.Log)
	defer log.Sync() //nolint:errcheck

	st, err := openStore(ctx, cfg.Store, log)
	if err != nil {
		return err
	}
	defer st.Close()

	engineOpts := []verdict.EngineOption{verdict.WithLogger(log)}
	if cfg.Eval.Backend == "cel" {
		engineOpts = append(engineOpts, verdict.WithEvaluator(cel.NewEvaluator()))
	}
	srv, err := server.New(ctx, cfg.Server, verdict.NewEngine(engineOpts...), st, log)
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.Listen(cfg.Server.Addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errc:
		return err
	case <-quit:
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (store.Store, error) {
	switch cfg.Type {
	case "memory":
		return store.NewMemory(), nil
	case "sql":
		return sqlstore.Open(cfg.Database, log)
	case "redis":
		return redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.Prefix)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Type)
	}
}
