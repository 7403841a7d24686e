package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/emailfinder/pkg/cli/config"
	controller "github.com/m-mizutani/emailfinder/pkg/controller/http"
	"github.com/m-mizutani/emailfinder/pkg/infra/excel"
	"github.com/m-mizutani/emailfinder/pkg/infra/scraper"
	"github.com/m-mizutani/emailfinder/pkg/usecase"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdServe() *cli.Command {
	var (
		serverCfg  config.Server
		scraperCfg config.Scraper
		sentryCfg  config.Sentry
	)

	flags := append(serverCfg.Flags(), scraperCfg.Flags()...)
	flags = append(flags, sentryCfg.Flags()...)

	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"s"},
		Usage:   "Start HTTP server providing the upload page and /process",
		Flags:   flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			logger := ctxlog.From(ctx)

			if err := scraperCfg.LoadFile(c.IsSet); err != nil {
				return err
			}
			if err := scraperCfg.Validate(); err != nil {
				return err
			}

			if err := sentryCfg.Configure(); err != nil {
				return err
			}
			defer sentry.Flush(2 * time.Second)

			logger.Info("Starting emailfinder server",
				slog.String("addr", serverCfg.Addr),
				slog.Int64("max_upload_bytes", serverCfg.MaxUploadBytes),
				slog.Any("scraper", scraperCfg),
				slog.Any("sentry", sentryCfg),
			)

			processUC := usecase.NewProcess(
				scraper.New(scraperCfg.Options()...),
				excel.NewCodec(),
			)

			server, err := controller.NewServer(
				ctx,
				processUC,
				controller.WithAddr(serverCfg.Addr),
				controller.WithMaxUploadBytes(serverCfg.MaxUploadBytes),
			)
			if err != nil {
				return goerr.Wrap(err, "failed to create HTTP server")
			}

			go func() {
				logger.Info("HTTP server starting", slog.String("addr", serverCfg.Addr))
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("HTTP server error", slog.Any("error", err))
				}
			}()

			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

			select {
			case <-ctx.Done():
				logger.Info("Context cancelled, shutting down...")
			case sig := <-sigChan:
				logger.Info("Signal received, shutting down...", slog.Any("signal", sig))
			}

			// Scrape jobs can take a while; give in-flight requests time to finish
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return goerr.Wrap(err, "failed to shutdown server gracefully")
			}

			logger.Info("Server shutdown complete")
			return nil
		},
	}
}
