package cli

import (
	"context"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/m-mizutani/ctxlog"
	"github.com/m-mizutani/emailfinder/pkg/cli/config"
	"github.com/m-mizutani/emailfinder/pkg/domain/interfaces"
	"github.com/m-mizutani/emailfinder/pkg/domain/model"
	"github.com/m-mizutani/emailfinder/pkg/infra/display"
	"github.com/m-mizutani/emailfinder/pkg/infra/download"
	"github.com/m-mizutani/emailfinder/pkg/infra/processor"
	"github.com/m-mizutani/emailfinder/pkg/usecase"
	"github.com/m-mizutani/emailfinder/pkg/utils/async"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func cmdUpload() *cli.Command {
	var (
		clientCfg  config.Client
		concurrent bool
	)

	flags := append(clientCfg.Flags(), &cli.BoolFlag{
		Name:        "concurrent",
		Usage:       "Submit all files at once instead of one after another",
		Destination: &concurrent,
	})

	return &cli.Command{
		Name:      "upload",
		Aliases:   []string{"u"},
		Usage:     "Send workbooks to the /process endpoint and save the results",
		ArgsUsage: "<file>...",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("no file selected")
			}

			fields, err := clientCfg.FormFields()
			if err != nil {
				return err
			}

			client, err := processor.NewClient(clientCfg.Endpoint)
			if err != nil {
				return err
			}

			var sinkOpts []download.Option
			if clientCfg.Overwrite {
				sinkOpts = append(sinkOpts, download.WithOverwrite())
			}
			sink := download.NewDirectory(clientCfg.OutputDir, sinkOpts...)

			ctxlog.From(ctx).Info("Uploading files",
				slog.String("endpoint", client.Endpoint()),
				slog.Int("files", len(paths)),
				slog.Bool("concurrent", concurrent),
			)

			var failed atomic.Int32
			submit := func(ctx context.Context, path string) error {
				status := newConsole(c.Root().Writer, clientCfg, path, len(paths) > 1)
				handler := usecase.NewUploadHandler(client, sink, status)
				if err := submitFile(ctx, handler, status, path, fields, clientCfg.Timeout); err != nil {
					failed.Add(1)
					return err
				}
				return nil
			}

			if concurrent {
				done := make([]<-chan struct{}, 0, len(paths))
				for _, path := range paths {
					done = append(done, async.Dispatch(ctx, func(ctx context.Context) error {
						return submit(ctx, path)
					}))
				}
				async.Wait(done...)
			} else {
				for _, path := range paths {
					_ = submit(ctx, path)
				}
			}

			if n := failed.Load(); n > 0 {
				return goerr.New("some submissions failed", goerr.V("failed", n), goerr.V("total", len(paths)))
			}
			return nil
		},
	}
}

func newConsole(w io.Writer, cfg config.Client, path string, multi bool) interfaces.StatusDisplay {
	var opts []display.ConsoleOption
	if multi {
		opts = append(opts, display.WithPrefix(statusPrefix(path)))
	}
	if cfg.NoColor {
		opts = append(opts, display.WithoutColor())
	}
	return display.NewConsole(w, opts...)
}

// statusPrefix tags a status line with the file it belongs to, e.g. "[a.xlsx] "
func statusPrefix(path string) string {
	return "[" + filepath.Base(path) + "] "
}

// submitFile reads one file and runs it through the handler. A file that cannot be read is
// reported on the display like any other failure.
func submitFile(ctx context.Context, handler *usecase.UploadHandler, status interfaces.StatusDisplay, path string, fields url.Values, timeout time.Duration) error {
	content, err := os.ReadFile(path)
	if err != nil {
		err = goerr.Wrap(err, "failed to read file", goerr.V("path", path))
		ctxlog.From(ctx).Error("Upload failed", slog.Any("error", err))
		status.SetError(usecase.FailureDescription(err))
		return err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	form := &model.Form{
		Fields: fields,
		File:   &model.UploadFile{Name: filepath.Base(path), Content: content},
	}
	_, err = handler.Submit(ctx, form)
	return err
}
