package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/desertthunder/oembed/internal/formatter"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/desertthunder/oembed/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Batch resolves every URL in --file and prints or writes a report.
func (r *Runner) Batch(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	urls, err := r.readURLs(cmd.String("file"))
	if err != nil {
		return err
	}
	if len(urls) == 0 {
		return fmt.Errorf("%w: no URLs in %s", shared.ErrInvalidInput, cmd.String("file"))
	}

	req, err := r.consumerRequest(cmd, "")
	if err != nil {
		return err
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	var archiver tasks.EmbedArchiver
	if cmd.Bool("save") {
		history, _, _, err := r.history()
		if err != nil {
			return err
		}
		archiver = history
	}

	rate := cmd.Float("rate")
	if rate <= 0 {
		rate = r.config.Batch.RateLimit
	}
	opts := tasks.BatchOpts{
		RateLimit: rate,
		Workers:   int(cmd.Int("workers")),
		MaxWidth:  req.MaxWidth,
		MaxHeight: req.MaxHeight,
		Params:    req.Params,
	}

	r.logger.Info("starting batch", "urls", len(urls), "workers", opts.Workers, "rate", opts.RateLimit)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.StartBatch, tasks.FinishBatch:
				r.logger.Info(update.Message)
			case tasks.SaveEmbeds:
				r.logger.Warn(update.Message)
			default:
				r.logger.Debug(update.Message)
			}
		}
	}()

	engine := tasks.NewBatchEngine(svc, archiver, r.logger)
	result, err := engine.Run(ctx, progressCh, urls, opts)
	close(progressCh)
	<-done

	if result == nil {
		return err
	}
	if err != nil {
		r.logger.Warn("batch interrupted", "error", err)
	}

	if path := cmd.String("output"); path != "" {
		written, werr := formatter.WriteBatchExport(result, format, path)
		if werr != nil {
			return werr
		}
		r.logger.Info("wrote report", "path", written)
		return err
	}

	data, ferr := formatter.FormatBatch(result, format)
	if ferr != nil {
		return ferr
	}
	if werr := r.writeBytes(data); werr != nil {
		return werr
	}
	return err
}

func (r *Runner) readURLs(path string) ([]string, error) {
	var in io.Reader
	switch path {
	case "":
		return nil, fmt.Errorf("%w: --file", shared.ErrMissingArgument)
	case "-":
		in = os.Stdin
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open url file: %w", err)
		}
		defer f.Close()
		in = f
	}
	return tasks.ReadURLs(in)
}
