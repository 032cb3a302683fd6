package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/oembed/internal/server"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP proxy until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config.Server
	if host := cmd.String("host"); host != "" {
		cfg.Host = host
	}
	if port := int(cmd.Int("port")); port > 0 {
		cfg.Port = port
	}
	if cfg.Port <= 0 || cfg.Port > 65535 {
		return fmt.Errorf("%w: port %d", shared.ErrInvalidFlag, cfg.Port)
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	router := server.NewRouter(svc, r.config.Client, r.logger)
	return server.ListenAndServe(ctx, cfg.Addr(), router, r.logger)
}
