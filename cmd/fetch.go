package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/oembed/internal/formatter"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/urfave/cli/v3"
)

// consumerRequest builds a request for target from --maxwidth, --maxheight and --param,
// falling back to the client defaults in the config.
func (r *Runner) consumerRequest(cmd *cli.Command, target string) (services.ConsumerRequest, error) {
	req := services.ConsumerRequest{URL: target}

	if w := int(cmd.Int("maxwidth")); w > 0 {
		req.MaxWidth = &w
	} else if w < 0 {
		return req, fmt.Errorf("%w: --maxwidth must be positive", shared.ErrInvalidFlag)
	}
	if h := int(cmd.Int("maxheight")); h > 0 {
		req.MaxHeight = &h
	} else if h < 0 {
		return req, fmt.Errorf("%w: --maxheight must be positive", shared.ErrInvalidFlag)
	}

	params, err := services.ParseParams(cmd.StringSlice("param"))
	if err != nil {
		return req, err
	}
	req.Params = params

	return req.WithDefaults(r.config.Client), nil
}

// Fetch resolves a URL against the registry (or uses --endpoint) and prints its embed.
func (r *Runner) Fetch(ctx context.Context, cmd *cli.Command) error {
	target := strings.TrimSpace(cmd.StringArg("url"))
	if target == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	req, err := r.consumerRequest(cmd, target)
	if err != nil {
		return err
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	var embed *services.Embed
	if endpoint := cmd.String("endpoint"); endpoint != "" {
		embed, err = r.fetchEndpoint(ctx, svc, endpoint, req)
	} else {
		r.logger.Debug("resolving", "url", target)
		embed, err = svc.Resolve(ctx, req)
	}
	if err != nil {
		return err
	}

	r.logger.Info("fetched embed", "provider", embed.Provider.Name, "type", embed.Response.Kind())

	if cmd.Bool("save") {
		if err := r.saveEmbed(embed); err != nil {
			return err
		}
	}

	if dir := cmd.String("export-dir"); dir != "" {
		result, err := formatter.WriteMarkdownExport(ctx, embed, dir, r.httpClient)
		if err != nil {
			return err
		}
		if result.ThumbnailErr != nil {
			r.logger.Warn("failed to download thumbnail", "url", *embed.Response.ThumbnailURL, "error", result.ThumbnailErr)
		}
		r.logger.Info("exported embed", "dir", result.Directory, "files", len(result.Files))
	}

	switch {
	case cmd.Bool("json"):
		return r.writeJSON(embed.Response, cmd.Bool("pretty"))
	case cmd.Bool("html"):
		return r.writePlain("%s\n", formatter.EmbedHTML(embed.Response, embed.URL))
	default:
		return r.writeBytes(formatter.EmbedToText(embed))
	}
}

// fetchEndpoint fetches from an explicit endpoint, attributing it to a registry provider when one owns it.
func (r *Runner) fetchEndpoint(ctx context.Context, svc services.Service, endpoint string, req services.ConsumerRequest) (*services.Embed, error) {
	resp, err := svc.Fetch(ctx, endpoint, req)
	if err != nil {
		return nil, err
	}

	embed := &services.Embed{URL: req.URL, Endpoint: registry.Endpoint{URL: endpoint}, Response: resp}
	if p, ok := svc.Registry().ProviderForEndpoint(endpoint); ok {
		embed.Provider = *p
	} else if resp.ProviderName != nil {
		embed.Provider = registry.Provider{Name: *resp.ProviderName}
	}
	return embed, nil
}

func (r *Runner) saveEmbed(embed *services.Embed) error {
	history, _, _, err := r.history()
	if err != nil {
		return err
	}
	record, err := history.SaveEmbed(embed, "")
	if err != nil {
		return err
	}
	r.logger.Info("saved embed", "id", record.ID(), "sequence", record.Sequence())
	return nil
}
