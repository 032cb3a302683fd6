package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/oembed/internal/discovery"
	"github.com/desertthunder/oembed/internal/formatter"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/urfave/cli/v3"
)

// Discover lists the oEmbed links a page advertises and optionally fetches the JSON one.
func (r *Runner) Discover(ctx context.Context, cmd *cli.Command) error {
	page := strings.TrimSpace(cmd.StringArg("url"))
	if page == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	links, err := r.discovery().Discover(ctx, page)
	if err != nil {
		return err
	}
	r.logger.Debug("discovered links", "url", page, "count", len(links))

	if !cmd.Bool("fetch") {
		if cmd.Bool("json") {
			return r.writeJSON(links, cmd.Bool("pretty"))
		}
		for _, link := range links {
			r.writePlain("[%s] %s\n", link.Format, link.Href)
			if link.Title != "" {
				r.writePlain("       %s\n", link.Title)
			}
		}
		return nil
	}

	link, ok := discovery.JSONLink(links)
	if !ok {
		return fmt.Errorf("%w: %s advertises only XML oEmbed", shared.ErrNoLinks, page)
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}
	resp, err := svc.FetchURL(ctx, link.Href)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(resp, cmd.Bool("pretty"))
	}

	embed := &services.Embed{URL: page, Endpoint: registry.Endpoint{URL: link.Href}, Response: resp}
	if resp.ProviderName != nil {
		embed.Provider = registry.Provider{Name: *resp.ProviderName}
	}
	return r.writeBytes(formatter.EmbedToText(embed))
}
