package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/oembed/internal/formatter"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/urfave/cli/v3"
)

// ProvidersList prints every provider in registry order.
func (r *Runner) ProvidersList(ctx context.Context, cmd *cli.Command) error {
	svc, err := r.service(ctx)
	if err != nil {
		return err
	}
	providers := svc.Registry().Providers()

	if cmd.Bool("json") {
		return r.writeJSON(providers, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("%d providers", len(providers)))
	return r.writeBytes(formatter.ProvidersToText(providers))
}

// ProvidersFind reports the provider, endpoint and scheme a URL resolves to.
func (r *Runner) ProvidersFind(ctx context.Context, cmd *cli.Command) error {
	target := cmd.StringArg("url")
	if target == "" {
		return fmt.Errorf("%w: url", shared.ErrMissingArgument)
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	provider, endpoint, ok := svc.Registry().FindProvider(target)
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrNoMatchingProvider, target)
	}

	match := struct {
		URL      string            `json:"url"`
		Provider string            `json:"provider_name"`
		Endpoint registry.Endpoint `json:"endpoint"`
		Scheme   string            `json:"scheme"`
		Request  string            `json:"request"`
	}{
		URL:      target,
		Provider: provider.Name,
		Endpoint: *endpoint,
		Scheme:   endpoint.Scheme(target),
	}
	if match.Request, err = services.BuildURL(endpoint.URL, services.ConsumerRequest{URL: target}.WithDefaults(r.config.Client)); err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(match, cmd.Bool("pretty"))
	}

	r.writePlain("Provider: %s\n", match.Provider)
	r.writePlain("Scheme:   %s\n", match.Scheme)
	r.writePlain("Endpoint: %s\n", match.Endpoint.URL)
	return r.writePlain("Request:  %s\n", match.Request)
}

// ProvidersShow prints a single provider's endpoints and schemes.
func (r *Runner) ProvidersShow(ctx context.Context, cmd *cli.Command) error {
	name := cmd.StringArg("name")
	if name == "" {
		return fmt.Errorf("%w: name", shared.ErrMissingArgument)
	}

	svc, err := r.service(ctx)
	if err != nil {
		return err
	}

	provider, err := svc.Registry().Provider(name)
	if err != nil {
		return err
	}

	if cmd.Bool("open") {
		r.logger.Info("opening provider", "url", provider.URL)
		if err := r.openURL(provider.URL); err != nil {
			return err
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(provider, cmd.Bool("pretty"))
	}
	return r.writeBytes(formatter.ProviderToMarkdown(*provider))
}
