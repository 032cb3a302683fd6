package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenSource returns the [oauth2.TokenSource] for a provider's credentials.
//
// A static access token is used as is; otherwise the client credentials grant is run against
// TokenURL, with tokens cached until they expire.
func TokenSource(ctx context.Context, c shared.ProviderCredentials) (oauth2.TokenSource, error) {
	if c.AccessToken != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: c.AccessToken, TokenType: "Bearer"}), nil
	}
	if !c.Configured() {
		return nil, fmt.Errorf("%w: %s needs access_token or client_id, client_secret and token_url", shared.ErrMissingCredentials, c.Name)
	}

	config := &clientcredentials.Config{
		ClientID:     c.ClientID,
		ClientSecret: c.ClientSecret,
		TokenURL:     c.TokenURL,
	}
	return config.TokenSource(ctx), nil
}

// credentialClients builds one authorized client per endpoint of each configured provider.
// Entries with no credentials filled in are skipped.
func credentialClients(ctx context.Context, reg *registry.Registry, base *http.Client, creds []shared.ProviderCredentials) (map[string]*http.Client, error) {
	clients := make(map[string]*http.Client)
	for _, c := range creds {
		if c.Name == "" || (c.AccessToken == "" && c.ClientID == "" && c.ClientSecret == "" && c.TokenURL == "") {
			continue
		}

		provider, err := reg.Provider(c.Name)
		if err != nil {
			return nil, fmt.Errorf("credentials: %w", err)
		}

		ts, err := TokenSource(ctx, c)
		if err != nil {
			return nil, err
		}

		client := &http.Client{
			Transport: &oauth2.Transport{Source: ts, Base: base.Transport},
			Timeout:   base.Timeout,
		}
		for _, e := range provider.Endpoints {
			clients[ExpandFormat(e.URL)] = client
		}
	}
	return clients, nil
}
