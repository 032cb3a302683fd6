package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/oembed/internal/discovery"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/repositories"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/desertthunder/oembed/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The oEmbed service and the history database are created on first use so that commands
// like `setup config` work before a valid configuration exists.
type Runner struct {
	config     *shared.Config
	configPath string
	svc        services.Service
	discoverer *discovery.Discoverer
	httpClient *http.Client
	db         *sql.DB
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	HTTPClient *http.Client
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
	OpenURL    func(string) error // opens a URL in the browser; defaults to [shared.OpenBrowser]
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Config.Client.TimeoutDuration()}
	}
	if opts.OpenURL == nil {
		opts.OpenURL = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		svc:        opts.Service,
		httpClient: opts.HTTPClient,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    opts.OpenURL,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		providersCommand, fetchCommand, discoverCommand, batchCommand, historyCommand, setupCommand, serveCommand, browseCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the configuration named by --config and applies --verbose.
// A missing config file is not an error; defaults are used.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	path := cmd.String("config")
	if path == "" {
		return ctx, nil
	}
	r.configPath = path

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return ctx, nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return ctx, err
	}
	r.SetConfig(config)
	return ctx, nil
}

// After releases the database connection, if one was opened.
func (r *Runner) After(ctx context.Context, cmd *cli.Command) error {
	return r.Close()
}

// Close closes the history database.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetConfig replaces the configuration and rebuilds the HTTP client timeout from it.
func (r *Runner) SetConfig(config *shared.Config) {
	r.config = config
	r.httpClient.Timeout = config.Client.TimeoutDuration()
}

// SetLogger replaces the logger, e.g. to redirect logs away from the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// service returns the oEmbed service, creating it from the configuration on first use.
func (r *Runner) service(ctx context.Context) (services.Service, error) {
	if r.svc != nil {
		return r.svc, nil
	}

	reg, err := registry.Open(r.config.Registry.Path)
	if err != nil {
		return nil, err
	}
	if r.config.Registry.Path != "" {
		r.logger.Debug("loaded provider registry", "path", r.config.Registry.Path, "providers", reg.Len())
	}

	svc, err := services.NewOEmbedService(ctx, services.OEmbedOpts{
		Registry:    reg,
		HTTPClient:  r.httpClient,
		UserAgent:   r.config.Client.UserAgent,
		Logger:      r.logger,
		Credentials: r.config.Credentials.Providers,
	})
	if err != nil {
		return nil, err
	}
	r.svc = svc
	return svc, nil
}

func (r *Runner) discovery() *discovery.Discoverer {
	if r.discoverer == nil {
		r.discoverer = discovery.NewDiscoverer(discovery.DiscovererOpts{
			HTTPClient: r.httpClient,
			UserAgent:  r.config.Client.UserAgent,
			Logger:     r.logger,
		})
	}
	return r.discoverer
}

// database opens the history database and applies pending migrations on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, err
	}
	r.db = db
	return db, nil
}

func (r *Runner) history() (*tasks.History, *repositories.EmbedRepository, *repositories.BatchRepository, error) {
	db, err := r.database()
	if err != nil {
		return nil, nil, nil, err
	}
	embeds := repositories.NewEmbedRepository(db)
	batches := repositories.NewBatchRepository(db)
	return tasks.NewHistory(embeds, batches), embeds, batches, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writeBytes(data []byte) error {
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
