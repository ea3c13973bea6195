package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/bookstorectl/internal/access"
	"github.com/blackwell-systems/bookstorectl/internal/apperr"
	"github.com/blackwell-systems/bookstorectl/internal/bookapi"
	"github.com/blackwell-systems/bookstorectl/internal/config"
	"github.com/blackwell-systems/bookstorectl/internal/objectstore"
	"github.com/blackwell-systems/bookstorectl/internal/store"
	"github.com/blackwell-systems/bookstorectl/internal/tui"
	"github.com/blackwell-systems/bookstorectl/internal/util"
)

var (
	cfg      *config.Config
	logger   *slog.Logger
	api      *bookapi.Client
	books    *store.Store
	pipeline *store.Pipeline
	resolver access.Resolver
	registry *prometheus.Registry
	// transfers has no client timeout; the command context cancels downloads.
	transfers = &http.Client{}

	flagNoColor       bool
	flagNoInteractive bool
	flagVerbose       bool
	flagConfig        string
	flagMetricsFile   string
	flagStrategy      string
)

// offline marks commands that run without the catalog service.
const offline = "offline"

var rootCmd = &cobra.Command{
	Use:   "bookstorectl",
	Short: "Browse, upload and fetch books from a remote ebook store",
	Long: `bookstorectl keeps a local view of a remote book catalog.

Uploads and deletes go to the catalog service and are followed by a
refresh. View and download links are only handed out once the object
behind them is confirmed to exist.

Run 'bookstorectl' with no arguments in a terminal to browse interactively.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tui.ShouldUseTUI(cmd) {
			return runBrowse(cmd)
		}
		return cmd.Help()
	},
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if merr := writeMetrics(flagMetricsFile); merr != nil {
		warn("Could not write metrics: %v", merr)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗"), describeError(err))
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	pf.BoolVar(&flagNoInteractive, "no-interactive", false, "Disable interactive TUI mode")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Log requests and decisions to stderr")
	pf.StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/bookstorectl/config.yml)")
	pf.StringVar(&flagMetricsFile, "metrics-file", "", "Write Prometheus metrics for this run to a textfile")
	pf.StringVar(&flagStrategy, "strategy", "", "Access strategy override: probe or brokered")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		util.InitColor(flagNoColor)

		var err error
		cfg, err = config.Load(flagConfig)
		if err != nil {
			if cmd.Annotations[offline] == "" {
				return fmt.Errorf("loading config: %w", err)
			}
			cfg = config.Default()
		}
		if flagStrategy != "" {
			cfg.Resolver.Strategy = flagStrategy
		}
		logger = setupLogger(cfg.Log.Level, cfg.Log.Format, flagVerbose)

		if cmd.Annotations[offline] != "" {
			return nil
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		return wire()
	}

	rootCmd.AddCommand(
		newListCmd(),
		newUploadCmd(),
		newDeleteCmd(),
		newViewCmd(),
		newDownloadCmd(),
		newInfoCmd(),
		newBrowseCmd(),
		newConfigCmd(),
		newVersionCmd(),
		newCompletionCmd(),
	)
}

// wire builds the service client, store, pipeline and resolver from cfg.
func wire() error {
	api = bookapi.New(bookapi.Options{
		BaseURL:   cfg.API.BaseURL,
		UserAgent: cfg.API.EffectiveUserAgent(appVersion),
		Timeout:   cfg.API.Timeout,
		RateLimit: cfg.API.RateLimit,
		Retries:   cfg.API.Retries,
		Routes: bookapi.Routes{
			List:      cfg.API.Routes.List,
			Create:    cfg.API.Routes.Create,
			Delete:    cfg.API.Routes.Delete,
			AccessURL: cfg.API.Routes.AccessURL,
			Stream:    cfg.API.Routes.Stream,
		},
		Logger: logger,
	})

	registry = prometheus.NewRegistry()
	books = store.New(api,
		store.WithLogger(logger),
		store.WithMetrics(store.MustNewMetrics(registry)),
	)
	pipeline = store.NewPipeline(books, api, store.WithAllowedFormats(cfg.Upload.AllowedFormats))

	var err error
	resolver, err = access.New(access.Options{
		Strategy: cfg.Resolver.Strategy,
		Catalog:  books,
		Templates: objectstore.Templates{
			View:     cfg.ObjectStore.ViewTemplate,
			Download: cfg.ObjectStore.DownloadTemplate,
		},
		Prober:     objectstore.NewProber(&http.Client{Timeout: cfg.API.Timeout}, cfg.API.Retries, logger),
		Broker:     api,
		StreamView: cfg.Resolver.StreamView,
		Logger:     logger,
	})
	return err
}

// loadCatalog refreshes the store before commands that read it.
func loadCatalog(ctx context.Context) error {
	if _, err := books.Refresh(ctx); err != nil {
		return fmt.Errorf("loading catalog: %w", err)
	}
	return nil
}

// describeError adds a hint for the failure kinds users can act on.
func describeError(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, store.ErrRefreshAfterMutation):
		return msg + " (the change was applied; run 'bookstorectl list' to see it)"
	case apperr.Is(err, apperr.KindNetwork):
		return msg + " (check api.base_url and your connection)"
	}
	return msg
}
