package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"crous-x/config"
	"crous-x/i18n"
	"crous-x/models"
	"crous-x/services"
	"crous-x/storage"
	"crous-x/utils"
	"crous-x/view"
)

var (
	cfg    *config.Config
	logger *utils.Logger
)

var rootCmd = &cobra.Command{
	Use:   "crousx",
	Short: "CROUS-X student housing listings browser",
	Long: `Serves the CROUS-X listings page: filter, sort and search student housing
offers, with the results kept in step with a map.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg = config.Load()
		logger = utils.NewLoggerWithLevel(cfg.LogLevel, cfg.LogFormat)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, seedCmd, exportCmd, statsCmd, probeCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openSource builds the configured listings source, with the Redis cache in
// front of it when one is configured. The returned func releases it.
func openSource(ctx context.Context) (services.ListingSource, func(), error) {
	var (
		upstream storage.ListingReader
		closers  []func() error
	)

	switch cfg.ListingsSource {
	case "http":
		upstream = storage.NewHTTPSource(cfg.ListingsURL, cfg.FetchTimeout, cfg.MaxRetries, logger)
	case "postgres":
		ps, err := storage.NewPostgresStore(ctx, cfg.DSN(), logger)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres source: %w", err)
		}
		upstream = ps
		closers = append(closers, ps.Close)
	default:
		return nil, nil, fmt.Errorf("unknown LISTINGS_SOURCE %q (want http or postgres)", cfg.ListingsSource)
	}

	var source services.ListingSource = upstream
	if cfg.CacheEnabled() {
		cached := storage.NewCachedSource(upstream, storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.CacheTTL, logger)
		closers = append(closers, cached.Close)
		source = cached
		logger.Info("Listing cache enabled at %s (ttl %s)", cfg.RedisAddr, cfg.CacheTTL)
	}

	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logger.Warn("Closing listings source: %v", err)
			}
		}
	}
	return source, release, nil
}

// loadCatalog returns the translation catalog; unreadable override files are
// reported but never fatal.
func loadCatalog() *i18n.Catalog {
	catalog, err := i18n.Load(cfg.TranslationsDir, cfg.Languages, cfg.DefaultLanguage, logger)
	if err != nil {
		logger.Warn("Some translations could not be loaded: %v", err)
	}
	return catalog
}

func mapOptions() view.MapOptions {
	return view.MapOptions{
		Container:   "map",
		TileURL:     cfg.MapTileURL,
		Attribution: cfg.MapAttribution,
		Center:      models.LatLng{Lat: cfg.MapCenterLat, Lng: cfg.MapCenterLng},
		Zoom:        cfg.MapZoom,
		Clustering:  cfg.MapClustering,
		ResizeDelay: cfg.MapResizeDelay,
	}
}
