package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"crous-x/controller"
	"crous-x/models"
	"crous-x/probe"
	"crous-x/server"
	"crous-x/services"
	"crous-x/storage"
	"crous-x/view"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the listings page and its API",
	RunE:  runServe,
}

var seedCmd = &cobra.Command{
	Use:   "seed [listings.json]",
	Short: "Replace the Postgres listings table with a JSON array of listings",
	Args:  cobra.ExactArgs(1),
	RunE:  runSeed,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the filtered and sorted listings to CSV",
	Long: `Loads the listings, applies the same filters and sort as the page and
writes the visible grid, in order, to a CSV file.

Example:
  crousx export --max-price 900 --types Studio --sort price-asc --out cheap.csv`,
	RunE: runExport,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print a summary of the listing collection",
	RunE:  runStats,
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Load the running page in headless Chrome and report what it drew",
	RunE:  runProbe,
}

func init() {
	exportCmd.Flags().String("out", "listings.csv", "CSV output path")
	exportCmd.Flags().Int("max-price", 0, "maximum monthly rent")
	exportCmd.Flags().Int("max-size", 0, "maximum surface in m²")
	exportCmd.Flags().StringSlice("types", nil, "property types to keep (Studio, Apartment, Shared Room, House, Other)")
	exportCmd.Flags().String("q", "", "search term matched against title and address")
	exportCmd.Flags().String("sort", string(models.SortNew), "sort key: new, price-asc, price-desc or rating")

	probeCmd.Flags().String("url", "http://localhost:8080/", "listings page URL")
	probeCmd.Flags().StringSlice("langs", nil, "languages to probe (defaults to LANGUAGES)")
	probeCmd.Flags().Duration("timeout", 45*time.Second, "per-page timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	source, release, err := openSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	catalog := loadCatalog()
	factory := server.NewControllerFactory(source, catalog, view.LeafletLibrary{}, mapOptions(), controller.Options{
		SliderMaxPrice: cfg.SliderMaxPrice,
		SliderMaxSize:  cfg.SliderMaxSize,
		Language:       catalog.Default(),
	}, logger)

	sessions := server.NewSessions(factory, server.SessionOptions{
		IdleTimeout: cfg.SessionIdleTimeout,
		MaxSessions: cfg.MaxSessions,
		InitTimeout: cfg.FetchTimeout * time.Duration(max(cfg.MaxRetries, 1)),
	}, logger)
	go sessions.RunJanitor(ctx, time.Minute)

	srv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: server.New(sessions, catalog, server.Options{
			SliderMaxPrice: cfg.SliderMaxPrice,
			SliderMaxSize:  cfg.SliderMaxSize,
		}, logger).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("=== CROUS-X starting (source: %s, languages: %v) ===", cfg.ListingsSource, catalog.Languages())
	return server.RunWithShutdown(ctx, srv, logger, 15*time.Second, 5*time.Second, sessions.Close)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	defer f.Close()

	listings, err := storage.DecodeListings(f, logger)
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	ps, err := storage.NewPostgresStore(ctx, cfg.DSN(), logger)
	if err != nil {
		return err
	}
	defer ps.Close()

	if err := ps.Write(ctx, listings); err != nil {
		return err
	}

	if cfg.CacheEnabled() {
		cached := storage.NewCachedSource(ps, storage.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), cfg.CacheTTL, logger)
		defer cached.Close()
		if err := cached.Invalidate(ctx); err != nil {
			logger.Warn("Seeded listings may be hidden by the cache until it expires: %v", err)
		}
	}
	logger.Info("Seeded %d listings from %s", len(listings), args[0])
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	source, release, err := openSource(ctx)
	if err != nil {
		return err
	}
	defer release()

	catalog := loadCatalog()
	c := controller.New(
		services.NewDataStore(source, logger),
		view.NewSynchronizer(nil, catalog, mapOptions(), catalog.Default(), logger),
		catalog,
		controller.Options{SliderMaxPrice: cfg.SliderMaxPrice, SliderMaxSize: cfg.SliderMaxSize, Language: catalog.Default()},
		logger,
	)
	defer c.Teardown()
	c.Init(ctx)

	var u controller.Update
	if flags.Changed("max-price") {
		v, _ := flags.GetInt("max-price")
		u.MaxPrice = &v
	}
	if flags.Changed("max-size") {
		v, _ := flags.GetInt("max-size")
		u.MaxSize = &v
	}
	if flags.Changed("types") {
		raw, _ := flags.GetStringSlice("types")
		types := make([]models.PropertyType, 0, len(raw))
		for _, t := range raw {
			types = append(types, models.PropertyType(t))
		}
		u.Types = &types
	}
	if flags.Changed("q") {
		v, _ := flags.GetString("q")
		u.Search = &v
	}
	if flags.Changed("sort") {
		v, _ := flags.GetString("sort")
		key := models.SortKey(v)
		u.Sort = &key
	}
	c.Apply(u)

	out, _ := flags.GetString("out")
	w, err := storage.NewCSVWriter(out)
	if err != nil {
		return err
	}
	visible := c.Visible()
	if err := w.Export(visible); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	logger.Info("Exported %d listings to %s", len(visible), out)
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	source, release, err := openSource(cmd.Context())
	if err != nil {
		return err
	}
	defer release()

	store := services.NewDataStore(source, logger)
	store.Load(cmd.Context())

	insights := services.NewInsightService(logger)
	stats := insights.Generate(store.GetAll())
	insights.Print(cmd.OutOrStdout(), stats)

	fmt.Fprintf(cmd.OutOrStdout(), "Suggested sliders: SLIDER_MAX_PRICE=%d SLIDER_MAX_SIZE=%d\n",
		services.SliderCeiling(stats.MaxPrice, 100), services.SliderCeiling(stats.MaxSize, 10))
	return nil
}

func runProbe(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	pageURL, _ := flags.GetString("url")
	timeout, _ := flags.GetDuration("timeout")
	langs, _ := flags.GetStringSlice("langs")
	if len(langs) == 0 {
		langs = cfg.Languages
	}

	p := probe.New(cfg.ChromeBin, timeout, cfg.MaxRetries, logger)
	snaps := p.ProbeLanguages(cmd.Context(), pageURL, langs)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(snaps); err != nil {
		return err
	}
	if len(snaps) < len(langs) {
		return fmt.Errorf("probe: %d of %d pages failed to load", len(langs)-len(snaps), len(langs))
	}
	return nil
}
