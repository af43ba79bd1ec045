package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"sjsage522/productworker/config"
	"sjsage522/productworker/helpers"
	"sjsage522/productworker/internal/fetch"
	"sjsage522/productworker/internal/identity"
	"sjsage522/productworker/internal/ingest"
	"sjsage522/productworker/internal/snapshot"
	"sjsage522/productworker/internal/store"
	"sjsage522/productworker/internal/wiki"
	"sjsage522/productworker/logger"
	"sjsage522/productworker/services/cache"
	"sjsage522/productworker/services/proxy"
	"sjsage522/productworker/services/publisher"
)

func main() {
	var (
		sourceFlag    = flag.String("source", "fanza,mgs", "comma-separated sources to ingest (fanza, mgs)")
		limitFlag     = flag.Int("limit", 0, "max products to process per source, 0 for unbounded")
		pageFlag      = flag.Int("page", 1, "listing page to start from")
		orderFlag     = flag.String("order", ingest.OrderNewest, "listing order: newest or oldest")
		forceFlag     = flag.Bool("force", false, "reprocess pages even when unchanged")
		dryRunFlag    = flag.Bool("dry-run", false, "fetch and extract but write nothing")
		wikiFlag      = flag.Bool("wiki", false, "run the auxiliary wiki crawl instead of ingestion")
		reconcileFlag = flag.Bool("reconcile", false, "run the wiki staging reconciliation pass")
		wikiPagesFlag = flag.Int("wiki-pages", 50, "max pages per wiki site crawl")
	)
	flag.Parse()

	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	if rt := proxy.NewTransport(cfg.ProxyURL, cfg.ProxyEnabled); rt != nil {
		helpers.SetTransport(rt)
		log.Info().Str("proxy", cfg.ProxyURL).Msg("Routing requests through proxy")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Str("source", *sourceFlag).
		Bool("dry_run", *dryRunFlag).
		Msg("Starting application")

	// Set up context with cancellation on shutdown signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	// Initialize services
	services, err := initializeServices(ctx, &cfg, *dryRunFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize services")
	}
	defer services.Cleanup()

	switch {
	case *wikiFlag:
		runWikiCrawl(ctx, &cfg, services, *wikiPagesFlag)
	case *reconcileFlag:
		runReconcile(ctx, services)
	default:
		runIngestion(ctx, &cfg, services, ingest.Options{
			Limit:     *limitFlag,
			StartPage: *pageFlag,
			Order:     *orderFlag,
			Force:     *forceFlag,
			DryRun:    *dryRunFlag,
		}, *sourceFlag)
	}

	log.Info().Msg("Shutting down gracefully...")
}

// Services holds all the initialized services
type Services struct {
	Cache     cache.CacheService
	Publisher publisher.Publisher
	Writer    *store.Writer
	Snapshots *snapshot.Store
}

// Cleanup cleans up all services
func (s *Services) Cleanup() {
	if s.Publisher != nil {
		s.Publisher.Close()
	}
	if s.Writer != nil {
		s.Writer.Close()
	}
}

// initializeServices initializes all required services
func initializeServices(ctx context.Context, cfg *config.Config, dryRun bool) (*Services, error) {
	services := &Services{}

	services.Cache = cache.NewMemcacheService(cfg.MemcacheAddr)
	logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)

	writer, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := writer.Ping(ctx); err != nil {
		return nil, err
	}
	if err := writer.EnsureSchema(ctx); err != nil {
		return nil, err
	}
	services.Writer = writer
	logger.Info("Connected to Postgres")

	services.Snapshots = snapshot.New(writer.Pool(), cfg.SnapshotDir)

	// the event stream is pointless in a dry run
	if !dryRun {
		services.Publisher = publisher.NewRedisPublisher(
			ctx,
			cfg.RedisAddr,
			cfg.RedisDB,
			cfg.RedisStreamPrefix,
			cfg.RedisStreamCount,
			cfg.RedisStreamMaxLen,
		)
		logger.Info("Connected to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStreamPrefix)
	}

	return services, nil
}

func runIngestion(ctx context.Context, cfg *config.Config, services *Services, opts ingest.Options, sources string) {
	log := logger.ForPipeline()
	resolver := identity.NewResolver(services.Writer, services.Writer)

	for _, name := range strings.Split(sources, ",") {
		name = strings.TrimSpace(name)

		var site ingest.SourceSite
		var profile fetch.SiteProfile
		switch name {
		case "fanza":
			site = ingest.FanzaSite(cfg.FanzaBaseURL)
			profile = fetch.FanzaProfile(cfg.FanzaBaseURL)
		case "mgs":
			site = ingest.MGSSite(cfg.MgsBaseURL)
			profile = fetch.MGSProfile(cfg.MgsBaseURL)
		case "":
			continue
		default:
			log.Warn().Str("source", name).Msg("Unknown source, skipping")
			continue
		}

		fetcher := fetch.New(profile, cfg.FetchBaseDelay, cfg.FetchJitter,
			cfg.MaxAttempts, cfg.RetryBaseDelay, services.Cache)

		p := ingest.New(site, fetcher, services.Snapshots, services.Writer, resolver, services.Publisher)
		p.EmptyPageLimit = cfg.EmptyPageLimit
		p.NoNewPageLimit = cfg.NoNewPageLimit

		if _, err := p.Run(ctx, opts); err != nil {
			log.Error().Err(err).Str("source", name).Msg("Ingestion run aborted")
			return
		}
	}
}

func runWikiCrawl(ctx context.Context, cfg *config.Config, services *Services, maxPages int) {
	sites := []wiki.Site{
		wiki.AvWikiSite(cfg.AvWikiBaseURL),
		wiki.ShiroutonameSite(cfg.ShiroutonameBaseURL),
	}

	for _, site := range sites {
		fetcher := fetch.New(fetch.WikiProfile(site.Name), cfg.FetchBaseDelay, cfg.FetchJitter,
			cfg.MaxAttempts, cfg.RetryBaseDelay, services.Cache)

		c := wiki.NewCrawler(site, fetcher, services.Writer, services.Cache, maxPages)
		if _, err := c.Run(ctx); err != nil {
			logger.ForWiki(site.Name).Error().Err(err).Msg("Wiki crawl aborted")
			return
		}
	}
}

func runReconcile(ctx context.Context, services *Services) {
	r := wiki.NewReconciler(services.Writer)
	if _, err := r.Run(ctx, 500); err != nil {
		logger.ForWiki("reconcile").Error().Err(err).Msg("Reconciliation aborted")
	}
}
