package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/openalexbot/internal/cache"
	"github.com/ppiankov/openalexbot/internal/claims"
	"github.com/ppiankov/openalexbot/internal/langdetect"
	"github.com/ppiankov/openalexbot/internal/metrics"
	"github.com/ppiankov/openalexbot/internal/model"
	"github.com/ppiankov/openalexbot/internal/openalex"
	"github.com/ppiankov/openalexbot/internal/pipeline"
	"github.com/ppiankov/openalexbot/internal/resolve"
	"github.com/ppiankov/openalexbot/internal/throttle"
	"github.com/ppiankov/openalexbot/internal/util"
	"github.com/ppiankov/openalexbot/internal/wikibase"
)

// components holds everything one command needs
type components struct {
	source   *openalex.Client
	kb       *wikibase.Client
	resolver *resolve.Resolver
	metrics  *metrics.Recorder
	importer *pipeline.Importer
	memory   *cache.MemoryCache
	closers  []func() error
}

func (c *components) Close() {
	if c.memory != nil {
		slog.Debug("response cache", "entries", c.memory.Len())
	}
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
}

// build wires the collaborators from cfg. It logs in only when uploading.
func build(ctx context.Context, cfg *model.Config, progress func(model.Outcome)) (*components, error) {
	logger := slog.Default()
	c := &components{metrics: metrics.New()}

	httpClient, err := util.NewHTTPClient(cfg.HTTP, nil)
	if err != nil {
		return nil, err
	}

	// Source
	sourceOpts := []openalex.Option{
		openalex.WithBaseURL(cfg.OpenAlex.BaseURL),
		openalex.WithHTTPClient(httpClient),
		openalex.WithUserAgent(cfg.HTTP.UserAgent),
		openalex.WithMaxBodyBytes(cfg.HTTP.MaxBodyBytes),
		openalex.WithLimiter(throttle.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)),
		openalex.WithLogger(logger),
	}
	if cfg.OpenAlex.RespectRobots {
		sourceOpts = append(sourceOpts, openalex.WithRobots(util.NewRobotsChecker(cfg.HTTP.UserAgent, httpClient)))
	}
	if cfg.Cache.Enabled {
		c.memory = cache.NewMemoryCache(cfg.Cache.MemoryTTL, 10*time.Minute)
		store, closeFn := openCache(c.memory, cfg.Cache)
		if closeFn != nil {
			c.closers = append(c.closers, closeFn)
		}
		sourceOpts = append(sourceOpts, openalex.WithCache(store, cfg.Cache.DiskTTL))
	}
	c.source = openalex.NewClient(cfg.OpenAlex.Email, sourceOpts...)

	// Knowledge base
	kbHTTP, err := util.NewHTTPClient(cfg.HTTP, nil)
	if err != nil {
		c.Close()
		return nil, err
	}
	c.kb, err = wikibase.NewClient(cfg.Wikibase.Endpoint(),
		wikibase.WithHTTPClient(kbHTTP),
		wikibase.WithUserAgent(cfg.HTTP.UserAgent),
		wikibase.WithRetries(cfg.Wikibase.MaxRetries, 500*time.Millisecond, 5*time.Second),
		wikibase.WithLogger(logger),
	)
	if err != nil {
		c.Close()
		return nil, err
	}
	if cfg.Import.Upload {
		if err := c.kb.Login(ctx, cfg.Wikibase.Username, cfg.Wikibase.Password); err != nil {
			c.Close()
			return nil, fmt.Errorf("login to %s: %w", cfg.Wikibase.Endpoint(), err)
		}
	}
	c.resolver = resolve.New(c.kb, cfg.Wikibase.SearchNamespace, logger)

	// Assembly
	detector, err := langdetect.New(cfg.Language)
	if err != nil {
		c.Close()
		return nil, err
	}
	assembler := claims.NewAssembler(c.source, c.resolver,
		claims.WithDetector(detector),
		claims.WithFallbackLanguage(cfg.Language.Fallback),
		claims.WithVenuePolicy(claims.VenuePolicy(cfg.Import.VenuePolicy)),
		claims.WithLogger(logger),
	)

	var writer pipeline.Writer
	if cfg.Import.Upload {
		writer = c.kb
	}
	c.importer = pipeline.New(c.resolver, c.source, assembler, writer,
		pipeline.Settings{
			Upload:      cfg.Import.Upload,
			Pause:       cfg.Import.Pause,
			EditSummary: cfg.Wikibase.EditSummary,
		},
		pipeline.WithEntityURL(c.kb.EntityURL),
		pipeline.WithMetrics(c.metrics),
		pipeline.WithProgress(progress),
		pipeline.WithLogger(logger),
	)
	return c, nil
}

// openCache layers an in-memory cache over the on-disk one.
// The disk layer is skipped with a warning when its directory is unusable.
func openCache(memory *cache.MemoryCache, cfg model.CacheConfig) (cache.Cache, func() error) {
	if cfg.Dir == "" {
		return memory, nil
	}
	disk, err := cache.OpenBoltCache(cfg.Dir, cfg.DiskTTL)
	if err != nil {
		slog.Warn("disk cache unavailable, using memory only", "dir", cfg.Dir, "error", err)
		return memory, nil
	}
	return cache.NewLayeredCache(memory, disk), disk.Close
}
