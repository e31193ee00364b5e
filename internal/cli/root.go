package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	_ "modernc.org/sqlite"

	"github.com/rohmanhakim/polite-crawler/internal/build"
	"github.com/rohmanhakim/polite-crawler/internal/config"
	"github.com/rohmanhakim/polite-crawler/internal/crawler"
	"github.com/rohmanhakim/polite-crawler/internal/events"
	"github.com/rohmanhakim/polite-crawler/internal/fetcher"
	"github.com/rohmanhakim/polite-crawler/internal/handler"
	"github.com/rohmanhakim/polite-crawler/internal/handler/htmlinks"
	"github.com/rohmanhakim/polite-crawler/internal/handler/mdarchive"
	"github.com/rohmanhakim/polite-crawler/internal/handler/sitemaps"
	"github.com/rohmanhakim/polite-crawler/internal/robots/cache"
	"github.com/rohmanhakim/polite-crawler/internal/storage"
	"github.com/rohmanhakim/polite-crawler/internal/urllist"
	"github.com/rohmanhakim/polite-crawler/internal/urllist/db"
	"github.com/rohmanhakim/polite-crawler/pkg/timeutil"
)

var (
	cfgFile                 string
	seedURLs                []string
	interval                time.Duration
	concurrentRequests      int
	userAgent               string
	maxContentLength        int64
	timeout                 time.Duration
	robotsOff               bool
	robotsCacheTime         time.Duration
	robotsIgnoreServerError bool
	dbPath                  string
	tableName               string
	outputDir               string
	archive                 bool
)

// parseSeedURLs converts a string slice of URLs to []url.URL
func parseSeedURLs(urlStrings []string) ([]url.URL, error) {
	if len(urlStrings) == 0 {
		return nil, fmt.Errorf("seed URLs cannot be empty")
	}

	var urls []url.URL
	for _, urlStr := range urlStrings {
		parsedURL, err := url.Parse(urlStr)
		if err != nil {
			return nil, fmt.Errorf("error parsing seed URL %s: %w", urlStr, err)
		}
		urls = append(urls, *parsedURL)
	}
	return urls, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "polite-crawler",
	Version: build.FullVersion(),
	Short:   "A polite, extensible web crawler.",
	Long: `polite-crawler discovers and fetches pages at a controlled rate,
respects robots.txt, dispatches responses to content handlers, feeds newly
discovered URLs back into its work queue, and records per-URL outcomes
durably so that crawls can be resumed and parallelised across processes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := buildConfig()
		if err != nil {
			return err
		}
		return runCrawl(cmd.Context(), cfg)
	},
}

func buildConfig() (config.Config, error) {
	var cfg config.Config
	if cfgFile != "" {
		loaded, err := config.WithConfigFile(cfgFile)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	} else {
		cfg = config.WithDefault(nil).Build()
	}

	builder := &cfg
	if len(seedURLs) > 0 {
		parsed, err := parseSeedURLs(seedURLs)
		if err != nil {
			return config.Config{}, err
		}
		builder.WithSeedUrls(parsed)
	}
	if interval != 0 {
		builder.WithInterval(config.StaticInterval(interval))
	}
	if concurrentRequests != 0 {
		builder.WithConcurrentRequestsLimit(concurrentRequests)
	}
	if userAgent != "" {
		builder.WithUserAgent(config.Static(userAgent))
	}
	if maxContentLength != 0 {
		builder.WithMaxContentLength(config.Static(maxContentLength))
	}
	if timeout != 0 {
		builder.WithTimeout(timeout)
	}
	if robotsOff {
		builder.WithRobotsEnabled(false)
	}
	if robotsCacheTime != 0 {
		builder.WithRobotsCacheTime(robotsCacheTime)
	}
	if robotsIgnoreServerError {
		builder.WithRobotsIgnoreServerError(true)
	}
	if dbPath != "" {
		builder.WithDbPath(dbPath)
	}
	if tableName != "" {
		builder.WithTableName(tableName)
	}
	if outputDir != "" {
		builder.WithOutputDir(outputDir)
	}
	if archive {
		builder.WithArchiveEnabled(true)
	}

	cfg = builder.Build()
	if len(cfg.SeedURLs()) == 0 && cfg.DbPath() == "" {
		return config.Config{}, fmt.Errorf("--seed-url is required unless resuming from --db")
	}
	return cfg, nil
}

func runCrawl(ctx context.Context, cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var list urllist.URLList = urllist.NewFIFOURLList()
	if cfg.DbPath() != "" {
		database, err := sql.Open("sqlite", cfg.DbPath())
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", cfg.DbPath(), err)
		}
		defer database.Close()
		list = db.NewDbURLList(database, db.WithTableName(cfg.TableName()))
	}

	stats := events.NewStatsRecorder()
	completion := &completionSink{}
	sink := events.NewMulti(newPrintSink(os.Stdout), stats, completion)

	httpClient := fetcher.NewHTTPFetcherWithClient(newClient(cfg.Timeout()))
	sleeper := timeutil.NewRealSleeper()
	engine := crawler.NewCrawlerWithDeps(
		cfg,
		list,
		handler.NewRegistry(),
		httpClient,
		cache.NewMemoryCache(cfg.RobotsCacheTime()),
		sink,
		&sleeper,
	)
	completion.stop = engine.Stop

	engine.AddHandler(handler.MatchType("text/html"), htmlinks.New())
	engine.AddHandler(handler.MatchTypes(sitemaps.ContentTypes()...), sitemaps.New())
	if cfg.ArchiveEnabled() {
		archiveSink := storage.NewLocalSink(cfg.OutputDir())
		engine.AddHandler(handler.MatchType("text/html"), mdarchive.New(&archiveSink))
	}

	var seeds []string
	for _, u := range cfg.SeedURLs() {
		seeds = append(seeds, u.String())
	}
	if err := engine.Seed(ctx, seeds); err != nil {
		return err
	}

	if err := engine.Start(ctx); err != nil {
		return err
	}

	// stop on interrupt as well as on completion
	go func() {
		<-ctx.Done()
		engine.Stop()
	}()

	err := engine.Wait()

	final := stats.Stats()
	fmt.Printf("crawled %d URLs (%d errors, %d redirects, %d links) in %v\n",
		final.TotalCrawled,
		final.TotalErrors,
		final.TotalRedirects,
		final.TotalLinks,
		final.Duration.Round(time.Millisecond),
	)
	return err
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "config file path (e.g., /home/myuser/config.json)")
	rootCmd.PersistentFlags().StringArrayVar(&seedURLs, "seed-url", []string{}, "one or more starting URLs (can be repeated)")
	rootCmd.PersistentFlags().DurationVar(&interval, "interval", 0, "minimum spacing between request starts")
	rootCmd.PersistentFlags().IntVar(&concurrentRequests, "concurrency", 0, "maximum number of in-flight requests")
	rootCmd.PersistentFlags().StringVar(&userAgent, "user-agent", "", "user agent string for HTTP requests")
	rootCmd.PersistentFlags().Int64Var(&maxContentLength, "max-content-length", 0, "response body byte cap (0 for unlimited)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "timeout for HTTP requests")
	rootCmd.PersistentFlags().BoolVar(&robotsOff, "no-robots", false, "skip robots.txt checks entirely")
	rootCmd.PersistentFlags().DurationVar(&robotsCacheTime, "robots-cache-time", 0, "lifetime of cached robots.txt bodies")
	rootCmd.PersistentFlags().BoolVar(&robotsIgnoreServerError, "robots-ignore-server-error", false, "treat a 500 on /robots.txt as permissive")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path for a durable, resumable queue")
	rootCmd.PersistentFlags().StringVar(&tableName, "table", "", "queue table name in the database")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output-dir", "", "root output directory for the markdown archive")
	rootCmd.PersistentFlags().BoolVar(&archive, "archive", false, "archive crawled HTML pages as markdown files")
}
