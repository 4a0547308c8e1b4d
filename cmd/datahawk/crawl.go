package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/lucky89144/DataHawk/internal/config"
	"github.com/lucky89144/DataHawk/internal/crawler"
	"github.com/lucky89144/DataHawk/internal/database"
	"github.com/lucky89144/DataHawk/internal/extract"
	"github.com/lucky89144/DataHawk/internal/fetcher"
	dhlog "github.com/lucky89144/DataHawk/internal/log"
	"github.com/lucky89144/DataHawk/internal/model"
	"github.com/lucky89144/DataHawk/internal/sink"
	"github.com/lucky89144/DataHawk/internal/tor"
)

// robotsAgent is the user agent matched against robots.txt groups when no
// --user-agent is given.
const robotsAgent = "DataHawk"

// crawlKeys are the crawl flags bound to viper.
var crawlKeys = []string{
	config.KeyQuery, config.KeyOutput, config.KeyOutputDir, config.KeyProxy,
	config.KeyThreads, config.KeyMinDelay, config.KeyMaxDelay, config.KeyTimeout,
	config.KeyDepth, config.KeyMaxPages, config.KeyCrossDomains,
	config.KeyRespectRobots, config.KeyTextOnly, config.KeyFetcher, config.KeyTor,
	config.KeyTorTimeout, config.KeyUserAgent, config.KeyMaxBodySize,
	config.KeyConfig, config.KeyDBDir, config.KeyNoDB, config.KeyResume,
	config.KeyLogJSON,
}

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl websites and extract matching data",
		Long: `Crawl fetches the seed URLs, extracts data matching the query, and follows
pagination links found on each page.

Queries:
  email      email addresses (default)
  username   @handles
  phone      phone numbers
  url        http and https URLs
  ip         IPv4 addresses
  all        every pattern above, tagged with its name
  <regex>    any other value is used as a regular expression

URLs are taken from the arguments, from standard input when it is piped,
or from an interactive prompt.

Examples:
  # Extract email addresses from one site
  datahawk crawl https://example.com

  # Extract phone numbers with four workers into a CSV file
  datahawk crawl -q phone --threads 4 --output csv https://example.com

  # Read seeds from a file and crawl through a SOCKS proxy
  datahawk crawl --proxy socks5://127.0.0.1:9050 < urls.txt

  # Crawl an onion service through an embedded Tor daemon
  datahawk crawl --tor http://exampleonion.onion

  # Continue an interrupted crawl
  datahawk crawl --resume 6f1c2d4e-...

Configuration file (.datahawk) example:
  defaults:
    ignorePatterns:
      - "/logout"
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      depth: 5`,
		Args: cobra.ArbitraryArgs,
	}

	// Extraction and output flags
	cmd.Flags().StringP(config.KeyQuery, "q", config.DefaultQuery,
		"Pattern to extract: email, username, phone, url, ip, all, or a regular expression")
	cmd.Flags().String(config.KeyOutput, config.DefaultOutputFormat,
		"Output format: txt, csv or json")
	cmd.Flags().String(config.KeyOutputDir, ".",
		"Directory for result files")
	cmd.Flags().Bool(config.KeyTextOnly, false,
		"Match against visible page text instead of raw HTML")

	// Crawl behavior flags
	cmd.Flags().Int(config.KeyThreads, config.DefaultThreads,
		"Number of concurrent workers")
	cmd.Flags().Duration(config.KeyMinDelay, config.DefaultMinDelay,
		"Minimum pause between two fetches of one worker")
	cmd.Flags().Duration(config.KeyMaxDelay, config.DefaultMaxDelay,
		"Maximum pause between two fetches of one worker")
	cmd.Flags().DurationP(config.KeyTimeout, "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().IntP(config.KeyDepth, "d", config.DefaultCrawlDepth,
		"Maximum link hops from a seed (0 fetches the seeds only)")
	cmd.Flags().IntP(config.KeyMaxPages, "p", config.DefaultMaxPages,
		"Maximum number of pages to fetch (0 for no limit)")
	cmd.Flags().Bool(config.KeyCrossDomains, false,
		"Follow links to hosts other than the seeds'")
	cmd.Flags().Bool(config.KeyRespectRobots, false,
		"Skip links disallowed by robots.txt")

	// Transport flags
	cmd.Flags().String(config.KeyFetcher, config.DefaultFetcher,
		"Page fetcher: http, colly or browser (headless Chrome)")
	cmd.Flags().String(config.KeyProxy, "",
		"Proxy URL (http://, https://, socks5:// or socks5h://)")
	cmd.Flags().Bool(config.KeyTor, false,
		"Route requests through an embedded Tor daemon")
	cmd.Flags().DurationP(config.KeyTorTimeout, "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")
	cmd.Flags().String(config.KeyUserAgent, "",
		"User-Agent header (default: rotate through common browsers)")
	cmd.Flags().Int64(config.KeyMaxBodySize, config.DefaultMaxBodySize,
		"Maximum response body size in bytes")

	// Configuration and state flags
	cmd.Flags().StringP(config.KeyConfig, "c", "",
		"Configuration file path (default: .datahawk in current or home directory)")
	cmd.Flags().String(config.KeyDBDir, "",
		"Directory of the crawl database (default: XDG data directory)")
	cmd.Flags().Bool(config.KeyNoDB, false,
		"Do not record the run in the crawl database")
	cmd.Flags().String(config.KeyResume, "",
		"Resume an earlier run by ID (see 'datahawk history')")
	cmd.Flags().Bool(config.KeyLogJSON, false,
		"Write logs as JSON lines")

	v := config.NewViper()
	for _, key := range crawlKeys {
		_ = v.BindPFlag(key, cmd.Flags().Lookup(key)) //nolint:errcheck // flag exists
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		if f := cmd.Flags().Lookup(config.KeyVerbose); f != nil {
			_ = v.BindPFlag(config.KeyVerbose, f) //nolint:errcheck // flag exists
		}
		return runCrawlCmd(cmd, v, args)
	}

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, v *viper.Viper, args []string) error {
	var seeds []string
	if v.GetString(config.KeyResume) == "" {
		var err error
		seeds, err = readSeeds(args, cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	cfg, err := buildConfig(v, seeds)
	if err != nil {
		return err
	}

	var logger *slog.Logger
	if cfg.LogJSON {
		logger = dhlog.NewSecureJSONLogger(cmd.ErrOrStderr(), cfg.Verbose)
	} else {
		logger = dhlog.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	}
	slog.SetDefault(logger)

	return runCrawl(cmd.Context(), cfg, logger, cmd.OutOrStdout())
}

// buildConfig creates a validated Config from viper and loads the site file.
func buildConfig(v *viper.Viper, seeds []string) (*config.Config, error) {
	cfg := config.FromViper(v, seeds)

	var err error
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	// If the user named a config file, it must exist.
	// Otherwise an absent .datahawk simply means no site settings.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case explicitConfigPath:
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	return cfg, nil
}

// crawlRun is the database side of one crawl: the run ID, its journal and
// the frontier state of an earlier attempt.
type crawlRun struct {
	db      *database.CrawlDB
	id      string
	journal *database.RunJournal
	resume  *database.ResumeState
}

// finish stores the run's final status. It runs after cancellation, so it
// must not depend on ctx being live.
func (r *crawlRun) finish(ctx context.Context, status string, summary model.Summary, logger *slog.Logger) {
	if r == nil {
		return
	}
	if err := r.db.FinishRun(context.WithoutCancel(ctx), r.id, status, summary); err != nil {
		logger.Error("failed to finish run", "run", r.id, "error", err)
	}
}

// openRun creates a new run or reopens cfg.Resume. On resume the stored
// seeds, query, format and output directory replace the ones in cfg.
func openRun(ctx context.Context, db *database.CrawlDB, cfg *config.Config) (*crawlRun, error) {
	if cfg.Resume == "" {
		id, err := db.CreateRun(ctx, &database.Run{
			Seeds:     cfg.Seeds,
			Query:     cfg.Query,
			Format:    cfg.OutputFormat,
			OutputDir: cfg.OutputDir,
		})
		if err != nil {
			return nil, err
		}
		return &crawlRun{db: db, id: id, journal: db.Journal(id)}, nil
	}

	stored, err := db.GetRun(ctx, cfg.Resume)
	if err != nil {
		return nil, err
	}
	if stored.Status == database.RunStatusCompleted {
		return nil, fmt.Errorf("run %s is already completed", stored.ID)
	}
	state, err := db.LoadResumeState(ctx, stored.ID)
	if err != nil {
		return nil, err
	}
	if err := db.ReopenRun(ctx, stored.ID); err != nil {
		return nil, err
	}

	cfg.Seeds = stored.Seeds
	cfg.Query = stored.Query
	cfg.OutputFormat = stored.Format
	cfg.OutputDir = stored.OutputDir

	return &crawlRun{db: db, id: stored.ID, journal: db.Journal(stored.ID), resume: state}, nil
}

// runCrawl executes the crawl described by cfg and prints its summary to out.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	var run *crawlRun
	if cfg.SaveToDB {
		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		logger.Debug("database opened", "path", db.Path())

		run, err = openRun(ctx, db, cfg)
		if err != nil {
			return err
		}
		if cfg.Resume != "" {
			logger.Info("resuming run",
				"run", run.id,
				"seen", len(run.resume.Seen),
				"pending", len(run.resume.Pending),
			)
		}
	}

	// A run that fails before crawling is stored as cancelled so that it
	// can still be resumed.
	finished := false
	defer func() {
		if !finished {
			run.finish(ctx, database.RunStatusCancelled, model.Summary{}, logger)
		}
	}()

	query, err := extract.ParseQuery(cfg.Query)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidQuery, err)
	}

	proxyURL := cfg.Proxy
	if cfg.UseTor {
		embeddedTor, socksURL, err := startEmbeddedTor(ctx, cfg, logger, out)
		if err != nil {
			return err
		}
		defer func() {
			if err := embeddedTor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}()
		proxyURL = socksURL
	}

	warnOnionSeeds(cfg.Seeds, proxyURL, logger)

	f, err := fetcher.New(cfg.Fetcher, fetcher.Options{
		Proxy:       proxyURL,
		Timeout:     cfg.Timeout,
		MaxBodySize: cfg.MaxBodySize,
		UserAgents:  cfg.UserAgents(),
		Logger:      logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	defer f.Close()

	file, err := sink.OpenSeedFile(cfg.OutputDir, cfg.Format(), cfg.Seeds)
	if err != nil {
		return fmt.Errorf("failed to prepare output: %w", err)
	}
	var results sink.Sink = file
	if run != nil {
		results = sink.NewTee(logger, file, run.journal)
	}
	defer func() {
		if err := results.Close(); err != nil {
			logger.Error("failed to close output", "error", err)
		}
	}()

	opts := []crawler.Option{
		crawler.WithThreads(cfg.Threads),
		crawler.WithDelay(cfg.MinDelay, cfg.MaxDelay),
		crawler.WithMaxPages(cfg.MaxPages),
		crawler.WithPolicy(buildPolicy(cfg, f, logger)),
		crawler.WithProcessor(crawler.NewProcessor(
			crawler.WithTextOnly(cfg.TextOnly),
			crawler.WithProcessorLogger(logger),
		)),
		crawler.WithLogger(logger),
	}
	if hook := siteRequestHook(cfg.SiteConfigs, cfg.UserAgent != ""); hook != nil {
		opts = append(opts, crawler.WithRequestHook(hook))
	}
	if run != nil {
		opts = append(opts, crawler.WithJournal(run.journal))
		if run.resume != nil {
			opts = append(opts, crawler.WithResume(run.resume.Seen, run.resume.Pending))
		}
	}

	summary, err := crawler.NewController(f, results, opts...).Run(ctx, cfg.Seeds, query)
	if err != nil {
		return err
	}

	status := database.RunStatusCompleted
	if ctx.Err() != nil {
		status = database.RunStatusCancelled
	}
	summary.OutputPath = file.Path()
	if run != nil {
		summary.RunID = run.id
		run.finish(ctx, status, *summary, logger)
	}
	finished = true

	printSummary(out, summary, status)
	return nil
}

// buildPolicy assembles the scope policy from flags and the site file.
func buildPolicy(cfg *config.Config, f fetcher.Fetcher, logger *slog.Logger) *crawler.Policy {
	opts := []crawler.PolicyOption{
		crawler.WithMaxDepth(cfg.CrawlDepth),
		crawler.WithCrossDomains(cfg.CrossDomains),
		crawler.WithPolicyLogger(logger),
	}

	if sites := cfg.SiteConfigs; sites != nil {
		opts = append(opts, crawler.WithPathRules(pathRules(sites.Defaults)))
		for key := range sites.Sites {
			host := key
			if h, _, err := net.SplitHostPort(key); err == nil {
				host = h
			}
			opts = append(opts, crawler.WithSiteRules(strings.ToLower(host), pathRules(sites.GetSiteConfig(key))))
		}
	}

	if cfg.RespectRobots {
		agent := cfg.UserAgent
		if agent == "" {
			agent = robotsAgent
		}
		opts = append(opts, crawler.WithRobots(crawler.NewRobots(f, agent, logger)))
	}

	return crawler.NewPolicy(opts...)
}

func pathRules(sc config.SiteConfig) crawler.PathRules {
	return crawler.PathRules{
		Ignore:   sc.IgnorePatterns,
		Follow:   sc.FollowPatterns,
		MaxDepth: sc.Depth,
	}
}

// siteRequestHook returns a hook that applies the site file's headers,
// cookie and user agents to each request, or nil when the file sets none.
// fixedAgent keeps an explicit --user-agent in place.
func siteRequestHook(sites *config.File, fixedAgent bool) crawler.RequestHook {
	if sites == nil || !sites.HasRequestSettings() {
		return nil
	}
	return func(req *fetcher.Request) {
		sc := sites.SiteConfigForURL(req.URL)
		if len(sc.Headers) > 0 {
			if req.Headers == nil {
				req.Headers = make(map[string]string, len(sc.Headers))
			}
			for k, v := range sc.Headers {
				req.Headers[k] = v
			}
		}
		if sc.Cookie != "" {
			req.Cookie = sc.Cookie
		}
		if !fixedAgent && len(sc.UserAgents) > 0 {
			req.UserAgent = sc.UserAgents[rand.IntN(len(sc.UserAgents))] //nolint:gosec // not security sensitive
		}
	}
}

// startEmbeddedTor starts an embedded Tor daemon and returns it with the
// socks5h:// URL to route requests through.
func startEmbeddedTor(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) (*tor.EmbeddedTor, string, error) {
	embeddedTor := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
		tor.WithLogger(logger),
	)
	socksURL, err := embeddedTor.StartProxy(ctx, out)
	if err != nil {
		return nil, "", err
	}
	return embeddedTor, socksURL, nil
}

// warnOnionSeeds logs onion seeds that cannot be reached as configured.
// Only a SOCKS proxy resolves onion host names.
func warnOnionSeeds(seeds []string, proxyURL string, logger *slog.Logger) {
	onions := tor.OnionURLs(seeds)
	if len(onions) == 0 {
		return
	}
	if !strings.HasPrefix(proxyURL, "socks5") {
		logger.Warn("onion seeds need --tor or a socks5h:// proxy", "seeds", onions)
	}
	for _, raw := range onions {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		if !tor.IsValidV3Address(tor.ServiceAddress(u.Host)) {
			logger.Warn("not a valid v3 onion address", "url", raw)
		}
	}
}

// printSummary prints the outcome of a crawl.
func printSummary(out io.Writer, summary *model.Summary, status string) {
	if status == database.RunStatusCancelled {
		fmt.Fprintf(out, "\nCrawl interrupted after %s\n", summary.Elapsed.Round(time.Millisecond))
	} else {
		fmt.Fprintf(out, "\nCrawl completed in %s\n", summary.Elapsed.Round(time.Millisecond))
	}
	fmt.Fprintf(out, "  Pages fetched:      %d\n", summary.PagesFetched)
	fmt.Fprintf(out, "  Findings written:   %d\n", summary.FindingsWritten)
	fmt.Fprintf(out, "  Errors encountered: %d\n", summary.ErrorsEncountered)

	if summary.FindingsWritten > 0 && summary.OutputPath != "" {
		fmt.Fprintf(out, "  Output:             %s\n", summary.OutputPath)
	}

	if summary.RunID == "" {
		return
	}
	fmt.Fprintf(out, "  Run ID:             %s\n", summary.RunID)
	if status == database.RunStatusCancelled {
		fmt.Fprintf(out, "\nResume with: datahawk crawl --resume %s\n", summary.RunID)
		return
	}
	fmt.Fprintf(out, "\nView the report with: datahawk report %s\n", summary.RunID)
}
