// cmd/smoke.go
package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/uiharness/internal/browser"
	"github.com/xkilldash9x/uiharness/internal/config"
	"github.com/xkilldash9x/uiharness/internal/harness"
)

// backendResolver picks the automation backend for one engine's session.
type backendResolver func(cfg config.BrowserConfig, logger *zap.Logger) (browser.Backend, error)

type smokeOptions struct {
	engines     []string
	url         string
	concurrency int
	stagger     time.Duration
	headed      bool
	slowMo      time.Duration
}

// smokeResult is the outcome for one engine.
type smokeResult struct {
	Engine     string
	Title      string
	Screenshot string
	Duration   time.Duration
	Err        error
}

func newSmokeCmd(resolve backendResolver) *cobra.Command {
	if resolve == nil {
		resolve = harness.ResolveBackend
	}
	opts := smokeOptions{}

	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Open a page in each engine and save a screenshot",
		Long: `Starts one isolated browser session per engine, navigates to the
configured base URL (or --url), saves a full-page screenshot and tears the
session down. Exits non-zero if any engine fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configFrom(cmd.Context())
			if err != nil {
				return err
			}
			results, err := runSmoke(cmd.Context(), cfg, loggerFrom(cmd.Context()), opts, resolve)
			printSmokeResults(cmd.OutOrStdout(), results)
			return err
		},
	}

	cmd.Flags().StringSliceVarP(&opts.engines, "engines", "e", []string{"chromium"}, "engines to exercise")
	cmd.Flags().StringVar(&opts.url, "url", "", "page to open (default is application.base_url)")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 3, "maximum number of browsers running at once")
	cmd.Flags().DurationVar(&opts.stagger, "stagger", 500*time.Millisecond, "minimum delay between browser launches")
	cmd.Flags().BoolVar(&opts.headed, "headed", false, "show the browser windows")
	cmd.Flags().DurationVar(&opts.slowMo, "slow-mo", 0, "delay every browser action by this much")
	return cmd
}

// runSmoke exercises every engine concurrently. Each engine gets its own
// session; a failure in one never stops the others. The returned error
// combines every engine failure.
func runSmoke(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts smokeOptions, resolve backendResolver) ([]smokeResult, error) {
	if len(opts.engines) == 0 {
		return nil, fmt.Errorf("at least one engine is required")
	}
	url := opts.url
	if url == "" {
		url = cfg.Application().BaseURL
	}

	limit := rate.Inf
	if opts.stagger > 0 {
		limit = rate.Every(opts.stagger)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, gctx := errgroup.WithContext(ctx)
	if opts.concurrency > 0 {
		g.SetLimit(opts.concurrency)
	}

	var mu sync.Mutex
	results := make([]smokeResult, len(opts.engines))

	for i, engine := range opts.engines {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				mu.Lock()
				results[i] = smokeResult{Engine: engine, Err: err}
				mu.Unlock()
				return nil
			}
			res := smokeEngine(gctx, cfg, logger.With(zap.String("engine", engine)), engine, url, opts, resolve)
			mu.Lock()
			results[i] = res
			mu.Unlock()
			return nil
		})
	}
	// Workers report through results, never through the group.
	_ = g.Wait()

	var errs error
	for _, r := range results {
		if r.Err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", r.Engine, r.Err))
		}
	}
	return results, errs
}

func smokeEngine(ctx context.Context, base *config.Config, logger *zap.Logger, engine, url string, opts smokeOptions, resolve backendResolver) (res smokeResult) {
	start := time.Now()
	res.Engine = engine
	defer func() { res.Duration = time.Since(start) }()

	cfg := *base
	cfg.SetBrowserEngine(engine)
	cfg.ArtifactsCfg.FullPage = true
	if opts.headed {
		cfg.SetBrowserHeadless(false)
	}
	if opts.slowMo > 0 {
		cfg.SetBrowserSlowMoMs(int(opts.slowMo.Milliseconds()))
	}

	backend, err := resolve(cfg.Browser(), logger)
	if err != nil {
		res.Err = err
		return res
	}

	f, err := harness.New(ctx, &cfg, harness.WithBackend(backend), harness.WithLogger(logger))
	if err != nil {
		res.Err = err
		return res
	}
	name := "smoke_" + engine
	// A failed check is captured before teardown.
	defer func() { f.Close(ctx, name, res.Err != nil) }()

	page := f.Page()
	if err := page.Goto(ctx, url); err != nil {
		res.Err = fmt.Errorf("navigation failed: %w", err)
		return res
	}
	if res.Title, err = page.Title(ctx); err != nil {
		logger.Warn("Could not read page title.", zap.Error(err))
	}

	artifact, ok := f.Capturer.CaptureOnFailure(ctx, name, "")
	if !ok {
		res.Err = fmt.Errorf("screenshot was not saved")
		return res
	}
	res.Screenshot = artifact.Path
	logger.Info("Smoke check passed.", zap.String("url", url), zap.String("title", res.Title))
	return res
}

func printSmokeResults(w io.Writer, results []smokeResult) {
	if len(results) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENGINE\tSTATUS\tDURATION\tTITLE\tSCREENSHOT")
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = "FAILED: " + r.Err.Error()
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Engine, status, r.Duration.Round(time.Millisecond), r.Title, r.Screenshot)
	}
	tw.Flush()
}
