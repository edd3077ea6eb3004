package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rodaine/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/budziq/link-checker/internal/export"
	"github.com/budziq/link-checker/internal/scanner"
)

const (
	exitOK    = 0
	exitDirty = 1 // broken links found
	exitUsage = 2 // configuration or usage error
)

// regexpList collects repeatable -ignore flags.
type regexpList []*regexp.Regexp

func (l *regexpList) String() string {
	return fmt.Sprintf("%d patterns", len(*l))
}

func (l *regexpList) Set(value string) error {
	re, err := regexp.Compile(value)
	if err != nil {
		return fmt.Errorf("invalid ignore pattern %q: %w", value, err)
	}
	*l = append(*l, re)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var ignore regexpList
	var (
		local       = flag.Bool("local", true, "Verify local filesystem targets")
		external    = flag.Bool("external", true, "Verify remote HTTP targets")
		timeout     = flag.Duration("timeout", 3*time.Second, "Deadline for each network probe")
		retries     = flag.Int("retries", 3, "Retry budget for 5xx responses")
		retryDelay  = flag.Duration("retry-delay", 500*time.Millisecond, "Initial retry backoff")
		rateLimit   = flag.Int("rate", 0, "Maximum remote probes per second (0 = unlimited)")
		concurrency = flag.Int("concurrency", 8, "Link checks in flight per document")
		exportFmt   = flag.String("export", "", "Write the failure report as 'json' or 'csv'")
		exportFile  = flag.String("export-file", "report", "Base name for the exported report")
	)
	flag.Var(&ignore, "ignore", "Regexp for targets to skip (repeatable)")
	flag.Parse()

	godotenv.Load(".env.local", ".env")
	setupLogging()

	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: dsn}); err != nil {
			log.Warn().Err(err).Msg("Failed to initialise Sentry")
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	items := flag.Args()
	if len(items) == 0 {
		items = []string{"."}
	}

	cfg := buildConfig(*local, *external, ignore, *timeout, *retries, *retryDelay, *rateLimit, *concurrency)

	s, err := scanner.New(cfg)
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, failures, scanErr := s.Scan(ctx, items)

	printReport(stats, failures)

	if *exportFmt != "" {
		if err := exportReport(*exportFmt, *exportFile, stats, failures); err != nil {
			log.Error().Err(err).Msg("Failed to export report")
			return exitUsage
		}
	}

	if scanErr != nil {
		var invalid *scanner.InvalidItemError
		if errors.As(scanErr, &invalid) {
			sentry.CaptureException(scanErr)
		}
		log.Error().Err(scanErr).Msg("Scan aborted")
		return exitUsage
	}
	if stats.Failures > 0 {
		return exitDirty
	}
	return exitOK
}

func buildConfig(local, external bool, ignore []*regexp.Regexp, timeout time.Duration,
	retries int, retryDelay time.Duration, rateLimit, concurrency int) *scanner.Config {
	cfg := scanner.DefaultConfig()
	cfg.TestLocal = local
	cfg.TestExternal = external
	cfg.IgnorePatterns = ignore
	cfg.Timeout = timeout
	cfg.RetryAttempts = retries
	cfg.RetryDelay = retryDelay
	cfg.RateLimit = rateLimit
	cfg.Concurrency = concurrency
	return cfg
}

func printReport(stats scanner.Stats, failures *scanner.FailureMap) {
	if failures.Len() > 0 {
		tbl := table.New("Document", "Broken Link")
		for _, doc := range failures.Documents() {
			for i, target := range failures.Targets(doc) {
				if i == 0 {
					tbl.AddRow(doc, target)
				} else {
					tbl.AddRow("", target)
				}
			}
		}
		tbl.Print()
	}

	fmt.Printf("\nSummary: seen:%d failed:%d unique:%d\n", stats.Links, stats.Failures, stats.Unique)
}

func exportReport(format, baseName string, stats scanner.Stats, failures *scanner.FailureMap) error {
	exporter := export.New(format)
	if exporter == nil {
		return fmt.Errorf("unknown export format %q", format)
	}

	f, err := os.Create(baseName + "." + format)
	if err != nil {
		return err
	}
	defer f.Close()
	return exporter.Export(f, stats, failures)
}

// setupLogging configures the logging system.
func setupLogging() {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Console writer on terminals, JSON when piped into CI logs.
	if isatty.IsTerminal(os.Stderr.Fd()) {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log.Logger = zerolog.New(os.Stderr).
			With().
			Timestamp().
			Str("service", "link-checker").
			Logger()
	}
}
