// Package scanner walks a set of scan items (directories, files, bare
// URLs), extracts the links each document references, and verifies them,
// aggregating statistics and per-document failures.
package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/budziq/link-checker/internal/document"
	"github.com/budziq/link-checker/internal/links"
	"github.com/budziq/link-checker/internal/probe"
	"github.com/budziq/link-checker/internal/verifier"
)

// ErrNoChecksEnabled is returned when both local and external checking
// are disabled; such a scan could never verify anything.
var ErrNoChecksEnabled = errors.New("both local and external checking disabled")

// InvalidItemError marks a scan item that is neither a directory, a file,
// nor a URL. It aborts the whole run: the item indicates a configuration
// mistake, not a content problem.
type InvalidItemError struct {
	Item string
}

func (e *InvalidItemError) Error() string {
	return fmt.Sprintf("scan item %q is not a directory, file, or URL", e.Item)
}

// Scanner runs one scan. Both caches are created empty with the Scanner
// and discarded with it; nothing persists across scans.
type Scanner struct {
	config   *Config
	probe    *probe.Client
	docs     *document.Cache
	verifier *verifier.Verifier

	seenDocs mapset.Set[string]
	links    atomic.Int64
	fails    atomic.Int64

	mu       sync.Mutex
	failures *FailureMap
}

// New creates a Scanner. If config is nil, default configuration is used.
func New(config *Config) (*Scanner, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if !config.TestLocal && !config.TestExternal {
		return nil, ErrNoChecksEnabled
	}
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}

	docs := document.NewCache()
	client := probe.New(&probe.Config{
		Timeout:       config.Timeout,
		RetryAttempts: config.RetryAttempts,
		RetryDelay:    config.RetryDelay,
		RateLimit:     config.RateLimit,
		UserAgent:     config.UserAgent,
		MaxBodySize:   probe.DefaultConfig().MaxBodySize,
	})

	return &Scanner{
		config:   config,
		probe:    client,
		docs:     docs,
		verifier: verifier.New(client, docs),
		seenDocs: mapset.NewSet[string](),
		failures: NewFailureMap(),
	}, nil
}

// Scan verifies every item in order. Directories are walked recursively
// for .html/.htm files, files are verified directly, and strings carrying
// a URL scheme are verified as single remote targets. Anything else is a
// usage error that aborts the run; the statistics accumulated up to that
// point are still returned.
func (s *Scanner) Scan(ctx context.Context, items []string) (Stats, *FailureMap, error) {
	for _, item := range items {
		info, err := os.Stat(item)
		switch {
		case err == nil && info.IsDir():
			if err := s.scanDir(ctx, item); err != nil {
				return s.stats(), s.failures, err
			}
		case err == nil:
			if err := s.scanFile(ctx, item); err != nil {
				return s.stats(), s.failures, err
			}
		default:
			u, perr := url.Parse(item)
			if perr != nil || u.Scheme == "" {
				return s.stats(), s.failures, &InvalidItemError{Item: item}
			}
			s.checkBareURL(ctx, item)
		}

		if ctx.Err() != nil {
			return s.stats(), s.failures, ctx.Err()
		}
	}
	return s.stats(), s.failures, nil
}

// Failures returns the failure map accumulated so far.
func (s *Scanner) Failures() *FailureMap {
	return s.failures
}

func (s *Scanner) stats() Stats {
	return Stats{
		Links:    int(s.links.Load()),
		Failures: int(s.fails.Load()),
		Unique:   s.verifier.Unique(),
	}
}

func (s *Scanner) scanDir(ctx context.Context, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Skipping unreadable path")
			return nil
		}
		if d.IsDir() || !isHTMLFile(path) {
			return nil
		}
		if err := s.scanFile(ctx, path); err != nil {
			return err
		}
		return ctx.Err()
	})
}

func isHTMLFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return true
	}
	return false
}

// scanFile verifies every link referenced by one document. Documents are
// keyed by canonical path so a file reached both directly and through a
// link shares one cache entry.
func (s *Scanner) scanFile(ctx context.Context, path string) error {
	identity := links.CanonicalPath(path)
	if !s.seenDocs.Add(identity) {
		return nil
	}

	log.Info().Str("document", identity).Msg("Testing document")

	doc, err := s.docs.GetOrLoad(identity, func() (*document.Document, error) {
		data, err := os.ReadFile(identity)
		if err != nil {
			return nil, err
		}
		return document.Parse(bytes.NewReader(data))
	})
	if err != nil {
		log.Warn().Err(err).Str("document", identity).Msg("Cannot load document")
		return nil
	}

	targets := doc.Targets(identity)
	failed := make([]bool, len(targets))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for i, t := range targets {
		if s.filtered(t) {
			continue
		}
		s.links.Add(1)
		g.Go(func() error {
			if !s.verifier.Resolve(gctx, t) {
				failed[i] = true
				s.fails.Add(1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	// Record failures in encounter order regardless of completion order.
	for i, t := range targets {
		if !failed[i] {
			continue
		}
		log.Warn().Str("document", identity).Str("target", t.String()).Msg("Broken link")
		s.mu.Lock()
		s.failures.Add(identity, t.String())
		s.mu.Unlock()
	}
	return nil
}

// checkBareURL verifies a URL given directly as a scan item. It is
// recorded under itself as both source and target.
func (s *Scanner) checkBareURL(ctx context.Context, item string) {
	target := links.Rebase(item, "", item)
	if s.filtered(target) {
		return
	}

	log.Info().Str("url", item).Msg("Testing URL")
	s.links.Add(1)
	if !s.verifier.Resolve(ctx, target) {
		s.fails.Add(1)
		log.Warn().Str("target", target.String()).Msg("Broken link")
		s.mu.Lock()
		s.failures.Add(item, target.String())
		s.mu.Unlock()
	}
}

// filtered reports whether a target is excluded from checking entirely:
// filtered targets are not probed, not counted, and never reported.
func (s *Scanner) filtered(t links.Target) bool {
	if t.Kind == links.Local && !s.config.TestLocal {
		return true
	}
	if t.Kind == links.Remote && !s.config.TestExternal {
		return true
	}
	str := t.String()
	for _, pattern := range s.config.IgnorePatterns {
		if pattern.MatchString(str) {
			return true
		}
	}
	return false
}
