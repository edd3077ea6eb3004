// Package verifier decides whether a resolved link target is reachable.
// Outcomes are memoized by the target's full string form, so a target
// mentioned from many documents is probed at most once per scan.
package verifier

import (
	"bytes"
	"context"
	"errors"
	"os"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/budziq/link-checker/internal/document"
	"github.com/budziq/link-checker/internal/links"
	"github.com/budziq/link-checker/internal/probe"
)

// Verifier resolves targets to boolean reachability. It owns the
// resolution cache; the document cache is shared so fragment checks reuse
// documents the scanner already parsed. All caches live for one scan and
// are discarded with the Verifier.
type Verifier struct {
	probe *probe.Client
	docs  *document.Cache

	mu    sync.RWMutex
	seen  map[string]bool
	group singleflight.Group
}

// New creates a Verifier around the given transport and document cache.
func New(client *probe.Client, docs *document.Cache) *Verifier {
	return &Verifier{
		probe: client,
		docs:  docs,
		seen:  make(map[string]bool),
	}
}

// Resolve reports whether the target is reachable. Errors of any kind
// (network, filesystem, parsing) resolve to false; nothing propagates out
// of this layer. At most one probe is in flight per target string at a
// time, and repeated calls return the memoized outcome.
func (v *Verifier) Resolve(ctx context.Context, target links.Target) bool {
	key := target.String()

	v.mu.RLock()
	cached, ok := v.seen[key]
	v.mu.RUnlock()
	if ok {
		return cached
	}

	res, _, _ := v.group.Do(key, func() (any, error) {
		v.mu.RLock()
		cached, ok := v.seen[key]
		v.mu.RUnlock()
		if ok {
			return cached, nil
		}

		outcome := v.resolve(ctx, target)

		v.mu.Lock()
		v.seen[key] = outcome
		v.mu.Unlock()
		return outcome, nil
	})
	return res.(bool)
}

// Unique returns the number of distinct targets resolved so far.
func (v *Verifier) Unique() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.seen)
}

func (v *Verifier) resolve(ctx context.Context, target links.Target) bool {
	// A known-dead resource cannot contain a reachable fragment.
	if target.HasFragment() {
		v.mu.RLock()
		baseOutcome, ok := v.seen[target.Base]
		v.mu.RUnlock()
		if ok && !baseOutcome {
			return false
		}
	}

	if target.Kind == links.Remote {
		if target.HasFragment() {
			return v.remoteFragment(ctx, target)
		}
		return v.probe.Head(ctx, target.Base)
	}

	if target.HasFragment() {
		return v.localFragment(target)
	}
	// Whole-resource local check is a stat only, never a content read.
	_, err := os.Stat(target.Base)
	return err == nil
}

// remoteFragment fetches the base resource (through the document cache)
// and looks the anchor up in it. An unfetchable base resolves to false
// without probing the anchor.
func (v *Verifier) remoteFragment(ctx context.Context, target links.Target) bool {
	doc, err := v.docs.GetOrLoad(target.Base, func() (*document.Document, error) {
		body, ok := v.probe.Get(ctx, target.Base)
		if !ok {
			return nil, errUnreachable
		}
		return document.Parse(bytes.NewReader(body))
	})
	if err != nil {
		return false
	}
	return doc.HasAnchor(target.Fragment)
}

func (v *Verifier) localFragment(target links.Target) bool {
	doc, err := v.docs.GetOrLoad(target.Base, func() (*document.Document, error) {
		data, err := os.ReadFile(target.Base)
		if err != nil {
			return nil, err
		}
		return document.Parse(bytes.NewReader(data))
	})
	if err != nil {
		log.Debug().Err(err).Str("path", target.Base).Msg("Cannot read file for fragment check")
		return false
	}
	return doc.HasAnchor(target.Fragment)
}

var errUnreachable = errors.New("resource unreachable")
