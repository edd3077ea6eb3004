package verifier

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/budziq/link-checker/internal/document"
	"github.com/budziq/link-checker/internal/links"
	"github.com/budziq/link-checker/internal/probe"
	"github.com/budziq/link-checker/internal/testutil"
)

func newVerifier() (*Verifier, *probe.Client) {
	cfg := probe.DefaultConfig()
	cfg.Timeout = 2 * time.Second
	cfg.RetryDelay = time.Millisecond
	client := probe.New(cfg)
	return New(client, document.NewCache()), client
}

func writeFile(t *testing.T, dir, name, content string) string {
	return testutil.WriteHTML(t, dir, name, content)
}

func TestLocalExistence(t *testing.T) {
	dir := t.TempDir()
	present := writeFile(t, dir, "a.html", "<html></html>")
	missing := links.CanonicalPath(filepath.Join(dir, "missing.html"))

	v, _ := newVerifier()
	ctx := context.Background()

	assert.True(t, v.Resolve(ctx, links.Target{Kind: links.Local, Base: present}))
	assert.False(t, v.Resolve(ctx, links.Target{Kind: links.Local, Base: missing}))
}

func TestLocalFragment(t *testing.T) {
	dir := t.TempDir()
	page := writeFile(t, dir, "page.html",
		`<html><body><div id="sec1">x</div><a name="legacy">y</a></body></html>`)

	v, _ := newVerifier()
	ctx := context.Background()

	assert.True(t, v.Resolve(ctx, links.Target{Kind: links.Local, Base: page, Fragment: "sec1"}))
	assert.True(t, v.Resolve(ctx, links.Target{Kind: links.Local, Base: page, Fragment: "legacy"}))
	assert.False(t, v.Resolve(ctx, links.Target{Kind: links.Local, Base: page, Fragment: "nope"}))
}

func TestLocalFragmentOnMissingFile(t *testing.T) {
	missing := links.CanonicalPath(filepath.Join(t.TempDir(), "missing.html"))

	v, _ := newVerifier()
	assert.False(t, v.Resolve(context.Background(), links.Target{Kind: links.Local, Base: missing, Fragment: "sec"}))
}

func TestRemoteHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ok" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v, _ := newVerifier()
	ctx := context.Background()

	assert.True(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: srv.URL + "/ok"}))
	assert.False(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: srv.URL + "/gone"}))
}

func TestRemoteFragment(t *testing.T) {
	var gets int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		gets++
		w.Write([]byte(`<html><body><h2 id="install">Install</h2></body></html>`))
	}))
	defer srv.Close()

	v, _ := newVerifier()
	ctx := context.Background()

	assert.True(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: srv.URL, Fragment: "install"}))
	assert.False(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: srv.URL, Fragment: "usage"}))

	// Second fragment check reused the cached document.
	assert.Equal(t, 1, gets)
}

func TestRemoteFragmentUnfetchableBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v, _ := newVerifier()
	assert.False(t, v.Resolve(context.Background(), links.Target{Kind: links.Remote, Base: srv.URL, Fragment: "sec"}))
}

// Resolving the same target twice performs the underlying probe at most
// once; the second call returns the memoized outcome.
func TestCacheIdempotence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	v, client := newVerifier()
	ctx := context.Background()
	target := links.Target{Kind: links.Remote, Base: srv.URL + "/page"}

	assert.True(t, v.Resolve(ctx, target))
	calls := client.Calls()
	assert.True(t, v.Resolve(ctx, target))
	assert.Equal(t, calls, client.Calls())
	assert.Equal(t, 1, v.Unique())
}

// A memoized false for a fragmentless base short-circuits every fragmented
// lookup sharing that base, with no additional probe.
func TestDeadBaseShortCircuitsFragments(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	v, client := newVerifier()
	ctx := context.Background()
	base := srv.URL + "/dead.html"

	require.False(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: base}))
	calls := client.Calls()

	assert.False(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: base, Fragment: "a"}))
	assert.False(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: base, Fragment: "b"}))
	assert.Equal(t, calls, client.Calls())

	// The fragmented variants are still cached independently.
	assert.Equal(t, 3, v.Unique())
}

// A reachable base does not short-circuit: the fragment must be probed.
func TestLiveBaseStillProbesFragment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><div id="real">x</div></body></html>`))
	}))
	defer srv.Close()

	v, client := newVerifier()
	ctx := context.Background()

	require.True(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: srv.URL}))
	calls := client.Calls()

	assert.True(t, v.Resolve(ctx, links.Target{Kind: links.Remote, Base: srv.URL, Fragment: "real"}))
	assert.Greater(t, client.Calls(), calls)
}

func TestLocalExistenceReflectsDiskAtCallTime(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "temp.html", "<html></html>")

	v, _ := newVerifier()
	ctx := context.Background()
	require.True(t, v.Resolve(ctx, links.Target{Kind: links.Local, Base: path}))

	// Outcomes are memoized for the scan: deleting the file afterwards
	// does not invalidate the cached result.
	require.NoError(t, os.Remove(path))
	assert.True(t, v.Resolve(ctx, links.Target{Kind: links.Local, Base: path}))
}
