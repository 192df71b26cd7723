package ao3

import (
	"bytes"
	_ "embed"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"ao3scraper/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/work_multi.html
var workMultiHtml []byte

//go:embed testdata/work_single.html
var workSingleHtml []byte

//go:embed testdata/feed.atom
var feedAtom []byte

// archive is a fake archive server that serves fixed pages by path and counts
// the requests it receives per path.
type archive struct {
	server *httptest.Server
	hits   atomic.Int64

	mu      sync.Mutex
	pages   map[string][]byte
	queries []string
	// release, if set, is waited on before every response.
	release chan struct{}
}

func newArchive(t testing.TB, pages map[string][]byte) *archive {
	a := &archive{pages: pages}
	a.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		a.hits.Add(1)

		a.mu.Lock()
		a.queries = append(a.queries, r.URL.RawQuery)
		page, ok := a.pages[r.URL.Path]
		release := a.release
		a.mu.Unlock()

		if release != nil {
			<-release
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write(page)
	}))
	t.Cleanup(a.server.Close)
	return a
}

func (a *archive) setPage(path string, contents []byte) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pages[path] = contents
}

func (a *archive) recordedQueries() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.queries...)
}

func (a *archive) session(t testing.TB, tel telemetry.API) *Session {
	opts := DefaultSessionOptions()
	opts.BaseUrl = a.server.URL
	if tel != nil {
		opts.Telemetry = tel
	}
	s, err := NewSession(opts)
	require.NoError(t, err)
	return s
}

func fixtureDocument(t testing.TB, contents []byte) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(contents))
	require.NoError(t, err)
	return doc
}

func ptr[T any](value T) *T {
	return &value
}
