package catalog

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"WikiPagesBot/internal/fetch"
)

const listingHTML = `<html><body><div id="mw-content-text"><ul>
<li><a href="/wiki/Samuel_Clemens" title="Samuel Clemens">Samuel Clemens</a></li>
<li><a href="/wiki/List_of_Foo" title="List of Foo">List of Foo</a></li>
<li><a href="/wiki/Ghost_Writer" title="Ghost Writer">Ghost Writer</a></li>
<li><a href="/wiki/Lord_Byron" title="Lord Byron">Lord Byron</a></li>
</ul></div></body></html>`

type hostRewriteTransport struct {
	target *url.URL
}

func (t hostRewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req.URL.Scheme = t.target.Scheme
	req.URL.Host = t.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

type fakeResolver struct {
	canonical map[string]string
}

func (f fakeResolver) Canonical(_ context.Context, rawTitle, _ string) (string, bool) {
	title, ok := f.canonical[rawTitle]
	return title, ok
}

type fakeCounter struct {
	views  map[string]int
	failed map[string]error
}

func (f fakeCounter) TotalViews(_ context.Context, pageID string) (int, error) {
	if err, ok := f.failed[pageID]; ok {
		return 0, err
	}
	return f.views[pageID], nil
}

func newListingBuilder(t *testing.T, titles fakeResolver, views fakeCounter) *Builder {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/wiki/") {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(listingHTML))
	}))
	t.Cleanup(srv.Close)

	target, err := url.Parse(srv.URL)
	require.NoError(t, err)
	fetcher := fetch.NewClient(&http.Client{
		Transport: hostRewriteTransport{target: target},
		Timeout:   5 * time.Second,
	})

	return NewBuilder(fetcher, titles, views, "en.wikipedia.org", slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBuildCategoryAssemblesPages(t *testing.T) {
	t.Parallel()

	builder := newListingBuilder(t,
		fakeResolver{canonical: map[string]string{
			"Samuel Clemens": "Mark Twain",
			"Lord Byron":     "Lord Byron",
		}},
		fakeCounter{views: map[string]int{
			"Mark_Twain": 300,
			"Lord_Byron": 500,
		}},
	)

	pages, err := builder.BuildCategory(context.Background(), CategorySpec{
		Lang:     "en",
		Name:     "List_of_English_writers",
		Selector: "div#mw-content-text > ul > li > a:first-child",
		Exclude:  []string{"LIST_OF"},
	})
	require.NoError(t, err)
	require.Len(t, pages, 2, "excluded and unresolvable links contribute nothing")

	twain := pages[0]
	require.Equal(t, "en.wikipedia.org", twain.Project)
	require.Equal(t, "List_of_English_writers", twain.Category)
	require.Equal(t, "Mark_Twain", twain.ID)
	require.Equal(t, "Mark Twain", twain.Title)
	require.Equal(t, "https://en.wikipedia.org/wiki/Mark_Twain", twain.URL)
	require.Equal(t, 300, twain.Views)

	require.Equal(t, "Lord_Byron", pages[1].ID)
	require.Equal(t, 500, pages[1].Views)
}

func TestBuildCategoryExcludesHrefsCaseInsensitively(t *testing.T) {
	t.Parallel()

	builder := newListingBuilder(t,
		fakeResolver{canonical: map[string]string{"List of Foo": "List of Foo"}},
		fakeCounter{},
	)

	pages, err := builder.BuildCategory(context.Background(), CategorySpec{
		Name:     "List_of_English_writers",
		Selector: "div#mw-content-text > ul > li > a:first-child",
		Exclude:  []string{"list_of", "samuel", "ghost", "byron"},
	})
	require.NoError(t, err)
	require.Empty(t, pages)
}

func TestBuildCategorySkipsPageWithFailedStats(t *testing.T) {
	t.Parallel()

	builder := newListingBuilder(t,
		fakeResolver{canonical: map[string]string{
			"Samuel Clemens": "Mark Twain",
			"Lord Byron":     "Lord Byron",
		}},
		fakeCounter{
			views:  map[string]int{"Lord_Byron": 500},
			failed: map[string]error{"Mark_Twain": context.DeadlineExceeded},
		},
	)

	pages, err := builder.BuildCategory(context.Background(), CategorySpec{
		Name:     "List_of_English_writers",
		Selector: "div#mw-content-text > ul > li > a:first-child",
		Exclude:  []string{"list_of"},
	})
	require.NoError(t, err, "a failed score skips the page, not the build")
	require.Len(t, pages, 1)
	require.Equal(t, "Lord_Byron", pages[0].ID)
}

func TestBuildAllConcatenatesCategories(t *testing.T) {
	t.Parallel()

	builder := newListingBuilder(t,
		fakeResolver{canonical: map[string]string{"Lord Byron": "Lord Byron"}},
		fakeCounter{views: map[string]int{"Lord_Byron": 7}},
	)

	specs := []CategorySpec{
		{Name: "List_of_English_writers", Selector: "div#mw-content-text > ul > li > a:first-child", Exclude: []string{"list_of", "samuel", "ghost"}},
		{Name: "List_of_French-language_authors", Selector: "div#mw-content-text > ul > li > a:first-child", Exclude: []string{"list_of", "samuel", "ghost"}},
	}

	pages, err := builder.BuildAll(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	require.Equal(t, "List_of_English_writers", pages[0].Category)
	require.Equal(t, "List_of_French-language_authors", pages[1].Category)
}
