package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestAggregator(t *testing.T, srv *httptest.Server) (*Aggregator, *[]time.Duration) {
	t.Helper()
	agg := NewAggregator(testFetcher(t, srv), AggregatorConfig{
		Project:  "en.wikipedia",
		FromDate: "20150904",
		ToDate:   "20160903",
	}, discardLogger())

	var slept []time.Duration
	agg.sleep = func(d time.Duration) { slept = append(slept, d) }
	return agg, &slept
}

func TestTotalViewsSumsDailySeries(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"items":[{"views":10},{"views":25},{"views":7}]}`))
	}))
	defer srv.Close()

	agg, slept := newTestAggregator(t, srv)
	views, err := agg.TotalViews(context.Background(), "Mark_Twain")
	require.NoError(t, err)
	require.Equal(t, 42, views)
	require.EqualValues(t, 1, requests.Load())
	require.Empty(t, *slept)
}

func TestTotalViewsRetriesErrorEnvelope(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) <= 2 {
			w.Write([]byte(`{"type":"https://mediawiki.org/wiki/HyperSwitch/errors/not_found","title":"Not found."}`))
			return
		}
		w.Write([]byte(`{"items":[{"views":100},{"views":20}]}`))
	}))
	defer srv.Close()

	agg, slept := newTestAggregator(t, srv)
	views, err := agg.TotalViews(context.Background(), "Lord_Byron")
	require.NoError(t, err)
	require.Equal(t, 120, views)
	require.EqualValues(t, 3, requests.Load(), "initial request plus two retries")
	require.Len(t, *slept, 2)
	require.Equal(t, retryBackoff, (*slept)[0])
}

func TestTotalViewsGivesUpAfterAttemptCap(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"type":"error"}`))
	}))
	defer srv.Close()

	agg, slept := newTestAggregator(t, srv)
	views, err := agg.TotalViews(context.Background(), "E._F._Benson")
	require.NoError(t, err, "zero views after retries is a valid result")
	require.Equal(t, 0, views)
	require.EqualValues(t, 1+maxErrorResolutionAttempts, requests.Load())
	require.Len(t, *slept, maxErrorResolutionAttempts)
}

func TestTotalViewsAcceptsGenuineZero(t *testing.T) {
	t.Parallel()

	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write([]byte(`{"items":[{"views":0},{"views":0}]}`))
	}))
	defer srv.Close()

	agg, slept := newTestAggregator(t, srv)
	views, err := agg.TotalViews(context.Background(), "Obscure_Author")
	require.NoError(t, err)
	require.Equal(t, 0, views)
	require.EqualValues(t, 1, requests.Load(), "a well-formed zero is final, no retry")
	require.Empty(t, *slept)
}

func TestTotalViewsWrapsTransportFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	agg, _ := newTestAggregator(t, srv)
	_, err := agg.TotalViews(context.Background(), "Anyone")
	var statsErr *StatsError
	require.ErrorAs(t, err, &statsErr)
	require.Equal(t, "Anyone", statsErr.PageID)
}

func TestSumViewsWalksNestedShapes(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		json any
		want int
	}{
		{
			name: "flat items array",
			json: map[string]any{"items": []any{
				map[string]any{"views": float64(3)},
				map[string]any{"views": float64(4)},
			}},
			want: 7,
		},
		{
			name: "deeply nested envelope",
			json: map[string]any{"data": map[string]any{"series": []any{
				[]any{map[string]any{"views": float64(5)}},
				map[string]any{"inner": map[string]any{"views": float64(6)}},
			}}},
			want: 11,
		},
		{
			name: "string encoded views",
			json: []any{map[string]any{"views": "12"}},
			want: 12,
		},
		{
			name: "no views anywhere",
			json: map[string]any{"detail": "not found"},
			want: 0,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := sumViews(tc.json)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSumViewsRejectsNonNumericViews(t *testing.T) {
	t.Parallel()

	_, err := sumViews(map[string]any{"views": true})
	require.Error(t, err)
}
