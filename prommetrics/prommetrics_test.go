package prommetrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/versionfield"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector(t *testing.T) {
	ctx := context.Background()
	c := New(prometheus.NewRegistry())

	ix := versionfield.New(
		versionfield.WithMetricsCollector(c),
		versionfield.WithIgnoreMalformed(true),
	)
	_, err := ix.Add(ctx, "1.0.0", "bogus")
	require.NoError(t, err)
	_, err = ix.Add(ctx, "2.0.0-rc.1")
	require.NoError(t, err)
	require.NoError(t, ix.Flush(ctx))

	q, err := ix.Field().RangeQuery("1.0.0", "", true, false)
	require.NoError(t, err)
	n, err := ix.Count(ctx, q)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)

	_, err = ix.Field().FuzzyQuery("1.0.0", versionfield.FuzzyOptions{MaxEdits: 5, MaxExpansions: 1})
	require.Error(t, err)

	body := scrape(t, c)
	assert.Contains(t, body, `versionfield_values_total{outcome="indexed"} 2`)
	assert.Contains(t, body, `versionfield_values_total{outcome="malformed"} 1`)
	assert.Contains(t, body, `versionfield_documents_total{status="ok"} 2`)
	assert.Contains(t, body, `versionfield_search_hits_total{kind="range"} 2`)
	assert.Contains(t, body, `versionfield_search_duration_seconds_count{kind="range",status="ok"} 1`)
	assert.Contains(t, body, `versionfield_queries_rejected_total{kind="fuzzy"} 1`)
	assert.Contains(t, body, `versionfield_flushes_total{status="ok"} 1`)
}

func TestCollector_Save(t *testing.T) {
	c := New(nil)
	c.RecordSave(1, 4096, 0, nil)
	c.RecordSave(1, 0, 0, assert.AnError)

	body := scrape(t, c)
	assert.Contains(t, body, `versionfield_saves_total{status="ok"} 1`)
	assert.Contains(t, body, `versionfield_saves_total{status="error"} 1`)
	assert.Contains(t, body, `versionfield_saved_bytes_total 4096`)
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
