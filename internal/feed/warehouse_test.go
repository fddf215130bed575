package feed_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/feed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubQuerier struct {
	rows  []map[string]interface{}
	err   error
	query string
}

func (s *stubQuerier) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {
	s.query = query
	return s.rows, s.err
}

func TestWarehouseFeed_FetchJobs(t *testing.T) {
	built := time.Date(2024, 6, 18, 14, 0, 0, 0, time.UTC)
	querier := &stubQuerier{rows: []map[string]interface{}{
		{
			"name":                  "Jane Homeowner",
			"address_line1":         []byte("12 Elm St"),
			"sales_rep_name":        "Sam Seller ",
			"supplementer_assigned": nil,
			"initial_scope_price":   []byte("10000.00"),
			"final_job_price":       float64(12000),
			"source_name":           "Referral",
			"build_date":            built,
		},
		{
			"name":                "Epoch Job",
			"initial_scope_price": int64(500),
			"build_date":          int64(1718668800),
		},
	}}

	f, err := feed.NewWarehouseFeed(querier, "dbo.jobnimbus_jobs", zap.NewNop())
	require.NoError(t, err)

	jobs, err := f.FetchJobs(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Contains(t, querier.query, "FROM dbo.jobnimbus_jobs")
	assert.Equal(t, "12 Elm St", jobs[0].AddressLine1)
	assert.Equal(t, "Sam Seller", jobs[0].SalesRepName)
	assert.Empty(t, jobs[0].SupplementerName)
	assert.Equal(t, "10000", jobs[0].InitialScopePrice.Decimal.String())
	assert.Equal(t, "12000", jobs[0].FinalJobPrice.Decimal.String())
	assert.Equal(t, time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC), *jobs[0].BuildDate())

	assert.Equal(t, "500", jobs[1].InitialScopePrice.Decimal.String())
	assert.False(t, jobs[1].FinalJobPrice.Valid)
	assert.Equal(t, time.Date(2024, 6, 18, 0, 0, 0, 0, time.UTC), *jobs[1].BuildDate())
}

func TestWarehouseFeed_Errors(t *testing.T) {
	_, err := feed.NewWarehouseFeed(&stubQuerier{}, "jobs; DROP TABLE users", zap.NewNop())
	assert.Error(t, err)

	f, err := feed.NewWarehouseFeed(&stubQuerier{err: errors.New("timeout")}, "jobs", zap.NewNop())
	require.NoError(t, err)
	_, err = f.FetchJobs(context.Background())
	assert.Error(t, err)

	f, err = feed.NewWarehouseFeed(&stubQuerier{rows: []map[string]interface{}{
		{"name": "Bad", "final_job_price": "twelve"},
	}}, "jobs", zap.NewNop())
	require.NoError(t, err)
	_, err = f.FetchJobs(context.Background())
	assert.Error(t, err)
}

func TestNew_SelectsSource(t *testing.T) {
	cfg := &config.Config{JobFeed: config.JobFeedConfig{Source: config.JobFeedSourceJobNimbus}}
	jf, err := feed.New(cfg, nil, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &feed.JobNimbusClient{}, jf)

	cfg.JobFeed.Source = config.JobFeedSourceWarehouse
	_, err = feed.New(cfg, nil, zap.NewNop())
	assert.Error(t, err)

	cfg.JobFeed.Source = "csv"
	_, err = feed.New(cfg, nil, zap.NewNop())
	assert.Error(t, err)
}
