// Package feed reads CRM job records from JobNimbus or from the warehouse export.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/straye-as/commission-api/internal/config"
	"github.com/straye-as/commission-api/internal/datawarehouse"
	"go.uber.org/zap"
)

// JobFeed is the source of CRM jobs for a sync run
type JobFeed interface {
	FetchJobs(ctx context.Context) ([]Job, error)
}

// Job is one CRM job record. Field names follow the JobNimbus export,
// including its custom fields with spaces in the key.
type Job struct {
	Name              string  `json:"name"`
	AddressLine1      string  `json:"address_line1"`
	Phone             string  `json:"parent_mobile_phone"`
	SalesRepName      string  `json:"sales_rep_name"`
	SupplementerName  string  `json:"Supplementer Assigned"`
	StatusName        string  `json:"status_name"`
	InitialScopePrice Amount  `json:"Initial Scope Price"`
	FinalJobPrice     Amount  `json:"Final Job Price"`
	SourceName        string  `json:"source_name"`
	AffiliateName     string  `json:"Affiliate Name"`
	BuildDateEpoch    float64 `json:"Build Date"`
}

// BuildDate converts the epoch-seconds build date to a UTC calendar date.
// Zero means the job has no build date.
func (j Job) BuildDate() *time.Time {
	if j.BuildDateEpoch == 0 {
		return nil
	}
	ts := time.Unix(int64(j.BuildDateEpoch), 0).UTC()
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

// Amount is a nullable money value. The CRM sends numbers, numeric strings,
// empty strings or null for unset custom fields.
type Amount struct {
	decimal.NullDecimal
}

// NewAmount wraps a known value
func NewAmount(d decimal.Decimal) Amount {
	return Amount{decimal.NullDecimal{Decimal: d, Valid: true}}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`)) {
		a.NullDecimal = decimal.NullDecimal{}
		return nil
	}
	var d decimal.Decimal
	if err := json.Unmarshal(trimmed, &d); err != nil {
		return fmt.Errorf("invalid amount %s: %w", trimmed, err)
	}
	a.NullDecimal = decimal.NullDecimal{Decimal: d, Valid: true}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return a.NullDecimal.MarshalJSON()
}

// New builds the feed selected by jobFeed.source
func New(cfg *config.Config, warehouse *datawarehouse.Client, logger *zap.Logger) (JobFeed, error) {
	switch cfg.JobFeed.Source {
	case config.JobFeedSourceJobNimbus, "":
		return NewJobNimbusClient(&cfg.JobFeed, logger), nil
	case config.JobFeedSourceWarehouse:
		if warehouse == nil {
			return nil, fmt.Errorf("warehouse job feed selected but the data warehouse is not connected")
		}
		return NewWarehouseFeed(warehouse, cfg.DataWarehouse.JobsTable, logger)
	default:
		return nil, fmt.Errorf("unknown job feed source %q", cfg.JobFeed.Source)
	}
}
