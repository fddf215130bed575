package feed

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Querier runs a read-only query and returns rows keyed by column name.
// *datawarehouse.Client satisfies it.
type Querier interface {
	ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
}

var tableNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Export table columns
const (
	colName              = "name"
	colAddressLine1      = "address_line1"
	colPhone             = "parent_mobile_phone"
	colSalesRepName      = "sales_rep_name"
	colSupplementer      = "supplementer_assigned"
	colStatusName        = "status_name"
	colInitialScopePrice = "initial_scope_price"
	colFinalJobPrice     = "final_job_price"
	colSourceName        = "source_name"
	colAffiliateName     = "affiliate_name"
	colBuildDate         = "build_date"
)

// WarehouseFeed reads jobs from the CRM export table in the data warehouse
type WarehouseFeed struct {
	querier Querier
	query   string
	logger  *zap.Logger
}

// NewWarehouseFeed validates the table name and prepares the select
func NewWarehouseFeed(querier Querier, table string, logger *zap.Logger) (*WarehouseFeed, error) {
	if !tableNamePattern.MatchString(table) {
		return nil, fmt.Errorf("invalid jobs table name %q", table)
	}
	columns := []string{
		colName, colAddressLine1, colPhone, colSalesRepName, colSupplementer, colStatusName,
		colInitialScopePrice, colFinalJobPrice, colSourceName, colAffiliateName, colBuildDate,
	}
	return &WarehouseFeed{
		querier: querier,
		query:   fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), table, colName),
		logger:  logger,
	}, nil
}

// FetchJobs returns every row of the export table as a Job
func (f *WarehouseFeed) FetchJobs(ctx context.Context) ([]Job, error) {
	rows, err := f.querier.ExecuteQuery(ctx, f.query)
	if err != nil {
		return nil, fmt.Errorf("warehouse job query failed: %w", err)
	}

	jobs := make([]Job, 0, len(rows))
	for i, row := range rows {
		job, err := jobFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("warehouse row %d: %w", i, err)
		}
		jobs = append(jobs, job)
	}

	f.logger.Info("Fetched jobs from data warehouse", zap.Int("jobs", len(jobs)))
	return jobs, nil
}

func jobFromRow(row map[string]interface{}) (Job, error) {
	job := Job{
		Name:             asString(row[colName]),
		AddressLine1:     asString(row[colAddressLine1]),
		Phone:            asString(row[colPhone]),
		SalesRepName:     asString(row[colSalesRepName]),
		SupplementerName: asString(row[colSupplementer]),
		StatusName:       asString(row[colStatusName]),
		SourceName:       asString(row[colSourceName]),
		AffiliateName:    asString(row[colAffiliateName]),
	}

	var err error
	if job.InitialScopePrice, err = asAmount(row[colInitialScopePrice]); err != nil {
		return Job{}, fmt.Errorf("%s: %w", colInitialScopePrice, err)
	}
	if job.FinalJobPrice, err = asAmount(row[colFinalJobPrice]); err != nil {
		return Job{}, fmt.Errorf("%s: %w", colFinalJobPrice, err)
	}
	if job.BuildDateEpoch, err = asEpoch(row[colBuildDate]); err != nil {
		return Job{}, fmt.Errorf("%s: %w", colBuildDate, err)
	}
	return job, nil
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case []byte:
		return strings.TrimSpace(string(val))
	default:
		return fmt.Sprint(val)
	}
}

// asAmount accepts the shapes go-mssqldb produces for money columns
func asAmount(v interface{}) (Amount, error) {
	switch val := v.(type) {
	case nil:
		return Amount{}, nil
	case int64:
		return NewAmount(decimal.NewFromInt(val)), nil
	case float64:
		return NewAmount(decimal.NewFromFloat(val)), nil
	case string, []byte:
		s := asString(val)
		if s == "" {
			return Amount{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return Amount{}, err
		}
		return NewAmount(d), nil
	default:
		return Amount{}, fmt.Errorf("unsupported type %T", v)
	}
}

// asEpoch accepts either a datetime column or epoch seconds
func asEpoch(v interface{}) (float64, error) {
	switch val := v.(type) {
	case nil:
		return 0, nil
	case time.Time:
		return float64(val.Unix()), nil
	case int64:
		return float64(val), nil
	case float64:
		if math.IsNaN(val) {
			return 0, nil
		}
		return val, nil
	case string, []byte:
		s := asString(val)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	default:
		return 0, fmt.Errorf("unsupported type %T", v)
	}
}
