// Package commissionrecord persists the commission ledger. Rows are unique
// per (tenant_id, dedup_key); repeated imports update in place.
package commissionrecord

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = `id, tenant_id, dedup_key, source, employee_name, employee_id, client, status,
	gross_profit, hourly_gross_profit, commission_rate, commission_rate_value, commission_amount,
	month, day, year, placement_id, invoice_date, created_at, updated_at`

// Repository handles commission record persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a commission record repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// UpsertResult reports whether the upsert inserted a new row or updated an
// existing one
type UpsertResult struct {
	Record *models.CommissionRecord
	IsNew  bool
}

// ListFilter narrows List results
type ListFilter struct {
	Employee string
	Client   string
	Status   string
	Year     int
	Month    string
	Source   string
	Page     int
	PageSize int
}

// queryer lets upserts run against the pool or an open transaction
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
}

// Upsert inserts the record or overwrites the existing row with the same
// dedup key. Every field except identity and created_at is overwritten. The
// second occurrence of a key inside one batch updates the first's row.
func (r *Repository) Upsert(ctx context.Context, tenantID string, record models.CommissionRecord) (*UpsertResult, error) {
	return r.upsert(ctx, r.db, tenantID, record)
}

func (r *Repository) upsert(ctx context.Context, q queryer, tenantID string, record models.CommissionRecord) (*UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "commissionrecord.Repository.Upsert")
	defer span.End()

	log := r.logger.WithContext(ctx).WithFields(map[string]any{
		"tenant_id": tenantID,
		"dedup_key": record.DedupKey,
	})

	now := time.Now().UTC()
	query := `
		INSERT INTO commission_records (
			id, tenant_id, dedup_key, source, employee_name, employee_id, client, status,
			gross_profit, hourly_gross_profit, commission_rate, commission_rate_value, commission_amount,
			month, day, year, placement_id, invoice_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (tenant_id, dedup_key)
		DO UPDATE SET
			source = EXCLUDED.source,
			employee_name = EXCLUDED.employee_name,
			employee_id = EXCLUDED.employee_id,
			client = EXCLUDED.client,
			status = EXCLUDED.status,
			gross_profit = EXCLUDED.gross_profit,
			hourly_gross_profit = EXCLUDED.hourly_gross_profit,
			commission_rate = EXCLUDED.commission_rate,
			commission_rate_value = EXCLUDED.commission_rate_value,
			commission_amount = EXCLUDED.commission_amount,
			month = EXCLUDED.month,
			day = EXCLUDED.day,
			year = EXCLUDED.year,
			placement_id = EXCLUDED.placement_id,
			invoice_date = EXCLUDED.invoice_date,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + columns + `, (xmax = 0) AS inserted
	`

	var result struct {
		models.CommissionRecord
		Inserted bool `db:"inserted"`
	}

	err := q.GetContext(ctx, &result, query,
		uuid.New().String(), tenantID, record.DedupKey, record.Source,
		record.EmployeeName, record.EmployeeID, record.Client, record.Status,
		record.GrossProfit, record.HourlyGrossProfit,
		record.CommissionRate, record.CommissionRateVal, record.CommissionAmount,
		record.Month, record.Day, record.Year,
		record.PlacementID, record.InvoiceDate, now, now,
	)
	if err != nil {
		log.WithError(err).Error("Failed to upsert commission record")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert commission record")
	}

	if result.Inserted {
		log.WithFields(map[string]any{"id": result.ID}).Info("Created commission record")
	} else {
		log.WithFields(map[string]any{"id": result.ID}).Debug("Updated commission record")
	}

	return &UpsertResult{Record: &result.CommissionRecord, IsNew: result.Inserted}, nil
}

// UpsertBatch applies every record inside one transaction. Any failure rolls
// the whole batch back; the caller reports zero progress for the batch.
func (r *Repository) UpsertBatch(ctx context.Context, tenantID string, records []models.CommissionRecord) ([]UpsertResult, error) {
	ctx, span := tracing.StartSpan(ctx, "commissionrecord.Repository.UpsertBatch")
	defer span.End()

	ctx, tx, err := database.GetTx(ctx, r.logger, r.db, nil)
	if err != nil {
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to begin transaction")
	}

	results := make([]UpsertResult, 0, len(records))
	for _, record := range records {
		result, err := r.upsert(ctx, tx, tenantID, record)
		if err != nil {
			if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
				r.logger.WithContext(ctx).WithError(rollbackErr).Error("Failed to roll back commission batch")
			}
			return nil, err
		}
		results = append(results, *result)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to commit commission batch")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to commit commission batch")
	}

	return results, nil
}

// GetByID returns one commission record
func (r *Repository) GetByID(ctx context.Context, tenantID, id string) (*models.CommissionRecord, error) {
	ctx, span := tracing.StartSpan(ctx, "commissionrecord.Repository.GetByID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("commission_records")
	sb.Where(sb.Equal("tenant_id", tenantID), sb.Equal("id", id))

	query, args := sb.Build()
	var record models.CommissionRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"id": id}).Error("Failed to get commission record")
		return nil, httperror.NewHTTPError(http.StatusNotFound, "commission record not found")
	}
	return &record, nil
}

// List returns a page of commission records matching the filter, newest
// first, plus the unpaged match count
func (r *Repository) List(ctx context.Context, tenantID string, filter ListFilter) ([]models.CommissionRecord, int, error) {
	ctx, span := tracing.StartSpan(ctx, "commissionrecord.Repository.List")
	defer span.End()

	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 500 {
		filter.PageSize = 100
	}

	where := func(sb *sqlbuilder.SelectBuilder) []string {
		conditions := []string{sb.Equal("tenant_id", tenantID)}
		if filter.Employee != "" {
			conditions = append(conditions, sb.ILike("employee_name", "%"+filter.Employee+"%"))
		}
		if filter.Client != "" {
			conditions = append(conditions, sb.ILike("client", "%"+filter.Client+"%"))
		}
		if filter.Status != "" {
			conditions = append(conditions, sb.Equal("status", filter.Status))
		}
		if filter.Year != 0 {
			conditions = append(conditions, sb.Equal("year", filter.Year))
		}
		if filter.Month != "" {
			conditions = append(conditions, sb.Equal("month", filter.Month))
		}
		if filter.Source != "" {
			conditions = append(conditions, sb.Equal("source", filter.Source))
		}
		return conditions
	}

	countBuilder := sqlbuilder.PostgreSQL.NewSelectBuilder()
	countBuilder.Select("COUNT(*)")
	countBuilder.From("commission_records")
	countBuilder.Where(where(countBuilder)...)

	countQuery, countArgs := countBuilder.Build()
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count commission records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list commission records")
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("commission_records")
	sb.Where(where(sb)...)
	sb.OrderBy("year DESC", "updated_at DESC")
	sb.Limit(filter.PageSize)
	sb.Offset((filter.Page - 1) * filter.PageSize)

	query, args := sb.Build()
	var records []models.CommissionRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list commission records")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list commission records")
	}

	return records, total, nil
}

// CountByKey returns the number of ledger rows for one dedup key, used to
// verify the unique constraint backstop
func (r *Repository) CountByKey(ctx context.Context, tenantID, dedupKey string) (int, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("commission_records")
	sb.Where(sb.Equal("tenant_id", tenantID), sb.Equal("dedup_key", dedupKey))

	query, args := sb.Build()
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count commission records")
	}
	return count, nil
}
