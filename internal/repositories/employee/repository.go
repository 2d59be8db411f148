// Package employee persists the roster that commission records link to by
// name
package employee

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"
	"github.com/pkg/errors"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalizers"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const columns = "id, tenant_id, name, email, username, role, job_function, created_at"

// Repository handles employee persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates an employee repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{db: db, logger: logger}
}

// FindByName matches a roster entry by normalized name. A miss returns
// (nil, nil); unmatched names never block record creation.
func (r *Repository) FindByName(ctx context.Context, tenantID, name string) (*models.Employee, error) {
	ctx, span := tracing.StartSpan(ctx, "employee.Repository.FindByName")
	defer span.End()

	normalized := normalizers.NormalizeName(name)
	if normalized == "" {
		return nil, nil
	}

	query := `
		SELECT ` + columns + `
		FROM employees
		WHERE tenant_id = $1 AND LOWER(name) = $2
		LIMIT 1
	`

	var found models.Employee
	err := r.db.GetContext(ctx, &found, query, tenantID, normalized)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": name}).Error("Failed to find employee by name")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find employee")
	}
	return &found, nil
}

// List returns the full roster for a tenant
func (r *Repository) List(ctx context.Context, tenantID string) ([]models.Employee, error) {
	ctx, span := tracing.StartSpan(ctx, "employee.Repository.List")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns)
	sb.From("employees")
	sb.Where(sb.Equal("tenant_id", tenantID))
	sb.OrderBy("name ASC")

	query, args := sb.Build()
	var employees []models.Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list employees")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list employees")
	}
	return employees, nil
}

// Create adds a roster entry. Names are stored pre-normalized so FindByName
// stays a plain equality match.
func (r *Repository) Create(ctx context.Context, tenantID string, employee models.Employee) (*models.Employee, error) {
	ctx, span := tracing.StartSpan(ctx, "employee.Repository.Create")
	defer span.End()

	query := `
		INSERT INTO employees (id, tenant_id, name, email, username, role, job_function, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (tenant_id, name) DO UPDATE SET
			email = EXCLUDED.email,
			username = EXCLUDED.username,
			role = EXCLUDED.role,
			job_function = EXCLUDED.job_function
		RETURNING ` + columns + `
	`

	var created models.Employee
	err := r.db.GetContext(ctx, &created, query,
		uuid.New().String(), tenantID, normalizers.NormalizeName(employee.Name),
		employee.Email, employee.Username, employee.Role, employee.JobFunction,
		time.Now().UTC(),
	)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"name": employee.Name}).Error("Failed to create employee")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create employee")
	}
	return &created, nil
}
