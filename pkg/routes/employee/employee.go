package employee

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	employeerepo "github.com/Ramsey-B/clover/internal/repositories/employee"
	ctxmiddleware "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/models"
)

var validate = validator.New()

// Register registers the employee roster routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
}

// List returns the commission-eligible roster for the tenant
func List(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*employeerepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get employee repository")
	}

	employees, err := repo.List(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, employees)
}

// Create adds an employee to the roster
func Create(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req models.CreateEmployeeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid request: %s", err.Error())
	}

	ctx, repo, err := ectoinject.GetContext[*employeerepo.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get employee repository")
	}

	created, err := repo.Create(ctx, tenantID, models.Employee{
		Name:        req.Name,
		Email:       req.Email,
		Username:    req.Username,
		Role:        req.Role,
		JobFunction: req.JobFunction,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, created)
}
