package commission

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/commissionrecord"
	ctxmiddleware "github.com/Ramsey-B/clover/pkg/context"
	"github.com/Ramsey-B/clover/pkg/importer"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/spreadsheet"
)

var validate = validator.New()

// Register registers commission routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.GET("/:id", Get)
	g.POST("/upload", Upload)
	g.POST("/sync", Sync)
	g.POST("/sync/placements", SyncPlacements)
	g.POST("/sync/timesheets", SyncTimesheets)
}

// List returns commission records with optional filters
func List(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	page, _ := strconv.Atoi(c.QueryParam("page"))
	pageSize, _ := strconv.Atoi(c.QueryParam("page_size"))
	year, _ := strconv.Atoi(c.QueryParam("year"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 100
	}

	ctx, repo, err := ectoinject.GetContext[*commissionrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	items, totalCount, err := repo.List(ctx, tenantID, commissionrecord.ListFilter{
		Employee: c.QueryParam("employee"),
		Client:   c.QueryParam("client"),
		Status:   c.QueryParam("status"),
		Month:    c.QueryParam("month"),
		Source:   c.QueryParam("source"),
		Year:     year,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.CommissionRecordListResponse{
		Items:      items,
		TotalCount: totalCount,
		Page:       page,
		PageSize:   pageSize,
	})
}

// Get returns one commission record by id
func Get(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	id := c.Param("id")
	if id == "" {
		return httperror.NewHTTPError(http.StatusBadRequest, "id is required")
	}

	ctx, repo, err := ectoinject.GetContext[*commissionrecord.Repository](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get repository")
	}

	record, err := repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, record)
}

// Upload ingests a spreadsheet of commission rows. The file arrives as
// multipart form field "file".
func Upload(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "file is required")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "failed to open uploaded file")
	}
	defer file.Close()

	rows, err := spreadsheet.ReadRows(fileHeader.Filename, file)
	if err != nil {
		return err
	}

	ctx, imp, err := ectoinject.GetContext[*importer.Importer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get importer")
	}

	result, err := imp.ImportRows(ctx, tenantID, rows)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// Sync pulls from both the ATS and the back office
func Sync(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	since, start, end, err := syncWindow(c)
	if err != nil {
		return err
	}

	ctx, imp, err := ectoinject.GetContext[*importer.Importer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get importer")
	}

	result, err := imp.SyncAll(ctx, tenantID, since, start, end)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// SyncPlacements pulls permanent placements from the ATS only
func SyncPlacements(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	since, _, _, err := syncWindow(c)
	if err != nil {
		return err
	}

	ctx, imp, err := ectoinject.GetContext[*importer.Importer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get importer")
	}

	result, err := imp.SyncPlacements(ctx, tenantID, since)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// SyncTimesheets pulls time entries from the back office only
func SyncTimesheets(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := ctxmiddleware.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	_, start, end, err := syncWindow(c)
	if err != nil {
		return err
	}

	ctx, imp, err := ectoinject.GetContext[*importer.Importer](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get importer")
	}

	result, err := imp.SyncTimesheets(ctx, tenantID, start, end)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

// syncWindow parses the optional request body into the sync dates. Defaults
// are the start of the current year for placements and the current month for
// timesheets.
func syncWindow(c echo.Context) (since, start, end time.Time, err error) {
	var req models.SyncRequest
	if bindErr := c.Bind(&req); bindErr != nil && c.Request().ContentLength > 0 {
		return since, start, end, httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if validateErr := validate.Struct(req); validateErr != nil {
		return since, start, end, httperror.NewHTTPErrorf(http.StatusBadRequest, "invalid sync window: %s", validateErr.Error())
	}

	now := time.Now().UTC()

	since = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	if req.Since != "" {
		since, _ = time.Parse("2006-01-02", req.Since)
	}

	start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if req.Start != "" {
		start, _ = time.Parse("2006-01-02", req.Start)
	}

	end = now
	if req.End != "" {
		end, _ = time.Parse("2006-01-02", req.End)
	}

	if end.Before(start) {
		return since, start, end, httperror.NewHTTPError(http.StatusBadRequest, "end date is before start date")
	}
	return since, start, end, nil
}
