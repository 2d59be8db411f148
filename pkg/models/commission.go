package models

import (
	"time"
)

// Source identifies which producer created a commission record
type Source string

const (
	SourceSpreadsheet Source = "spreadsheet"
	SourcePlacement   Source = "placement"
	SourceTimesheet   Source = "timesheet"
)

// CommissionRecord is the canonical commission fact. One row exists per
// dedup_key; repeated imports update the existing row in place.
type CommissionRecord struct {
	ID                string    `json:"id" db:"id"`
	TenantID          string    `json:"tenant_id" db:"tenant_id"`
	DedupKey          string    `json:"dedup_key" db:"dedup_key"`
	Source            Source    `json:"source" db:"source"`
	EmployeeName      string    `json:"employee_name" db:"employee_name"`
	EmployeeID        *string   `json:"employee_id,omitempty" db:"employee_id"`
	Client            string    `json:"client" db:"client"`
	Status            string    `json:"status" db:"status"`
	GrossProfit       float64   `json:"gross_profit" db:"gross_profit"`
	HourlyGrossProfit float64   `json:"hourly_gross_profit" db:"hourly_gross_profit"`
	CommissionRate    string    `json:"commission_rate" db:"commission_rate"`
	CommissionRateVal float64   `json:"commission_rate_value" db:"commission_rate_value"`
	CommissionAmount  float64   `json:"commission_amount" db:"commission_amount"`
	Month             string    `json:"month" db:"month"`
	Day               int       `json:"day" db:"day"`
	Year              int       `json:"year" db:"year"`
	PlacementID       *string   `json:"placement_id,omitempty" db:"placement_id"`
	InvoiceDate       *string   `json:"invoice_date,omitempty" db:"invoice_date"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// Employee is a roster entry. Commission records hold a weak reference to it
// by case-insensitive name match; an unmatched name never blocks a record.
type Employee struct {
	ID          string    `json:"id" db:"id"`
	TenantID    string    `json:"tenant_id" db:"tenant_id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Username    string    `json:"username" db:"username"`
	Role        string    `json:"role" db:"role"`
	JobFunction string    `json:"job_function" db:"job_function"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Row is one spreadsheet row keyed by lower-cased, trimmed column name.
// Values may be strings, numbers, or time.Time depending on the cell type.
type Row map[string]any

// Placement is a permanent placement from the ATS. Correlated text fields
// carry the recruiter/sales owner names and the internal marker.
type Placement struct {
	ID             int              `json:"id"`
	DateBegin      *int64           `json:"dateBegin,omitempty"` // unix millis
	EmploymentType string           `json:"employmentType"`
	FlatFee        float64          `json:"flatFee"`
	InvoiceDate    *int64           `json:"customDate1,omitempty"` // unix millis
	Client         *ClientReference `json:"clientCorporation,omitempty"`
	Candidate      *PersonReference `json:"candidate,omitempty"`
	Recruiter      string           `json:"customText34"`
	SalesOwner     string           `json:"customText38"`
	InternalMarker string           `json:"correlatedCustomText2"`
}

// ClientReference is a nested client corporation reference
type ClientReference struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// PersonReference is a nested candidate reference
type PersonReference struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// TimeEntry is one raw back-office time entry. Field names vary by tenant
// (dateWorked/workDate, hours/quantity, billAmount/bill, payAmount/pay), so
// entries stay as maps and are read through the extractor.
type TimeEntry map[string]any

// ImportResult summarizes one upload or sync batch
type ImportResult struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Warnings  []string `json:"warnings,omitempty"`
}

// Merge folds another result into this one
func (r *ImportResult) Merge(other ImportResult) {
	r.Total += other.Total
	r.Processed += other.Processed
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Warnings = append(r.Warnings, other.Warnings...)
}

// CommissionRecordListResponse is the response for listing commission records
type CommissionRecordListResponse struct {
	Items      []CommissionRecord `json:"items"`
	TotalCount int                `json:"total_count"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}
