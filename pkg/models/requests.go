package models

// SyncRequest scopes a sync call. Dates are calendar days; zero values fall
// back to the current year for placements and the current month for
// timesheets.
type SyncRequest struct {
	Since string `json:"since" validate:"omitempty,datetime=2006-01-02"`
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

// CreateEmployeeRequest adds a roster entry
type CreateEmployeeRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=255"`
	Email       string `json:"email" validate:"omitempty,email"`
	Username    string `json:"username" validate:"omitempty,min=1,max=100"`
	Role        string `json:"role" validate:"omitempty,max=100"`
	JobFunction string `json:"job_function" validate:"omitempty,max=100"`
}
