package candidates

import "strings"

// Record is one normalized candidate. Field order is the column order used
// for storage, JSON output and exports.
type Record struct {
	Name                   string `json:"Name"`
	Emails                 string `json:"Emails"`
	Mobile                 string `json:"Mobile"`
	PresentSalary          string `json:"Present Salary"`
	ExpectedSalary         string `json:"Expected Salary"`
	DateOfBirth            string `json:"Date of Birth"`
	PermanentAddress       string `json:"Permanent Address"`
	CompanyWithDuration    string `json:"Company with Duration"`
	JobTitleWithDuration   string `json:"Job Title with Duration"`
	Institution            string `json:"Institution"`
	Graduation             string `json:"Graduation"`
	TotalYearsOfExperience string `json:"Total Years of experience"`
}

// Columns lists the display names of Record fields in order.
var Columns = []string{
	"Name",
	"Emails",
	"Mobile",
	"Present Salary",
	"Expected Salary",
	"Date of Birth",
	"Permanent Address",
	"Company with Duration",
	"Job Title with Duration",
	"Institution",
	"Graduation",
	"Total Years of experience",
}

// Values returns the field values in Columns order.
func (r Record) Values() []string {
	return []string{
		r.Name,
		r.Emails,
		r.Mobile,
		r.PresentSalary,
		r.ExpectedSalary,
		r.DateOfBirth,
		r.PermanentAddress,
		r.CompanyWithDuration,
		r.JobTitleWithDuration,
		r.Institution,
		r.Graduation,
		r.TotalYearsOfExperience,
	}
}

// Field returns a pointer to the field for a display name, or nil.
func (r *Record) Field(column string) *string {
	switch column {
	case "Name":
		return &r.Name
	case "Emails":
		return &r.Emails
	case "Mobile":
		return &r.Mobile
	case "Present Salary":
		return &r.PresentSalary
	case "Expected Salary":
		return &r.ExpectedSalary
	case "Date of Birth":
		return &r.DateOfBirth
	case "Permanent Address":
		return &r.PermanentAddress
	case "Company with Duration":
		return &r.CompanyWithDuration
	case "Job Title with Duration":
		return &r.JobTitleWithDuration
	case "Institution":
		return &r.Institution
	case "Graduation":
		return &r.Graduation
	case "Total Years of experience":
		return &r.TotalYearsOfExperience
	}
	return nil
}

// CreatedAtLayout is the stored timestamp format.
const CreatedAtLayout = "2006-01-02 15:04:05"

// StoredRecord is a Record as persisted.
type StoredRecord struct {
	ID string `json:"id"`
	Record
	CreatedAt string `json:"created_at"`
}

// Filters narrows a search. Empty fields are ignored; set fields are ANDed.
type Filters struct {
	// CreatedAt matches the calendar date part of the timestamp.
	CreatedAt  string `json:"created_at" validate:"omitempty,datetime=2006-01-02"`
	Graduation string `json:"graduation" validate:"max=200"`
	Experience string `json:"experience" validate:"max=200"`
	Mobile     string `json:"mobile" validate:"max=50"`
}

// Normalized returns a copy with surrounding whitespace removed.
func (f Filters) Normalized() Filters {
	return Filters{
		CreatedAt:  strings.TrimSpace(f.CreatedAt),
		Graduation: strings.TrimSpace(f.Graduation),
		Experience: strings.TrimSpace(f.Experience),
		Mobile:     strings.TrimSpace(f.Mobile),
	}
}

// IsEmpty reports whether no filter is set.
func (f Filters) IsEmpty() bool {
	n := f.Normalized()
	return n.CreatedAt == "" && n.Graduation == "" && n.Experience == "" && n.Mobile == ""
}
