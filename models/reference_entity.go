package models

import (
	"time"
)

// EntityKind identifies one of the reference entity tables
type EntityKind string

// Reference entity kinds
const (
	KindEmployees       EntityKind = "employees"
	KindPartNumbers     EntityKind = "part-numbers"
	KindWorkCenters     EntityKind = "work-centers"
	KindCustomers       EntityKind = "customers"
	KindDispositions    EntityKind = "dispositions"
	KindInspectionItems EntityKind = "inspection-items"
	KindFailureCodes    EntityKind = "failure-codes"
	KindCarTypes        EntityKind = "car-types"
)

// entityTables maps each kind to its underlying table
var entityTables = map[EntityKind]string{
	KindEmployees:       "employees",
	KindPartNumbers:     "part_numbers",
	KindWorkCenters:     "work_centers",
	KindCustomers:       "customers",
	KindDispositions:    "dispositions",
	KindInspectionItems: "inspection_items",
	KindFailureCodes:    "failure_codes",
	KindCarTypes:        "car_types",
}

// Table returns the database table backing this kind
func (k EntityKind) Table() string {
	return entityTables[k]
}

// Valid reports whether the kind names a known reference entity table
func (k EntityKind) Valid() bool {
	_, ok := entityTables[k]
	return ok
}

// HasEmployeeNumber reports whether the kind carries the employee number field
func (k EntityKind) HasEmployeeNumber() bool {
	return k == KindEmployees
}

// EntityKinds lists every reference entity kind
var EntityKinds = []EntityKind{
	KindEmployees,
	KindPartNumbers,
	KindWorkCenters,
	KindCustomers,
	KindDispositions,
	KindInspectionItems,
	KindFailureCodes,
	KindCarTypes,
}

// ReferenceEntity represents one row of a reference entity table
// (employee, part number, work center, and so on)
type ReferenceEntity struct {
	ID             int       `json:"id"`
	Name           string    `json:"name"`
	EmployeeNumber string    `json:"employee_number,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// EntityForm represents form data for creating or updating reference entities
type EntityForm struct {
	Name           string `json:"name"`
	EmployeeNumber string `json:"employee_number"`
}

// Validate validates the entity form data
func (f *EntityForm) Validate() []string {
	var errors []string

	if f.Name == "" {
		errors = append(errors, "Name is required")
	}

	if len(f.Name) > 200 {
		errors = append(errors, "Name must be less than 200 characters")
	}

	return errors
}
