package models

import (
	"time"
)

// DMT record statuses
const (
	StatusOpen       = "Open"
	StatusInProgress = "In Progress"
	StatusClosed     = "Closed"
)

// Workflow stages, in pipeline order
const (
	StageDraft       = "Draft"
	StageReview      = "Review"
	StageApproved    = "Approved"
	StageImplemented = "Implemented"
)

// WorkflowStages is the fixed pipeline a DMT record moves through
var WorkflowStages = []string{StageDraft, StageReview, StageApproved, StageImplemented}

// NextWorkflowStage returns the stage following the given one. The terminal
// stage maps to itself.
func NextWorkflowStage(stage string) string {
	for i, s := range WorkflowStages {
		if s == stage && i < len(WorkflowStages)-1 {
			return WorkflowStages[i+1]
		}
	}
	return stage
}

// IsValidStatus reports whether status is one of the fixed status values
func IsValidStatus(status string) bool {
	return status == StatusOpen || status == StatusInProgress || status == StatusClosed
}

// IsValidWorkflowStage reports whether stage is part of the fixed pipeline
func IsValidWorkflowStage(stage string) bool {
	for _, s := range WorkflowStages {
		if s == stage {
			return true
		}
	}
	return false
}

// DMTRecord represents one nonconformance report
type DMTRecord struct {
	ID               int       `json:"id"`
	DMTNumber        string    `json:"dmt_number"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	Category         string    `json:"category"`
	Severity         string    `json:"severity"`
	Department       string    `json:"department"`
	Status           string    `json:"status"`
	WorkflowStage    string    `json:"workflow_stage"`
	IsSession        bool      `json:"is_session"`
	RootCause        *string   `json:"root_cause,omitempty"`
	CorrectiveAction *string   `json:"corrective_action,omitempty"`
	PreventiveAction *string   `json:"preventive_action,omitempty"`
	TargetDate       *string   `json:"target_date,omitempty"`
	CreatedBy        string    `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// DMTForm represents form data for creating DMT records
type DMTForm struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Department  string `json:"department"`
	IsSession   bool   `json:"is_session"`
}

// Validate validates the DMT form data
func (f *DMTForm) Validate() []string {
	var errors []string

	if f.Title == "" {
		errors = append(errors, "Title is required")
	}

	if len(f.Title) > 200 {
		errors = append(errors, "Title must be less than 200 characters")
	}

	return errors
}

// DMTUpdateForm represents partial form data for updating DMT records.
// Nil fields are left unchanged.
type DMTUpdateForm struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	Category         *string `json:"category"`
	Severity         *string `json:"severity"`
	Department       *string `json:"department"`
	Status           *string `json:"status"`
	WorkflowStage    *string `json:"workflow_stage"`
	IsSession        *bool   `json:"is_session"`
	RootCause        *string `json:"root_cause"`
	CorrectiveAction *string `json:"corrective_action"`
	PreventiveAction *string `json:"preventive_action"`
	TargetDate       *string `json:"target_date"`
}

// Validate validates the DMT update form data
func (f *DMTUpdateForm) Validate() []string {
	var errors []string

	if f.Title != nil && *f.Title == "" {
		errors = append(errors, "Title cannot be empty")
	}

	if f.Status != nil && !IsValidStatus(*f.Status) {
		errors = append(errors, "Status must be one of: Open, In Progress, Closed")
	}

	if f.WorkflowStage != nil && !IsValidWorkflowStage(*f.WorkflowStage) {
		errors = append(errors, "Workflow stage must be one of: Draft, Review, Approved, Implemented")
	}

	return errors
}
