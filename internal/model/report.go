package model

import "time"

// State is the terminal state of one identifier's import
type State string

const (
	StateExists           State = "exists"            // Already in the knowledge base, skipped
	StateCreated          State = "created"           // New item written
	StateAssembled        State = "assembled"         // Dry run: item built, not written
	StateNotFound         State = "not_found"         // Neither in source nor knowledge base
	StateSourceMissing    State = "source_missing"    // In knowledge base but not in source
	StateImportable       State = "importable"        // In source but not in knowledge base (lookup only)
	StateAssemblingFailed State = "assembling_failed" // Record-level failure before submission
	StateSubmissionFailed State = "submission_failed" // Write collaborator rejected the item
)

// Failed reports whether the state is a failure.
func (s State) Failed() bool {
	return s == StateAssemblingFailed || s == StateSubmissionFailed
}

// Outcome is the reported result for one normalized identifier
type Outcome struct {
	DOI      string        `json:"doi"`
	State    State         `json:"state"`
	ItemID   string        `json:"item_id,omitempty"`  // Existing or newly created entity id
	URL      string        `json:"url,omitempty"`      // Human URL of the entity
	Message  string        `json:"message,omitempty"`  // Error or explanation
	Claims   int           `json:"claims,omitempty"`   // Number of assembled claims
	Warnings []string      `json:"warnings,omitempty"` // Assembler warnings
	Duration time.Duration `json:"duration_ns"`
}

// RunReport summarizes a whole import run
type RunReport struct {
	RunID      string    `json:"run_id"`
	Input      string    `json:"input,omitempty"`
	DryRun     bool      `json:"dry_run"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Outcomes   []Outcome `json:"outcomes"`
}

// Count returns the number of outcomes in the given state.
func (r *RunReport) Count(state State) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.State == state {
			n++
		}
	}
	return n
}

// Failures returns the number of failed outcomes.
func (r *RunReport) Failures() int {
	return r.Count(StateAssemblingFailed) + r.Count(StateSubmissionFailed)
}
