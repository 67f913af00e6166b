package core

import (
	"fmt"
	"strings"
)

// StepStatus is the outcome of one sub-step of a planning run.
type StepStatus string

const (
	StepOK      StepStatus = "ok"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

// StepResult records what happened to one item (or one whole sub-step when ItemID is
// empty) during a run.
type StepResult struct {
	Step   string
	ItemID string
	Status StepStatus
	Reason string
	Err    error
}

func (r StepResult) message() string {
	switch {
	case r.Err != nil:
		return r.Err.Error()
	case r.Reason != "":
		return r.Reason
	default:
		return fmt.Sprintf("%s %s", r.Step, r.Status)
	}
}

// RunReport aggregates the step results of one planning run.
type RunReport struct {
	Kind             string
	StockTransferID  string
	HasTransfer      bool
	PurchaseOrderIDs []string
	HasPurchaseOrder bool
	HasJobs          bool
	JobsSubmitted    int
	TotalItems       int
	ProcessedItems   int
	Steps            []StepResult
}

// Outcome is the caller-facing summary of a run.
type Outcome struct {
	Success bool
	Message string
}

const errorSampleSize = 3

func (r *RunReport) ok(step, itemID string) {
	r.Steps = append(r.Steps, StepResult{Step: step, ItemID: itemID, Status: StepOK})
}

func (r *RunReport) skip(step, itemID, reason string) {
	r.Steps = append(r.Steps, StepResult{Step: step, ItemID: itemID, Status: StepSkipped, Reason: reason})
}

func (r *RunReport) fail(step, itemID string, err error) {
	r.Steps = append(r.Steps, StepResult{Step: step, ItemID: itemID, Status: StepFailed, Err: err})
}

// Errors returns the messages of every failed or skipped step, in order.
func (r *RunReport) Errors() []string {
	var errs []string
	for _, s := range r.Steps {
		if s.Status == StepOK {
			continue
		}
		errs = append(errs, s.message())
	}
	return errs
}

// Summary folds the report into a single success flag and message.
func (r *RunReport) Summary() Outcome {
	errs := r.Errors()

	if r.ProcessedItems == 0 && len(errs) > 0 {
		return Outcome{
			Success: false,
			Message: "Failed to process items: " + sampleErrors(errs),
		}
	}

	if r.Kind == RunStockTransfer && r.TotalItems == 0 && len(errs) == 0 {
		return Outcome{Success: true, Message: "No shelves require replenishment"}
	}

	created := r.createdArtifacts()
	if len(errs) > 0 {
		msg := fmt.Sprintf("Processed %d of %d items", r.ProcessedItems, r.TotalItems)
		if created != "" {
			msg += " and created " + created
		}
		return Outcome{Success: true, Message: msg + ". Errors: " + sampleErrors(errs)}
	}

	if created == "" {
		return Outcome{Success: true, Message: "Items processed successfully, but without any transfers or orders"}
	}
	return Outcome{Success: true, Message: "Successfully created " + created}
}

func (r *RunReport) createdArtifacts() string {
	var parts []string
	if r.HasTransfer {
		parts = append(parts, "a stock transfer")
	}
	if r.HasPurchaseOrder {
		if len(r.PurchaseOrderIDs) > 1 {
			parts = append(parts, fmt.Sprintf("%d purchase orders", len(r.PurchaseOrderIDs)))
		} else {
			parts = append(parts, "a purchase order")
		}
	}
	if r.HasJobs {
		parts = append(parts, "production jobs")
	}
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
	}
}

func sampleErrors(errs []string) string {
	if len(errs) <= errorSampleSize {
		return strings.Join(errs, "; ")
	}
	return fmt.Sprintf("%s (and %d more)", strings.Join(errs[:errorSampleSize], "; "), len(errs)-errorSampleSize)
}
