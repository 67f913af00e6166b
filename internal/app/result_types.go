package app

import "time"

// PlanResult is returned by every planning operation.
type PlanResult struct {
	RunID           string `json:"runId"`
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	StockTransferID string `json:"stockTransferId,omitempty"`
}

// RunEvent is published after every planning run.
type RunEvent struct {
	RunID            string    `json:"runId"`
	Kind             string    `json:"kind"`
	CompanyID        string    `json:"companyId"`
	LocationID       string    `json:"locationId"`
	JobID            string    `json:"jobId,omitempty"`
	Success          bool      `json:"success"`
	Message          string    `json:"message"`
	StockTransferID  string    `json:"stockTransferId,omitempty"`
	PurchaseOrderIDs []string  `json:"purchaseOrderIds,omitempty"`
	JobsSubmitted    int       `json:"jobsSubmitted"`
	Errors           []string  `json:"errors,omitempty"`
	CompletedAt      time.Time `json:"completedAt"`
}
