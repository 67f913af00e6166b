package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"erp-planning/internal/app"

	"github.com/go-chi/chi/v5"
)

// POST /api/companies/{company}/jobs/{jobId}/materials/plan
func (h *Handler) apiPlanMaterials(w http.ResponseWriter, r *http.Request) {
	var req app.MaterialsPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = companyID(r)
	req.JobID = chi.URLParam(r, "jobId")

	result, err := h.svc.PlanMaterials(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{company}/locations/{location}/stock-transfers/plan
// The body is optional; when present it may narrow the run to a list of items.
func (h *Handler) apiPlanStockTransfer(w http.ResponseWriter, r *http.Request) {
	var req app.StockTransferPlanRequest
	if r.ContentLength != 0 {
		if err := decodeOptional(r, &req); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
				return
			}
			writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
			return
		}
	}
	req.CompanyID = companyID(r)
	req.LocationID = chi.URLParam(r, "location")

	result, err := h.svc.PlanStockTransfer(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// POST /api/companies/{company}/purchasing/plan
func (h *Handler) apiPlanPurchasing(w http.ResponseWriter, r *http.Request) {
	var req app.PurchasingPlanRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.CompanyID = companyID(r)

	result, err := h.svc.PlanPurchasing(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, result)
}

// GET /api/schema/{name}
func (h *Handler) apiSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := h.svc.Schema(chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, schema)
}

// decodeOptional decodes a body that may legitimately be empty.
func decodeOptional(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
