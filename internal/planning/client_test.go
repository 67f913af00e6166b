package planning_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"erp-planning/internal/core"
	"erp-planning/internal/planning"

	"github.com/shopspring/decimal"
)

func TestSubmit(t *testing.T) {
	var gotCompany string
	var got core.PlanningSubmission
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/production/planning" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotCompany = r.Header.Get("X-Company-ID")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	due := time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)
	client := planning.NewClient(srv.URL+"/", 5*time.Second)
	err := client.Submit(context.Background(), "c1", core.PlanningSubmission{
		Action:     core.PlanningActionOrder,
		LocationID: "L1",
		Items: []core.PlanningItem{{ID: "M", Orders: []core.PlannedOrder{
			{ItemID: "M", Quantity: decimal.NewFromInt(10), DueDate: &due, PeriodID: "P2"},
		}}},
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if gotCompany != "c1" {
		t.Errorf("X-Company-ID = %q", gotCompany)
	}
	if got.Action != "order" || got.LocationID != "L1" || len(got.Items) != 1 || got.Items[0].Orders[0].PeriodID != "P2" {
		t.Errorf("unexpected submission %+v", got)
	}
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"server error", http.StatusInternalServerError, "boom", "HTTP 500"},
		{"rejected", http.StatusOK, `{"success": false, "message": "no routing for item"}`, "no routing for item"},
		{"rejected with error field", http.StatusOK, `{"success": false, "error": "job locked"}`, "job locked"},
		{"garbage", http.StatusOK, `<html>`, "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := planning.NewClient(srv.URL, time.Second).Submit(context.Background(), "c1", core.PlanningSubmission{Action: "order"})
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestSubmit_EmptyBodyIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := planning.NewClient(srv.URL, time.Second).Submit(context.Background(), "c1", core.PlanningSubmission{}); err != nil {
		t.Errorf("Submit: %v", err)
	}
}
