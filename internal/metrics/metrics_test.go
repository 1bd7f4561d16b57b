package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sharebite/sharebite/internal/foodshare"
	"github.com/sharebite/sharebite/internal/model"
)

func TestRecordTransition(t *testing.T) {
	Register()

	before := testutil.ToFloat64(requestTransitions.WithLabelValues(string(model.RequestStatusApproved)))
	RecordTransition(model.RequestStatusApproved)
	RecordTransition(model.RequestStatusApproved)
	after := testutil.ToFloat64(requestTransitions.WithLabelValues(string(model.RequestStatusApproved)))

	if after-before != 2 {
		t.Errorf("expected approved transitions to grow by 2, grew by %v", after-before)
	}
}

func TestRecordRejection(t *testing.T) {
	Register()

	tests := []struct {
		err    error
		reason string
	}{
		{fmt.Errorf("food item x: %w", foodshare.ErrUnavailable), "unavailable"},
		{&foodshare.ValidationError{Field: "title", Message: "is required"}, "validation"},
		{fmt.Errorf("%w: %w", foodshare.ErrCommitFailed, errors.New("io")), "commit_failed"},
		{foodshare.ErrAlreadyAllocated, "already_allocated"},
		{errors.New("disk on fire"), ""},
	}

	for _, tt := range tests {
		if got := RejectionReason(tt.err); got != tt.reason {
			t.Errorf("RejectionReason(%v) = %q, want %q", tt.err, got, tt.reason)
		}
	}

	before := testutil.ToFloat64(allocationRejections.WithLabelValues("duplicate_request"))
	RecordRejection(foodshare.ErrDuplicateRequest)
	RecordRejection(errors.New("not counted"))
	if got := testutil.ToFloat64(allocationRejections.WithLabelValues("duplicate_request")) - before; got != 1 {
		t.Errorf("expected one duplicate_request rejection, got %v", got)
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	Register()
	RecordFoodItemCreated()
	RecordHTTPRequest(http.MethodGet, http.StatusOK, 12*time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, name := range []string{
		"sharebite_food_items_created_total",
		`sharebite_http_request_duration_seconds_count{code="200",method="GET"}`,
	} {
		if !strings.Contains(body, name) {
			t.Errorf("expected %s in exposition output", name)
		}
	}
}
