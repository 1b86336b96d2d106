package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	sonic "github.com/bytedance/sonic"

	"github.com/riskibarqy/fpl-optimizer/internal/optimizer"
	"github.com/riskibarqy/fpl-optimizer/internal/usecase"
)

func TestWriteSuccess_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeSuccess(context.Background(), rec, http.StatusOK, map[string]string{"status": "ok"})

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	if _, ok := body["data"]; !ok {
		t.Fatalf("expected data key in success response")
	}
	if _, ok := body["error"]; ok {
		t.Fatalf("did not expect error key in success response")
	}
}

func TestWriteError_GoogleEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(context.Background(), rec, fmt.Errorf("%w: bad payload", usecase.ErrInvalidInput))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body map[string]any
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}

	if got, _ := body["apiVersion"].(string); got != "2.0" {
		t.Fatalf("expected apiVersion=2.0, got %v", body["apiVersion"])
	}
	errorObj, ok := body["error"].(map[string]any)
	if !ok {
		t.Fatalf("expected error object in response")
	}
	if got, _ := errorObj["status"].(string); got != "INVALID_ARGUMENT" {
		t.Fatalf("expected error status INVALID_ARGUMENT, got %v", errorObj["status"])
	}
}

func TestMapError_StatusStrings(t *testing.T) {
	tests := []struct {
		err    error
		status string
		reason string
	}{
		{err: optimizer.ErrUnresolvedSquad, status: "FAILED_PRECONDITION", reason: "unresolvedSquad"},
		{err: fmt.Errorf("squad: %w", optimizer.ErrInfeasibleModel), status: "FAILED_PRECONDITION", reason: "infeasibleModel"},
		{err: optimizer.ErrSolverTimeout, status: "DEADLINE_EXCEEDED", reason: "solverTimeout"},
		{err: usecase.ErrDependencyUnavailable, status: "UNAVAILABLE", reason: "dependencyUnavailable"},
		{err: fmt.Errorf("boom"), status: "INTERNAL", reason: "internalError"},
	}

	for _, tt := range tests {
		got := mapError(context.Background(), tt.err)
		if got.Status != tt.status || got.Reason != tt.reason {
			t.Fatalf("mapError(%v)=%+v want status=%s reason=%s", tt.err, got, tt.status, tt.reason)
		}
	}
}

func TestWriteInternalError_HidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	writeInternalError(context.Background(), rec)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	var body googleResponseEnvelope
	if err := sonic.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal response body: %v", err)
	}
	if body.Error == nil || body.Error.Message != "internal server error" {
		t.Fatalf("unexpected error body: %+v", body.Error)
	}
	if body.Error.Errors[0].Domain != errorDomain {
		t.Fatalf("unexpected error domain: %s", body.Error.Errors[0].Domain)
	}
}
