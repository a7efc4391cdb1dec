package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, "req_123", http.StatusBadRequest, "invalid_request_error", "bad_request", "test message")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}

	if rid := w.Header().Get("X-Request-ID"); rid != "req_123" {
		t.Errorf("expected X-Request-ID req_123, got %s", rid)
	}

	var resp APIError
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if resp.Error.Message != "test message" {
		t.Errorf("expected message 'test message', got %q", resp.Error.Message)
	}
	if resp.Error.Type != "invalid_request_error" {
		t.Errorf("expected type 'invalid_request_error', got %q", resp.Error.Type)
	}
	if resp.Error.RequestID != "req_123" {
		t.Errorf("expected oneflow_request_id 'req_123', got %q", resp.Error.RequestID)
	}
}

func TestWriteUnknownModelError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteUnknownModelError(w, "req_456", "no such model")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}

	var resp APIError
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "unknown_model" {
		t.Errorf("expected code 'unknown_model', got %q", resp.Error.Code)
	}
}

func TestWriteServiceUnavailableError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteServiceUnavailableError(w, "req_789", "no provider")

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected status 503, got %d", w.Code)
	}
}

func TestWriteInsufficientCreditsError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteInsufficientCreditsError(w, "req_999", "wallet empty")

	if w.Code != http.StatusPaymentRequired {
		t.Errorf("expected status 402, got %d", w.Code)
	}

	var resp APIError
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "insufficient_credits" {
		t.Errorf("expected code 'insufficient_credits', got %q", resp.Error.Code)
	}
}
