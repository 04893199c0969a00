package errors

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConstructorsCarryStatusAndCode(t *testing.T) {
	cases := []struct {
		err    *AppError
		code   string
		status int
	}{
		{NotFound("Booking"), CodeNotFound, http.StatusNotFound},
		{InvalidInput("bad dates"), CodeInvalidInput, http.StatusBadRequest},
		{Conflict("room taken"), CodeConflict, http.StatusConflict},
		{Unauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{Remote("hotel down", true), CodeRemote, http.StatusBadGateway},
		{Timeout("hotel timed out"), CodeTimeout, http.StatusGatewayTimeout},
		{Internal("boom", errors.New("cause")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if tc.err.Code != tc.code {
			t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
		}
		if tc.err.StatusCode() != tc.status {
			t.Errorf("%s: expected status %d, got %d", tc.code, tc.status, tc.err.StatusCode())
		}
	}
}

func TestRetryableClassification(t *testing.T) {
	if IsRetryable(Remote("rejected", false)) {
		t.Error("non-retryable remote error reported as retryable")
	}
	if !IsRetryable(Remote("unavailable", true)) {
		t.Error("retryable remote error not reported as retryable")
	}
	if !IsRetryable(Timeout("slow")) {
		t.Error("timeout should always be retryable")
	}
	if IsRetryable(Conflict("taken")) {
		t.Error("conflict must never be retryable")
	}
	if IsRetryable(errors.New("plain")) {
		t.Error("plain error must not be retryable")
	}
}

func TestIsCodeUnwrapsWrappedErrors(t *testing.T) {
	wrapped := fmt.Errorf("create booking: %w", Conflict("room taken"))
	if !IsCode(wrapped, CodeConflict) {
		t.Error("IsCode should see through fmt.Errorf wrapping")
	}
	if IsCode(wrapped, CodeNotFound) {
		t.Error("IsCode matched the wrong code")
	}
}

func TestWriteErrorUsesAppErrorStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, Conflict("room is already booked for these dates"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected json content type, got %s", ct)
	}
}

func TestWriteErrorHidesInternalCause(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.New("connection string with secrets"))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	body := rec.Body.String()
	if len(body) == 0 {
		t.Fatal("expected a JSON body")
	}
	if strings.Contains(body, "secrets") {
		t.Error("internal cause leaked into the response body")
	}
}
