package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dineadmin/internal/auth"
	"dineadmin/internal/core"
	"dineadmin/internal/services"
	"dineadmin/internal/store"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		JSON(map[string]int{"count": 2}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := w.Header().Get("X-Custom"); got != "value" {
		t.Errorf("X-Custom = %q, want value", got)
	}
	if got := strings.TrimSpace(w.Body.String()); got != `{"count":2}` {
		t.Errorf("Body = %q", got)
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)

	if w.Code != http.StatusNoContent {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusNoContent)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		want    int
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("bad"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("bad"), http.StatusNotFound},
		{"internal", InternalServerError("bad"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)
			if w.Code != tt.want {
				t.Errorf("Status code = %d, want %d", w.Code, tt.want)
			}
			if got := strings.TrimSpace(w.Body.String()); got != `{"error":"bad"}` {
				t.Errorf("Body = %q", got)
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    int
		wantMsg string
	}{
		{"bad param", errBadParam, http.StatusBadRequest, ""},
		{"invalid period", fmt.Errorf("monthly: %w", core.ErrInvalidPeriod), http.StatusBadRequest, ""},
		{"credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, "invalid email or password"},
		{"admin only", auth.ErrAccessDenied, http.StatusForbidden, "Access denied. Admin only."},
		{"not found", fmt.Errorf("get order x: %w", store.ErrNotFound), http.StatusNotFound, "not found"},
		{"validation", fmt.Errorf("save: %w", core.ErrInvalidGSTIN), http.StatusUnprocessableEntity, core.ErrInvalidGSTIN.Error()},
		{"weak password", services.ErrWeakPassword, http.StatusUnprocessableEntity, ""},
		{"unknown", errors.New("db exploded"), http.StatusInternalServerError, "internal error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, msg := errorStatus(tt.err)
			if got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
			if tt.wantMsg != "" && msg != tt.wantMsg {
				t.Errorf("message = %q, want %q", msg, tt.wantMsg)
			}
		})
	}
}
