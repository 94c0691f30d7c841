package http

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		value      any
		wantStatus int
	}{
		{"encodable", map[string]float64{"netWorth": 1500}, http.StatusCreated},
		{"infinite value", map[string]float64{"netWorth": math.Inf(1)}, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeJSON(context.Background(), rr, http.StatusCreated, tc.value)

			if rr.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tc.wantStatus)
			}
			if rr.Body.Len() == 0 {
				t.Fatalf("empty body")
			}
			if !json.Valid(rr.Body.Bytes()) {
				t.Fatalf("body is not JSON: %q", rr.Body.String())
			}
		})
	}
}
