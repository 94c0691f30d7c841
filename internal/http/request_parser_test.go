package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"finplan/internal/core"
	"finplan/internal/projection"
)

func TestParsePatchQuery(t *testing.T) {
	q := url.Values{
		"incomeGrowthRate":         {"0.05"},
		"additionalMonthlySavings": {" 250 "},
		"savingsGoal":              {""},
		"unrelated":                {"x"},
	}
	patch, err := ParsePatchQuery(q)
	if err != nil {
		t.Fatalf("ParsePatchQuery: %v", err)
	}
	if patch.IncomeGrowthRate == nil || *patch.IncomeGrowthRate != 0.05 {
		t.Fatalf("incomeGrowthRate = %v", patch.IncomeGrowthRate)
	}
	if patch.AdditionalMonthlySavings == nil || *patch.AdditionalMonthlySavings != 250 {
		t.Fatalf("additionalMonthlySavings = %v", patch.AdditionalMonthlySavings)
	}
	if patch.SavingsGoal != nil {
		t.Fatalf("empty savingsGoal should be skipped")
	}
	if patch.MonthlyIncome != nil {
		t.Fatalf("absent monthlyIncome should stay nil")
	}
}

func TestParsePatchQueryFormats(t *testing.T) {
	q := url.Values{
		"monthlyIncome":    {"1234,567"},
		"incomeGrowthRate": {"3.5%"},
	}
	patch, err := ParsePatchQuery(q)
	if err != nil {
		t.Fatalf("ParsePatchQuery: %v", err)
	}
	if patch.MonthlyIncome == nil || *patch.MonthlyIncome != 1234.57 {
		t.Fatalf("monthlyIncome = %v, want 1234.57", patch.MonthlyIncome)
	}
	if patch.IncomeGrowthRate == nil || *patch.IncomeGrowthRate != 0.035 {
		t.Fatalf("incomeGrowthRate = %v, want 0.035", patch.IncomeGrowthRate)
	}
}

func TestParsePatchQueryEmpty(t *testing.T) {
	patch, err := ParsePatchQuery(url.Values{})
	if err != nil {
		t.Fatalf("ParsePatchQuery: %v", err)
	}
	if !patch.IsEmpty() {
		t.Fatalf("expected empty patch, got %+v", patch)
	}
}

func TestParsePatchQueryErrors(t *testing.T) {
	tests := []struct {
		name  string
		query url.Values
		want  error
	}{
		{"not a number", url.Values{"monthlyIncome": {"lots"}}, ErrBadRequest},
		{"nan amount", url.Values{"monthlyIncome": {"NaN"}}, core.ErrInvalidAmount},
		{"nan rate", url.Values{"incomeGrowthRate": {"NaN"}}, projection.ErrInvalidInput},
		{"bad percent", url.Values{"expenseGrowthRate": {"abc%"}}, core.ErrInvalidRate},
		{"infinite", url.Values{"savingsInterestRate": {"+Inf"}}, projection.ErrInvalidInput},
		{"overflow", url.Values{"currentDebt": {"1e400"}}, ErrBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParsePatchQuery(tc.query)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{"valid", `{"monthlyIncome": 5000}`, nil},
		{"empty", ``, ErrEmptyBody},
		{"unknown field", `{"salary": 1}`, ErrBadRequest},
		{"trailing data", `{"monthlyIncome": 1} {}`, ErrBadRequest},
		{"malformed", `{"monthlyIncome":`, ErrBadRequest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			var patch core.InputsPatch
			err := DecodeJSON(httptest.NewRecorder(), r, &patch)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("DecodeJSON: %v", err)
				}
				if patch.MonthlyIncome == nil || *patch.MonthlyIncome != 5000 {
					t.Fatalf("monthlyIncome not decoded: %+v", patch)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrBadRequest, http.StatusBadRequest},
		{&projection.InvalidInputError{Field: "monthlyIncome"}, http.StatusUnprocessableEntity},
		{core.ErrUnknownFrequency, http.StatusUnprocessableEntity},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := errorStatus(tc.err); got != tc.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
