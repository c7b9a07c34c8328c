package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"forecast/internal/core"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "value").
		Body(map[string]int{"n": 1}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Header().Get("X-Custom") != "value" {
		t.Error("custom header missing")
	}
	if w.Body.String() != "{\"n\":1}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_NoBody(t *testing.T) {
	w := httptest.NewRecorder()
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
	if w.Code != http.StatusNoContent || w.Body.Len() != 0 {
		t.Fatalf("code=%d body=%q", w.Code, w.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name string
		resp *JSONResponseBuilder
		code int
	}{
		{"bad request", BadRequestError("x"), http.StatusBadRequest},
		{"unprocessable", UnprocessableEntityError("x"), http.StatusUnprocessableEntity},
		{"not found", NotFoundError("x"), http.StatusNotFound},
		{"conflict", ConflictError("x"), http.StatusConflict},
		{"internal", InternalServerError("x"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.resp.Write(w)
			if w.Code != tt.code {
				t.Errorf("code = %d, want %d", w.Code, tt.code)
			}
			if w.Body.String() != "{\"error\":\"x\"}\n" {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestNewMatrixView(t *testing.T) {
	months := core.Months(core.NewDate(2018, 12, 1).Time, core.NewDate(2019, 1, 31).Time)
	m, err := core.BuildMatrix("p1", months, nil, []core.ForecastEntry{
		{FinancialYear: 2019, FinancialMonth: 7, Type: core.RevenueType, Amount: decimal.NewFromInt(800)},
	}, core.DefaultFiscalCalendar())
	if err != nil {
		t.Fatal(err)
	}

	view := newMatrixView(m)
	if view.ProjectID != "p1" || len(view.Months) != 2 || len(view.Rows) != 5 {
		t.Fatalf("unexpected view: %+v", view)
	}
	if view.Months[1].Label != "Jan 2019" {
		t.Errorf("label = %q", view.Months[1].Label)
	}
	revenue := view.Rows[0]
	if revenue.Category != "Revenue" || !revenue.Editable || revenue.Margin {
		t.Errorf("revenue row = %+v", revenue)
	}
	jan := revenue.Cells[1]
	if jan.Amount != "800.00" || jan.FinancialYear != 2019 || jan.FinancialMonth != 7 || jan.Key != "2019.01.Revenue" {
		t.Errorf("jan cell = %+v", jan)
	}
	if margin := view.Rows[2]; !margin.Margin || margin.Cells[1].Amount != "800.00" {
		t.Errorf("planned margin row = %+v", margin)
	}
}
