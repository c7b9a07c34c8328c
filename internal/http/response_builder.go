// Package http exposes the forecast and timesheet services as a JSON API.
//
// This file implements a small builder for JSON responses so handlers write
// status, headers and body the same way.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"forecast/internal/core"
)

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

// NewJSONResponse creates a new response builder with default 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

// Status sets the HTTP status code for the response.
func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

// Header adds a custom header to the response.
func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Body sets the value encoded as the response body.
func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response body", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse creates a response whose body is {"error": message}.
func ErrorResponse(statusCode int, message string) *JSONResponseBuilder {
	return NewJSONResponse().Status(statusCode).Body(errorBody{Error: message})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func ConflictError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusConflict, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// MethodNotAllowedError creates a 405 response listing the allowed methods.
func MethodNotAllowedError(allowedMethods string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusMethodNotAllowed, "method not allowed").
		Header("Allow", allowedMethods)
}

type (
	cellView struct {
		Key            string `json:"key"`
		Year           int    `json:"year"`
		Month          int    `json:"month"`
		FinancialYear  int    `json:"financialYear"`
		FinancialMonth int    `json:"financialMonth"`
		Amount         string `json:"amount"`
	}

	rowView struct {
		Category string     `json:"category"`
		Editable bool       `json:"editable"`
		Margin   bool       `json:"margin"`
		Cells    []cellView `json:"cells"`
	}

	monthView struct {
		Year  int    `json:"year"`
		Month int    `json:"month"`
		Label string `json:"label"`
	}

	matrixView struct {
		ProjectID string      `json:"projectId"`
		Months    []monthView `json:"months"`
		Rows      []rowView   `json:"rows"`
		// Warning is set when an edit was ignored.
		Warning string `json:"warning,omitempty"`
	}
)

// newMatrixView renders m with amounts formatted to two decimals.
func newMatrixView(m *core.Matrix) matrixView {
	view := matrixView{ProjectID: m.ProjectID()}
	for _, b := range m.Months() {
		view.Months = append(view.Months, monthView{Year: b.Year, Month: b.Month, Label: b.Label()})
	}
	for _, r := range m.Rows() {
		row := rowView{Category: r.Category.String(), Editable: r.Editable, Margin: r.Margin}
		for _, c := range r.Cells {
			row.Cells = append(row.Cells, cellView{
				Key:            string(c.Key),
				Year:           c.Bucket.Year,
				Month:          c.Bucket.Month,
				FinancialYear:  c.FinancialYear,
				FinancialMonth: c.FinancialMonth,
				Amount:         core.FormatAmount(c.Amount),
			})
		}
		view.Rows = append(view.Rows, row)
	}
	return view
}
