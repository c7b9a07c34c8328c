package http

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"forecast/internal/core"
)

func newParser(body, contentType string) *RequestBodyParser {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", contentType)
	return NewRequestBodyParser(httptest.NewRecorder(), req)
}

func TestParseCellEdit(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		ctype   string
		want    cellEdit
		wantErr string
	}{
		{
			name:  "json with numbers",
			body:  `{"projectId":"p1","year":2019,"month":1,"category":"Revenue","value":12.5}`,
			ctype: "application/json",
			want:  cellEdit{ProjectID: "p1", Year: 2019, Month: 1, Category: "Revenue", Value: "12.5"},
		},
		{
			name:  "json with strings",
			body:  `{"projectId":"p1","year":"2019","month":"2","category":"planned-cost","value":" 1,5 "}`,
			ctype: "application/json",
			want:  cellEdit{ProjectID: "p1", Year: 2019, Month: 2, Category: "planned-cost", Value: "1,5"},
		},
		{
			name:  "form encoded",
			body:  "projectId=p1&year=2018&month=12&category=Revenue&value=",
			ctype: "application/x-www-form-urlencoded",
			want:  cellEdit{ProjectID: "p1", Year: 2018, Month: 12, Category: "Revenue"},
		},
		{
			name:    "missing project",
			body:    `{"year":2019,"month":1,"category":"Revenue"}`,
			ctype:   "application/json",
			wantErr: "missing projectId",
		},
		{
			name:    "invalid month",
			body:    `{"projectId":"p1","year":2019,"month":"jan","category":"Revenue","value":"1"}`,
			ctype:   "application/json",
			wantErr: `invalid month "jan"`,
		},
		{
			name:    "missing value",
			body:    `{"projectId":"p1","year":2019,"month":1,"category":"Revenue"}`,
			ctype:   "application/json",
			wantErr: "missing value",
		},
		{
			name:    "missing value in form",
			body:    "projectId=p1&year=2019&month=1&category=Revenue",
			ctype:   "application/x-www-form-urlencoded",
			wantErr: "missing value",
		},
		{
			name:  "null value is not a number",
			body:  `{"projectId":"p1","year":2019,"month":1,"category":"Revenue","value":null}`,
			ctype: "application/json",
			want:  cellEdit{ProjectID: "p1", Year: 2019, Month: 1, Category: "Revenue", Value: nonScalarValue},
		},
		{
			name:  "array value is not a number",
			body:  `{"projectId":"p1","year":2019,"month":1,"category":"Revenue","value":[1]}`,
			ctype: "application/json",
			want:  cellEdit{ProjectID: "p1", Year: 2019, Month: 1, Category: "Revenue", Value: nonScalarValue},
		},
		{
			name:  "object value is not a number",
			body:  `{"projectId":"p1","year":2019,"month":1,"category":"Revenue","value":{"a":1}}`,
			ctype: "application/json",
			want:  cellEdit{ProjectID: "p1", Year: 2019, Month: 1, Category: "Revenue", Value: nonScalarValue},
		},
		{
			name:    "malformed json",
			body:    `{"projectId":`,
			ctype:   "application/json",
			wantErr: "decode JSON body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseCellEdit(newParser(tt.body, tt.ctype))
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestNonScalarValueNeverParses(t *testing.T) {
	if _, err := core.ParseAmount(nonScalarValue); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("ParseAmount(%q) err = %v", nonScalarValue, err)
	}
}

func TestParseProjectIDFallsBackToQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/forecast/save?projectId=p9", nil)
	id, err := parseProjectID(NewRequestBodyParser(httptest.NewRecorder(), req), req)
	if err != nil || id != "p9" {
		t.Fatalf("parseProjectID = %q, %v", id, err)
	}
}

func TestUserFromRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := userFromRequest(req); err == nil {
		t.Fatal("expected error without header")
	}
	req.Header.Set(userHeader, " u1\x00 ")
	if user, err := userFromRequest(req); err != nil || user != "u1" {
		t.Fatalf("userFromRequest = %q, %v", user, err)
	}
}

func TestRequireMethod(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if RequireMethod(req, http.MethodGet) != nil {
		t.Fatal("GET should be allowed")
	}
	resp := RequireMethod(req, http.MethodPut, http.MethodPost)
	if resp == nil {
		t.Fatal("expected 405 response")
	}
	rr := httptest.NewRecorder()
	resp.Write(rr)
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != "PUT, POST" {
		t.Fatalf("code=%d allow=%q", rr.Code, rr.Header().Get("Allow"))
	}
}
