// This file implements parsing and validation of request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	maxBodyBytes = 64 << 10
	userHeader   = "X-User-ID"
)

var (
	errMissingUser    = errors.New("missing X-User-ID header")
	errMissingProject = errors.New("missing projectId")
)

// RequestBodyParser reads a JSON or form-encoded body once and exposes its
// fields as strings.
type RequestBodyParser struct {
	body     []byte
	jsonData map[string]any
	formData url.Values
	parsed   bool
	err      error
}

// NewRequestBodyParser creates a parser for the given request. Bodies over
// 64KiB are rejected.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{}
	if r.Body == nil {
		return p
	}
	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = fmt.Errorf("decode JSON body: %w", err)
			return p.err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a trimmed string value from the parsed data.
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Lookup reports whether key is present. For JSON bodies scalar is false
// when the value is not a string or a number, and the returned string is
// then meaningless.
func (p *RequestBodyParser) Lookup(key string) (value string, present, scalar bool) {
	if p.jsonData != nil {
		val, ok := p.jsonData[key]
		if !ok {
			return "", false, false
		}
		switch val.(type) {
		case string, float64:
			return sanitizeInput(stringValue(val)), true, true
		default:
			return "", true, false
		}
	}
	if p.formData != nil {
		if _, ok := p.formData[key]; ok {
			return sanitizeInput(p.formData.Get(key)), true, true
		}
	}
	return "", false, false
}

// Int returns the integer value of key.
func (p *RequestBodyParser) Int(key string) (int, error) {
	v := p.Get(key)
	if v == "" {
		return 0, fmt.Errorf("missing %s", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// stringValue converts a decoded JSON value to string. Numbers keep their
// shortest representation so 12.5 stays "12.5".
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// nonScalarValue stands in for a JSON value that is neither a string nor a
// number. It never parses as an amount, so the edit is ignored.
const nonScalarValue = "[non-scalar]"

// cellEdit is the payload of PUT /api/forecast/cells.
type cellEdit struct {
	ProjectID string
	Year      int
	Month     int
	Category  string
	Value     string
}

func parseCellEdit(p *RequestBodyParser) (cellEdit, error) {
	if err := p.Parse(); err != nil {
		return cellEdit{}, err
	}
	edit := cellEdit{
		ProjectID: p.Get("projectId"),
		Category:  p.Get("category"),
	}
	if edit.ProjectID == "" {
		return cellEdit{}, errMissingProject
	}
	if edit.Category == "" {
		return cellEdit{}, errors.New("missing category")
	}
	value, present, scalar := p.Lookup("value")
	if !present {
		return cellEdit{}, errors.New("missing value")
	}
	if !scalar {
		value = nonScalarValue
	}
	edit.Value = value
	var err error
	if edit.Year, err = p.Int("year"); err != nil {
		return cellEdit{}, err
	}
	if edit.Month, err = p.Int("month"); err != nil {
		return cellEdit{}, err
	}
	return edit, nil
}

// parseProjectID reads projectId from the body, or from the query string
// when the body has none.
func parseProjectID(p *RequestBodyParser, r *http.Request) (string, error) {
	if err := p.Parse(); err != nil {
		return "", err
	}
	id := p.Get("projectId")
	if id == "" {
		id = sanitizeInput(r.URL.Query().Get("projectId"))
	}
	if id == "" {
		return "", errMissingProject
	}
	return id, nil
}

// userFromRequest returns the caller's user id. Authentication happens in
// front of this service; the proxy forwards the user in X-User-ID.
func userFromRequest(r *http.Request) (string, error) {
	user := sanitizeInput(r.Header.Get(userHeader))
	if user == "" {
		return "", errMissingUser
	}
	return user, nil
}

// RequireMethod returns a 405 response when r.Method is not one of methods.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
