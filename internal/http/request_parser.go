// Package http serves the budget tracker's JSON API.
//
// This file holds the request body parser shared by every handler that
// accepts input. JSON and form-encoded bodies go through one path.
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

	"budget/internal/core"
)

const maxBodyBytes = 64 << 10

// errMalformedBody marks bodies that are neither JSON objects nor forms.
var errMalformedBody = errors.New("malformed request body")

// RequestBodyParser parses request bodies from either JSON or form data.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser reads the body once, up to maxBodyBytes.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}

	p.body, p.err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if p.err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, p.err)
	}
	return p
}

// Parse decodes the body as a JSON object when it looks like one, otherwise
// as a form. An empty body parses to no values.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	trimmed := strings.TrimSpace(string(p.body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if trimmed[0] == '{' || strings.HasPrefix(p.contentType, "application/json") {
		if err := p.decodeJSON(trimmed); err != nil {
			p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
			return p.err
		}
		return nil
	}

	form, err := url.ParseQuery(trimmed)
	if err != nil {
		p.err = fmt.Errorf("%w: %v", errMalformedBody, err)
		return p.err
	}
	p.formData = form
	return nil
}

// decodeJSON keeps numbers as json.Number so amounts reach ParseAmount with
// the digits the client sent.
func (p *RequestBodyParser) decodeJSON(body string) error {
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	data := make(map[string]any)
	if err := dec.Decode(&data); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON object")
	}
	p.jsonData = data
	return nil
}

// Get returns a sanitized string value from the parsed data.
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

func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// Draft maps the body onto a transaction draft. Amount may be sent as a JSON
// number or as text.
func (p *RequestBodyParser) Draft() core.Draft {
	return core.Draft{
		Type:     p.Get("type"),
		Amount:   p.Get("amount"),
		Category: p.Get("category"),
		Note:     p.Get("note"),
		Date:     p.Get("date"),
	}
}

func (p *RequestBodyParser) Filter() core.Filter {
	return core.Filter{
		Type:     p.Get("type"),
		Category: p.Get("category"),
		Month:    p.Get("month"),
	}
}

// filterFromQuery returns the filter carried by the query string and whether
// any filter parameter was present.
func filterFromQuery(q url.Values) (core.Filter, bool) {
	if !q.Has("type") && !q.Has("category") && !q.Has("month") {
		return core.Filter{}, false
	}
	return core.Filter{
		Type:     sanitizeInput(q.Get("type")),
		Category: sanitizeInput(q.Get("category")),
		Month:    sanitizeInput(q.Get("month")),
	}, true
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// sanitizeInput strips control characters other than tab and newlines, then
// trims.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s))
}
