package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"budget/internal/core"
)

func newParser(t *testing.T, contentType, body string) *RequestBodyParser {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return NewRequestBodyParser(httptest.NewRecorder(), req)
}

func TestRequestBodyParserJSON(t *testing.T) {
	p := newParser(t, "application/json", `{"type":"expense","amount":12.5,"category":" Food ","note":"a\u0000b"}`)
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !p.IsJSON() {
		t.Fatal("expected JSON body")
	}

	want := core.Draft{Type: "expense", Amount: "12.5", Category: "Food", Note: "ab"}
	if got := p.Draft(); got != want {
		t.Errorf("Draft() = %+v, want %+v", got, want)
	}
}

func TestRequestBodyParserKeepsNumberDigits(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{`{"amount":123456789012.35}`, "123456789012.35"},
		{`{"amount":12.50}`, "12.50"},
		{`{"amount":1e3}`, "1e3"},
		{`{"amount":"7.10"}`, "7.10"},
	}
	for _, tt := range tests {
		p := newParser(t, "application/json", tt.body)
		if err := p.Parse(); err != nil {
			t.Fatalf("Parse(%s) error = %v", tt.body, err)
		}
		if got := p.Draft().Amount; got != tt.want {
			t.Errorf("Parse(%s) amount = %q, want %q", tt.body, got, tt.want)
		}
	}
}

func TestRequestBodyParserForm(t *testing.T) {
	p := newParser(t, "application/x-www-form-urlencoded", "type=all&category=Food&month=2024-03")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if p.IsJSON() {
		t.Fatal("expected form body")
	}

	want := core.Filter{Type: "all", Category: "Food", Month: "2024-03"}
	if got := p.Filter(); got != want {
		t.Errorf("Filter() = %+v, want %+v", got, want)
	}
}

func TestRequestBodyParserEmptyBody(t *testing.T) {
	p := newParser(t, "", "")
	if err := p.Parse(); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := p.Get("amount"); got != "" {
		t.Errorf("Get(amount) = %q, want empty", got)
	}
}

func TestRequestBodyParserMalformed(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
	}{
		{"truncated object", "application/json", `{"amount":`},
		{"array body", "application/json", `[1,2]`},
		{"trailing data", "application/json", `{"amount":1}{"amount":2}`},
		{"bad escape", "application/x-www-form-urlencoded", "amount=%zz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newParser(t, tt.contentType, tt.body).Parse()
			if !errors.Is(err, errMalformedBody) {
				t.Errorf("Parse() error = %v, want errMalformedBody", err)
			}
		})
	}
}

func TestRequestBodyParserTooLarge(t *testing.T) {
	big := `{"note":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	if err := newParser(t, "application/json", big).Parse(); !errors.Is(err, errMalformedBody) {
		t.Errorf("Parse() error = %v, want errMalformedBody", err)
	}
}

func TestFilterFromQuery(t *testing.T) {
	if _, ok := filterFromQuery(url.Values{}); ok {
		t.Error("empty query should not carry a filter")
	}

	f, ok := filterFromQuery(url.Values{"month": {" 2024-01 "}})
	if !ok {
		t.Fatal("expected a filter")
	}
	if f.Month != "2024-01" || f.Type != "" {
		t.Errorf("filterFromQuery() = %+v", f)
	}
}

func TestStringValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"x", "x"},
		{json.Number("42.5"), "42.5"},
		{json.Number("12.50"), "12.50"},
		{42.5, ""},
		{true, "true"},
		{nil, ""},
		{[]any{1}, ""},
	}
	for _, tt := range tests {
		if got := stringValue(tt.in); got != tt.want {
			t.Errorf("stringValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
