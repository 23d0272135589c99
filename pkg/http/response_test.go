package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
)

// trackingBody records whether the response body was closed
type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func newResponse(status int, body string) (*http.Response, *trackingBody) {
	tb := &trackingBody{Reader: strings.NewReader(body)}
	return &http.Response{
		StatusCode: status,
		Status:     http.StatusText(status),
		Body:       tb,
	}, tb
}

func TestCheckStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		expected []int
		wantErr  bool
	}{
		{"page ok", http.StatusOK, []int{http.StatusOK}, false},
		{"log created", http.StatusCreated, []int{http.StatusOK, http.StatusCreated}, false},
		{"log ok", http.StatusOK, []int{http.StatusOK, http.StatusCreated}, false},
		{"missing url rejected", http.StatusBadRequest, []int{http.StatusOK, http.StatusCreated}, true},
		{"server error", http.StatusInternalServerError, []int{http.StatusOK}, true},
		{"no expected codes", http.StatusOK, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := newResponse(tt.status, "")
			err := CheckStatusCode(resp, tt.expected...)
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckStatusCode(%d) error = %v, wantErr %v", tt.status, err, tt.wantErr)
			}
		})
	}
}

func TestEnsureStatusOK(t *testing.T) {
	resp, _ := newResponse(http.StatusOK, "")
	if err := EnsureStatusOK(resp); err != nil {
		t.Errorf("EnsureStatusOK(200) error = %v", err)
	}

	resp, _ = newResponse(http.StatusNotFound, "")
	if err := EnsureStatusOK(resp); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("EnsureStatusOK(404) error = %v, want status in message", err)
	}
}

func TestReadResponseBody(t *testing.T) {
	resp, body := newResponse(http.StatusOK, "api:\n  base_url: http://localhost:5090\n")

	data, err := ReadResponseBody(resp)
	if err != nil {
		t.Fatalf("ReadResponseBody() error = %v", err)
	}
	if string(data) != "api:\n  base_url: http://localhost:5090\n" {
		t.Errorf("ReadResponseBody() = %q", data)
	}
	if !body.closed {
		t.Error("ReadResponseBody() should close the body")
	}
}

func TestDecodeJSONResponse(t *testing.T) {
	type page struct {
		HasMore bool `json:"has_more"`
	}

	tests := []struct {
		name     string
		status   int
		body     string
		wantErr  bool
		wantMore bool
	}{
		{"decodes page", http.StatusOK, `{"posts":[],"has_more":true}`, false, true},
		{"non-200", http.StatusServiceUnavailable, `{"has_more":true}`, true, false},
		{"malformed body", http.StatusOK, `{"has_more":`, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := newResponse(tt.status, tt.body)

			var got page
			err := DecodeJSONResponse(resp, &got)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeJSONResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got.HasMore != tt.wantMore {
				t.Errorf("HasMore = %v, want %v", got.HasMore, tt.wantMore)
			}
			if !body.closed {
				t.Error("DecodeJSONResponse() should close the body")
			}
		})
	}
}

func TestDecodeOptionalJSON(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantErr     bool
		wantMessage string
	}{
		{"created with message", http.StatusCreated, `{"message":"Log created"}`, false, "Log created"},
		{"ok without body", http.StatusOK, "", false, ""},
		{"bad request", http.StatusBadRequest, `{"error":"URL is required"}`, true, ""},
		{"malformed body", http.StatusCreated, `{"message":`, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := newResponse(tt.status, tt.body)

			var got map[string]any
			err := DecodeOptionalJSON(resp, &got, http.StatusOK, http.StatusCreated)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeOptionalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if msg, _ := got["message"].(string); msg != tt.wantMessage {
				t.Errorf("message = %q, want %q", msg, tt.wantMessage)
			}
			if !body.closed {
				t.Error("DecodeOptionalJSON() should close the body")
			}
		})
	}

	resp, _ := newResponse(http.StatusOK, "")
	if err := DecodeOptionalJSON(resp, nil, http.StatusOK); errors.Is(err, io.EOF) {
		t.Error("an empty body should not surface io.EOF")
	}
}
