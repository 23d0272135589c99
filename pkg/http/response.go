package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// ReadResponseBody reads and closes HTTP response body
func ReadResponseBody(resp *http.Response) ([]byte, error) {
	defer closeBody(resp)
	return io.ReadAll(resp.Body)
}

// DecodeJSONResponse decodes a 200 OK JSON response into a struct
func DecodeJSONResponse(resp *http.Response, target any) error {
	defer closeBody(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(target)
}

// DecodeOptionalJSON decodes a JSON body if there is one. An empty body leaves target untouched.
// The response must carry one of the expected status codes.
func DecodeOptionalJSON(resp *http.Response, target any, expectedCodes ...int) error {
	defer closeBody(resp)

	if err := CheckStatusCode(resp, expectedCodes...); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode json response: %w", err)
	}
	return nil
}

// CheckStatusCode validates HTTP response status code
func CheckStatusCode(resp *http.Response, expectedCodes ...int) error {
	for _, code := range expectedCodes {
		if resp.StatusCode == code {
			return nil
		}
	}
	return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
}

// EnsureStatusOK checks if the response status is 200 OK
func EnsureStatusOK(resp *http.Response) error {
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d %s", resp.StatusCode, resp.Status)
	}
	return nil
}

func closeBody(resp *http.Response) {
	if closeErr := resp.Body.Close(); closeErr != nil {
		slog.Error("Failed to close response body", "error", closeErr)
	}
}
