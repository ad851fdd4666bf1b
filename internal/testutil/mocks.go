package testutil

import (
	"io"
	"net/http"
	"strings"
)

// MockDoer returns a fixed response or error and records each request.
type MockDoer struct {
	Response *http.Response
	Error    error
	Requests []*http.Request
}

// Do implements apiclient.Doer
func (m *MockDoer) Do(req *http.Request) (*http.Response, error) {
	m.Requests = append(m.Requests, req)
	return m.Response, m.Error
}

// NewMockDoer creates a MockDoer with the given response and error
func NewMockDoer(body string, statusCode int, headers map[string]string, err error) *MockDoer {
	var resp *http.Response
	if err == nil {
		resp = &http.Response{
			StatusCode: statusCode,
			Body:       io.NopCloser(strings.NewReader(body)),
			Header:     make(http.Header),
		}
		for key, value := range headers {
			resp.Header.Set(key, value)
		}
	}

	return &MockDoer{
		Response: resp,
		Error:    err,
		Requests: make([]*http.Request, 0),
	}
}

// MockError provides a simple mock error implementation
type MockError struct {
	Message string
}

func (e *MockError) Error() string {
	return e.Message
}

// NewMockError creates a mock error
func NewMockError(message string) *MockError {
	return &MockError{Message: message}
}
