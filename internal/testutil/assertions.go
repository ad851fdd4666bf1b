package testutil

import (
	"net/http"
	"strings"
	"testing"

	"github.com/brendan.keane/stackcheck/pkg/apiclient"
)

// AssertNoError fails the test if err is not nil
func AssertNoError(t *testing.T, err error, msg string) {
	t.Helper()
	if err != nil {
		t.Fatalf("%s: got error %v, expected none", msg, err)
	}
}

// AssertError fails the test if err is nil
func AssertError(t *testing.T, err error, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error, got none", msg)
	}
}

// AssertErrorContains fails the test if err is nil or doesn't contain the expected substring
func AssertErrorContains(t *testing.T, err error, expected string, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("%s: expected error containing %q, got none", msg, expected)
	}
	if !strings.Contains(err.Error(), expected) {
		t.Fatalf("%s: expected error containing %q, got %q", msg, expected, err.Error())
	}
}

// AssertClientError fails the test unless err is an *apiclient.Error with
// the given status and kind.
func AssertClientError(t *testing.T, err error, status int, kind apiclient.Kind, msg string) *apiclient.Error {
	t.Helper()
	apiErr, ok := apiclient.AsError(err)
	if !ok {
		t.Fatalf("%s: expected *apiclient.Error, got %T (%v)", msg, err, err)
	}
	if apiErr.StatusCode != status {
		t.Fatalf("%s: status: got %d, expected %d", msg, apiErr.StatusCode, status)
	}
	if apiErr.Kind != kind {
		t.Fatalf("%s: kind: got %q, expected %q", msg, apiErr.Kind, kind)
	}
	return apiErr
}

// AssertStringContains fails the test if str doesn't contain substring
func AssertStringContains(t *testing.T, str, substring string, msg string) {
	t.Helper()
	if !strings.Contains(str, substring) {
		t.Fatalf("%s: expected %q to contain %q", msg, str, substring)
	}
}

// AssertStringNotContains fails the test if str contains substring
func AssertStringNotContains(t *testing.T, str, substring string, msg string) {
	t.Helper()
	if strings.Contains(str, substring) {
		t.Fatalf("%s: expected %q to not contain %q", msg, str, substring)
	}
}

// AssertHeaderSet fails the test if the request doesn't have the expected header value
func AssertHeaderSet(t *testing.T, req *http.Request, header, expectedValue string, msg string) {
	t.Helper()
	actualValue := req.Header.Get(header)
	if actualValue != expectedValue {
		t.Fatalf("%s: header %q: got %q, expected %q", msg, header, actualValue, expectedValue)
	}
}

// AssertHeaderNotSet fails the test if the request has the specified header
func AssertHeaderNotSet(t *testing.T, req *http.Request, header string, msg string) {
	t.Helper()
	if req.Header.Get(header) != "" {
		t.Fatalf("%s: expected header %q to not be set, but got %q", msg, header, req.Header.Get(header))
	}
}

// AssertMethodEqual fails the test if the request method doesn't match expected
func AssertMethodEqual(t *testing.T, req *http.Request, expectedMethod string, msg string) {
	t.Helper()
	if req.Method != expectedMethod {
		t.Fatalf("%s: got method %q, expected %q", msg, req.Method, expectedMethod)
	}
}

// AssertPathEqual fails the test if the request path doesn't match expected
func AssertPathEqual(t *testing.T, req *http.Request, expectedPath string, msg string) {
	t.Helper()
	if req.URL.Path != expectedPath {
		t.Fatalf("%s: got path %q, expected %q", msg, req.URL.Path, expectedPath)
	}
}

// AssertQueryParam fails the test if the request doesn't have the expected query parameter
func AssertQueryParam(t *testing.T, req *http.Request, param, expectedValue string, msg string) {
	t.Helper()
	actualValue := req.URL.Query().Get(param)
	if actualValue != expectedValue {
		t.Fatalf("%s: query param %q: got %q, expected %q", msg, param, actualValue, expectedValue)
	}
}

// AssertQueryParamAbsent fails the test if the request carries param
func AssertQueryParamAbsent(t *testing.T, req *http.Request, param string, msg string) {
	t.Helper()
	if req.URL.Query().Has(param) {
		t.Fatalf("%s: expected query param %q to be absent, got %q", msg, param, req.URL.Query().Get(param))
	}
}
