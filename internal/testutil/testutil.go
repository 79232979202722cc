// Package testutil provides helpers shared by handler and middleware tests.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/friendgraph/internal/models"
)

// NewUser builds a user with a fresh id and an email derived from username.
func NewUser(username string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     strings.ToLower(username) + "@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// RandomUsername returns a short unique username.
func RandomUsername() string {
	return "user_" + uuid.New().String()[:8]
}

// NewJSONRequest creates a request with data marshaled as the JSON body.
// A nil data sends no body.
func NewJSONRequest(t *testing.T, method, path string, data interface{}) *http.Request {
	t.Helper()
	var body io.Reader
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			t.Fatalf("failed to marshal JSON: %v", err)
		}
		body = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// AssertStatusCode checks if the response has the expected status code.
func AssertStatusCode(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Fatalf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// DecodeJSON unmarshals the recorded body into T.
func DecodeJSON[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("failed to parse JSON response %q: %v", rr.Body.String(), err)
	}
	return out
}

// AssertJSONError checks status, content type and the "error" field.
func AssertJSONError(t *testing.T, rr *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	AssertStatusCode(t, rr, status)
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("expected content type application/json, got %q", ct)
	}
	body := DecodeJSON[map[string]interface{}](t, rr)
	if body["error"] != message {
		t.Fatalf("expected error %q, got %v", message, body["error"])
	}
}
