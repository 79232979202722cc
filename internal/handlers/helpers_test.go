package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/HammerMeetNail/friendgraph/internal/models"
	"github.com/HammerMeetNail/friendgraph/internal/testutil"
)

// authedRequest builds a request as user with the {username} path value set.
func authedRequest(t *testing.T, method, path string, user *models.User, username string, body interface{}) *http.Request {
	t.Helper()
	req := testutil.NewJSONRequest(t, method, path, body)
	if username != "" {
		req.SetPathValue("username", username)
	}
	if user != nil {
		req = req.WithContext(SetUserInContext(req.Context(), user))
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}
