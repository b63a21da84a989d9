package tenders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, _, ok := r.BasicAuth()
		if !ok || user != "robot" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/api/tenders/f1/extract_credentials":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"data":{"tender_token":"abc","owner":"broker"}}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL+"/api/", "robot")
	creds, err := c.ExtractCredentials(context.Background(), "f1")
	require.NoError(t, err)
	assert.Equal(t, "abc", creds.TenderToken)
	assert.Equal(t, "broker", creds.Owner)

	_, err = c.ExtractCredentials(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	c.Token = ""
	_, err = c.ExtractCredentials(context.Background(), "f1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}
