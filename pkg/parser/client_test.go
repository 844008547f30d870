package parser

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("ReturnsResultVerbatim", func(t *testing.T) {
		body := `{"title":"Show","season":1,"resolution":"720p","unknown_field":[1,2]}`
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/parse", r.URL.Path)

			var req map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "Show.S01E01.720p", req["title"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		result, err := c.Parse(context.Background(), "Show.S01E01.720p")
		require.NoError(t, err)

		// Opaque passthrough: bytes are stored as received, including fields
		// this tool knows nothing about.
		assert.Equal(t, body, string(result))
	})

	t.Run("NonOKStatusIsStatusError", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "parser exploded", http.StatusInternalServerError)
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.Parse(context.Background(), "A.2020.720p")
		require.Error(t, err)

		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusInternalServerError, se.Code)
		assert.Contains(t, se.Body, "parser exploded")
	})

	t.Run("InvalidJSONRejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer server.Close()

		c := NewClient(server.URL)
		_, err := c.Parse(context.Background(), "A.2020.720p")
		assert.Error(t, err)
	})

	t.Run("UnreachableServiceErrors", func(t *testing.T) {
		c := NewClient("http://127.0.0.1:0")
		_, err := c.Parse(context.Background(), "A.2020.720p")
		assert.Error(t, err)
	})
}
