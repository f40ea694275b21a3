package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_PostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Token"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "{ shop { name } }", body["query"])

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	c := NewClient(2*time.Second, 0)
	resp, err := c.PostJSON(context.Background(), srv.URL, map[string]string{"X-Token": "secret"},
		map[string]string{"query": "{ shop { name } }"})

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":{}}`, string(resp.Body))
}

func TestClient_PostJSON_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(50*time.Millisecond, 0)
	_, err := c.PostJSON(context.Background(), srv.URL, nil, map[string]string{})

	require.Error(t, err)
	assert.True(t, IsTimeout(err))
}

func TestClient_PostJSON_BodyLimit(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		maxBody  int64
		validate func(t *testing.T, resp *Response, err error)
	}{
		{
			name:    "body at limit",
			body:    `{"data":{}}`,
			maxBody: 11,
			validate: func(t *testing.T, resp *Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, `{"data":{}}`, string(resp.Body))
			},
		},
		{
			name:    "body over limit",
			body:    `{"data":{"shop":"luna"}}`,
			maxBody: 11,
			validate: func(t *testing.T, resp *Response, err error) {
				assert.ErrorIs(t, err, ErrBodyTooLarge)
				assert.Nil(t, resp)
				assert.False(t, IsTimeout(err))
			},
		},
		{
			name: "default limit",
			body: `{"data":{}}`,
			validate: func(t *testing.T, resp *Response, err error) {
				require.NoError(t, err)
				assert.Equal(t, http.StatusOK, resp.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			resp, err := NewClient(time.Second, tt.maxBody).PostJSON(context.Background(), srv.URL, nil, map[string]string{})
			tt.validate(t, resp, err)
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.False(t, IsTimeout(nil))
	assert.False(t, IsTimeout(errors.New("connection refused")))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
}
