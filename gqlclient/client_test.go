// ABOUTME: Tests for the GraphQL transport
// ABOUTME: Uses httptest servers to exercise auth headers and error classification
package gqlclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/harperreed/crmlink/crmerr"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mutableToken struct{ tok string }

func (m *mutableToken) AccessToken() (string, error) { return m.tok, nil }

func TestDoSendsBearerTokenWhenPresent(t *testing.T) {
	var gotAuth []string
	var gotBody Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = append(gotAuth, r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"data":{"me":{"name":"Ada"}}}`))
	}))
	defer srv.Close()

	tokens := &mutableToken{}
	c := New(srv.URL, tokens)

	var out struct {
		Me struct {
			Name string `json:"name"`
		} `json:"me"`
	}
	require.NoError(t, c.Do(context.Background(), Request{Query: "query Me { me { name } }", OperationName: "Me"}, &out))
	assert.Equal(t, "Ada", out.Me.Name)
	assert.Equal(t, "Me", gotBody.OperationName)

	// Token read on every call
	tokens.tok = "secret"
	require.NoError(t, c.Do(context.Background(), Request{Query: "query Me { me { name } }"}, nil))

	require.Len(t, gotAuth, 2)
	assert.Equal(t, "", gotAuth[0])
	assert.Equal(t, "Bearer secret", gotAuth[1])
}

func TestDoErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   *crmerr.Error
		fields map[string]string
	}{
		{
			name:   "http 401",
			status: http.StatusUnauthorized,
			body:   `{"errors":[{"message":"jwt expired"}]}`,
			want:   crmerr.ErrAuthentication,
		},
		{
			name:   "unauthenticated code",
			status: http.StatusOK,
			body:   `{"errors":[{"message":"Unauthorized","extensions":{"code":"UNAUTHENTICATED"}}]}`,
			want:   crmerr.ErrAuthentication,
		},
		{
			name:   "bad user input",
			status: http.StatusOK,
			body:   `{"errors":[{"message":"status must be an enum","extensions":{"code":"BAD_USER_INPUT","field":"status"}}]}`,
			want:   crmerr.ErrValidation,
			fields: map[string]string{"status": "status must be an enum"},
		},
		{
			name:   "http 400 without envelope",
			status: http.StatusBadRequest,
			body:   `not json`,
			want:   crmerr.ErrValidation,
		},
		{
			name:   "server error",
			status: http.StatusBadGateway,
			body:   `upstream down`,
			want:   crmerr.ErrNetwork,
		},
		{
			name:   "malformed success body",
			status: http.StatusOK,
			body:   `{"data":`,
			want:   crmerr.ErrNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := New(srv.URL, nil).Do(context.Background(), Request{Query: "{ x }"}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)

			if tt.fields != nil {
				var ce *crmerr.Error
				require.True(t, errors.As(err, &ce))
				assert.Equal(t, tt.fields, ce.Fields)
			}
		})
	}
}

func TestDoTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := New(url, nil, WithTimeout(time.Second)).Do(context.Background(), Request{Query: "{ x }"}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, crmerr.ErrNetwork))
}

func TestWithLoggerTracesRequests(t *testing.T) {
	ids := make(chan string, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ids <- r.Header.Get("X-Request-ID")
		_, _ = w.Write([]byte(`{"data":{"x":1}}`))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	c := New(srv.URL, nil, WithLogger(zerolog.New(&logs)))
	require.NoError(t, c.Do(context.Background(), Request{Query: "{ x }"}, nil))

	assert.Contains(t, logs.String(), "graphql response")
	assert.Contains(t, logs.String(), <-ids)
}

func TestDoNullDataLeavesOutUntouched(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":null}`))
	}))
	defer srv.Close()

	out := map[string]any{"keep": true}
	require.NoError(t, New(srv.URL, StaticToken("t")).Do(context.Background(), Request{Query: "{ x }"}, &out))
	assert.Equal(t, true, out["keep"])
}
