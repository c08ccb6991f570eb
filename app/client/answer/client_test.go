package answer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskSendsPayload(t *testing.T) {
	var got AskRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/ask", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"answer":"42","intent":"chat","sources":[{"type":"web","title":"T","url":"https://x"}],"grounded":true,"has_context":true}`))
	}))
	defer server.Close()

	c := New(server.URL+"/", time.Second, 6)
	resp, err := c.Ask(context.Background(), &AskRequest{
		Question: "why?",
		Messages: []HistoryMessage{{Role: RoleUser, Content: "hi"}},
		Mode:     ModeChat,
	})
	require.NoError(t, err)

	assert.Equal(t, "why?", got.Question)
	assert.Equal(t, 6, got.TopK)
	assert.Equal(t, ModeChat, got.Mode)
	assert.False(t, got.UseWeb)
	assert.Equal(t, []HistoryMessage{{Role: RoleUser, Content: "hi"}}, got.Messages)

	assert.Equal(t, "42", resp.Answer)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "https://x", resp.Sources[0].URL)
}

func TestAskReturnsDetailOnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Question cannot be empty"}`))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second, 0).Ask(context.Background(), &AskRequest{Mode: ModeChat})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Question cannot be empty")

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "status", oopsErr.Code())
}

func TestAskStatusWithoutDetail(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second, 0).Ask(context.Background(), &AskRequest{Mode: ModeChat})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status code 502")
}

func TestAskMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer server.Close()

	_, err := New(server.URL, time.Second, 0).Ask(context.Background(), &AskRequest{Mode: ModeChat})
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "malformed", oopsErr.Code())
}

func TestAskTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := New(url, time.Second, 0).Ask(context.Background(), &AskRequest{Mode: ModeChat})
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "transport", oopsErr.Code())
}

func TestAskCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New("http://127.0.0.1:1", time.Second, 0).Ask(ctx, &AskRequest{Mode: ModeChat})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	require.NoError(t, New(server.URL, time.Second, 0).Health(context.Background()))
}
