package client

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

func TestSendMessage(t *testing.T) {
	ts := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "what is a cell?", body["user_message"])

		_ = json.NewEncoder(w).Encode(ChatReply{
			UserMessage: body["user_message"],
			BotResponse: "The basic unit of life.",
			Timestamp:   ts,
		})
	}))
	defer srv.Close()

	reply, err := NewClient(srv.URL+"/").SendMessage(context.Background(), "what is a cell?")
	require.NoError(t, err)
	assert.Equal(t, "The basic unit of life.", reply.BotResponse)
	assert.True(t, ts.Equal(reply.Timestamp))
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/history", r.URL.Path)
		if r.URL.Query().Get("limit") == "2" {
			_, _ = w.Write([]byte(`[{"id":"b","user_message":"q2","bot_response":"a2","timestamp":"2024-10-01T12:01:00Z"},
				{"id":"a","user_message":"q1","bot_response":"a1","timestamp":"2024-10-01T12:00:00Z"}]`))
			return
		}
		assert.Empty(t, r.URL.RawQuery)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)

	turns, err := c.History(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "q2", turns[0].UserMessage)

	turns, err = c.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, turns)
}

func TestAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", r.Header.Get("X-Request-ID"))
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"code":1501,"message":"provider error: timeout"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).SendMessage(context.Background(), "hi")
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, 1501, apiErr.Code)
	assert.Equal(t, "provider error: timeout", apiErr.Message)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Contains(t, err.Error(), "502")
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Health(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Empty(t, apiErr.Message)
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok","database":"ok"}`))
	}))
	defer srv.Close()

	status, err := NewClient(srv.URL).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "ok", status.Database)
}

func TestConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
