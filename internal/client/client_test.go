package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskhub/internal/model"
)

func writeEnvelope(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"statusCode": statusCode,
		"data":       data,
		"message":    message,
		"success":    statusCode < http.StatusBadRequest,
	})
}

func TestClient_LoginStoresTokens(t *testing.T) {
	user := &model.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/users/login", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])

		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"user":         user,
			"accessToken":  "access-1",
			"refreshToken": "refresh-1",
		}, "User logged in successfully")
	}))
	defer server.Close()

	c := New(server.URL + "/api/v1")
	assert.False(t, c.LoggedIn())

	got, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.Username, got.Username)
	assert.True(t, c.LoggedIn())
}

func TestClient_SurfacesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusConflict, nil, "user with email or username already exists")
	}))
	defer server.Close()

	c := New(server.URL + "/api/v1")

	_, err := c.Register(context.Background(), "alice", "a@x.com", "secret1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "user with email or username already exists", apiErr.Message)
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	owner := uuid.New()
	tasks := []model.Task{{ID: uuid.New(), OwnerID: owner, Title: "Buy milk"}}
	refreshCalls := 0

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"accessToken":  "expired-access",
			"refreshToken": "refresh-1",
		}, "ok")
	})
	mux.HandleFunc("/api/v1/users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls++
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refresh-1", body["refreshToken"])

		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"accessToken":  "fresh-access",
			"refreshToken": "refresh-2",
		}, "ok")
	})
	mux.HandleFunc("/api/v1/tasks/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh-access" {
			writeEnvelope(w, http.StatusUnauthorized, nil, "unauthorized request")
			return
		}
		writeEnvelope(w, http.StatusOK, tasks, "ok")
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL + "/api/v1")
	_, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	got, err := c.Tasks(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Buy milk", got[0].Title)
	assert.Equal(t, 1, refreshCalls)
}

func TestClient_FailedRefreshDropsSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/users/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]interface{}{
			"accessToken":  "expired-access",
			"refreshToken": "revoked-refresh",
		}, "ok")
	})
	mux.HandleFunc("/api/v1/users/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "invalid or expired refresh token")
	})
	mux.HandleFunc("/api/v1/tasks/", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, nil, "unauthorized request")
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	c := New(server.URL + "/api/v1")
	_, err := c.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)

	_, err = c.Tasks(context.Background())
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.False(t, c.LoggedIn())
}

func TestClient_CreateTaskSendsOptionalFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Buy milk", body["title"])
		_, hasDescription := body["description"]
		assert.False(t, hasDescription, "empty optional fields are omitted")
		assert.Equal(t, "2026-09-01", body["deadline"])

		writeEnvelope(w, http.StatusCreated, model.Task{ID: uuid.New(), Title: "Buy milk"}, "Task created successfully")
	}))
	defer server.Close()

	c := New(server.URL + "/api/v1")
	task, err := c.CreateTask(context.Background(), "Buy milk", "", "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", task.Title)
	assert.False(t, task.IsCompleted)
}
