package middleware

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/tasklist/internal/service"
	"github.com/gurkanbulca/tasklist/pkg/auth"
)

func echoActor() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := GetActorFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		_, _ = w.Write([]byte(actor.ID.String()))
	})
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Message
}

func TestAuthenticator(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	userID := uuid.New()
	token, err := tm.GenerateAccessToken(userID.String(), "Alice", "alice@example.com")
	require.NoError(t, err)

	handler := NewAuthenticator(tm, "/health").Middleware(echoActor())

	tests := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"valid token", "/tasks", "Bearer " + token, http.StatusOK},
		{"missing header", "/tasks", "", http.StatusUnauthorized},
		{"garbage token", "/tasks", "Bearer nope", http.StatusUnauthorized},
		{"wrong scheme", "/tasks", "Basic " + token, http.StatusUnauthorized},
		{"public path", "/health", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			switch tt.status {
			case http.StatusOK:
				assert.Equal(t, userID.String(), rec.Body.String())
			case http.StatusUnauthorized:
				assert.Equal(t, service.MsgUnauthenticated, decodeMessage(t, rec))
			}
		})
	}
}

func TestRequireCSRF(t *testing.T) {
	manager := auth.NewCSRFManager("csrf-secret")
	actor := service.Actor{ID: uuid.New(), Name: "Alice"}
	handler := RequireCSRF(manager)(echoActor())

	tests := []struct {
		name   string
		method string
		token  string
		anon   bool
		status int
	}{
		{"safe method skips check", http.MethodGet, "", false, http.StatusOK},
		{"valid token", http.MethodPost, manager.Token(actor.ID.String()), false, http.StatusOK},
		{"missing token", http.MethodDelete, "", false, StatusCSRFMismatch},
		{"token of another user", http.MethodPatch, manager.Token(uuid.NewString()), false, StatusCSRFMismatch},
		{"anonymous request", http.MethodPost, "", true, http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/tasks", nil)
			if !tt.anon {
				req = req.WithContext(WithActor(req.Context(), actor))
			}
			if tt.token != "" {
				req.Header.Set(CSRFHeader, tt.token)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == StatusCSRFMismatch {
				assert.Equal(t, MsgCSRFMismatch, decodeMessage(t, rec))
			}
		})
	}

	t.Run("form token", func(t *testing.T) {
		form := url.Values{"_token": {manager.Token(actor.ID.String())}}
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req = req.WithContext(WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("form token on DELETE", func(t *testing.T) {
		var ids []string
		chain := MethodOverride(RequireCSRF(manager)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, ParseForm(r))
			ids = r.PostForm["ids"]
		})))

		form := url.Values{"ids": {"a", "b"}, "_token": {manager.Token(actor.ID.String())}}
		req := httptest.NewRequest(http.MethodDelete, "/tasks", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req = req.WithContext(WithActor(req.Context(), actor))
		rec := httptest.NewRecorder()
		chain.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"a", "b"}, ids)
	})
}

func TestParseForm(t *testing.T) {
	t.Run("DELETE body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/tasks?page=2", strings.NewReader("ids=1&ids=2"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		require.NoError(t, ParseForm(req))
		assert.Equal(t, []string{"1", "2"}, req.PostForm["ids"])
		assert.Equal(t, "2", req.Form.Get("page"))

		// Second call keeps the parsed values.
		require.NoError(t, ParseForm(req))
		assert.Equal(t, []string{"1", "2"}, req.PostForm["ids"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/tasks", strings.NewReader("ids=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Error(t, ParseForm(req))
	})

	t.Run("rejected by MethodOverride", func(t *testing.T) {
		called := false
		handler := MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
		}))
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader("name=%zz"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.False(t, called)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, MsgMalformedBody, decodeMessage(t, rec))
	})
}

func TestMethodOverride(t *testing.T) {
	var seen string
	handler := MethodOverride(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = r.Method
	}))

	tests := []struct {
		name     string
		method   string
		form     url.Values
		header   string
		expected string
	}{
		{"form field", http.MethodPost, url.Values{"_method": {"put"}}, "", http.MethodPut},
		{"header", http.MethodPost, nil, "DELETE", http.MethodDelete},
		{"unknown method ignored", http.MethodPost, url.Values{"_method": {"TRACE"}}, "", http.MethodPost},
		{"only POST is overridden", http.MethodGet, nil, "PATCH", http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req *http.Request
			if tt.form != nil {
				req = httptest.NewRequest(tt.method, "/tasks/1", strings.NewReader(tt.form.Encode()))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			} else {
				req = httptest.NewRequest(tt.method, "/tasks/1", nil)
			}
			if tt.header != "" {
				req.Header.Set("X-HTTP-Method-Override", tt.header)
			}
			handler.ServeHTTP(httptest.NewRecorder(), req)
			assert.Equal(t, tt.expected, seen)
		})
	}
}

func TestExtractIPAddress(t *testing.T) {
	tests := []struct {
		name     string
		headers  map[string]string
		remote   string
		expected string
	}{
		{"forwarded for", map[string]string{"X-Forwarded-For": "10.0.0.1, 10.0.0.2"}, "1.1.1.1:80", "10.0.0.1"},
		{"real ip", map[string]string{"X-Real-IP": "10.0.0.3"}, "1.1.1.1:80", "10.0.0.3"},
		{"remote addr", nil, "192.168.1.5:4321", "192.168.1.5"},
		{"unparseable remote", nil, "pipe", "pipe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.expected, extractIPAddress(req))
		})
	}
}

func TestLoggingRecordsStatusAndActor(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	userID := uuid.New()
	token, err := tm.GenerateAccessToken(userID.String(), "Alice", "")
	require.NoError(t, err)

	var rec *statusRecorder
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	capture := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec, _ = w.(*statusRecorder)
			next.ServeHTTP(w, r)
		})
	}
	handler := ExtractMetadata(Logging(capture(NewAuthenticator(tm).Middleware(inner))))

	var logs bytes.Buffer
	log.SetOutput(&logs)
	t.Cleanup(func() { log.SetOutput(os.Stderr) })

	req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", "tasks-cli/1.0")
	out := httptest.NewRecorder()
	handler.ServeHTTP(out, req)

	assert.Equal(t, http.StatusTeapot, out.Code)
	require.NotNil(t, rec)
	assert.Equal(t, http.StatusTeapot, rec.status)
	assert.Equal(t, userID.String(), rec.userID)
	assert.Contains(t, logs.String(), "user: "+userID.String())
	assert.Contains(t, logs.String(), `ua: "tasks-cli/1.0"`)
}
