package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend/memory"
	"github.com/guido-cesarano/distributedq/pkg/retrieve"
	"github.com/guido-cesarano/distributedq/pkg/submit"
	"github.com/rs/zerolog"
)

func newTestServer(t *testing.T, apiKey string) (*http.ServeMux, *memory.Queue, *memory.Store) {
	t.Helper()
	q := memory.NewQueue()
	store := memory.NewStore(0, zerolog.Nop())
	t.Cleanup(func() { store.Close() })
	mux := setupRouter(submit.New(q), retrieve.New(store), apiKey)
	return mux, q, store
}

func TestAuthMiddleware(t *testing.T) {
	mux, _, _ := newTestServer(t, "secret-key")

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{"No API Key", "", http.StatusUnauthorized},
		{"Wrong API Key", "Bearer wrong-key", http.StatusUnauthorized},
		{"Correct API Key", "Bearer secret-key", http.StatusBadRequest}, // empty body -> 400 after auth passes
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/submit", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

func TestAuthDisabled(t *testing.T) {
	mux, _, _ := newTestServer(t, "")

	req := httptest.NewRequest(http.MethodPost, "/submit", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	if w.Code == http.StatusUnauthorized {
		t.Fatal("expected auth to be disabled, got 401")
	}
}

func TestSubmitThenRetrieve(t *testing.T) {
	mux, q, store := newTestServer(t, "")

	body := strings.NewReader(`{"kind":"square","payload":{"x":7}}`)
	req := httptest.NewRequest(http.MethodPost, "/submit", body)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct{ ID string }
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.ID == "" {
		t.Fatal("expected a task id")
	}

	popped, ok, err := q.Pop(req.Context(), 0)
	if err != nil || !ok || popped.ID != resp.ID {
		t.Fatalf("expected task to reach the queue: ok=%v err=%v id=%s", ok, err, popped.ID)
	}

	popped.Status = "succeeded"
	popped.Result = float64(49)
	store.Put(req.Context(), popped.ID, popped, time.Hour)

	getReq := httptest.NewRequest(http.MethodGet, "/result/"+resp.ID, nil)
	getW := httptest.NewRecorder()
	mux.ServeHTTP(getW, getReq)
	if getW.Code != http.StatusOK {
		t.Fatalf("expected 200 on GET /result, got %d", getW.Code)
	}

	existsReq := httptest.NewRequest(http.MethodGet, "/result/"+resp.ID+"/exists", nil)
	existsW := httptest.NewRecorder()
	mux.ServeHTTP(existsW, existsReq)
	var existsResp map[string]bool
	json.Unmarshal(existsW.Body.Bytes(), &existsResp)
	if !existsResp["exists"] {
		t.Fatal("expected exists=true")
	}

	delReq := httptest.NewRequest(http.MethodDelete, "/result/"+resp.ID, nil)
	delW := httptest.NewRecorder()
	mux.ServeHTTP(delW, delReq)
	if delW.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", delW.Code)
	}

	missingReq := httptest.NewRequest(http.MethodGet, "/result/"+resp.ID, nil)
	missingW := httptest.NewRecorder()
	mux.ServeHTTP(missingW, missingReq)
	if missingW.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", missingW.Code)
	}
}
