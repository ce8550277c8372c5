// Package main implements the distributedq HTTP API server: the thin
// result-retrieval and submission surface over the core (queue +
// result-store + worker runtime). Routing, auth, and config loading are
// plumbing over that core, per the system's scope.
//
// API Endpoints:
//
//	POST   /submit              - submit a new task
//	GET    /result/{id}         - fetch a task's terminal record
//	DELETE /result/{id}         - delete a task's terminal record
//	GET    /result/{id}/exists  - check whether a terminal record exists
//
// Usage:
//
//	go run cmd/server/main.go
package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	memorybackend "github.com/guido-cesarano/distributedq/pkg/backend/memory"
	redisbackend "github.com/guido-cesarano/distributedq/pkg/backend/redis"
	"github.com/guido-cesarano/distributedq/pkg/config"
	"github.com/guido-cesarano/distributedq/pkg/logger"
	"github.com/guido-cesarano/distributedq/pkg/retrieve"
	"github.com/guido-cesarano/distributedq/pkg/submit"
	"github.com/guido-cesarano/distributedq/pkg/worker"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// authMiddleware wraps an http.HandlerFunc and enforces bearer API key
// authentication (§6). If no key is configured, auth is disabled.
func authMiddleware(next http.HandlerFunc, requiredKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if requiredKey == "" {
			next(w, r)
			return
		}

		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if token == "" || token != requiredKey {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// enableCORS wraps an http.HandlerFunc and adds CORS headers, handling
// preflight requests.
func enableCORS(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next(w, r)
	}
}

func taskIDFromPath(prefix, path string) (id string, exists bool) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return "", false
	}
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		return rest[:idx], strings.HasSuffix(rest, "/exists")
	}
	return rest, false
}

// setupRouter wires the HTTP handlers onto a Submitter and a Retriever.
func setupRouter(submitter *submit.Submitter, retriever *retrieve.Retriever, apiKey string) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/submit", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req struct {
			Kind    string         `json:"kind"`
			Payload map[string]any `json:"payload"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		id, err := submitter.Submit(r.Context(), req.Kind, req.Payload)
		if err != nil {
			if errors.Is(err, backend.ErrBackendUnavailable) {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": id})
	}, apiKey)))

	mux.HandleFunc("/result/", enableCORS(authMiddleware(func(w http.ResponseWriter, r *http.Request) {
		id, isExists := taskIDFromPath("/result/", r.URL.Path)
		if id == "" {
			http.Error(w, "Missing task id", http.StatusBadRequest)
			return
		}

		switch {
		case isExists && r.Method == http.MethodGet:
			exists, err := retriever.Exists(r.Context(), id)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]bool{"exists": exists})

		case r.Method == http.MethodGet:
			record, err := retriever.Get(r.Context(), id)
			if err == backend.ErrNotFound {
				http.Error(w, "Not Found", http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(record)

		case r.Method == http.MethodDelete:
			if err := retriever.Delete(r.Context(), id); err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			w.WriteHeader(http.StatusNoContent)

		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}, apiKey)))

	return mux
}

func main() {
	log := logger.New()

	cfg, err := config.Load(os.Getenv("DQ_CONFIG_FILE"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	metrics := worker.NewMetrics(prometheus.NewRegistry())

	queue, err := buildQueue(cfg, log, metrics)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct queue backend")
	}

	store, closeStore, err := buildResultStore(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to construct result store backend")
	}
	defer closeStore()

	submitter := submit.New(queue)
	retriever := retrieve.New(store)

	apiKey := os.Getenv("API_KEY")
	if apiKey == "" {
		log.Warn().Msg("API_KEY not set. Authentication disabled.")
	} else {
		log.Info().Msg("API authentication enabled.")
	}

	mux := setupRouter(submitter, retriever, apiKey)

	log.Info().Msg("Server listening on :8081")
	if err := http.ListenAndServe(":8081", mux); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func buildQueue(cfg config.Config, log zerolog.Logger, metrics *worker.Metrics) (backend.Queue, error) {
	if cfg.QueueType == config.BackendRemote {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisURL})
		return redisbackend.NewQueue(rdb, "distributedq:tasks", log, metrics.MalformedEntry.Inc), nil
	}
	return memorybackend.NewQueue(), nil
}

func buildResultStore(cfg config.Config, log zerolog.Logger) (backend.ResultStore, func(), error) {
	if cfg.ResultStoreType == config.BackendRemote {
		rdb := goredis.NewClient(&goredis.Options{Addr: cfg.ResultStoreRedisURL})
		return redisbackend.NewStore(rdb, "distributedq:result"), func() {}, nil
	}
	store := memorybackend.NewStore(0, log)
	return store, func() { store.Close() }, nil
}
