package test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
)

const FakeGrafanaVersion = "9.3.2"

type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	Body          []byte
}

// FakeGrafana is an in-process stand-in for the Grafana HTTP API which records every request.
type FakeGrafana struct {
	*httptest.Server
	Version string

	mu                 sync.Mutex
	requests           []RecordedRequest
	pathFailures       map[string]int
	datasourceFailures map[string]int
	nextID             int
}

func NewFakeGrafana(t *testing.T) *FakeGrafana {
	fg := &FakeGrafana{
		Version:            FakeGrafanaVersion,
		pathFailures:       make(map[string]int),
		datasourceFailures: make(map[string]int),
	}

	router := mux.NewRouter()
	router.HandleFunc("/api/health", fg.health).Methods(http.MethodGet)
	router.HandleFunc("/api/datasources", fg.createDatasource).Methods(http.MethodPost)
	router.HandleFunc("/api/dashboards/db", fg.createDashboard).Methods(http.MethodPost)
	router.HandleFunc("/api/dashboards/import", fg.importDashboard).Methods(http.MethodPost)

	fg.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		fg.record(RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		if status, ok := fg.pathFailure(r.URL.Path); ok {
			fg.reply(w, status, map[string]interface{}{"message": fmt.Sprintf("%s failed", r.URL.Path)})
			return
		}
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(fg.Close)
	return fg
}

// FailPath lets every request to the path fail with the given HTTP status.
func (fg *FakeGrafana) FailPath(path string, status int) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.pathFailures[path] = status
}

// FailDatasource lets the creation of the named data source fail with the given HTTP status.
func (fg *FakeGrafana) FailDatasource(name string, status int) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.datasourceFailures[name] = status
}

func (fg *FakeGrafana) Requests() []RecordedRequest {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	result := make([]RecordedRequest, len(fg.requests))
	copy(result, fg.requests)
	return result
}

func (fg *FakeGrafana) RequestsTo(path string) []RecordedRequest {
	var result []RecordedRequest
	for _, req := range fg.Requests() {
		if req.Path == path {
			result = append(result, req)
		}
	}
	return result
}

func (fg *FakeGrafana) record(req RecordedRequest) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	fg.requests = append(fg.requests, req)
}

func (fg *FakeGrafana) pathFailure(path string) (int, bool) {
	fg.mu.Lock()
	defer fg.mu.Unlock()
	status, ok := fg.pathFailures[path]
	return status, ok
}

func (fg *FakeGrafana) health(w http.ResponseWriter, _ *http.Request) {
	fg.reply(w, http.StatusOK, map[string]interface{}{
		"commit":   "8a4f2b3",
		"database": "ok",
		"version":  fg.Version,
	})
}

func (fg *FakeGrafana) createDatasource(w http.ResponseWriter, r *http.Request) {
	datasource := struct {
		Name string `json:"name"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&datasource); err != nil || datasource.Name == "" {
		fg.reply(w, http.StatusBadRequest, map[string]interface{}{"message": "bad request data"})
		return
	}

	fg.mu.Lock()
	status, failing := fg.datasourceFailures[datasource.Name]
	fg.nextID++
	id := fg.nextID
	fg.mu.Unlock()

	if failing {
		fg.reply(w, status, map[string]interface{}{"message": "data source with the same name already exists"})
		return
	}
	fg.reply(w, http.StatusOK, map[string]interface{}{
		"id":      id,
		"name":    datasource.Name,
		"message": "Datasource added",
	})
}

func (fg *FakeGrafana) createDashboard(w http.ResponseWriter, r *http.Request) {
	payload := struct {
		Dashboard struct {
			UID   string `json:"uid"`
			Title string `json:"title"`
		} `json:"dashboard"`
	}{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		fg.reply(w, http.StatusBadRequest, map[string]interface{}{"message": "bad request data"})
		return
	}
	fg.reply(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"uid":     payload.Dashboard.UID,
		"url":     fmt.Sprintf("/d/%s/%s", payload.Dashboard.UID, strings.ToLower(payload.Dashboard.Title)),
		"version": 1,
	})
}

func (fg *FakeGrafana) importDashboard(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		fg.reply(w, http.StatusBadRequest, map[string]interface{}{"message": "bad request data"})
		return
	}
	fg.reply(w, http.StatusOK, map[string]interface{}{
		"imported": true,
		"path":     "db/admin",
	})
}

func (fg *FakeGrafana) reply(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
