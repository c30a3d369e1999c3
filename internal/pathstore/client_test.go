package pathstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dgallion1/tabgest/internal/tables"
)

type fakeStore struct {
	mu    sync.Mutex
	nodes map[string]json.RawMessage
	auth  []string
}

func (f *fakeStore) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	key := r.URL.Path[len("/kv/"):]

	switch r.Method {
	case http.MethodPut:
		var req struct {
			Value json.RawMessage `json:"value"`
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.nodes[key] = req.Value
		w.WriteHeader(http.StatusCreated)
	case http.MethodGet:
		if prefix, ok := strings.CutSuffix(key, "/*"); ok {
			var nodes []map[string]any
			for k, v := range f.nodes {
				if strings.HasPrefix(k, prefix+"/") {
					nodes = append(nodes, map[string]any{"key_path": k, "value": v})
				}
			}
			json.NewEncoder(w).Encode(map[string]any{"nodes": nodes})
			return
		}
		v, ok := f.nodes[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"key_path": key, "value": v})
	case http.MethodDelete:
		for k := range f.nodes {
			if len(k) >= len(key) && k[:len(key)] == key {
				delete(f.nodes, k)
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func TestExtractionRoundTrip(t *testing.T) {
	store := &fakeStore{nodes: map[string]json.RawMessage{}}
	srv := httptest.NewServer(store)
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	defer c.Close()
	ctx := context.Background()

	v := tables.Validate(tables.ExtractionResult{Tables: []tables.Table{{Headers: []string{"A"}, Rows: [][]string{{"1"}}}}}, 60)
	in := Extraction{
		JobID:      "job-1",
		Revision:   "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		Filename:   "scan.pdf",
		Result:     tables.ExtractionResult{Tables: []tables.Table{{Name: "T", Headers: []string{"A"}, Rows: [][]string{{"1"}}}}},
		Validation: &v,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
	if err := c.PutExtraction(ctx, in, time.Hour); err != nil {
		t.Fatalf("PutExtraction: %v", err)
	}
	if _, ok := store.nodes["extractions/job-1/meta"]; !ok {
		t.Fatal("meta node not written")
	}
	for _, a := range store.auth {
		if a != "Bearer secret" {
			t.Fatalf("unexpected auth header %q", a)
		}
	}

	got, err := c.GetExtraction(ctx, "job-1")
	if err != nil {
		t.Fatalf("GetExtraction: %v", err)
	}
	if got == nil || got.Revision != in.Revision || got.Result.Tables[0].Name != "T" {
		t.Fatalf("unexpected extraction: %+v", got)
	}
	if got.Validation == nil || !got.Validation.IsValid {
		t.Errorf("validation not round-tripped: %+v", got.Validation)
	}

	if err := c.DeleteExtraction(ctx, "job-1"); err != nil {
		t.Fatalf("DeleteExtraction: %v", err)
	}
	got, err = c.GetExtraction(ctx, "job-1")
	if err != nil || got != nil {
		t.Fatalf("expected nothing after delete, got %+v, %v", got, err)
	}
}

func TestPutNodeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "k")
	err := c.PutNode(context.Background(), "a/b", NodeRequest{Value: 1})
	if err == nil {
		t.Fatal("expected error on 500")
	}
	if !strings.Contains(err.Error(), "status 500: boom") {
		t.Errorf("expected status and body in error, got %v", err)
	}
}

func TestDeleteExtractionRequest(t *testing.T) {
	var gotMethod, gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath, gotQuery = r.Method, r.URL.Path, r.URL.RawQuery
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "k")
	if err := c.DeleteExtraction(context.Background(), "job-9"); err != nil {
		t.Fatalf("DeleteExtraction: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/kv/extractions/job-9" || gotQuery != "children=true" {
		t.Errorf("unexpected request %s %s?%s", gotMethod, gotPath, gotQuery)
	}
}

func TestListExtractions(t *testing.T) {
	store := &fakeStore{nodes: map[string]json.RawMessage{}}
	srv := httptest.NewServer(store)
	defer srv.Close()

	c := NewClient(srv.URL, "secret")
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		e := Extraction{
			JobID:     id,
			Filename:  id + ".png",
			Result:    tables.ExtractionResult{Tables: []tables.Table{{Headers: []string{"A"}}}},
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := c.PutExtraction(ctx, e, 0); err != nil {
			t.Fatalf("PutExtraction(%s): %v", id, err)
		}
	}

	metas, err := c.ListExtractions(ctx, 2)
	if err != nil {
		t.Fatalf("ListExtractions: %v", err)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 metas, got %d", len(metas))
	}
	if metas[0].JobID != "new" || metas[1].JobID != "mid" {
		t.Errorf("unexpected order: %s, %s", metas[0].JobID, metas[1].JobID)
	}
	if metas[0].TableCount != 1 || metas[0].IsValid != nil {
		t.Errorf("unexpected meta: %+v", metas[0])
	}
}
