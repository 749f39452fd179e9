package store

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFuseki implements just enough of the Fuseki protocol for the client.
type fakeFuseki struct {
	graph    string
	datasets map[string]bool
}

func (f *fakeFuseki) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/$/datasets", func(w http.ResponseWriter, r *http.Request) {
		name := r.FormValue("dbName")
		if f.datasets[name] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		f.datasets[name] = true
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/$/ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/kg/data", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			f.graph = string(body)
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			w.Header().Set("Content-Type", "application/n-triples")
			io.WriteString(w, f.graph)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/kg/query", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/sparql-results+json")
		io.WriteString(w, `{"head":{"vars":[]},"results":{"bindings":[]}}`)
	})
	return mux
}

func TestFusekiStore_RoundTrip(t *testing.T) {
	fake := &fakeFuseki{datasets: map[string]bool{}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	f := NewFusekiStore(srv.URL, "kg", "admin", "secret")
	ctx := context.Background()

	require.NoError(t, f.CreateDataset(ctx))
	// Re-creating is tolerated.
	require.NoError(t, f.CreateDataset(ctx))
	require.NoError(t, f.Ping(ctx))

	triples := testTriples()
	require.NoError(t, f.Replace(ctx, triples))

	loaded, err := f.LoadAll(ctx)
	require.NoError(t, err)
	assert.Len(t, loaded, len(triples))
}

func TestFusekiStore_QueryPassthrough(t *testing.T) {
	fake := &fakeFuseki{datasets: map[string]bool{}}
	srv := httptest.NewServer(fake.handler())
	defer srv.Close()

	f := NewFusekiStore(srv.URL, "kg", "", "")
	body, err := f.Query(context.Background(), "SELECT * WHERE { ?s ?p ?o }")
	require.NoError(t, err)
	assert.Contains(t, string(body), "bindings")
}
