package store

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/openkg/loom/internal/rdf"
)

// FusekiStore talks to an Apache Jena Fuseki dataset over HTTP. The
// harmonized graph is snapshotted into the dataset's default graph;
// Query and Update pass SPARQL through to the remote engine untouched.
type FusekiStore struct {
	baseURL  string
	dataset  string
	username string
	password string
	client   *http.Client
}

func NewFusekiStore(baseURL, dataset, username, password string) *FusekiStore {
	return &FusekiStore{
		baseURL:  strings.TrimRight(baseURL, "/"),
		dataset:  dataset,
		username: username,
		password: password,
		client:   &http.Client{},
	}
}

func (f *FusekiStore) endpoint(kind string) string {
	return f.baseURL + "/" + f.dataset + "/" + kind
}

func (f *FusekiStore) do(req *http.Request) (*http.Response, error) {
	if f.username != "" {
		req.SetBasicAuth(f.username, f.password)
	}
	return f.client.Do(req)
}

// CreateDataset creates the dataset if it does not exist. An already
// existing dataset is not an error.
func (f *FusekiStore) CreateDataset(ctx context.Context) error {
	form := url.Values{"dbName": {f.dataset}, "dbType": {"tdb2"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.baseURL+"/$/datasets",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.do(req)
	if err != nil {
		return fmt.Errorf("create dataset: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusConflict:
		return nil
	default:
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("create dataset: %s: %s", resp.Status, body)
	}
}

// Ping checks server liveness.
func (f *FusekiStore) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+"/$/ping", nil)
	if err != nil {
		return err
	}
	resp, err := f.do(req)
	if err != nil {
		return fmt.Errorf("ping fuseki: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ping fuseki: %s", resp.Status)
	}
	return nil
}

func (f *FusekiStore) Replace(ctx context.Context, triples []rdf.Triple) error {
	g := rdf.NewGraph()
	for _, t := range triples {
		if _, err := g.Add(t); err != nil {
			return err
		}
	}
	var buf strings.Builder
	if err := rdf.EncodeNTriples(&buf, g); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		f.endpoint("data")+"?default", strings.NewReader(buf.String()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/n-triples")

	resp, err := f.do(req)
	if err != nil {
		return fmt.Errorf("upload graph: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload graph: %s: %s", resp.Status, body)
	}
	return nil
}

func (f *FusekiStore) LoadAll(ctx context.Context) ([]rdf.Triple, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint("data")+"?default", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/n-triples")

	resp, err := f.do(req)
	if err != nil {
		return nil, fmt.Errorf("download graph: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download graph: %s", resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	g, err := rdf.DecodeNTriples(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse downloaded graph: %w", err)
	}
	return g.All(), nil
}

// Query sends a SPARQL query to the remote engine and returns the raw
// SPARQL JSON results.
func (f *FusekiStore) Query(ctx context.Context, sparql string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint("query"),
		strings.NewReader(sparql))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/sparql-query")
	req.Header.Set("Accept", "application/sparql-results+json")

	resp, err := f.do(req)
	if err != nil {
		return nil, fmt.Errorf("sparql query: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sparql query: %s: %s", resp.Status, body)
	}
	return body, nil
}

// Update sends a SPARQL update to the remote engine.
func (f *FusekiStore) Update(ctx context.Context, sparql string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.endpoint("update"),
		strings.NewReader(sparql))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/sparql-update")

	resp, err := f.do(req)
	if err != nil {
		return fmt.Errorf("sparql update: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sparql update: %s: %s", resp.Status, body)
	}
	return nil
}

func (f *FusekiStore) Close(ctx context.Context) error { return nil }
