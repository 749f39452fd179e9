package store

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/openkg/loom/internal/rdf"
)

// MemgraphStore persists triples as Triple nodes in Memgraph (or Neo4j)
// over the Bolt protocol.
type MemgraphStore struct {
	driver neo4j.DriverWithContext
}

func NewMemgraphStore(ctx context.Context, uri, username, password string) (*MemgraphStore, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create bolt driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		return nil, fmt.Errorf("verify connectivity: %w", err)
	}
	s := &MemgraphStore{driver: driver}
	if err := s.buildIndices(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MemgraphStore) executeQuery(ctx context.Context, query string, params map[string]any) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, s.driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("execute query: %w", err)
	}
	return *result, nil
}

func (s *MemgraphStore) buildIndices(ctx context.Context) error {
	// Index creation is best-effort; the index may already exist.
	for _, q := range []string{
		"CREATE INDEX ON :Triple(subject);",
		"CREATE INDEX ON :Triple(predicate);",
		"CREATE INDEX ON :Triple(position);",
	} {
		if _, err := s.executeQuery(ctx, q, nil); err != nil {
			continue
		}
	}
	return nil
}

func (s *MemgraphStore) Replace(ctx context.Context, triples []rdf.Triple) error {
	if _, err := s.executeQuery(ctx, "MATCH (t:Triple) DETACH DELETE t", nil); err != nil {
		return err
	}

	rows := make([]map[string]any, 0, len(triples))
	for i, t := range triples {
		subj, subjKind, _, _ := encodeTerm(t.Subject)
		obj, objKind, objDatatype, objLang := encodeTerm(t.Object)
		rows = append(rows, map[string]any{
			"position":        i,
			"subject":         subj,
			"subject_kind":    subjKind,
			"predicate":       t.Predicate.Value,
			"object":          obj,
			"object_kind":     objKind,
			"object_datatype": objDatatype,
			"object_lang":     objLang,
		})
	}

	_, err := s.executeQuery(ctx, `
		UNWIND $rows AS row
		CREATE (:Triple {
			position: row.position,
			subject: row.subject,
			subject_kind: row.subject_kind,
			predicate: row.predicate,
			object: row.object,
			object_kind: row.object_kind,
			object_datatype: row.object_datatype,
			object_lang: row.object_lang
		})`, map[string]any{"rows": rows})
	return err
}

func (s *MemgraphStore) LoadAll(ctx context.Context) ([]rdf.Triple, error) {
	result, err := s.executeQuery(ctx, `
		MATCH (t:Triple)
		RETURN t.subject AS subject, t.subject_kind AS subject_kind,
		       t.predicate AS predicate,
		       t.object AS object, t.object_kind AS object_kind,
		       t.object_datatype AS object_datatype, t.object_lang AS object_lang
		ORDER BY t.position`, nil)
	if err != nil {
		return nil, err
	}

	str := func(record *neo4j.Record, key string) string {
		v, _ := record.Get(key)
		s, _ := v.(string)
		return s
	}

	var triples []rdf.Triple
	for _, record := range result.Records {
		subject, err := decodeTerm(str(record, "subject"), str(record, "subject_kind"), "", "")
		if err != nil {
			return nil, err
		}
		predicate, err := rdf.NewIRI(str(record, "predicate"))
		if err != nil {
			return nil, fmt.Errorf("stored predicate: %w", err)
		}
		object, err := decodeTerm(str(record, "object"), str(record, "object_kind"),
			str(record, "object_datatype"), str(record, "object_lang"))
		if err != nil {
			return nil, err
		}
		triples = append(triples, rdf.Triple{Subject: subject, Predicate: predicate, Object: object})
	}
	return triples, nil
}

func (s *MemgraphStore) Close(ctx context.Context) error {
	return s.driver.Close(ctx)
}
