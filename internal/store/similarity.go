package store

import (
	"context"
	"fmt"
	"sort"

	"github.com/edgecomet/national-treasure/pkg/types"
)

// PutSimilarity upserts a weighted similarity edge. Used only for cold
// start; never treated as authoritative.
func (db *DB) PutSimilarity(ctx context.Context, e types.SimilarityEdge) error {
	_, err := db.sql.ExecContext(ctx, `
		INSERT INTO similarity (domain_a, domain_b, score, kind) VALUES (?, ?, ?, ?)
		ON CONFLICT(domain_a, domain_b) DO UPDATE SET score = excluded.score, kind = excluded.kind`,
		e.DomainA, e.DomainB, e.Score, string(e.Kind))
	if err != nil {
		return fmt.Errorf("put similarity: %w", err)
	}
	return nil
}

// SimilarDomains returns up to k domains similar to the given domain,
// ordered by descending score, considering edges in either direction.
func (db *DB) SimilarDomains(ctx context.Context, domain string, k int) ([]types.SimilarityEdge, error) {
	rows, err := db.sql.QueryContext(ctx, `
		SELECT domain_a, domain_b, score, kind FROM similarity WHERE domain_a = ? OR domain_b = ?`, domain, domain)
	if err != nil {
		return nil, fmt.Errorf("query similarity: %w", err)
	}
	defer rows.Close()

	var edges []types.SimilarityEdge
	for rows.Next() {
		var e types.SimilarityEdge
		var kind string
		if err := rows.Scan(&e.DomainA, &e.DomainB, &e.Score, &kind); err != nil {
			return nil, fmt.Errorf("scan similarity: %w", err)
		}
		e.Kind = types.SimilarityKind(kind)
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(edges, func(i, j int) bool { return edges[i].Score > edges[j].Score })
	if len(edges) > k {
		edges = edges[:k]
	}
	return edges, nil
}

// NeighborDomain returns the "other side" of a similarity edge relative to domain.
func NeighborDomain(e types.SimilarityEdge, domain string) string {
	if e.DomainA == domain {
		return e.DomainB
	}
	return e.DomainA
}
