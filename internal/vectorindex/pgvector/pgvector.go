// Package pgvector is a vectorindex backend on PostgreSQL with the pgvector
// extension. Similarity is computed in SQL with the <=> cosine distance.
package pgvector

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"

	"research-assistant/internal/vectorindex"
)

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;
CREATE TABLE IF NOT EXISTS document_chunks (
	document_id  BIGINT  NOT NULL,
	chunk_index  INTEGER NOT NULL,
	start_offset INTEGER NOT NULL,
	end_offset   INTEGER NOT NULL,
	content      TEXT    NOT NULL,
	embedding    vector  NOT NULL,
	PRIMARY KEY (document_id, chunk_index)
);`

type Index struct {
	pool *pgxpool.Pool
}

// New creates the table when missing.
func New(ctx context.Context, pool *pgxpool.Pool) (*Index, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("create pgvector schema failed: %w", err)
	}
	return &Index{pool: pool}, nil
}

func (x *Index) Replace(ctx context.Context, documentID uint, entries []vectorindex.Entry) error {
	tx, err := x.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace failed: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, int64(documentID)); err != nil {
		return fmt.Errorf("delete old chunks failed: %w", err)
	}

	batch := &pgx.Batch{}
	for _, e := range entries {
		batch.Queue(
			`INSERT INTO document_chunks (document_id, chunk_index, start_offset, end_offset, content, embedding)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			int64(documentID), e.ChunkIndex, e.Start, e.End, e.Text, pgv.NewVector(e.Embedding),
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := range entries {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("insert chunk %d failed: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close insert batch failed: %w", err)
	}
	return tx.Commit(ctx)
}

func (x *Index) Search(ctx context.Context, documentID uint, query []float32, k int) ([]vectorindex.Hit, error) {
	if k <= 0 {
		if err := x.ensureExists(ctx, documentID); err != nil {
			return nil, err
		}
		return nil, nil
	}
	rows, err := x.pool.Query(ctx,
		`SELECT chunk_index, start_offset, end_offset, content, 1 - (embedding <=> $2) AS score
		 FROM document_chunks
		 WHERE document_id = $1
		 ORDER BY score DESC, chunk_index ASC
		 LIMIT $3`,
		int64(documentID), pgv.NewVector(query), k,
	)
	if err != nil {
		return nil, fmt.Errorf("search chunks failed: %w", err)
	}
	defer rows.Close()

	var hits []vectorindex.Hit
	for rows.Next() {
		h := vectorindex.Hit{DocumentID: documentID}
		if err := rows.Scan(&h.ChunkIndex, &h.Start, &h.End, &h.Text, &h.Score); err != nil {
			return nil, fmt.Errorf("scan chunk failed: %w", err)
		}
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks failed: %w", err)
	}
	if len(hits) == 0 {
		return nil, fmt.Errorf("document %d: %w", documentID, vectorindex.ErrIndexNotFound)
	}
	return hits, nil
}

func (x *Index) Chunks(ctx context.Context, documentID uint) ([]vectorindex.Entry, error) {
	rows, err := x.pool.Query(ctx,
		`SELECT chunk_index, start_offset, end_offset, content
		 FROM document_chunks
		 WHERE document_id = $1
		 ORDER BY chunk_index ASC`,
		int64(documentID),
	)
	if err != nil {
		return nil, fmt.Errorf("list chunks failed: %w", err)
	}
	defer rows.Close()

	var entries []vectorindex.Entry
	for rows.Next() {
		var e vectorindex.Entry
		if err := rows.Scan(&e.ChunkIndex, &e.Start, &e.End, &e.Text); err != nil {
			return nil, fmt.Errorf("scan chunk failed: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks failed: %w", err)
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("document %d: %w", documentID, vectorindex.ErrIndexNotFound)
	}
	return entries, nil
}

func (x *Index) Delete(ctx context.Context, documentID uint) error {
	if _, err := x.pool.Exec(ctx, `DELETE FROM document_chunks WHERE document_id = $1`, int64(documentID)); err != nil {
		return fmt.Errorf("delete chunks failed: %w", err)
	}
	return nil
}

func (x *Index) ensureExists(ctx context.Context, documentID uint) error {
	var exists bool
	if err := x.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM document_chunks WHERE document_id = $1)`,
		int64(documentID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("check chunks failed: %w", err)
	}
	if !exists {
		return fmt.Errorf("document %d: %w", documentID, vectorindex.ErrIndexNotFound)
	}
	return nil
}
