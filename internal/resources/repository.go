package resources

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekit/authgate/internal/shared"
)

// Repository defines persistence operations for collection documents.
type Repository interface {
	List(ctx context.Context, collection string, limit, offset int) ([]Document, int, error)
	Get(ctx context.Context, collection string, id int64) (*Document, error)
	Create(ctx context.Context, collection string, data json.RawMessage) (*Document, error)
	Replace(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error)
	Merge(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error)
	Delete(ctx context.Context, collection string, id int64) error
}

// PGRepository implements Repository using PostgreSQL jsonb storage.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// List returns one page of documents plus the collection total.
func (r *PGRepository) List(ctx context.Context, collection string, limit, offset int) ([]Document, int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, data, created_at, updated_at FROM documents
		 WHERE collection = $1 ORDER BY id LIMIT $2 OFFSET $3`,
		collection, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc := Document{Collection: collection}
		if err := rows.Scan(&doc.ID, &doc.Data, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = $1`, collection).Scan(&total); err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Get fetches one document.
func (r *PGRepository) Get(ctx context.Context, collection string, id int64) (*Document, error) {
	doc := Document{Collection: collection, ID: id}
	err := r.pool.QueryRow(ctx,
		`SELECT data, created_at, updated_at FROM documents WHERE collection = $1 AND id = $2`,
		collection, id).Scan(&doc.Data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Create inserts a document and returns it with the assigned id.
func (r *PGRepository) Create(ctx context.Context, collection string, data json.RawMessage) (*Document, error) {
	doc := Document{Collection: collection, Data: data}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO documents (collection, data) VALUES ($1, $2)
		 RETURNING id, created_at, updated_at`,
		collection, data).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// Replace overwrites a document's data in full.
func (r *PGRepository) Replace(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	doc := Document{Collection: collection, ID: id, Data: data}
	err := r.pool.QueryRow(ctx,
		`UPDATE documents SET data = $3, updated_at = NOW()
		 WHERE collection = $1 AND id = $2
		 RETURNING created_at, updated_at`,
		collection, id, data).Scan(&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Merge shallow-merges the patch into the stored jsonb document.
func (r *PGRepository) Merge(ctx context.Context, collection string, id int64, data json.RawMessage) (*Document, error) {
	doc := Document{Collection: collection, ID: id}
	err := r.pool.QueryRow(ctx,
		`UPDATE documents SET data = data || $3::jsonb, updated_at = NOW()
		 WHERE collection = $1 AND id = $2
		 RETURNING data, created_at, updated_at`,
		collection, id, data).Scan(&doc.Data, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

// Delete removes a document.
func (r *PGRepository) Delete(ctx context.Context, collection string, id int64) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM documents WHERE collection = $1 AND id = $2`, collection, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
