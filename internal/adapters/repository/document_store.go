package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/boardstack/core/internal/domain/entities"
)

// errNoDocument is the store-internal miss signal; repositories translate
// it into the aggregate-specific not-found error.
var errNoDocument = errors.New("document does not exist")

// DocumentStore is a thin adapter over a hierarchical document table.
// Every document is keyed by a path such as board/{id},
// board/{id}/card/{id}, board/{id}/card/{id}/task/{id} or
// invitation/{id}, with the body stored as JSONB. The store is bound
// either to the shared pool or, via withTx, to a single transaction.
type DocumentStore struct {
	ext sqlx.ExtContext
}

// NewDocumentStore creates a store bound to the connection pool.
func NewDocumentStore(db *sqlx.DB) *DocumentStore {
	return &DocumentStore{ext: db}
}

// withTx returns a copy of the store bound to the given transaction.
func (s *DocumentStore) withTx(tx *sqlx.Tx) *DocumentStore {
	return &DocumentStore{ext: tx}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, entities.ErrStoreUnavailable, err)
}

// likePrefix escapes LIKE metacharacters so a path prefix matches
// literally. Postgres treats backslash as the default escape character.
func likePrefix(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}

// Get fetches the raw document at path.
func (s *DocumentStore) Get(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := sqlx.GetContext(ctx, s.ext, &data,
		`SELECT data FROM documents WHERE path = $1`, path)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errNoDocument
		}
		return nil, storeErr("get document", err)
	}
	return data, nil
}

// Put upserts the document at path with the JSON encoding of doc.
func (s *DocumentStore) Put(ctx context.Context, path string, doc any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	_, err = s.ext.ExecContext(ctx, `
		INSERT INTO documents (path, data)
		VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()`,
		path, data)
	if err != nil {
		return storeErr("put document", err)
	}
	return nil
}

// Delete removes the document at path. Deleting a missing document is
// not an error.
func (s *DocumentStore) Delete(ctx context.Context, path string) error {
	if _, err := s.ext.ExecContext(ctx,
		`DELETE FROM documents WHERE path = $1`, path); err != nil {
		return storeErr("delete document", err)
	}
	return nil
}

// DeletePrefix removes every document whose path starts with prefix.
func (s *DocumentStore) DeletePrefix(ctx context.Context, prefix string) error {
	if _, err := s.ext.ExecContext(ctx,
		`DELETE FROM documents WHERE path LIKE $1`, likePrefix(prefix)); err != nil {
		return storeErr("delete documents by prefix", err)
	}
	return nil
}

// ListChildren fetches the direct children under prefix, oldest first.
// Grandchildren (one more path segment down) are excluded.
func (s *DocumentStore) ListChildren(ctx context.Context, prefix string) ([][]byte, error) {
	var docs [][]byte
	err := sqlx.SelectContext(ctx, s.ext, &docs, `
		SELECT data FROM documents
		WHERE path LIKE $1 AND path NOT LIKE $2
		ORDER BY created_at ASC`,
		likePrefix(prefix), likePrefix(prefix)+`%/%`)
	if err != nil {
		return nil, storeErr("list documents", err)
	}
	return docs, nil
}

// ListWhereField fetches direct children under prefix whose top-level
// field equals value.
func (s *DocumentStore) ListWhereField(ctx context.Context, prefix, field, value string) ([][]byte, error) {
	var docs [][]byte
	err := sqlx.SelectContext(ctx, s.ext, &docs, `
		SELECT data FROM documents
		WHERE path LIKE $1 AND path NOT LIKE $2 AND data->>$3 = $4
		ORDER BY created_at ASC`,
		likePrefix(prefix), likePrefix(prefix)+`%/%`, field, value)
	if err != nil {
		return nil, storeErr("list documents by field", err)
	}
	return docs, nil
}

// ListWhereArrayContains fetches direct children under prefix whose
// top-level array field contains value (Firestore array-contains
// semantics).
func (s *DocumentStore) ListWhereArrayContains(ctx context.Context, prefix, field, value string) ([][]byte, error) {
	needle, err := json.Marshal([]string{value})
	if err != nil {
		return nil, fmt.Errorf("encode containment needle: %w", err)
	}
	var docs [][]byte
	err = sqlx.SelectContext(ctx, s.ext, &docs, `
		SELECT data FROM documents
		WHERE path LIKE $1 AND path NOT LIKE $2 AND data->$3 @> $4::jsonb
		ORDER BY created_at ASC`,
		likePrefix(prefix), likePrefix(prefix)+`%/%`, field, needle)
	if err != nil {
		return nil, storeErr("list documents by containment", err)
	}
	return docs, nil
}

// DeleteMatching removes every document under prefix whose remaining
// path passes through the given segment, e.g. all task documents under a
// board regardless of their card.
func (s *DocumentStore) DeleteMatching(ctx context.Context, prefix, segment string) error {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	pattern := r.Replace(prefix) + "%" + r.Replace(segment) + "%"
	if _, err := s.ext.ExecContext(ctx,
		`DELETE FROM documents WHERE path LIKE $1`, pattern); err != nil {
		return storeErr("delete documents by pattern", err)
	}
	return nil
}

// DeleteWhereField removes direct children under prefix whose top-level
// field equals value.
func (s *DocumentStore) DeleteWhereField(ctx context.Context, prefix, field, value string) error {
	_, err := s.ext.ExecContext(ctx, `
		DELETE FROM documents
		WHERE path LIKE $1 AND path NOT LIKE $2 AND data->>$3 = $4`,
		likePrefix(prefix), likePrefix(prefix)+`%/%`, field, value)
	if err != nil {
		return storeErr("delete documents by field", err)
	}
	return nil
}

// Path helpers. Path segments are generated ids (uuids, user:<email>),
// never user-controlled free text.

func boardPath(boardID string) string {
	return "board/" + boardID
}

func cardPath(boardID, cardID string) string {
	return boardPath(boardID) + "/card/" + cardID
}

func taskPath(boardID, cardID, taskID string) string {
	return cardPath(boardID, cardID) + "/task/" + taskID
}

func invitationPath(id string) string {
	return "invitation/" + id
}

func userPath(id string) string {
	return "user/" + id
}

func decodeInto[T any](docs [][]byte) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, raw := range docs {
		item := new(T)
		if err := json.Unmarshal(raw, item); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		out = append(out, item)
	}
	return out, nil
}
