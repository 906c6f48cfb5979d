package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/custodia-labs/sercha-kms/internal/core/domain"
	"github.com/custodia-labs/sercha-kms/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore implements driven.DocumentStore using PostgreSQL
type DocumentStore struct {
	db *DB
}

// NewDocumentStore creates a new DocumentStore
func NewDocumentStore(db *DB) *DocumentStore {
	return &DocumentStore{db: db}
}

const documentColumns = `id, user_id, name, content, summary, category, tags, created_at, updated_at`

// Get retrieves a document owned by userID
func (s *DocumentStore) Get(ctx context.Context, userID string, id int64) (*domain.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND user_id = $2`

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, id, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// List returns the user's documents matching filter, newest first
func (s *DocumentStore) List(ctx context.Context, userID string, filter *domain.DocumentFilter) ([]*domain.Document, error) {
	if filter != nil && filter.DocumentIDs != nil && len(filter.DocumentIDs) == 0 {
		return []*domain.Document{}, nil
	}

	where, args := documentFilterClause(userID, filter)
	query := `SELECT ` + documentColumns + ` FROM documents WHERE ` + where + ` ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []*domain.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// documentFilterClause builds the WHERE clause and its arguments for a filter.
// The user predicate is always first.
func documentFilterClause(userID string, filter *domain.DocumentFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter != nil {
		if filter.DocumentIDs != nil {
			add("id = ANY($%d)", pq.Array(filter.DocumentIDs))
		}
		if filter.Category != "" {
			add("lower(category) = lower($%d)", filter.Category)
		}
		if filter.DateRange != nil {
			if !filter.DateRange.From.IsZero() {
				add("created_at >= $%d", filter.DateRange.From)
			}
			if !filter.DateRange.To.IsZero() {
				add("created_at <= $%d", filter.DateRange.To)
			}
		}
	}

	return strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*domain.Document, error) {
	var doc domain.Document
	var summary, category sql.NullString
	var tags pq.StringArray

	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Name,
		&doc.Content,
		&summary,
		&category,
		&tags,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.Summary = summary.String
	doc.Category = category.String
	doc.Tags = []string(tags)
	return &doc, nil
}
