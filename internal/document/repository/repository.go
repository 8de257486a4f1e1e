package repository

import (
	"context"

	"github.com/console-conteudo/backend/internal/document"
)

// Repository persists documents into named collections.
type Repository interface {
	// Insert stores doc as-is and returns the identifier assigned by the store.
	Insert(ctx context.Context, collection string, doc document.Document) (string, error)
	// Recent returns up to limit documents ordered by createdAt, newest first.
	Recent(ctx context.Context, collection string, limit int) ([]document.Document, error)
}
