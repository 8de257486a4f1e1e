package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/console-conteudo/backend/internal/database"
	"github.com/console-conteudo/backend/internal/document"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type failingProvider struct{ err error }

func (f failingProvider) Get(context.Context) (*database.Handle, error) { return nil, f.err }

func TestMongoRepo_PropagatesConnectionError(t *testing.T) {
	cerr := &database.ConnectionError{Attempts: 5, Err: errors.New("no reachable servers")}
	r := NewMongoRepo(failingProvider{err: cerr})

	_, err := r.Insert(context.Background(), "Artigos", document.Document{"a": 1})
	require.ErrorIs(t, err, cerr)

	_, err = r.Recent(context.Background(), "Artigos", 10)
	require.ErrorIs(t, err, cerr)

	require.ErrorIs(t, r.EnsureIndexes(context.Background()), cerr)
}

func TestFromBSON(t *testing.T) {
	oid := primitive.NewObjectID()
	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	raw := bson.M{
		"_id":       oid,
		"createdAt": primitive.NewDateTimeFromTime(at),
		"keywords":  primitive.A{"go", "mongo"},
		"meta":      bson.M{"seen": primitive.NewDateTimeFromTime(at)},
		"ordered":   primitive.D{{Key: "k", Value: "v"}},
		"title":     "t",
	}
	doc := fromBSON(raw)

	require.Equal(t, oid.Hex(), doc.ID())
	require.Equal(t, at, doc.CreatedAt())
	require.Equal(t, []interface{}{"go", "mongo"}, doc["keywords"])
	require.Equal(t, map[string]interface{}{"seen": at}, doc["meta"])
	require.Equal(t, map[string]interface{}{"k": "v"}, doc["ordered"])
	require.Equal(t, "t", doc["title"])
}

func TestIDString(t *testing.T) {
	oid := primitive.NewObjectID()
	require.Equal(t, oid.Hex(), idString(oid))
	require.Equal(t, "42", idString(42))
}
