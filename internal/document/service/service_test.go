package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/console-conteudo/backend/internal/database"
	"github.com/console-conteudo/backend/internal/document"
	"github.com/console-conteudo/backend/internal/document/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stepClock struct{ t time.Time }

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

type brokenRepo struct{ err error }

func (b brokenRepo) Insert(context.Context, string, document.Document) (string, error) {
	return "", b.err
}

func (b brokenRepo) Recent(context.Context, string, int) ([]document.Document, error) {
	return nil, b.err
}

func TestSubmit_StampsTimestamps(t *testing.T) {
	repo := repository.NewMemoryRepo()
	svc := New(repo)

	res, err := svc.Submit(context.Background(), "Artigos", map[string]interface{}{"title": "t", "content": "c"})
	require.NoError(t, err)
	require.NotEmpty(t, res.ID)
	require.False(t, res.Timestamp.IsZero())

	docs, err := svc.Recent(context.Background(), "Artigos")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	d := docs[0]
	assert.Equal(t, res.ID, d.ID())
	assert.Equal(t, "t", d["title"])
	assert.Equal(t, "c", d["content"])
	require.Contains(t, d, "createdAt")
	require.Contains(t, d, "updatedAt")
	assert.Equal(t, d["createdAt"], d["updatedAt"])
}

func TestSubmit_IsNotIdempotent(t *testing.T) {
	repo := repository.NewMemoryRepo()
	svc := New(repo)
	data := map[string]interface{}{"title": "same"}

	a, err := svc.Submit(context.Background(), "Velonews", data)
	require.NoError(t, err)
	b, err := svc.Submit(context.Background(), "Velonews", data)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
	require.Equal(t, 2, repo.Len("Velonews"))
}

func TestSubmit_Validation(t *testing.T) {
	svc := NewMemoryService()
	ctx := context.Background()

	_, err := svc.Submit(ctx, "Artigos", nil)
	var v *document.ValidationError
	require.ErrorAs(t, err, &v)
	require.Equal(t, document.MsgMissingFields, v.Message)
	require.Equal(t, []string{"collection", "data"}, v.Required)

	_, err = svc.Submit(ctx, "", map[string]interface{}{})
	require.ErrorAs(t, err, &v)
	require.Equal(t, document.MsgMissingFields, v.Message)

	// presence is checked before the name
	_, err = svc.Submit(ctx, "Invalid", nil)
	require.ErrorAs(t, err, &v)
	require.Equal(t, document.MsgMissingFields, v.Message)

	_, err = svc.Submit(ctx, "Invalid", map[string]interface{}{})
	require.ErrorAs(t, err, &v)
	require.Equal(t, document.MsgInvalidCollection, v.Message)
	require.Equal(t, []string{"Artigos", "Velonews", "Bot_perguntas"}, v.ValidCollections)

	// an empty object is still data
	_, err = svc.Submit(ctx, "Bot_perguntas", map[string]interface{}{})
	require.NoError(t, err)
}

func TestSubmit_StoreFailure(t *testing.T) {
	cause := &database.ConnectionError{Attempts: 5, Err: errors.New("no reachable servers")}
	svc := New(brokenRepo{err: cause})

	_, err := svc.Submit(context.Background(), "Artigos", map[string]interface{}{"a": 1})
	var se *document.StoreError
	require.ErrorAs(t, err, &se)
	require.Equal(t, "insert", se.Op)
	require.ErrorIs(t, err, cause)

	_, err = svc.Recent(context.Background(), "Artigos")
	require.ErrorAs(t, err, &se)
	require.Equal(t, "find", se.Op)
}

func TestRecent_NewestFirstAndCapped(t *testing.T) {
	clock := &stepClock{t: time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)}
	svc := NewMemoryService(WithClock(clock.now))
	ctx := context.Background()

	for i := 0; i < 150; i++ {
		_, err := svc.Submit(ctx, "Velonews", map[string]interface{}{"n": i})
		require.NoError(t, err)
	}
	docs, err := svc.Recent(ctx, "Velonews")
	require.NoError(t, err)
	require.Len(t, docs, document.RecentLimit)
	require.Equal(t, 149, docs[0]["n"])
	require.Equal(t, 50, docs[99]["n"])
	for i := 1; i < len(docs); i++ {
		require.True(t, docs[i-1].CreatedAt().After(docs[i].CreatedAt()))
	}
}

func TestRecent_RejectsUnknownCollection(t *testing.T) {
	_, err := NewMemoryService().Recent(context.Background(), "users")
	require.True(t, document.IsValidation(err))
}
