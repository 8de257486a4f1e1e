package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/console-conteudo/backend/internal/database"
	"github.com/console-conteudo/backend/internal/document"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// HandleProvider yields the shared store connection (database.Manager).
type HandleProvider interface {
	Get(ctx context.Context) (*database.Handle, error)
}

// MongoRepo implements Repository on top of the shared connection handle;
// the handle is resolved per call so a lost connection is re-established
// lazily by the provider.
type MongoRepo struct {
	conn HandleProvider
}

func NewMongoRepo(conn HandleProvider) *MongoRepo {
	return &MongoRepo{conn: conn}
}

func (m *MongoRepo) collection(ctx context.Context, name string) (*mongo.Collection, error) {
	h, err := m.conn.Get(ctx)
	if err != nil {
		return nil, err
	}
	return h.Collection(name), nil
}

func (m *MongoRepo) Insert(ctx context.Context, collection string, doc document.Document) (string, error) {
	col, err := m.collection(ctx, collection)
	if err != nil {
		return "", err
	}
	res, err := col.InsertOne(ctx, bson.M(doc))
	if err != nil {
		return "", err
	}
	return idString(res.InsertedID), nil
}

func (m *MongoRepo) Recent(ctx context.Context, collection string, limit int) ([]document.Document, error) {
	col, err := m.collection(ctx, collection)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: document.FieldCreatedAt, Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []document.Document{}
	for cur.Next(ctx) {
		var raw bson.M
		if err := cur.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, fromBSON(raw))
	}
	return out, cur.Err()
}

// EnsureIndexes creates the createdAt descending index used by Recent on every collection.
func (m *MongoRepo) EnsureIndexes(ctx context.Context) error {
	for _, name := range document.Collections() {
		col, err := m.collection(ctx, name)
		if err != nil {
			return err
		}
		_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    bson.D{{Key: document.FieldCreatedAt, Value: -1}},
			Options: options.Index().SetName("idx_createdAt_desc"),
		})
		if err != nil {
			return fmt.Errorf("index %s: %w", name, err)
		}
	}
	return nil
}

func idString(id interface{}) string {
	if oid, ok := id.(primitive.ObjectID); ok {
		return oid.Hex()
	}
	return fmt.Sprint(id)
}

// fromBSON converts driver values into plain Go values that render cleanly as JSON.
func fromBSON(m bson.M) document.Document {
	out := make(document.Document, len(m))
	for k, v := range m {
		out[k] = plain(v)
	}
	return out
}

func plain(v interface{}) interface{} {
	switch x := v.(type) {
	case primitive.ObjectID:
		return x.Hex()
	case primitive.DateTime:
		return x.Time().UTC()
	case time.Time:
		return x.UTC()
	case bson.M:
		return map[string]interface{}(fromBSON(x))
	case primitive.D:
		return map[string]interface{}(fromBSON(x.Map()))
	case primitive.A:
		arr := make([]interface{}, len(x))
		for i, e := range x {
			arr[i] = plain(e)
		}
		return arr
	}
	return v
}
