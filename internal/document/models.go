package document

import (
	"slices"
	"time"
)

// Collection names accepted by the submission and query endpoints.
const (
	CollectionArticles     = "Artigos"
	CollectionNews         = "Velonews"
	CollectionBotQuestions = "Bot_perguntas"
)

// Field names stamped by the server on insertion.
const (
	FieldID        = "_id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// RecentLimit caps how many documents a listing returns.
const RecentLimit = 100

// Collections returns the allowed collection names in their canonical order.
func Collections() []string {
	return []string{CollectionArticles, CollectionNews, CollectionBotQuestions}
}

// ValidCollection reports whether name is one of Collections.
func ValidCollection(name string) bool {
	return slices.Contains(Collections(), name)
}

// Document is a free-form record. Values are whatever the JSON body carried
// (strings, string arrays, flags) plus the server timestamps.
type Document map[string]interface{}

// Stamped returns a copy of data with createdAt and updatedAt set to at.
// A client-provided _id is dropped: identity is always assigned by the store.
func Stamped(data map[string]interface{}, at time.Time) Document {
	doc := make(Document, len(data)+2)
	for k, v := range data {
		if k == FieldID {
			continue
		}
		doc[k] = v
	}
	doc[FieldCreatedAt] = at
	doc[FieldUpdatedAt] = at
	return doc
}

// CreatedAt returns the createdAt stamp, or the zero time.
func (d Document) CreatedAt() time.Time {
	t, _ := d[FieldCreatedAt].(time.Time)
	return t
}

// ID returns the store-assigned identifier, or "".
func (d Document) ID() string {
	id, _ := d[FieldID].(string)
	return id
}
