package registrycache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoCatalog is a Catalog implementation persisting discovered remote
// handles to MongoDB, so a restarted process can repopulate its cache
// without re-running discovery against every remote node.
type MongoCatalog struct {
	collection *mongo.Collection
}

// NewMongoCatalog wraps an already-connected collection.
func NewMongoCatalog(collection *mongo.Collection) *MongoCatalog {
	return &MongoCatalog{collection: collection}
}

type entryDocument struct {
	Key      string    `bson:"_id"`
	Tag      string    `bson:"tag"`
	Name     string    `bson:"name"`
	Inspect  []byte    `bson:"inspect"`
	CachedAt time.Time `bson:"cached_at"`
}

// Save implements Catalog.
func (c *MongoCatalog) Save(ctx context.Context, entry *Entry) error {
	key := Key(entry.Tag, entry.Name)
	doc := entryDocument{Key: key, Tag: entry.Tag, Name: entry.Name, Inspect: entry.Inspect, CachedAt: entry.CachedAt}
	opts := options.Replace().SetUpsert(true)
	if _, err := c.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, opts); err != nil {
		return fmt.Errorf("registrycache: mongo save %q: %w", key, err)
	}
	return nil
}

// Load implements Catalog.
func (c *MongoCatalog) Load(ctx context.Context, key string) (*Entry, error) {
	var doc entryDocument
	err := c.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registrycache: mongo load %q: %w", key, err)
	}
	return &Entry{Tag: doc.Tag, Name: doc.Name, Inspect: doc.Inspect, CachedAt: doc.CachedAt}, nil
}

// Delete implements Catalog.
func (c *MongoCatalog) Delete(ctx context.Context, key string) error {
	if _, err := c.collection.DeleteOne(ctx, bson.M{"_id": key}); err != nil {
		return fmt.Errorf("registrycache: mongo delete %q: %w", key, err)
	}
	return nil
}

// List implements Catalog, optionally filtering by loader tag.
func (c *MongoCatalog) List(ctx context.Context, tag string) ([]*Entry, error) {
	filter := bson.M{}
	if tag != "" {
		filter["tag"] = tag
	}
	cursor, err := c.collection.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("registrycache: mongo list: %w", err)
	}
	defer func() { _ = cursor.Close(ctx) }()

	var docs []entryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("registrycache: mongo list decode: %w", err)
	}
	out := make([]*Entry, len(docs))
	for i, d := range docs {
		out[i] = &Entry{Tag: d.Tag, Name: d.Name, Inspect: d.Inspect, CachedAt: d.CachedAt}
	}
	return out, nil
}
