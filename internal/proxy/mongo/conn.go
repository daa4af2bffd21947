// Package mongo adapts the official driver to the proxy's per-request
// connection model. Every Dial produces a standalone client that is
// discarded after one operation; nothing is pooled across requests.
package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mongorelay/internal/proxy"
)

type conn struct {
	client *mongo.Client
}

// Dial opens a connection to the caller-supplied connection string and
// verifies it with a ping. The caller owns the returned Conn and must close
// it.
func Dial(ctx context.Context, uri string) (proxy.Conn, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		// Connect succeeded locally but the server is unreachable; release
		// the client before reporting.
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return &conn{client: client}, nil
}

func (c *conn) Collection(database, name string) proxy.Collection {
	return &collection{coll: c.client.Database(database).Collection(name)}
}

func (c *conn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

type collection struct {
	coll *mongo.Collection
}

func (c *collection) Find(ctx context.Context, filter interface{}, opts proxy.FindOptions) ([]interface{}, error) {
	findOpts := options.Find()
	if opts.Limit != nil {
		findOpts.SetLimit(*opts.Limit)
	}
	if opts.Skip != nil {
		findOpts.SetSkip(*opts.Skip)
	}
	if opts.Sort != nil {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	cursor, err := c.coll.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return materialize(ctx, cursor)
}

func (c *collection) FindOne(ctx context.Context, filter interface{}, opts proxy.FindOptions) (interface{}, error) {
	findOpts := options.FindOne()
	if opts.Skip != nil {
		findOpts.SetSkip(*opts.Skip)
	}
	if opts.Sort != nil {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	var doc bson.M
	err := c.coll.FindOne(ctx, filter, findOpts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// No match is a valid outcome, not a failure.
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *collection) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	return c.coll.InsertOne(ctx, document)
}

func (c *collection) InsertMany(ctx context.Context, documents []interface{}, ordered *bool) (interface{}, error) {
	insertOpts := options.InsertMany()
	if ordered != nil {
		insertOpts.SetOrdered(*ordered)
	}
	return c.coll.InsertMany(ctx, documents, insertOpts)
}

func (c *collection) UpdateOne(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error) {
	updateOpts := options.Update()
	if upsert != nil {
		updateOpts.SetUpsert(*upsert)
	}
	return c.coll.UpdateOne(ctx, filter, update, updateOpts)
}

func (c *collection) UpdateMany(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error) {
	updateOpts := options.Update()
	if upsert != nil {
		updateOpts.SetUpsert(*upsert)
	}
	return c.coll.UpdateMany(ctx, filter, update, updateOpts)
}

func (c *collection) DeleteOne(ctx context.Context, filter interface{}) (interface{}, error) {
	return c.coll.DeleteOne(ctx, filter)
}

func (c *collection) DeleteMany(ctx context.Context, filter interface{}) (interface{}, error) {
	return c.coll.DeleteMany(ctx, filter)
}

func (c *collection) CountDocuments(ctx context.Context, filter interface{}, opts proxy.CountOptions) (int64, error) {
	countOpts := options.Count()
	if opts.Limit != nil {
		countOpts.SetLimit(*opts.Limit)
	}
	if opts.Skip != nil {
		countOpts.SetSkip(*opts.Skip)
	}
	return c.coll.CountDocuments(ctx, filter, countOpts)
}

func (c *collection) Aggregate(ctx context.Context, pipeline []interface{}, allowDiskUse *bool) ([]interface{}, error) {
	aggOpts := options.Aggregate()
	if allowDiskUse != nil {
		aggOpts.SetAllowDiskUse(*allowDiskUse)
	}

	cursor, err := c.coll.Aggregate(ctx, pipeline, aggOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	return materialize(ctx, cursor)
}

// materialize drains a cursor into a finite slice so callers never see a
// lazy result. An empty result is an empty slice, not nil, so it encodes as
// a JSON array.
func materialize(ctx context.Context, cursor *mongo.Cursor) ([]interface{}, error) {
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]interface{}, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc)
	}
	return out, nil
}
