package proxy

import (
	"context"
	"log/slog"
	"time"
)

// Collection is the slice of the driver surface the proxy dispatches into.
// Implemented by the mongo adapter; mocked in tests.
type Collection interface {
	Find(ctx context.Context, filter interface{}, opts FindOptions) ([]interface{}, error)
	FindOne(ctx context.Context, filter interface{}, opts FindOptions) (interface{}, error)
	InsertOne(ctx context.Context, document interface{}) (interface{}, error)
	InsertMany(ctx context.Context, documents []interface{}, ordered *bool) (interface{}, error)
	UpdateOne(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error)
	UpdateMany(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error)
	DeleteOne(ctx context.Context, filter interface{}) (interface{}, error)
	DeleteMany(ctx context.Context, filter interface{}) (interface{}, error)
	CountDocuments(ctx context.Context, filter interface{}, opts CountOptions) (int64, error)
	Aggregate(ctx context.Context, pipeline []interface{}, allowDiskUse *bool) ([]interface{}, error)
}

// Conn is one ephemeral connection to a caller-supplied MongoDB instance.
type Conn interface {
	Collection(database, name string) Collection
	Close(ctx context.Context) error
}

// Dialer opens a connection to the given connection string.
type Dialer func(ctx context.Context, uri string) (Conn, error)

// Service executes one proxied operation end to end.
type Service interface {
	Execute(ctx context.Context, req *Request, database string) (interface{}, error)
}

type service struct {
	dial           Dialer
	connectTimeout time.Duration
}

// NewService returns a Service that dials a fresh connection per request and
// guarantees it is released on every exit path.
func NewService(dial Dialer, connectTimeout time.Duration) Service {
	return &service{dial: dial, connectTimeout: connectTimeout}
}

// Execute resolves the operation, validates its payload, opens exactly one
// connection, runs the operation and closes the connection before returning.
// No connection is opened unless the whole request validated; once opened it
// is released on every exit path.
func (s *service) Execute(ctx context.Context, req *Request, database string) (interface{}, error) {
	op, ok := operations[req.Operation]
	if !ok {
		return nil, badRequestf("Unsupported operation: %s", req.Operation)
	}

	if err := op.validate(req); err != nil {
		return nil, err
	}

	dialCtx := ctx
	if s.connectTimeout > 0 {
		var cancel context.CancelFunc
		dialCtx, cancel = context.WithTimeout(ctx, s.connectTimeout)
		defer cancel()
	}

	conn, err := s.dial(dialCtx, req.TargetURI)
	if err != nil {
		return nil, err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := conn.Close(closeCtx); err != nil {
			slog.Warn("Failed to close proxied connection", "error", err)
		}
	}()

	return op.run(ctx, conn.Collection(database, req.CollectionName), req)
}
