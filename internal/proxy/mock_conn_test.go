package proxy

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockCollection is a mock implementation of Collection
type MockCollection struct {
	mock.Mock
}

func (m *MockCollection) Find(ctx context.Context, filter interface{}, opts FindOptions) ([]interface{}, error) {
	args := m.Called(ctx, filter, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interface{}), args.Error(1)
}

func (m *MockCollection) FindOne(ctx context.Context, filter interface{}, opts FindOptions) (interface{}, error) {
	args := m.Called(ctx, filter, opts)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	args := m.Called(ctx, document)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) InsertMany(ctx context.Context, documents []interface{}, ordered *bool) (interface{}, error) {
	args := m.Called(ctx, documents, ordered)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) UpdateOne(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error) {
	args := m.Called(ctx, filter, update, upsert)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) UpdateMany(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error) {
	args := m.Called(ctx, filter, update, upsert)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) DeleteOne(ctx context.Context, filter interface{}) (interface{}, error) {
	args := m.Called(ctx, filter)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) DeleteMany(ctx context.Context, filter interface{}) (interface{}, error) {
	args := m.Called(ctx, filter)
	return args.Get(0), args.Error(1)
}

func (m *MockCollection) CountDocuments(ctx context.Context, filter interface{}, opts CountOptions) (int64, error) {
	args := m.Called(ctx, filter, opts)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCollection) Aggregate(ctx context.Context, pipeline []interface{}, allowDiskUse *bool) ([]interface{}, error) {
	args := m.Called(ctx, pipeline, allowDiskUse)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interface{}), args.Error(1)
}

// MockConn is a mock implementation of Conn
type MockConn struct {
	mock.Mock
}

func (m *MockConn) Collection(database, name string) Collection {
	args := m.Called(database, name)
	return args.Get(0).(Collection)
}

func (m *MockConn) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// mockDialer returns a Dialer handing out conn, counting dials.
func mockDialer(conn Conn, dials *int) Dialer {
	return func(ctx context.Context, uri string) (Conn, error) {
		*dials++
		return conn, nil
	}
}
