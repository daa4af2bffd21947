package api

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mongorelay/internal/proxy"
)

// stubCollection drives the real proxy service without a live MongoDB.
type stubCollection struct {
	findResult []interface{}
	insertErr  error
}

func (s *stubCollection) Find(ctx context.Context, filter interface{}, opts proxy.FindOptions) ([]interface{}, error) {
	return s.findResult, nil
}

func (s *stubCollection) FindOne(ctx context.Context, filter interface{}, opts proxy.FindOptions) (interface{}, error) {
	return nil, nil
}

func (s *stubCollection) InsertOne(ctx context.Context, document interface{}) (interface{}, error) {
	return nil, s.insertErr
}

func (s *stubCollection) InsertMany(ctx context.Context, documents []interface{}, ordered *bool) (interface{}, error) {
	return nil, nil
}

func (s *stubCollection) UpdateOne(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error) {
	return nil, nil
}

func (s *stubCollection) UpdateMany(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error) {
	return nil, nil
}

func (s *stubCollection) DeleteOne(ctx context.Context, filter interface{}) (interface{}, error) {
	return nil, nil
}

func (s *stubCollection) DeleteMany(ctx context.Context, filter interface{}) (interface{}, error) {
	return nil, nil
}

func (s *stubCollection) CountDocuments(ctx context.Context, filter interface{}, opts proxy.CountOptions) (int64, error) {
	return 0, nil
}

func (s *stubCollection) Aggregate(ctx context.Context, pipeline []interface{}, allowDiskUse *bool) ([]interface{}, error) {
	return []interface{}{}, nil
}

type stubConn struct {
	coll   *stubCollection
	closes int
}

func (s *stubConn) Collection(database, name string) proxy.Collection { return s.coll }

func (s *stubConn) Close(ctx context.Context) error {
	s.closes++
	return nil
}

func flowServer(conn *stubConn, dials *int, production bool) *Server {
	dial := func(ctx context.Context, uri string) (proxy.Conn, error) {
		*dials++
		return conn, nil
	}
	return NewServer(proxy.NewService(dial, 0), Options{Production: production})
}

func TestFlow_UnsupportedOperation(t *testing.T) {
	conn := &stubConn{coll: &stubCollection{}}
	dials := 0
	server := flowServer(conn, &dials, false)

	rr := postProxy(t, server, `{"targetUri":"mongodb://host/db","operation":"bogus","collectionName":"c"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	resp := decodeResponse(t, rr)
	assert.Contains(t, resp["error"], "bogus")
	assert.Equal(t, 0, dials)
}

func TestFlow_InsertOneMissingDocument_NoConnection(t *testing.T) {
	conn := &stubConn{coll: &stubCollection{}}
	dials := 0
	server := flowServer(conn, &dials, false)

	rr := postProxy(t, server, `{"targetUri":"mongodb://host/db","operation":"insertOne","collectionName":"c"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 0, dials)
	assert.Equal(t, 0, conn.closes)
}

func TestFlow_FindReturnsArrayAndClosesOnce(t *testing.T) {
	conn := &stubConn{coll: &stubCollection{findResult: []interface{}{}}}
	dials := 0
	server := flowServer(conn, &dials, false)

	rr := postProxy(t, server, `{"targetUri":"mongodb://host/db","operation":"find","collectionName":"c"}`)

	assert.Equal(t, http.StatusOK, rr.Code)
	resp := decodeResponse(t, rr)
	data, ok := resp["data"].([]interface{})
	require.True(t, ok, "empty find must still produce a JSON array")
	assert.Empty(t, data)
	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, conn.closes)
}

func TestFlow_DriverErrorClosesOnce(t *testing.T) {
	conn := &stubConn{coll: &stubCollection{insertErr: errors.New("duplicate key")}}
	dials := 0
	server := flowServer(conn, &dials, false)

	rr := postProxy(t, server, `{"targetUri":"mongodb://host/db","operation":"insertOne","collectionName":"c","document":{"_id":1}}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, 1, dials)
	assert.Equal(t, 1, conn.closes)
}
