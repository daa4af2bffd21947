package proxy

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Operation names accepted by the proxy. Matching is case-sensitive.
const (
	OpFind           = "find"
	OpFindOne        = "findOne"
	OpInsertOne      = "insertOne"
	OpInsertMany     = "insertMany"
	OpUpdateOne      = "updateOne"
	OpUpdateMany     = "updateMany"
	OpDeleteOne      = "deleteOne"
	OpDeleteMany     = "deleteMany"
	OpCountDocuments = "countDocuments"
	OpAggregate      = "aggregate"
)

// Request describes exactly one operation against one collection of an
// external MongoDB reachable at TargetURI.
//
// Payload fields are raw JSON so that an absent field is distinguishable
// from a present-but-falsy one (insertOne must accept null/false/0 documents
// but reject a missing "document" field).
type Request struct {
	TargetURI      string `json:"targetUri"`
	Operation      string `json:"operation"`
	CollectionName string `json:"collectionName"`
	DatabaseName   string `json:"databaseName,omitempty"`

	Query     json.RawMessage `json:"query,omitempty"`
	Document  json.RawMessage `json:"document,omitempty"`
	Documents json.RawMessage `json:"documents,omitempty"`
	Update    json.RawMessage `json:"update,omitempty"`
	Options   json.RawMessage `json:"options,omitempty"`
}

// ErrBadRequest classifies failures caused by the caller's input. The HTTP
// layer maps anything wrapping it to a 400; everything else surfaced by
// Execute is a downstream (500) failure.
var ErrBadRequest = errors.New("bad request")

func badRequestf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrBadRequest}, args...)...)
}

// BadRequestMessage strips the ErrBadRequest prefix from err for use as a
// caller-facing message. Returns the full error text if err is not a
// bad-request error.
func BadRequestMessage(err error) string {
	msg := err.Error()
	prefix := ErrBadRequest.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
