package proxy

import (
	"context"
	"encoding/json"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// FindOptions is the caller-tunable subset of driver find options.
type FindOptions struct {
	Limit      *int64 `json:"limit,omitempty"`
	Skip       *int64 `json:"skip,omitempty"`
	Sort       bson.M `json:"sort,omitempty"`
	Projection bson.M `json:"projection,omitempty"`
}

// CountOptions is the caller-tunable subset of driver count options.
type CountOptions struct {
	Limit *int64 `json:"limit,omitempty"`
	Skip  *int64 `json:"skip,omitempty"`
}

type extraOptions struct {
	Ordered      *bool `json:"ordered,omitempty"`
	Upsert       *bool `json:"upsert,omitempty"`
	AllowDiskUse *bool `json:"allowDiskUse,omitempty"`
}

// operation pairs a payload predicate with the driver call it guards.
// validate runs before any connection is dialed.
type operation struct {
	validate func(req *Request) error
	run      func(ctx context.Context, coll Collection, req *Request) (interface{}, error)
}

var operations = map[string]operation{
	OpFind: {
		validate: noValidation,
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			filter, err := decodeFilter(req.Query)
			if err != nil {
				return nil, err
			}
			opts, err := decodeFindOptions(req.Options)
			if err != nil {
				return nil, err
			}
			return coll.Find(ctx, filter, opts)
		},
	},
	OpFindOne: {
		validate: noValidation,
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			filter, err := decodeFilter(req.Query)
			if err != nil {
				return nil, err
			}
			opts, err := decodeFindOptions(req.Options)
			if err != nil {
				return nil, err
			}
			return coll.FindOne(ctx, filter, opts)
		},
	},
	OpInsertOne: {
		validate: func(req *Request) error {
			if req.Document == nil {
				return badRequestf("insertOne requires a document field")
			}
			return nil
		},
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			var doc interface{}
			if err := json.Unmarshal(req.Document, &doc); err != nil {
				return nil, badRequestf("document is not valid JSON: %v", err)
			}
			return coll.InsertOne(ctx, doc)
		},
	},
	OpInsertMany: {
		validate: func(req *Request) error {
			if req.Documents == nil {
				return badRequestf("insertMany requires a documents array")
			}
			if _, err := decodeArray(req.Documents, "documents"); err != nil {
				return err
			}
			return nil
		},
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			docs, err := decodeArray(req.Documents, "documents")
			if err != nil {
				return nil, err
			}
			extra, err := decodeExtraOptions(req.Options)
			if err != nil {
				return nil, err
			}
			return coll.InsertMany(ctx, docs, extra.Ordered)
		},
	},
	OpUpdateOne: {
		validate: requireQueryAndUpdate("updateOne"),
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			return runUpdate(ctx, coll.UpdateOne, req)
		},
	},
	OpUpdateMany: {
		validate: requireQueryAndUpdate("updateMany"),
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			return runUpdate(ctx, coll.UpdateMany, req)
		},
	},
	OpDeleteOne: {
		validate: requireQuery("deleteOne"),
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			filter, err := decodeFilter(req.Query)
			if err != nil {
				return nil, err
			}
			return coll.DeleteOne(ctx, filter)
		},
	},
	OpDeleteMany: {
		validate: requireQuery("deleteMany"),
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			filter, err := decodeFilter(req.Query)
			if err != nil {
				return nil, err
			}
			return coll.DeleteMany(ctx, filter)
		},
	},
	OpCountDocuments: {
		validate: noValidation,
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			filter, err := decodeFilter(req.Query)
			if err != nil {
				return nil, err
			}
			var opts CountOptions
			if req.Options != nil {
				if err := json.Unmarshal(req.Options, &opts); err != nil {
					return nil, badRequestf("options is not a valid object: %v", err)
				}
			}
			return coll.CountDocuments(ctx, filter, opts)
		},
	},
	OpAggregate: {
		validate: func(req *Request) error {
			if req.Query == nil {
				return badRequestf("aggregate requires query to be a pipeline array")
			}
			if _, err := decodeArray(req.Query, "query"); err != nil {
				return badRequestf("aggregate requires query to be a pipeline array")
			}
			return nil
		},
		run: func(ctx context.Context, coll Collection, req *Request) (interface{}, error) {
			pipeline, err := decodeArray(req.Query, "query")
			if err != nil {
				return nil, err
			}
			extra, err := decodeExtraOptions(req.Options)
			if err != nil {
				return nil, err
			}
			return coll.Aggregate(ctx, pipeline, extra.AllowDiskUse)
		},
	},
}

func noValidation(*Request) error { return nil }

func requireQuery(op string) func(*Request) error {
	return func(req *Request) error {
		if req.Query == nil {
			return badRequestf("%s requires a query field", op)
		}
		return nil
	}
}

func requireQueryAndUpdate(op string) func(*Request) error {
	return func(req *Request) error {
		var missing []string
		if req.Query == nil {
			missing = append(missing, "query")
		}
		if req.Update == nil {
			missing = append(missing, "update")
		}
		if len(missing) > 0 {
			return badRequestf("%s requires %s", op, strings.Join(missing, " and "))
		}
		return nil
	}
}

type updateFunc func(ctx context.Context, filter, update interface{}, upsert *bool) (interface{}, error)

func runUpdate(ctx context.Context, fn updateFunc, req *Request) (interface{}, error) {
	filter, err := decodeFilter(req.Query)
	if err != nil {
		return nil, err
	}
	var update interface{}
	if err := json.Unmarshal(req.Update, &update); err != nil {
		return nil, badRequestf("update is not valid JSON: %v", err)
	}
	extra, err := decodeExtraOptions(req.Options)
	if err != nil {
		return nil, err
	}
	return fn(ctx, filter, update, extra.Upsert)
}

// decodeFilter turns an optional query payload into a driver filter.
// A missing query defaults to the match-everything filter.
func decodeFilter(raw json.RawMessage) (interface{}, error) {
	if raw == nil {
		return bson.M{}, nil
	}
	var filter map[string]interface{}
	if err := json.Unmarshal(raw, &filter); err != nil {
		return nil, badRequestf("query must be an object: %v", err)
	}
	if filter == nil {
		return bson.M{}, nil
	}
	return filter, nil
}

func decodeArray(raw json.RawMessage, field string) ([]interface{}, error) {
	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, badRequestf("%s is not valid JSON: %v", field, err)
	}
	arr, ok := value.([]interface{})
	if !ok {
		return nil, badRequestf("%s must be an array", field)
	}
	return arr, nil
}

func decodeFindOptions(raw json.RawMessage) (FindOptions, error) {
	var opts FindOptions
	if raw == nil {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, badRequestf("options is not a valid object: %v", err)
	}
	return opts, nil
}

func decodeExtraOptions(raw json.RawMessage) (extraOptions, error) {
	var opts extraOptions
	if raw == nil {
		return opts, nil
	}
	if err := json.Unmarshal(raw, &opts); err != nil {
		return opts, badRequestf("options is not a valid object: %v", err)
	}
	return opts, nil
}
