package content

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore maps each CMS collection to a Mongo collection of the same
// name inside the database named by the database id.
type MongoStore struct {
	client *mongodriver.Client
	db     *mongodriver.Database
}

// OpenMongo connects, pings and ensures the created_at index on every
// managed collection.
func OpenMongo(ctx context.Context, uri, databaseID string) (*MongoStore, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo: empty uri")
	}
	cli, err := mongodriver.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &MongoStore{client: cli, db: cli.Database(databaseID)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	for _, name := range ManagedCollections {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongodriver.IndexModel{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("created_desc"),
		})
		if err != nil {
			return fmt.Errorf("mongo ensure indexes on %s: %w", name, err)
		}
	}
	return nil
}

type mongoDocument struct {
	ID        string    `bson:"_id"`
	Fields    bson.M    `bson:"fields"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (m mongoDocument) document(collection string) Document {
	fields := make(Fields, len(m.Fields))
	for k, v := range m.Fields {
		fields[k] = plain(v)
	}
	return Document{
		ID:         m.ID,
		Collection: collection,
		Fields:     fields,
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
}

// plain converts driver container types into maps and slices that
// encoding/json renders as objects and arrays.
func plain(v any) any {
	switch x := v.(type) {
	case bson.M:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = plain(vv)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(x))
		for _, e := range x {
			out[e.Key] = plain(e.Value)
		}
		return out
	case bson.A:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = plain(vv)
		}
		return out
	case primitive.DateTime:
		return x.Time().UTC().Format(time.RFC3339Nano)
	default:
		return v
	}
}

// Mongo stores milliseconds.
func toMS(t time.Time) time.Time { return t.UTC().Truncate(time.Millisecond) }

func (s *MongoStore) List(ctx context.Context, collection string, order Order) (ListResult, error) {
	const op = "storage/mongo/List"
	if !order.valid() {
		return ListResult{}, ErrInvalidOrder
	}
	dir := 1
	if order.Desc {
		dir = -1
	}
	opts := options.Find().SetSort(bson.D{{Key: order.Field, Value: dir}, {Key: "_id", Value: dir}})
	cur, err := s.db.Collection(collection).Find(ctx, bson.D{}, opts)
	if err != nil {
		return ListResult{}, fmt.Errorf("%s: find: %w", op, err)
	}
	defer cur.Close(ctx)

	docs := []Document{}
	for cur.Next(ctx) {
		var m mongoDocument
		if err := cur.Decode(&m); err != nil {
			return ListResult{}, fmt.Errorf("%s: decode: %w", op, err)
		}
		docs = append(docs, m.document(collection))
	}
	if err := cur.Err(); err != nil {
		return ListResult{}, fmt.Errorf("%s: cursor: %w", op, err)
	}
	return ListResult{Total: len(docs), Documents: docs}, nil
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (Document, error) {
	const op = "storage/mongo/Get"
	var m mongoDocument
	if err := s.db.Collection(collection).FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&m); err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%s: %w", op, err)
	}
	return m.document(collection), nil
}

func (s *MongoStore) Create(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	const op = "storage/mongo/Create"
	now := toMS(time.Now())
	m := mongoDocument{ID: id, Fields: bson.M(cloneFields(fields)), CreatedAt: now, UpdatedAt: now}
	if _, err := s.db.Collection(collection).InsertOne(ctx, m); err != nil {
		return Document{}, fmt.Errorf("%s: insert: %w", op, err)
	}
	return m.document(collection), nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, fields Fields) (Document, error) {
	const op = "storage/mongo/Update"
	set := bson.D{{Key: "updated_at", Value: toMS(time.Now())}}
	for k, v := range fields {
		set = append(set, bson.E{Key: "fields." + k, Value: v})
	}

	var m mongoDocument
	err := s.db.Collection(collection).FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&m)
	if err != nil {
		if errors.Is(err, mongodriver.ErrNoDocuments) {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("%s: %w", op, err)
	}
	return m.document(collection), nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	const op = "storage/mongo/Delete"
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Store = (*MongoStore)(nil)
