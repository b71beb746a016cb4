package interaction

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoCloseTimeout = 5 * time.Second

// MongoStore appends interactions to a MongoDB collection.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	if uri == "" {
		return nil, errors.New("mongo uri is required")
	}
	if database == "" {
		return nil, errors.New("mongo database name is required")
	}
	if collection == "" {
		return nil, errors.New("mongo collection name is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	ms := &MongoStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}

	_, err = ms.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("timestamp"),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return ms, nil
}

func (ms *MongoStore) Append(ctx context.Context, in Interaction) error {
	if ms == nil || ms.collection == nil {
		return nil
	}
	_, err := ms.collection.InsertOne(ctx, toDocument(in))
	return err
}

func (ms *MongoStore) Recent(ctx context.Context, limit int) ([]Interaction, error) {
	if ms == nil || ms.collection == nil || limit <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(limit))
	cursor, err := ms.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []Interaction
	for cursor.Next(ctx) {
		var doc mongoInteraction
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toInteraction())
	}

	return out, cursor.Err()
}

// Close releases the underlying MongoDB client.
func (ms *MongoStore) Close() error {
	if ms == nil || ms.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoCloseTimeout)
	defer cancel()
	return ms.client.Disconnect(ctx)
}

type mongoInteraction struct {
	File      *FileSnapshot `bson:"file"`
	Query     string        `bson:"query"`
	Response  string        `bson:"response"`
	Timestamp time.Time     `bson:"timestamp"`
}

func toDocument(in Interaction) mongoInteraction {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return mongoInteraction{
		File:      in.File,
		Query:     in.Query,
		Response:  in.Response,
		Timestamp: ts.UTC(),
	}
}

func (doc mongoInteraction) toInteraction() Interaction {
	return Interaction{
		File:      doc.File,
		Query:     doc.Query,
		Response:  doc.Response,
		Timestamp: doc.Timestamp,
	}
}
