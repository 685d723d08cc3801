package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	customerrors "ivr-report/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoDoc struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

// Mongo keeps one document per key in a single collection.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongo(ctx context.Context, uri, database, collection string) (*Mongo, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	return &Mongo{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (m *Mongo) Get(ctx context.Context, key string) ([]byte, error) {
	var doc mongoDoc
	err := m.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", customerrors.ErrKeyNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find %s: %w", key, err)
	}
	return []byte(doc.Value), nil
}

func (m *Mongo) Put(ctx context.Context, key string, value []byte) error {
	doc := mongoDoc{Key: key, Value: string(value), UpdatedAt: time.Now().UTC()}
	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert %s: %w", key, err)
	}
	return nil
}

func (m *Mongo) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
