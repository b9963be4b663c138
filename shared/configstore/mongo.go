package configstore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const connectTimeout = 10 * time.Second

type MongoConfigStore struct {
	client *mongo.Client
	dbName string
}

// NewMongoConfigStore connects to uri and pings the server before returning
func NewMongoConfigStore(ctx context.Context, uri, dbName string) (ConfigStore, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return &MongoConfigStore{client: client, dbName: dbName}, nil
}

func (m *MongoConfigStore) collection(name string) *mongo.Collection {
	return m.client.Database(m.dbName).Collection(name)
}

func (m *MongoConfigStore) InsertOne(ctx context.Context, collection string, document interface{}) (interface{}, error) {
	res, err := m.collection(collection).InsertOne(ctx, document)
	if err != nil {
		return nil, err
	}
	return res.InsertedID, nil
}

func (m *MongoConfigStore) FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error {
	return m.collection(collection).FindOne(ctx, filter).Decode(result)
}

// FindMany decodes every matching document into results, in natural order
func (m *MongoConfigStore) FindMany(ctx context.Context, collection string, filter interface{}, results interface{}) error {
	cursor, err := m.collection(collection).Find(ctx, filter)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, results)
}

// UpsertOne applies update to the first document matching filter, inserting it when none does
func (m *MongoConfigStore) UpsertOne(ctx context.Context, collection string, filter interface{}, update interface{}) error {
	_, err := m.collection(collection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

func (m *MongoConfigStore) CountDocuments(ctx context.Context, collection string, filter interface{}) (int64, error) {
	return m.collection(collection).CountDocuments(ctx, filter)
}

func (m *MongoConfigStore) Close() error {
	return m.client.Disconnect(context.Background())
}
