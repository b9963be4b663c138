package configstore

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MockConfigStore is an in-memory ConfigStore. Filters are bson.M equality matches on
// top-level fields and updates support "$set" only. Documents keep insertion order.
type MockConfigStore struct {
	mu          sync.Mutex
	collections map[string][]bson.M
	nextID      int
}

func NewMockConfigStore() *MockConfigStore {
	return &MockConfigStore{collections: make(map[string][]bson.M)}
}

func toM(v interface{}) (bson.M, error) {
	if v == nil {
		return bson.M{}, nil
	}
	if m, ok := v.(bson.M); ok {
		return m, nil
	}
	data, err := bson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func decode(doc bson.M, out interface{}) error {
	data, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, out)
}

func matches(doc, filter bson.M) bool {
	for k, v := range filter {
		if !reflect.DeepEqual(doc[k], v) {
			return false
		}
	}
	return true
}

func (m *MockConfigStore) InsertOne(ctx context.Context, collection string, document interface{}) (interface{}, error) {
	doc, err := toM(document)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := doc["_id"]; !ok {
		m.nextID++
		doc["_id"] = fmt.Sprintf("mock-%d", m.nextID)
	}
	m.collections[collection] = append(m.collections[collection], doc)
	return doc["_id"], nil
}

func (m *MockConfigStore) FindOne(ctx context.Context, collection string, filter interface{}, result interface{}) error {
	f, err := toM(filter)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.collections[collection] {
		if matches(doc, f) {
			return decode(doc, result)
		}
	}
	return mongo.ErrNoDocuments
}

// FindMany decodes matching documents into results, which must point to a slice
func (m *MockConfigStore) FindMany(ctx context.Context, collection string, filter interface{}, results interface{}) error {
	rv := reflect.ValueOf(results)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return errors.New("results must be a pointer to a slice")
	}
	f, err := toM(filter)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	slice := reflect.MakeSlice(rv.Elem().Type(), 0, len(m.collections[collection]))
	for _, doc := range m.collections[collection] {
		if !matches(doc, f) {
			continue
		}
		elem := reflect.New(rv.Elem().Type().Elem())
		if err := decode(doc, elem.Interface()); err != nil {
			return err
		}
		slice = reflect.Append(slice, elem.Elem())
	}
	rv.Elem().Set(slice)
	return nil
}

func (m *MockConfigStore) UpsertOne(ctx context.Context, collection string, filter interface{}, update interface{}) error {
	f, err := toM(filter)
	if err != nil {
		return err
	}
	u, err := toM(update)
	if err != nil {
		return err
	}
	set, err := toM(u["$set"])
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.collections[collection] {
		if matches(doc, f) {
			for k, v := range set {
				doc[k] = v
			}
			return nil
		}
	}

	doc := bson.M{}
	for k, v := range f {
		doc[k] = v
	}
	for k, v := range set {
		doc[k] = v
	}
	m.nextID++
	doc["_id"] = fmt.Sprintf("mock-%d", m.nextID)
	m.collections[collection] = append(m.collections[collection], doc)
	return nil
}

func (m *MockConfigStore) CountDocuments(ctx context.Context, collection string, filter interface{}) (int64, error) {
	f, err := toM(filter)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, doc := range m.collections[collection] {
		if matches(doc, f) {
			n++
		}
	}
	return n, nil
}

func (m *MockConfigStore) Close() error { return nil }
