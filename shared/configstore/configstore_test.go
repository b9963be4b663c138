package configstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type testAccountDoc struct {
	Email string `bson:"email"`
	Role  string `bson:"role"`
}

const testColl = "test_accounts"

func storeUnderTest(t *testing.T) ConfigStore {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "mock" {
		return NewMockConfigStore()
	}
	store, err := NewMongoConfigStore(context.Background(), uri, "authsmoke_test")
	if err != nil {
		t.Skipf("MongoDB connection failed: %v", err)
	}
	return store
}

func TestConfigStoreRoundTrip(t *testing.T) {
	store := storeUnderTest(t)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.UpsertOne(ctx, testColl, bson.M{"email": "a@test.com"}, bson.M{"$set": testAccountDoc{Email: "a@test.com", Role: "ADMIN"}}))
	require.NoError(t, store.UpsertOne(ctx, testColl, bson.M{"email": "b@test.com"}, bson.M{"$set": testAccountDoc{Email: "b@test.com", Role: "VIP"}}))

	var got testAccountDoc
	require.NoError(t, store.FindOne(ctx, testColl, bson.M{"email": "b@test.com"}, &got))
	require.Equal(t, "VIP", got.Role)

	// second upsert updates in place
	require.NoError(t, store.UpsertOne(ctx, testColl, bson.M{"email": "a@test.com"}, bson.M{"$set": bson.M{"role": "SUPER_ADMIN"}}))

	count, err := store.CountDocuments(ctx, testColl, bson.M{})
	require.NoError(t, err)
	require.Equal(t, int64(2), count)

	var many []testAccountDoc
	require.NoError(t, store.FindMany(ctx, testColl, bson.M{"email": "a@test.com"}, &many))
	require.Len(t, many, 1)
	require.Equal(t, "SUPER_ADMIN", many[0].Role)
}

func TestMockConfigStoreEdgeCases(t *testing.T) {
	store := NewMockConfigStore()
	ctx := context.Background()

	var missing testAccountDoc
	err := store.FindOne(ctx, testColl, bson.M{"email": "nobody@test.com"}, &missing)
	require.ErrorIs(t, err, mongo.ErrNoDocuments)

	count, err := store.CountDocuments(ctx, testColl, bson.M{})
	require.NoError(t, err)
	require.Zero(t, count)

	for _, e := range []string{"c@test.com", "a@test.com", "b@test.com"} {
		id, err := store.InsertOne(ctx, testColl, testAccountDoc{Email: e, Role: "MEMBER"})
		require.NoError(t, err)
		require.NotNil(t, id)
	}

	var all []testAccountDoc
	require.NoError(t, store.FindMany(ctx, testColl, nil, &all))
	require.Equal(t, []string{"c@test.com", "a@test.com", "b@test.com"}, []string{all[0].Email, all[1].Email, all[2].Email})

	var notSlice testAccountDoc
	require.Error(t, store.FindMany(ctx, testColl, bson.M{}, &notSlice))
	require.NoError(t, store.Close())
}
