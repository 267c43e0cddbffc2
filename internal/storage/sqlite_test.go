package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parthgeek/tally/internal/taxonomy"
)

func setupStore(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestNewSQLiteStorageRejectsEmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.Error(t, err)
}

func TestMigrateIsIdempotent(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	version, err := store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)

	// Running again applies nothing and changes nothing.
	require.NoError(t, store.Migrate(ctx))
	version, err = store.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, ExpectedSchemaVersion, version)
}

func TestSeedCategoriesRoundTrip(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	seed := taxonomy.DefaultCategories()
	require.NoError(t, store.SeedCategories(ctx, seed))

	got, err := store.GetCategories(ctx)
	require.NoError(t, err)
	require.Len(t, got, len(seed))

	// The stored set must still satisfy the registry invariants and carry
	// attribute schemas through the round trip.
	registry, err := taxonomy.NewRegistry(got)
	require.NoError(t, err)

	travel, ok := registry.BySlug("travel")
	require.True(t, ok)
	require.Contains(t, travel.Attributes, "trip_purpose")
	assert.True(t, travel.Attributes["trip_purpose"].Required)

	software, ok := registry.BySlug("software-subscriptions")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"monthly", "annual"}, software.Attributes["billing_period"].Allowed)

	// Seeding again is a no-op thanks to INSERT OR IGNORE.
	require.NoError(t, store.SeedCategories(ctx, seed))
	again, err := store.GetCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, again, len(seed))
}
