package sql

import (
	"context"
	"net/url"
	"testing"

	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/utxo/tests"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/chainstate/util"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	storeURL, err := url.Parse("sqlitememory:///utxo")
	require.NoError(t, err)

	db, err := util.InitSQLDB(ulogger.TestLogger{}, storeURL, &settings.Settings{})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = db.Close()
	})

	require.NoError(t, CreateSchema(context.Background(), db, util.SqliteMemory))

	return New(db)
}

func TestSQL(t *testing.T) {
	t.Run("add and find", func(t *testing.T) {
		tests.AddAndFind(t, newTestStore(t))
	})

	t.Run("remove", func(t *testing.T) {
		tests.Remove(t, newTestStore(t))
	})

	t.Run("spent outputs", func(t *testing.T) {
		tests.SpentOutputs(t, newTestStore(t))
	})

	t.Run("schema is idempotent", func(t *testing.T) {
		store := newTestStore(t)
		require.NoError(t, CreateSchema(context.Background(), store.db, util.SqliteMemory))
	})
}
