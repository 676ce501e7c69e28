package factory

import (
	"net/url"

	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/sql"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/chainstate/util"
)

func init() {
	for _, engine := range []util.SQLEngine{util.Postgres, util.Sqlite, util.SqliteMemory} {
		availableDatabases[string(engine)] = func(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (blockchain.Store, error) {
			return sql.New(logger, storeURL, tSettings)
		}
	}
}
