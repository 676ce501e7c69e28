// Package sql implements blockchain.Store on postgres or sqlite. Each
// blockchain.Transaction is one database transaction, and the output tables
// live in the same database so block and output changes commit together.
package sql

import (
	"context"
	"net/url"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/blockchain"
	utxosql "github.com/bsv-blockchain/chainstate/stores/utxo/sql"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/chainstate/util"
	"github.com/bsv-blockchain/chainstate/util/usql"
)

type SQL struct {
	db     *usql.DB
	engine util.SQLEngine
	logger ulogger.Logger
}

func New(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (*SQL, error) {
	logger = logger.New("bcsql")

	db, err := util.InitSQLDB(logger, storeURL, tSettings)
	if err != nil {
		return nil, errors.NewStorageError("failed to init sql db", err)
	}

	engine := util.SQLEngine(storeURL.Scheme)

	if err = createSchema(context.Background(), db, engine); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQL{
		db:     db,
		engine: engine,
		logger: logger,
	}, nil
}

func (s *SQL) GetDB() *usql.DB {
	return s.db
}

func (s *SQL) GetDBEngine() util.SQLEngine {
	return s.engine
}

func (s *SQL) Close() error {
	return s.db.Close()
}

func (s *SQL) Begin(ctx context.Context) (blockchain.Transaction, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.NewStorageError("could not begin transaction", err)
	}

	return &transaction{
		Store:  utxosql.New(tx),
		tx:     tx,
		logger: s.logger,
	}, nil
}

func createSchema(ctx context.Context, db *usql.DB, engine util.SQLEngine) error {
	var blob string

	switch engine {
	case util.Postgres:
		blob = "BYTEA"
	case util.Sqlite, util.SqliteMemory:
		blob = "BLOB"
	default:
		return errors.NewConfigurationError("unknown database engine: %s", engine)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS blocks (
		  hash                  ` + blob + ` PRIMARY KEY
		 ,prev_hash             ` + blob + ` NOT NULL
		 ,header                ` + blob + ` NOT NULL
		 ,height                BIGINT NOT NULL
		 ,total_work            ` + blob + ` NOT NULL
		 ,has_content           BOOLEAN NOT NULL DEFAULT FALSE
		 ,in_best_header_chain  BOOLEAN NOT NULL DEFAULT FALSE
		 ,in_best_block_chain   BOOLEAN NOT NULL DEFAULT FALSE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_prev_hash ON blocks (prev_hash);`,
		`CREATE INDEX IF NOT EXISTS idx_blocks_height ON blocks (height);`,
		`CREATE TABLE IF NOT EXISTS block_contents (
		  hash     ` + blob + ` PRIMARY KEY REFERENCES blocks (hash)
		 ,content  ` + blob + ` NOT NULL
		);`,
	}

	for _, statement := range statements {
		if _, err := db.ExecContext(ctx, statement); err != nil {
			return errors.NewStorageError("could not create blocks tables", err)
		}
	}

	return utxosql.CreateSchema(ctx, db, engine)
}
