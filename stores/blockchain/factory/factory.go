// Package factory opens a blockchain.Store from its URL. Backends register
// their schemes in init.
package factory

import (
	"net/url"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

var availableDatabases = map[string]func(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (blockchain.Store, error){}

func NewStore(logger ulogger.Logger, storeURL *url.URL, tSettings *settings.Settings) (blockchain.Store, error) {
	if storeURL == nil {
		return nil, errors.NewConfigurationError("no blockchain store url configured")
	}

	dbInit, ok := availableDatabases[storeURL.Scheme]
	if !ok {
		return nil, errors.NewConfigurationError("unknown scheme: %s", storeURL.Scheme)
	}

	logger.Infof("[BlockchainStore] opening %s store", storeURL.Scheme)

	return dbInit(logger, storeURL, tSettings)
}
