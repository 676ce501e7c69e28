package factory

import (
	"net/url"

	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/memory"
	"github.com/bsv-blockchain/chainstate/ulogger"
)

func init() {
	availableDatabases["memory"] = func(logger ulogger.Logger, _ *url.URL, _ *settings.Settings) (blockchain.Store, error) {
		return memory.New(logger), nil
	}
}
