package settings

import (
	"net/url"
	"time"

	"github.com/bsv-blockchain/chainstate/chaincfg"
)

type Settings struct {
	LogLevel       string
	PrettyLogs     bool
	DataFolder     string
	ChainCfgParams *chaincfg.Params
	BlockChain     BlockChainSettings
	Postgres       PostgresSettings
	Prometheus     PrometheusSettings
}

type BlockChainSettings struct {
	StoreURL        *url.URL
	CacheTTLSeconds int
	CacheSize       int
	HeaderBatchSize int
	VerifyScripts   bool
	MaxBlockSize    int
}

// CacheTTL is CacheTTLSeconds as a duration; zero or negative disables expiry.
func (b BlockChainSettings) CacheTTL() time.Duration {
	if b.CacheTTLSeconds <= 0 {
		return 0
	}

	return time.Duration(b.CacheTTLSeconds) * time.Second
}

type PostgresSettings struct {
	MaxIdleConns int
	MaxOpenConns int
}

type PrometheusSettings struct {
	ListenAddress string
}
