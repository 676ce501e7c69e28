package settings

import (
	"github.com/bsv-blockchain/chainstate/chaincfg"
)

// NewSettings reads every setting from gocore.Config(), falling back to the defaults below.
func NewSettings() *Settings {
	params, err := chaincfg.GetChainParams(getString("network", "mainnet"))
	if err != nil {
		panic(err)
	}

	return &Settings{
		LogLevel:       getString("logLevel", "INFO"),
		PrettyLogs:     getBool("PRETTY_LOGS", true),
		DataFolder:     getString("dataFolder", "data"),
		ChainCfgParams: params,
		BlockChain: BlockChainSettings{
			StoreURL:        getURL("blockchain_store", "sqlite:///blockchain"),
			CacheTTLSeconds: getInt("blockchain_cacheTTL", 600),
			CacheSize:       getInt("blockchain_cacheSize", 10_000),
			HeaderBatchSize: getInt("blockchain_headerBatchSize", 2_000),
			VerifyScripts:   getBool("blockchain_verifyScripts", true),
			MaxBlockSize:    getInt("blockchain_maxBlockSize", 32_000_000),
		},
		Postgres: PostgresSettings{
			MaxIdleConns: getInt("postgres_maxIdleConns", 10),
			MaxOpenConns: getInt("postgres_maxOpenConns", 80),
		},
		Prometheus: PrometheusSettings{
			ListenAddress: getString("prometheus_listenAddress", ""),
		},
	}
}
