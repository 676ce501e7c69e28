package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/script"
	"github.com/bsv-blockchain/chainstate/services/blockchain"
	"github.com/bsv-blockchain/chainstate/services/validator"
	"github.com/bsv-blockchain/chainstate/settings"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/factory"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/bscript"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

// pipelineDepth is how many parsed batches the reader may run ahead of the engine.
const pipelineDepth = 4

func newLogger(tSettings *settings.Settings) ulogger.Logger {
	return ulogger.New("chainstate", ulogger.WithLevel(tSettings.LogLevel), ulogger.WithPretty(tSettings.PrettyLogs))
}

func serveMetrics(c *cli.Context) error {
	address := c.String("metrics")
	if address == "" {
		address = settings.NewSettings().Prometheus.ListenAddress
	}

	if address == "" {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              address,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "chainstate: metrics server stopped: %v\n", err)
		}
	}()

	return nil
}

func openBlockchain(ctx context.Context) (*blockchain.Blockchain, ulogger.Logger, *settings.Settings, error) {
	tSettings := settings.NewSettings()
	logger := newLogger(tSettings)

	store, err := factory.NewStore(logger, tSettings.BlockChain.StoreURL, tSettings)
	if err != nil {
		return nil, nil, nil, err
	}

	b, err := blockchain.New(ctx, logger, tSettings, store)
	if err != nil {
		return nil, nil, nil, errors.Join(err, store.Close())
	}

	return b, logger, tSettings, nil
}

// closeBlockchain closes b, keeping the first of the action's error and the close error.
func closeBlockchain(b *blockchain.Blockchain, err *error) {
	*err = errors.Join(*err, b.Close())
}

func initAction(c *cli.Context) (err error) {
	b, _, _, err := openBlockchain(c.Context)
	if err != nil {
		return err
	}

	defer closeBlockchain(b, &err)

	printState(b.GetState())

	return nil
}

func statusAction(c *cli.Context) (err error) {
	b, _, tSettings, err := openBlockchain(c.Context)
	if err != nil {
		return err
	}

	defer closeBlockchain(b, &err)

	printState(b.GetState())

	missing, err := b.GetOldestBlocksWithoutContent(c.Context, 10)
	if err != nil {
		return err
	}

	fmt.Printf("network:      %s\n", tSettings.ChainCfgParams.Name)

	for _, block := range missing {
		fmt.Printf("no content:   %s\n", block)
	}

	return nil
}

func printState(state *model.BlockchainState) {
	fmt.Printf("best header:  %s\n", state.BestHeader())
	fmt.Printf("best chain:   %s\n", state.BestChain())
}

func headersAction(c *cli.Context) (err error) {
	f, err := openArg(c)
	if err != nil {
		return err
	}

	defer f.Close()

	b, logger, tSettings, err := openBlockchain(c.Context)
	if err != nil {
		return err
	}

	defer closeBlockchain(b, &err)

	batches := make(chan []*model.BlockHeader, pipelineDepth)

	g, ctx := errgroup.WithContext(c.Context)

	g.Go(func() error {
		defer close(batches)
		return readHeaders(ctx, f, tSettings.BlockChain.HeaderBatchSize, batches)
	})

	var added, unlinked int

	g.Go(func() error {
		for batch := range batches {
			stored, err := b.AddHeaders(ctx, batch)
			if err != nil {
				return err
			}

			for _, block := range stored {
				if block.IsLinked() {
					added++
				} else {
					unlinked++
				}
			}

			logger.Infof("[chainstate] best header %s", b.GetState().BestHeader())
		}

		return nil
	})

	if err = g.Wait(); err != nil {
		return err
	}

	logger.Infof("[chainstate] %d headers linked, %d with unknown parents", added, unlinked)
	printState(b.GetState())

	return nil
}

func blocksAction(c *cli.Context) (err error) {
	f, err := openArg(c)
	if err != nil {
		return err
	}

	defer f.Close()

	b, logger, _, err := openBlockchain(c.Context)
	if err != nil {
		return err
	}

	defer closeBlockchain(b, &err)

	blocks := make(chan *model.Block, pipelineDepth)

	g, ctx := errgroup.WithContext(c.Context)

	g.Go(func() error {
		defer close(blocks)
		return readBlocks(ctx, f, blocks)
	})

	var included int

	g.Go(func() error {
		for block := range blocks {
			if _, err := b.AddHeaders(ctx, []*model.BlockHeader{block.Header}); err != nil {
				return err
			}

			stored, err := b.AddBlockContent(ctx, block)
			if err != nil {
				return err
			}

			if stored == nil {
				logger.Warnf("[chainstate] skipping block %s with unknown parent %s", block.Hash(), block.Header.HashPrevBlock)
				continue
			}

			done, err := b.IncludeNext(ctx, 0)
			included += len(done)

			if err != nil {
				return err
			}
		}

		return nil
	})

	if err = g.Wait(); err != nil {
		return err
	}

	logger.Infof("[chainstate] %d blocks included", included)
	printState(b.GetState())

	return nil
}

func verifyScriptAction(c *cli.Context) error {
	tx, err := bt.NewTxFromString(c.String("tx"))
	if err != nil {
		return errors.NewInvalidArgumentError("could not parse tx", err)
	}

	locking, err := hex.DecodeString(c.String("prevout-script"))
	if err != nil {
		return errors.NewInvalidArgumentError("could not decode prevout script", err)
	}

	inputIndex := c.Int("input")
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return errors.NewInvalidArgumentError("tx %s has no input %d", tx.TxIDChainHash(), inputIndex)
	}

	prevout := &model.UnspentOutput{
		TransactionHash: *tx.Inputs[inputIndex].PreviousTxIDChainHash(),
		OutputNumber:    tx.Inputs[inputIndex].PreviousTxOutIndex,
		Value:           c.Uint64("value"),
		Script:          bscript.Script(locking),
	}

	params := settings.NewSettings().ChainCfgParams
	verifier := validator.NewScriptVerifier(script.NewSigHashCalculatorFactory(params.ForkIDActivationTime))

	timestamp, err := safeconversion.Uint64ToUint32(c.Uint64("timestamp"))
	if err != nil {
		return errors.NewInvalidArgumentError("invalid timestamp", err)
	}

	if err = verifier.Verify(tx, inputIndex, prevout, timestamp); err != nil {
		return err
	}

	fmt.Printf("input %d of %s is valid\n", inputIndex, tx.TxID())

	return nil
}

func openArg(c *cli.Context) (*os.File, error) {
	if c.Args().Len() != 1 {
		return nil, errors.NewInvalidArgumentError("expected exactly one FILE argument")
	}

	f, err := os.Open(c.Args().First())
	if err != nil {
		return nil, errors.NewInvalidArgumentError("could not open %s", c.Args().First(), err)
	}

	return f, nil
}
