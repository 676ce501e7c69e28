// Package main is the chainstate command line tool. It opens the configured
// blockchain store, imports headers and blocks from hex files, reports the
// chain state and verifies single transaction inputs.
//
// Usage:
//
//	chainstate [--metrics ADDRESS] init
//	chainstate headers FILE
//	chainstate blocks FILE
//	chainstate status
//	chainstate verifyscript --tx HEX --input N --prevout-script HEX --value V --timestamp T
//
// The store, the network and the batch sizes come from the settings, see
// settings.NewSettings.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "chainstate",
		Usage: "Validate and store a Bitcoin block chain",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "metrics",
				Usage: "address to serve prometheus metrics on, e.g. :9091",
			},
		},
		Before: serveMetrics,
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Store the genesis block of the configured network",
				Action: initAction,
			},
			{
				Name:      "headers",
				Usage:     "Add headers from a file with one hex encoded header per line",
				ArgsUsage: "FILE",
				Action:    headersAction,
			},
			{
				Name:      "blocks",
				Usage:     "Add and include blocks from a file with one hex encoded block per line",
				ArgsUsage: "FILE",
				Action:    blocksAction,
			},
			{
				Name:   "status",
				Usage:  "Print the best header and the best chain tip",
				Action: statusAction,
			},
			{
				Name:   "verifyscript",
				Usage:  "Verify one input of a transaction against the output it spends",
				Action: verifyScriptAction,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "tx", Usage: "spending transaction, hex", Required: true},
					&cli.IntFlag{Name: "input", Usage: "index of the input to verify"},
					&cli.StringFlag{Name: "prevout-script", Usage: "locking script of the spent output, hex", Required: true},
					&cli.Uint64Flag{Name: "value", Usage: "value of the spent output in satoshis", Required: true},
					&cli.Uint64Flag{Name: "timestamp", Usage: "timestamp of the block containing the transaction", Required: true},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "chainstate: %v\n", err)
		os.Exit(1)
	}
}
