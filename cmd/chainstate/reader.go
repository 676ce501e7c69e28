package main

import (
	"bufio"
	"context"
	"io"
	"strings"

	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
)

// maxLineLength bounds one hex encoded block.
const maxLineLength = 64 * 1024 * 1024

// scanLines calls fn for every non blank line of r that does not start with #.
func scanLines(ctx context.Context, r io.Reader, fn func(lineNumber int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)

	lineNumber := 0

	for scanner.Scan() {
		lineNumber++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if err := fn(lineNumber, line); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return errors.NewProcessingError("could not read input", err)
	}

	return nil
}

// readHeaders parses one header per line and sends them in batches of batchSize.
func readHeaders(ctx context.Context, r io.Reader, batchSize int, out chan<- []*model.BlockHeader) error {
	if batchSize <= 0 {
		batchSize = 1
	}

	batch := make([]*model.BlockHeader, 0, batchSize)

	send := func() error {
		select {
		case out <- batch:
			batch = make([]*model.BlockHeader, 0, batchSize)
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	err := scanLines(ctx, r, func(lineNumber int, line string) error {
		header, err := model.NewBlockHeaderFromString(line)
		if err != nil {
			return errors.NewInvalidArgumentError("line %d is not a block header", lineNumber, err)
		}

		batch = append(batch, header)

		if len(batch) == batchSize {
			return send()
		}

		return nil
	})
	if err != nil {
		return err
	}

	if len(batch) > 0 {
		return send()
	}

	return nil
}

// readBlocks parses one block per line.
func readBlocks(ctx context.Context, r io.Reader, out chan<- *model.Block) error {
	return scanLines(ctx, r, func(lineNumber int, line string) error {
		block, err := model.NewBlockFromString(line)
		if err != nil {
			return errors.NewInvalidArgumentError("line %d is not a block", lineNumber, err)
		}

		select {
		case out <- block:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
}
