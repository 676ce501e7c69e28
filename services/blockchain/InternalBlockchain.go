package blockchain

import (
	"context"

	"github.com/bsv-blockchain/chainstate/chaincfg"
	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/script"
	"github.com/bsv-blockchain/chainstate/services/validator"
	"github.com/bsv-blockchain/chainstate/settings"
	blockchain_store "github.com/bsv-blockchain/chainstate/stores/blockchain"
	"github.com/bsv-blockchain/chainstate/stores/blockchain/options"
	"github.com/bsv-blockchain/chainstate/ulogger"
	"github.com/bsv-blockchain/go-bt/v2"
	"github.com/bsv-blockchain/go-bt/v2/chainhash"
	safeconversion "github.com/bsv-blockchain/go-safe-conversion"
)

// InternalBlockchain holds the consensus rules. Every method works inside the
// store transaction it is given and returns the resulting state; the caller
// commits or rolls back the transaction and publishes the state.
type InternalBlockchain struct {
	logger           ulogger.Logger
	chainParams      *chaincfg.Params
	headerValidator  HeaderValidator
	contentValidator BlockContentValidator
	// nil when scripts are not verified
	scriptVerifier *validator.ScriptVerifier
}

func NewInternalBlockchain(logger ulogger.Logger, tSettings *settings.Settings, opts ...Option) *InternalBlockchain {
	initPrometheusMetrics()

	o := &blockchainOptions{}
	for _, opt := range opts {
		opt(o)
	}

	params := tSettings.ChainCfgParams

	if o.headerValidator == nil {
		v := NewDefaultHeaderValidator(logger, params)
		if o.now != nil {
			v.now = o.now
		}

		o.headerValidator = v
	}

	if o.contentValidator == nil {
		o.contentValidator = NewDefaultContentValidator(tSettings.BlockChain.MaxBlockSize)
	}

	verifyScripts := tSettings.BlockChain.VerifyScripts
	if o.verifyScripts != nil {
		verifyScripts = *o.verifyScripts
	}

	b := &InternalBlockchain{
		logger:           logger,
		chainParams:      params,
		headerValidator:  o.headerValidator,
		contentValidator: o.contentValidator,
	}

	if verifyScripts {
		b.scriptVerifier = validator.NewScriptVerifier(script.NewSigHashCalculatorFactory(params.ForkIDActivationTime))
	}

	return b
}

// Init stores the genesis block on an empty store, or checks the stored one
// against the network, and loads the current state.
func (b *InternalBlockchain) Init(ctx context.Context, tx blockchain_store.Transaction) (*model.BlockchainState, error) {
	genesis, err := model.NewBlockFromBytes(b.chainParams.GenesisBlock)
	if err != nil {
		return nil, errors.NewConfigurationError("genesis block of %s does not parse", b.chainParams.Name, err)
	}

	if !genesis.Hash().IsEqual(b.chainParams.GenesisHash) {
		return nil, errors.NewConfigurationError("genesis block of %s hashes to %s, expected %s", b.chainParams.Name, genesis.Hash(), b.chainParams.GenesisHash)
	}

	stored, err := tx.FindBlockByHeight(ctx, 0)
	if err != nil {
		return nil, err
	}

	if stored != nil {
		if !stored.Hash().IsEqual(b.chainParams.GenesisHash) {
			return nil, errors.NewConfigurationError("store holds genesis %s, but %s starts at %s", stored.Hash(), b.chainParams.Name, b.chainParams.GenesisHash)
		}

		return b.loadState(ctx, tx)
	}

	b.logger.Infof("[Blockchain] storing %s genesis block %s", b.chainParams.Name, genesis.Hash())

	block := model.NewStoredBlock(genesis.Header).Builder().
		SetHeight(0).
		SetTotalWork(genesis.Header.Bits.CalculateWork()).
		SetInBestHeaderChain(true).
		SetInBestBlockChain(true).
		Build()

	if err = tx.AddBlock(ctx, block); err != nil {
		return nil, err
	}

	// the genesis coinbase is not spendable, so its outputs never enter the output set
	if block, err = tx.AddBlockContent(ctx, block.Hash(), genesis.Bytes()); err != nil {
		return nil, err
	}

	return model.NewBlockchainState(block, block), nil
}

func (b *InternalBlockchain) loadState(ctx context.Context, tx blockchain_store.Transaction) (*model.BlockchainState, error) {
	bestHeader, err := tx.FindFirst(ctx, options.InBestHeaderChain())
	if err != nil {
		return nil, err
	}

	bestChain, err := tx.FindFirst(ctx, options.InBestBlockChain())
	if err != nil {
		return nil, err
	}

	if bestHeader == nil || bestChain == nil {
		return nil, errors.NewStorageError("store has a genesis block but no best header or best chain tip")
	}

	return model.NewBlockchainState(bestHeader, bestChain), nil
}

// AddHeaders links headers into the header tree in order. It returns one
// stored block per header: already known headers as stored, headers whose
// parent is unknown unlinked and not stored, and the rest linked and stored.
// The first header that breaks a rule fails the whole batch.
func (b *InternalBlockchain) AddHeaders(ctx context.Context, tx blockchain_store.Transaction, state *model.BlockchainState, headers []*model.BlockHeader) (*model.BlockchainState, []*model.StoredBlock, error) {
	history := b.chainParams.HeaderHistoryLength()
	results := make([]*model.StoredBlock, 0, len(headers))

	var parents *model.Subchain

	for _, header := range headers {
		hash := header.Hash()

		existing, err := tx.FindBlockByHash(ctx, hash)
		if err != nil {
			return nil, nil, err
		}

		if existing != nil {
			results = append(results, existing)
			continue
		}

		if parents == nil || !header.HashPrevBlock.IsEqual(parents.Tip().Hash()) {
			if parents, err = tx.FindSubchain(ctx, header.HashPrevBlock, history); err != nil {
				return nil, nil, err
			}

			if parents == nil {
				b.logger.Debugf("[Blockchain] header %s has unknown parent %s", hash, header.HashPrevBlock)
				results = append(results, model.NewStoredBlock(header))

				continue
			}
		}

		block := model.NewStoredBlock(header).Link(parents.Tip())

		if checkpoint := b.chainParams.CheckpointAt(block.Height()); checkpoint != nil && !checkpoint.Hash.IsEqual(hash) {
			return nil, nil, errors.NewCheckpointMismatchError("header %s at height %d does not match checkpoint %s", hash, block.Height(), checkpoint.Hash)
		}

		if err = b.headerValidator.ValidateHeader(header, parents); err != nil {
			return nil, nil, err
		}

		if err = tx.AddBlock(ctx, block); err != nil {
			return nil, nil, err
		}

		prometheusBlockchainHeadersAdded.Inc()

		if state, block, err = b.chooseBestHeader(ctx, tx, state, block); err != nil {
			return nil, nil, err
		}

		if parents, err = parents.Append(block, history); err != nil {
			return nil, nil, err
		}

		results = append(results, block)
	}

	return state, results, nil
}

// chooseBestHeader makes block the best header if it has more work than the
// current one. Only the blocks on one branch and not the other are updated.
func (b *InternalBlockchain) chooseBestHeader(ctx context.Context, tx blockchain_store.Transaction, state *model.BlockchainState, block *model.StoredBlock) (*model.BlockchainState, *model.StoredBlock, error) {
	oldTip := state.BestHeader()
	if !block.HasMoreWorkThan(oldTip) {
		return state, block, nil
	}

	var (
		connect    []*model.StoredBlock
		disconnect int
		err        error
	)

	newBranch, oldBranch := block, oldTip

	for !newBranch.Equal(oldBranch) {
		if oldBranch.Height() >= newBranch.Height() {
			updated := oldBranch.Builder().SetInBestHeaderChain(false).Build()
			if err = tx.UpdateBlock(ctx, updated); err != nil {
				return nil, nil, err
			}

			state = state.Update(oldBranch, updated)
			disconnect++

			if oldBranch, err = b.parent(ctx, tx, oldBranch); err != nil {
				return nil, nil, err
			}
		}

		if newBranch.Height() > oldBranch.Height() {
			connect = append(connect, newBranch)

			if newBranch, err = b.parent(ctx, tx, newBranch); err != nil {
				return nil, nil, err
			}
		}
	}

	var tip *model.StoredBlock

	for _, c := range connect {
		updated := c.Builder().SetInBestHeaderChain(true).Build()
		if err = tx.UpdateBlock(ctx, updated); err != nil {
			return nil, nil, err
		}

		state = state.Update(c, updated)

		if tip == nil {
			tip = updated
		}
	}

	if disconnect > 0 {
		prometheusBlockchainReorgs.Inc()
		b.logger.Infof("[Blockchain] reorg: best header %s replaced by %s, %d blocks disconnected, %d connected", oldTip, tip, disconnect, len(connect))
	} else {
		b.logger.Debugf("[Blockchain] best header %s", tip)
	}

	return state.SetBestHeader(tip), tip, nil
}

func (b *InternalBlockchain) parent(ctx context.Context, tx blockchain_store.Transaction, block *model.StoredBlock) (*model.StoredBlock, error) {
	parent, err := tx.FindBlockByHash(ctx, block.PrevHash())
	if err != nil {
		return nil, err
	}

	if parent == nil {
		return nil, errors.NewStorageError("parent %s of stored block %s is missing", block.PrevHash(), block)
	}

	return parent, nil
}

// AddBlockContent stores the transactions of a block whose header is known.
// It returns nil for an unknown header and the stored block unchanged when
// the content is already there.
func (b *InternalBlockchain) AddBlockContent(ctx context.Context, tx blockchain_store.Transaction, state *model.BlockchainState, block *model.Block) (*model.BlockchainState, *model.StoredBlock, error) {
	stored, err := tx.FindBlockByHash(ctx, block.Hash())
	if err != nil {
		return nil, nil, err
	}

	if stored == nil {
		b.logger.Debugf("[Blockchain] ignoring content of unknown block %s", block.Hash())
		return state, nil, nil
	}

	if stored.HasContent() {
		return state, stored, nil
	}

	// a bad payload cannot be blamed on the header, whose hash does not commit to it
	if err = block.CheckMerkleRoot(); err != nil {
		return nil, nil, err
	}

	if err = b.contentValidator.ValidateContent(block); err != nil {
		return nil, nil, err
	}

	updated, err := tx.AddBlockContent(ctx, stored.Hash(), block.Bytes())
	if err != nil {
		return nil, nil, err
	}

	return state.Update(stored, updated), updated, nil
}

// NextToInclude returns the best header chain block after the best chain tip
// when its content is stored, or nil.
func (b *InternalBlockchain) NextToInclude(ctx context.Context, tx blockchain_store.Transaction, state *model.BlockchainState) (*model.StoredBlock, error) {
	tip := state.BestChain()

	next, err := tx.FindBlockByHeight(ctx, tip.Height()+1)
	if err != nil || next == nil {
		return nil, err
	}

	if !next.HasContent() || !next.PrevHash().IsEqual(tip.Hash()) {
		return nil, nil
	}

	return next, nil
}

// Include applies the block to the output set and makes it the best chain tip.
// The block must have content and follow the current tip; a block already in
// the best chain is returned as is.
func (b *InternalBlockchain) Include(ctx context.Context, tx blockchain_store.Transaction, state *model.BlockchainState, hash *chainhash.Hash) (*model.BlockchainState, *model.StoredBlock, error) {
	stored, err := tx.FindBlockByHash(ctx, hash)
	if err != nil {
		return nil, nil, err
	}

	if stored == nil {
		return nil, nil, errors.NewBlockNotFoundError("block %s is not stored", hash)
	}

	if stored.IsInBestBlockChain() {
		return state, stored, nil
	}

	if !stored.HasContent() {
		return nil, nil, errors.NewInvalidArgumentError("block %s has no content", stored)
	}

	tip := state.BestChain()
	if !stored.PrevHash().IsEqual(tip.Hash()) {
		return nil, nil, errors.NewInvalidArgumentError("block %s does not follow the best chain tip %s", stored, tip)
	}

	content, err := tx.GetBlockContent(ctx, hash)
	if err != nil {
		return nil, nil, err
	}

	if content == nil {
		return nil, nil, errors.NewStorageError("block %s is marked as having content, but none is stored", stored)
	}

	block, err := model.NewBlockFromBytes(content)
	if err != nil {
		return nil, nil, errors.NewStorageError("stored content of block %s is corrupt", stored, err)
	}

	update := NewUnspentOutputsUpdate(tx)

	if err = b.applyTransactions(ctx, update, stored, block); err != nil {
		return nil, nil, err
	}

	if err = update.Persist(ctx); err != nil {
		return nil, nil, err
	}

	updated := stored.Builder().SetInBestBlockChain(true).Build()
	if err = tx.UpdateBlock(ctx, updated); err != nil {
		return nil, nil, err
	}

	return state.Update(stored, updated).SetBestChain(updated), updated, nil
}

// applyTransactions stages every output change of block in update and checks
// the value rules. Nothing is written to storage.
func (b *InternalBlockchain) applyTransactions(ctx context.Context, update *UnspentOutputsUpdate, stored *model.StoredBlock, block *model.Block) error {
	height := stored.Height()
	reward := BlockReward(height, b.chainParams)

	var blockInputs, blockOutputs uint64

	for i, t := range block.Transactions {
		txHash := *t.TxIDChainHash()

		duplicates, err := update.FindUnspentOutputs(ctx, txHash)
		if err != nil {
			return err
		}

		if len(duplicates) > 0 {
			if !b.chainParams.IsBIP30Exception(height) {
				return errors.NewTxDuplicateError("tx %s in block %s duplicates a tx with unspent outputs", txHash, stored)
			}

			b.logger.Warnf("[Blockchain] block %s overwrites %d unspent outputs of tx %s", stored, len(duplicates), txHash)

			for _, duplicate := range duplicates {
				if _, err = update.Spend(ctx, txHash, duplicate.OutputNumber, height); err != nil {
					return err
				}
			}
		}

		var txInputs, txOutputs uint64

		if i > 0 {
			if txInputs, err = b.spendInputs(ctx, update, stored, t); err != nil {
				return err
			}
		}

		for n, output := range t.Outputs {
			if output.LockingScript != nil {
				if _, err = script.Parse(*output.LockingScript); err != nil {
					return errors.NewScriptInvalidError("output %d of tx %s has a malformed script", n, txHash, err)
				}
			}

			if txOutputs+output.Satoshis < txOutputs {
				return errors.NewTxInvalidError("outputs of tx %s overflow", txHash)
			}

			txOutputs += output.Satoshis

			outputNumber, err := safeconversion.IntToUint32(n)
			if err != nil {
				return errors.NewTxInvalidError("tx %s has too many outputs", txHash, err)
			}

			if err = update.Add(ctx, model.NewUnspentOutput(height, t, outputNumber)); err != nil {
				return err
			}
		}

		if i > 0 && txInputs < txOutputs {
			return errors.NewTxInvalidError("tx %s spends %d but creates %d", txHash, txInputs, txOutputs)
		}

		blockInputs += txInputs
		blockOutputs += txOutputs
	}

	if blockInputs+reward != blockOutputs {
		return errors.NewBlockInvalidError("block %s inputs %d plus reward %d do not equal outputs %d", stored, blockInputs, reward, blockOutputs)
	}

	return nil
}

// spendInputs spends every input of t and returns the value they bring in.
func (b *InternalBlockchain) spendInputs(ctx context.Context, update *UnspentOutputsUpdate, stored *model.StoredBlock, t *bt.Tx) (uint64, error) {
	var total uint64

	for j, input := range t.Inputs {
		spent, err := update.Spend(ctx, *input.PreviousTxIDChainHash(), input.PreviousTxOutIndex, stored.Height())
		if err != nil {
			return 0, err
		}

		total += spent.Value

		var unlocking []byte
		if input.UnlockingScript != nil {
			unlocking = *input.UnlockingScript
		}

		commands, err := script.Parse(unlocking)
		if err != nil {
			return 0, errors.NewScriptInvalidError("input %d of tx %s has a malformed signature script", j, t.TxIDChainHash(), err)
		}

		if !script.IsPushOnly(commands) {
			return 0, errors.NewScriptInvalidError("signature script of input %d of tx %s is not push only", j, t.TxIDChainHash())
		}

		if b.scriptVerifier != nil {
			if err = b.scriptVerifier.Verify(t, j, spent, stored.Timestamp()); err != nil {
				return 0, err
			}
		}
	}

	return total, nil
}

// TruncateTo would disconnect best chain blocks down to hash. Undoing applied
// blocks is not supported.
func (b *InternalBlockchain) TruncateTo(_ context.Context, _ blockchain_store.Transaction, _ *model.BlockchainState, hash *chainhash.Hash) (*model.BlockchainState, error) {
	return nil, errors.NewNotImplementedError("truncating the best chain to %s is not supported", hash)
}

// Truncate would disconnect the best chain tip.
func (b *InternalBlockchain) Truncate(_ context.Context, _ blockchain_store.Transaction, state *model.BlockchainState) (*model.BlockchainState, error) {
	return nil, errors.NewNotImplementedError("truncating the best chain tip %s is not supported", state.BestChain())
}
