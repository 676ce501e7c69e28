/*
Package validator verifies transaction input scripts against the outputs they spend.

The verifier runs the unlocking script of an input followed by the locking
script of the output it spends on one script processor, using the signature
hash variant that applies to the block the transaction is mined in.
*/
package validator

import (
	"github.com/bsv-blockchain/chainstate/errors"
	"github.com/bsv-blockchain/chainstate/model"
	"github.com/bsv-blockchain/chainstate/script"
	"github.com/bsv-blockchain/go-bt/v2"
)

// ScriptVerifier checks single inputs. It holds no per-call state and is safe
// for concurrent use.
type ScriptVerifier struct {
	factory *script.SigHashCalculatorFactory
}

// NewScriptVerifier creates a verifier that picks calculators with factory.
func NewScriptVerifier(factory *script.SigHashCalculatorFactory) *ScriptVerifier {
	return &ScriptVerifier{factory: factory}
}

// Verify runs input inputIndex of tx against prevout for a block with the given timestamp.
// Parameters:
//   - tx: the spending transaction
//   - inputIndex: the input to verify
//   - prevout: the output the input spends
//   - timestamp: the timestamp of the block containing tx
//
// Returns:
//   - error: SCRIPT_INVALID when the scripts do not succeed, or the processor
//     error for conditions a script cannot cause, such as an unimplemented opcode
func (v *ScriptVerifier) Verify(tx *bt.Tx, inputIndex int, prevout *model.UnspentOutput, timestamp uint32) error {
	if inputIndex < 0 || inputIndex >= len(tx.Inputs) {
		return errors.NewInvalidArgumentError("tx %s has no input %d", tx.TxIDChainHash(), inputIndex)
	}

	calculator := v.factory.CreateCalculator(timestamp, tx)
	calculator.InputIndex = inputIndex
	calculator.Value = prevout.Value

	p := script.NewProcessor()
	p.SetSigHashCalculator(calculator)

	var unlocking []byte
	if s := tx.Inputs[inputIndex].UnlockingScript; s != nil {
		unlocking = *s
	}

	if err := p.Execute(unlocking); err != nil {
		return err
	}

	if err := p.Execute(prevout.Script); err != nil {
		return err
	}

	if !p.Success() {
		return errors.NewScriptInvalidError("input %d of tx %s does not satisfy %s using the %s digest", inputIndex, tx.TxIDChainHash(), prevout, calculator)
	}

	return nil
}
