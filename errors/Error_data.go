package errors

import (
	"encoding/json"
	"fmt"

	"github.com/bsv-blockchain/go-bt/v2/chainhash"
)

// ErrDataI is an interface for error data that can be set, retrieved, and encoded.
type ErrDataI interface {
	EncodeErrorData() []byte
	Error() string
	GetData(key string) interface{}
	SetData(key string, value interface{})
}

// ErrData is a generic error data structure that implements the ErrDataI interface.
type ErrData map[string]interface{}

// Error returns a string representation of the error data.
func (e *ErrData) Error() string {
	return fmt.Sprintf(" %v", *e)
}

// SetData sets a key-value pair in the error data.
func (e *ErrData) SetData(key string, value interface{}) {
	if e == nil {
		return
	}

	(*e)[key] = value
}

// GetData retrieves the value associated with a key in the error data.
func (e *ErrData) GetData(key string) interface{} {
	if e == nil {
		return nil
	}

	return (*e)[key]
}

// EncodeErrorData encodes the error data to a byte slice using JSON encoding.
func (e *ErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// OutputSpentErrData identifies the output a rejected spend referred to.
type OutputSpentErrData struct {
	TxHash       chainhash.Hash
	OutputNumber uint32
	BlockHeight  int32
}

func (e *OutputSpentErrData) Error() string {
	return fmt.Sprintf("output %s:%d spent or nonexistent at height %d", e.TxHash, e.OutputNumber, e.BlockHeight)
}

func (e *OutputSpentErrData) SetData(string, interface{}) {}

func (e *OutputSpentErrData) GetData(key string) interface{} {
	switch key {
	case "txHash":
		return e.TxHash
	case "outputNumber":
		return e.OutputNumber
	case "blockHeight":
		return e.BlockHeight
	}

	return nil
}

func (e *OutputSpentErrData) EncodeErrorData() []byte {
	data, err := json.Marshal(e)
	if err != nil {
		return []byte{}
	}

	return data
}

// NewOutputSpentError returns a double spend error carrying the referenced output.
func NewOutputSpentError(txHash chainhash.Hash, outputNumber uint32, height int32) error {
	data := &OutputSpentErrData{
		TxHash:       txHash,
		OutputNumber: outputNumber,
		BlockHeight:  height,
	}

	return New(ERR_TX_INVALID_DOUBLE_SPEND, "spent or nonexistent output %s:%d", txHash, outputNumber).WithData(data)
}
