package errors

var (
	ErrUnknown                  = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument          = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound                 = New(ERR_NOT_FOUND, "not found")
	ErrProcessing               = New(ERR_PROCESSING, "error processing")
	ErrConfiguration            = New(ERR_CONFIGURATION, "configuration error")
	ErrError                    = New(ERR_ERROR, "generic error")
	ErrNotImplemented           = New(ERR_NOT_IMPLEMENTED, "not implemented")
	ErrUnsupported              = New(ERR_UNSUPPORTED, "unsupported")
	ErrStorageError             = New(ERR_STORAGE_ERROR, "storage error")
	ErrBlockNotFound            = New(ERR_BLOCK_NOT_FOUND, "block not found")
	ErrBlockExists              = New(ERR_BLOCK_EXISTS, "block exists")
	ErrBlockInvalid             = New(ERR_BLOCK_INVALID, "block invalid")
	ErrHeaderInvalid            = New(ERR_HEADER_INVALID, "header invalid")
	ErrCheckpointMismatch       = New(ERR_CHECKPOINT_MISMATCH, "checkpoint mismatch")
	ErrMerkleRootInvalid        = New(ERR_MERKLE_ROOT_INVALID, "merkle root invalid")
	ErrTxInvalid                = New(ERR_TX_INVALID, "tx invalid")
	ErrTxDuplicate              = New(ERR_TX_DUPLICATE, "tx duplicate")
	ErrTxInvalidDoubleSpend     = New(ERR_TX_INVALID_DOUBLE_SPEND, "tx invalid double spend")
	ErrScriptInvalid            = New(ERR_SCRIPT_INVALID, "script invalid")
	ErrUnspentOutputConsistency = New(ERR_UTXO_CONSISTENCY, "unspent output consistency violation")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewNotImplementedError(message string, params ...interface{}) error {
	return New(ERR_NOT_IMPLEMENTED, message, params...)
}
func NewUnsupportedError(message string, params ...interface{}) error {
	return New(ERR_UNSUPPORTED, message, params...)
}
func NewStorageError(message string, params ...interface{}) error {
	return New(ERR_STORAGE_ERROR, message, params...)
}
func NewBlockNotFoundError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_NOT_FOUND, message, params...)
}
func NewBlockExistsError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_EXISTS, message, params...)
}
func NewBlockInvalidError(message string, params ...interface{}) error {
	return New(ERR_BLOCK_INVALID, message, params...)
}
func NewHeaderInvalidError(message string, params ...interface{}) error {
	return New(ERR_HEADER_INVALID, message, params...)
}
func NewCheckpointMismatchError(message string, params ...interface{}) error {
	return New(ERR_CHECKPOINT_MISMATCH, message, params...)
}
func NewMerkleRootInvalidError(message string, params ...interface{}) error {
	return New(ERR_MERKLE_ROOT_INVALID, message, params...)
}
func NewTxInvalidError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID, message, params...)
}
func NewTxDuplicateError(message string, params ...interface{}) error {
	return New(ERR_TX_DUPLICATE, message, params...)
}
func NewTxInvalidDoubleSpendError(message string, params ...interface{}) error {
	return New(ERR_TX_INVALID_DOUBLE_SPEND, message, params...)
}
func NewScriptInvalidError(message string, params ...interface{}) error {
	return New(ERR_SCRIPT_INVALID, message, params...)
}
func NewUnspentOutputConsistencyError(message string, params ...interface{}) error {
	return New(ERR_UTXO_CONSISTENCY, message, params...)
}
