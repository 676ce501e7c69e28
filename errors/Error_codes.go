package errors

import "fmt"

// ERR is the numeric code carried by every *Error.
type ERR int32

// nolint:revive,stylecheck
const (
	ERR_UNKNOWN                 ERR = 0
	ERR_INVALID_ARGUMENT        ERR = 1
	ERR_NOT_FOUND               ERR = 2
	ERR_PROCESSING              ERR = 3
	ERR_CONFIGURATION           ERR = 4
	ERR_ERROR                   ERR = 5
	ERR_NOT_IMPLEMENTED         ERR = 6
	ERR_UNSUPPORTED             ERR = 7
	ERR_STORAGE_ERROR           ERR = 10
	ERR_BLOCK_NOT_FOUND         ERR = 20
	ERR_BLOCK_EXISTS            ERR = 21
	ERR_BLOCK_INVALID           ERR = 22
	ERR_HEADER_INVALID          ERR = 23
	ERR_CHECKPOINT_MISMATCH     ERR = 24
	ERR_MERKLE_ROOT_INVALID     ERR = 25
	ERR_TX_INVALID              ERR = 30
	ERR_TX_DUPLICATE            ERR = 31
	ERR_TX_INVALID_DOUBLE_SPEND ERR = 32
	ERR_SCRIPT_INVALID          ERR = 40
	ERR_UTXO_CONSISTENCY        ERR = 50
)

// ERR_name maps known codes to their enum names.
var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "NOT_FOUND",
	3:  "PROCESSING",
	4:  "CONFIGURATION",
	5:  "ERROR",
	6:  "NOT_IMPLEMENTED",
	7:  "UNSUPPORTED",
	10: "STORAGE_ERROR",
	20: "BLOCK_NOT_FOUND",
	21: "BLOCK_EXISTS",
	22: "BLOCK_INVALID",
	23: "HEADER_INVALID",
	24: "CHECKPOINT_MISMATCH",
	25: "MERKLE_ROOT_INVALID",
	30: "TX_INVALID",
	31: "TX_DUPLICATE",
	32: "TX_INVALID_DOUBLE_SPEND",
	40: "SCRIPT_INVALID",
	50: "UTXO_CONSISTENCY",
}

// Enum returns the enum name of the code.
func (c ERR) Enum() string {
	if name, ok := ERR_name[int32(c)]; ok {
		return name
	}

	return fmt.Sprintf("ERR(%d)", int32(c))
}

func (c ERR) String() string {
	return c.Enum()
}
