package ethereum

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rpc"
)

// RevertReason extracts a human readable revert reason from an RPC error,
// preferring ABI encoded revert data over the error text.
func RevertReason(err error) string {
	if err == nil {
		return ""
	}

	var dataErr rpc.DataError
	if errors.As(err, &dataErr) {
		if reason := decodeRevertData(revertBytes(dataErr.ErrorData())); reason != "" {
			return reason
		}
	}

	msg := err.Error()
	if i := strings.Index(msg, "execution reverted:"); i >= 0 {
		return strings.TrimSpace(msg[i+len("execution reverted:"):])
	}
	return ""
}

func revertBytes(data interface{}) []byte {
	switch v := data.(type) {
	case string:
		if !strings.HasPrefix(v, "0x") {
			return nil
		}
		return common.FromHex(v)
	case []byte:
		return v
	default:
		return nil
	}
}

func decodeRevertData(data []byte) string {
	if len(data) < 4 {
		return ""
	}
	if reason, err := abi.UnpackRevert(data); err == nil {
		return reason
	}
	return fmt.Sprintf("custom error 0x%x", data[:4])
}
