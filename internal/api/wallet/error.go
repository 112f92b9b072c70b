package wallet

import (
	"VoicePay/pkg/recipient"
	"VoicePay/pkg/response"
)

var (
	ErrInvalidAddress       = response.NewError(400, recipient.CodeInvalidAddress, "recipient address is required")
	ErrInvalidAddressFormat = response.NewError(400, recipient.CodeInvalidAddressFormat, "invalid Ethereum address format")
	ErrENSNotSupported      = response.NewError(400, recipient.CodeENSNotSupported, "ENS names are not supported yet")
	ErrBalanceLookupFailed  = response.NewError(502, "BALANCE_LOOKUP_FAILED", "failed to read token balance")
	ErrChainUnavailable     = response.NewError(503, "CHAIN_UNAVAILABLE", "chain access is not configured")
)

// AddressError maps a failed recipient validation to its API error.
func AddressError(v recipient.Validation) *response.Error {
	if v.Error == nil {
		return ErrInvalidAddress
	}

	var base *response.Error
	switch v.Error.Code {
	case recipient.CodeInvalidAddressFormat:
		base = ErrInvalidAddressFormat
	case recipient.CodeENSNotSupported:
		base = ErrENSNotSupported
	default:
		base = ErrInvalidAddress
	}
	return base.WithMessage(v.Error.Message)
}
