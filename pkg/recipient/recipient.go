// Package recipient classifies and normalizes the destination a user names in
// a transfer command. Only literal hex addresses resolve today.
package recipient

import (
	"fmt"
	"regexp"
	"strings"
)

type Type string

const TypeAddress Type = "address"

const (
	CodeInvalidAddress       = "INVALID_ADDRESS"
	CodeInvalidAddressFormat = "INVALID_ADDRESS_FORMAT"
	CodeENSNotSupported      = "ENS_NOT_SUPPORTED"
	CodeValidationFailed     = "VALIDATION_FAILED"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type Validation struct {
	Valid   bool             `json:"valid"`
	Address string           `json:"address,omitempty"`
	Type    Type             `json:"type,omitempty"`
	Error   *ValidationError `json:"error,omitempty"`
}

// IsAddress reports whether s is 0x followed by exactly 40 hex characters.
// Casing is not checked against the EIP-55 checksum.
func IsAddress(s string) bool {
	return addressPattern.MatchString(s)
}

// Validate classifies a recipient identifier. It never touches the network and
// keeps the caller's casing in the returned address.
func Validate(input any) (v Validation) {
	defer func() {
		if r := recover(); r != nil {
			v = invalid(CodeValidationFailed, fmt.Sprintf("recipient validation failed: %v", r))
		}
	}()

	s, ok := input.(string)
	if !ok || s == "" {
		return invalid(CodeInvalidAddress, "Recipient address is required")
	}

	trimmed := strings.TrimSpace(s)
	if IsAddress(trimmed) {
		return Validation{Valid: true, Address: trimmed, Type: TypeAddress}
	}

	if strings.HasSuffix(strings.ToLower(trimmed), ".eth") {
		return invalid(CodeENSNotSupported, "ENS names are not supported yet. Please use a 0x address")
	}

	return invalid(CodeInvalidAddressFormat, "Recipient must be a valid Ethereum address (0x followed by 40 hex characters)")
}

func invalid(code, msg string) Validation {
	return Validation{Valid: false, Error: &ValidationError{Code: code, Message: msg}}
}
