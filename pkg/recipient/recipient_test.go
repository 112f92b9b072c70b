package recipient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_HexAddressAnyCase(t *testing.T) {
	cases := []string{
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0",
		"0x742D35CC6634C0532925A3B844BC9E7595F0BEB0",
		"0x742d35cc6634c0532925a3b844bc9e7595f0beb0",
		"  0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb0\n",
	}

	for _, input := range cases {
		v := Validate(input)
		assert.True(t, v.Valid, input)
		assert.Equal(t, strings.TrimSpace(input), v.Address)
		assert.Equal(t, TypeAddress, v.Type)
		assert.Nil(t, v.Error)
	}
}

func TestValidate_ENSNames(t *testing.T) {
	for _, input := range []string{"vitalik.eth", "alice.ETH", " wallet.sub.eth "} {
		v := Validate(input)
		assert.False(t, v.Valid)
		if assert.NotNil(t, v.Error) {
			assert.Equal(t, CodeENSNotSupported, v.Error.Code, input)
		}
		assert.Empty(t, v.Address)
	}
}

func TestValidate_BadFormats(t *testing.T) {
	for _, input := range []string{
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb",
		"742d35Cc6634C0532925a3b844Bc9e7595f0bEb0",
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEbZ",
		"0x742d35Cc6634C0532925a3b844Bc9e7595f0bEb00",
		"bob",
		"   ",
	} {
		v := Validate(input)
		assert.False(t, v.Valid, input)
		if assert.NotNil(t, v.Error) {
			assert.Equal(t, CodeInvalidAddressFormat, v.Error.Code, input)
		}
	}
}

func TestValidate_EmptyOrNotString(t *testing.T) {
	for _, input := range []any{"", nil, 42, []byte("0x00")} {
		v := Validate(input)
		assert.False(t, v.Valid)
		if assert.NotNil(t, v.Error) {
			assert.Equal(t, CodeInvalidAddress, v.Error.Code)
		}
	}
}

func TestIsAddress(t *testing.T) {
	assert.True(t, IsAddress("0x0000000000000000000000000000000000000000"))
	assert.False(t, IsAddress(" 0x0000000000000000000000000000000000000000"))
	assert.False(t, IsAddress("0X0000000000000000000000000000000000000000"))
}
