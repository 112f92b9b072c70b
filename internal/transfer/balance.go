package transfer

import (
	"fmt"
	"math/big"

	"VoicePay/internal/entity"
	"VoicePay/pkg/units"
)

// BalanceCheck compares a command amount with the known wallet balance,
// both in base units. Err is set whenever Sufficient is false.
type BalanceCheck struct {
	Sufficient bool
	Required   *big.Int
	Available  *big.Int
	Shortfall  *big.Int
	Message    string
	Err        error
}

func checkBalance(cmd *entity.ParsedCommand, balance *big.Int, token Token) BalanceCheck {
	if cmd == nil {
		return BalanceCheck{Message: "No transfer to confirm.", Err: ErrInvalidTransition}
	}

	required, err := units.FloatToBaseUnits(cmd.Amount(), token.Decimals)
	if err != nil {
		return BalanceCheck{
			Message: fmt.Sprintf("Cannot convert amount %v: %v", cmd.Amount(), err),
			Err:     err,
		}
	}

	check := BalanceCheck{Required: required}
	if required.Sign() <= 0 {
		check.Message = fmt.Sprintf(
			"Amount %s is below the token's smallest unit (%s).",
			units.FromFloat(cmd.Amount()), token.format(big.NewInt(1)),
		)
		check.Err = ErrAmountTooSmall
		return check
	}
	if balance == nil {
		check.Message = "Wallet balance is unknown. Refresh your balance and try again."
		check.Err = ErrInsufficientBalance
		return check
	}

	check.Available = new(big.Int).Set(balance)
	if required.Cmp(balance) > 0 {
		check.Shortfall = new(big.Int).Sub(required, balance)
		check.Message = fmt.Sprintf(
			"Insufficient balance: transfer needs %s but the wallet holds %s (short by %s).",
			token.format(required), token.format(balance), token.format(check.Shortfall),
		)
		check.Err = ErrInsufficientBalance
		return check
	}

	check.Sufficient = true
	return check
}

type Token struct {
	Symbol   string
	Decimals int
}

func (t Token) format(baseUnits *big.Int) string {
	s := units.ToHumanUnits(baseUnits, t.Decimals)
	if t.Symbol == "" {
		return s
	}
	return s + " " + t.Symbol
}
