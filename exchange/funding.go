package exchange

import (
	"context"
	"fmt"

	"memoex/errors"
	"memoex/ledger"
	"memoex/logx"
)

// EnsureFunded tops an address up from the devnet faucet when its balance
// sits below floor. Funding exhaustion is tolerated: the role proceeds with
// whatever balance it has and lets a later submission fail on its own
// terms. Only balance-query errors propagate.
func EnsureFunded(ctx context.Context, c *ledger.Client, address string, floor, topUp uint64) error {
	balance, err := c.GetBalance(ctx, address)
	if err != nil {
		return err
	}
	if balance >= floor {
		return nil
	}

	logx.Info("EXCHANGE", fmt.Sprintf("Balance %d below floor %d for %s, requesting funding",
		balance, floor, address))
	if err := c.Fund(ctx, address, topUp); err != nil {
		if errors.IsCode(err, errors.ErrCodeFundingExhausted) {
			logx.Warn("EXCHANGE", "Funding exhausted for ", address, ", continuing with current balance")
			return nil
		}
		return err
	}
	return nil
}
