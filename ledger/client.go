package ledger

import (
	"context"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/jhttp"

	"memoex/config"
	"memoex/errors"
	"memoex/logx"
	"memoex/monitoring"
	"memoex/wallet"
)

type Config struct {
	Endpoint string
	Funding  config.FundingConfig
	Confirm  config.ConfirmConfig
}

// Client wraps the ledger JSON-RPC endpoint. All methods treat the endpoint
// as a network service that can fail or time out independently of protocol
// logic; retry policy lives here and nowhere above.
type Client struct {
	cfg Config
	ch  *jhttp.Channel
	rpc *jrpc2.Client

	// sleep is swapped out by tests to observe backoff without waiting it
	sleep func(time.Duration)
}

func NewClient(cfg Config) *Client {
	if cfg.Funding.MaxAttempts == 0 {
		cfg.Funding = config.DefaultFundingConfig()
	}
	if cfg.Confirm.TimeoutMs == 0 {
		cfg.Confirm = config.DefaultConfirmConfig()
	}
	ch := jhttp.NewChannel(cfg.Endpoint, nil)
	return &Client{
		cfg:   cfg,
		ch:    ch,
		rpc:   jrpc2.NewClient(ch, nil),
		sleep: time.Sleep,
	}
}

// Close closes the RPC client and its HTTP channel.
func (c *Client) Close() error {
	return c.rpc.Close()
}

// GetBalance returns the confirmed balance in lamports. No retry; network
// errors surface to the caller.
func (c *Client) GetBalance(ctx context.Context, address string) (uint64, error) {
	var res balanceResult
	err := c.rpc.CallResult(ctx, methodGetBalance, balanceParams{
		Address:    address,
		Commitment: CommitmentConfirmed,
	}, &res)
	if err != nil {
		return 0, errors.Errorf(errors.ErrCodeNetwork, "get balance for %s: %v", address, err)
	}
	return res.Lamports, nil
}

// LatestBlockhash fetches a fresh recent-state reference. Every submission
// attempt calls this; blockhashes age out too fast to cache.
func (c *Client) LatestBlockhash(ctx context.Context) (string, error) {
	var res latestBlockhashResult
	if err := c.rpc.CallResult(ctx, methodLatestBlockhash, nil, &res); err != nil {
		return "", errors.Errorf(errors.ErrCodeNetwork, "get latest blockhash: %v", err)
	}
	return res.Blockhash, nil
}

// Fund requests an airdrop for address and waits for it to confirm,
// retrying with exponential backoff. Exhaustion yields
// ErrCodeFundingExhausted, which callers treat as non-fatal: the role may
// proceed with whatever balance it has.
func (c *Client) Fund(ctx context.Context, address string, lamports uint64) error {
	maxAttempts := c.cfg.Funding.MaxAttempts
	backoff := time.Duration(c.cfg.Funding.BaseBackoffMs) * time.Millisecond

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		monitoring.IncreaseAirdropAttempt()
		logx.Info("LEDGER", "Requesting airdrop of ", lamports, " lamports for ", address,
			" (attempt ", attempt, "/", maxAttempts, ")")

		var res requestAirdropResult
		err := c.rpc.CallResult(ctx, methodRequestAirdrop, requestAirdropParams{
			Address:  address,
			Lamports: lamports,
		}, &res)
		if err == nil {
			err = c.waitForConfirmation(ctx, res.Signature)
			if err == nil {
				logx.Info("LEDGER", "Airdrop confirmed: ", res.Signature)
				return nil
			}
		}

		logx.Warn("LEDGER", "Airdrop attempt ", attempt, " failed: ", err)
		if attempt < maxAttempts {
			c.sleep(backoff)
			backoff *= 2
		}
	}
	return errors.Errorf(errors.ErrCodeFundingExhausted,
		"airdrop for %s failed after %d attempts", address, maxAttempts)
}

// SubmitTransfer builds, signs and submits one transaction carrying a
// transfer instruction and, when memoText is non-empty, a memo instruction
// bound to it. It blocks until confirmed commitment or the confirmation
// deadline. Both failure modes are retryable by the caller, but only with a
// fresh call: the blockhash inside this attempt is already stale.
func (c *Client) SubmitTransfer(ctx context.Context, sender *wallet.Wallet, recipient string, lamports uint64, memoText string) (string, error) {
	instructions := []Instruction{TransferInstruction(sender.Address, recipient, lamports)}
	if memoText != "" {
		instructions = append(instructions, MemoInstruction(sender.Address, memoText))
	}
	return c.submit(ctx, sender, "transfer", instructions)
}

// SubmitMemo submits a memo-only transaction: a zero-value protocol message
// such as the verification proof.
func (c *Client) SubmitMemo(ctx context.Context, sender *wallet.Wallet, memoText string) (string, error) {
	instructions := []Instruction{MemoInstruction(sender.Address, memoText)}
	return c.submit(ctx, sender, "memo_only", instructions)
}

func (c *Client) submit(ctx context.Context, sender *wallet.Wallet, kind string, instructions []Instruction) (string, error) {
	blockhash, err := c.LatestBlockhash(ctx)
	if err != nil {
		return "", errors.Errorf(errors.ErrCodeSubmissionFailed, "fetch blockhash: %v", err)
	}

	tx, err := BuildTransaction(sender.Address, blockhash, instructions...)
	if err != nil {
		return "", errors.Errorf(errors.ErrCodeSubmissionFailed, "build transaction: %v", err)
	}
	if err := SignTransaction(tx, sender.PrivateKey); err != nil {
		return "", errors.Errorf(errors.ErrCodeSubmissionFailed, "sign transaction: %v", err)
	}
	blob, err := EncodeTransaction(tx)
	if err != nil {
		return "", errors.Errorf(errors.ErrCodeSubmissionFailed, "encode transaction: %v", err)
	}

	submittedAt := time.Now()
	var res sendTransactionResult
	if err := c.rpc.CallResult(ctx, methodSendTransaction, sendTransactionParams{Transaction: blob}, &res); err != nil {
		return "", errors.Errorf(errors.ErrCodeSubmissionFailed, "send transaction: %v", err)
	}
	monitoring.IncreaseTxSubmitted(kind)
	logx.Info("LEDGER", "Transaction submitted: ", res.Signature)

	if err := c.waitForConfirmation(ctx, res.Signature); err != nil {
		return "", err
	}
	monitoring.ObserveConfirmLatency(time.Since(submittedAt))
	logx.Info("LEDGER", "Transaction confirmed: ", res.Signature)
	return res.Signature, nil
}

// waitForConfirmation polls the signature status until confirmed commitment
// or the configured deadline. The deadline is what turns "in doubt forever"
// into an explicit ConfirmationTimeout.
func (c *Client) waitForConfirmation(ctx context.Context, signature string) error {
	deadline := time.Now().Add(time.Duration(c.cfg.Confirm.TimeoutMs) * time.Millisecond)
	interval := time.Duration(c.cfg.Confirm.PollIntervalMs) * time.Millisecond

	for {
		var res signatureStatusResult
		err := c.rpc.CallResult(ctx, methodSignatureStatus, signatureStatusParams{Signature: signature}, &res)
		if err == nil {
			if res.ErrMsg != "" {
				return errors.Errorf(errors.ErrCodeSubmissionFailed,
					"transaction %s failed on ledger: %s", signature, res.ErrMsg)
			}
			if res.Status == CommitmentConfirmed || res.Status == CommitmentFinalized {
				return nil
			}
		}
		if ctx.Err() != nil {
			return errors.Errorf(errors.ErrCodeConfirmationTimeout,
				"confirmation of %s cancelled: %v", signature, ctx.Err())
		}
		if time.Now().After(deadline) {
			return errors.Errorf(errors.ErrCodeConfirmationTimeout,
				"transaction %s not confirmed within %dms", signature, c.cfg.Confirm.TimeoutMs)
		}
		c.sleep(interval)
	}
}

// FetchMemo looks up a confirmed transaction and returns the payload of its
// memo instruction. A false result means "nothing to read yet": the
// transaction is not visible, carries no memo, or the lookup failed
// transiently. Callers poll against that signal with a bounded wait.
func (c *Client) FetchMemo(ctx context.Context, signature string) (string, bool) {
	var res getTransactionResult
	err := c.rpc.CallResult(ctx, methodGetTransaction, getTransactionParams{
		Signature:  signature,
		Commitment: CommitmentConfirmed,
	}, &res)
	if err != nil {
		logx.Warn("LEDGER", "Memo lookup for ", signature, " failed transiently: ", err)
		return "", false
	}
	if !res.Found || res.Transaction == nil {
		return "", false
	}
	return res.Transaction.MemoText()
}

// GetTransfer returns the transfer leg of a confirmed transaction as the
// ledger recorded it. This is how a provider verifies a claimed payment
// instead of trusting the memo's self-description.
func (c *Client) GetTransfer(ctx context.Context, signature string) (*TransferDetails, error) {
	var res getTransactionResult
	err := c.rpc.CallResult(ctx, methodGetTransaction, getTransactionParams{
		Signature:  signature,
		Commitment: CommitmentConfirmed,
	}, &res)
	if err != nil {
		return nil, errors.Errorf(errors.ErrCodeNetwork, "get transaction %s: %v", signature, err)
	}
	if !res.Found || res.Transaction == nil {
		return nil, errors.Errorf(errors.ErrCodeDecodeInvalid, "transaction %s not visible yet", signature)
	}
	leg, ok := res.Transaction.TransferLeg()
	if !ok {
		return nil, errors.Errorf(errors.ErrCodeDecodeInvalid, "transaction %s carries no transfer", signature)
	}
	return &TransferDetails{
		Sender:    leg.Source,
		Recipient: leg.Dest,
		Lamports:  leg.Lamports,
	}, nil
}
