package chain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/camden-git/aliasbackend/logger"
)

const defaultPollInterval = time.Second

// Receipt identifies a broadcast transaction. Height is zero when inclusion
// was not awaited or was not observed before the timeout.
type Receipt struct {
	TxHash string
	Height int64
}

type AdapterConfig struct {
	// ChainID is read from the node when empty.
	ChainID string
	// SendAmount is what the signer transfers to itself; it only exists so
	// the transaction can carry a memo.
	SendAmount       Coin
	WaitForInclusion bool
	InclusionTimeout time.Duration
	PollInterval     time.Duration
}

// Adapter submits memo-carrying self-transfers for a single signer. Calls
// to Submit are serialized: the account sequence is shared state and two
// transactions signed with the same sequence would collide at the node.
type Adapter struct {
	signer *Signer
	node   Node
	cfg    AdapterConfig
	log    *logger.Logger

	mu      sync.Mutex
	chainID string
	account *Account
}

func NewAdapter(signer *Signer, node Node, cfg AdapterConfig, log *logger.Logger) *Adapter {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.SendAmount.Amount <= 0 {
		cfg.SendAmount.Amount = 1
	}
	return &Adapter{
		signer:  signer,
		node:    node,
		cfg:     cfg,
		log:     log.With("component", "chain"),
		chainID: cfg.ChainID,
	}
}

// Address is the signer's address, which is both sender and recipient of
// every submitted transaction.
func (a *Adapter) Address() string {
	if a.signer == nil {
		return ""
	}
	return a.signer.Address()
}

// Submit signs and broadcasts one self-transfer carrying memo. It is not
// idempotent: every successful call puts a new transaction on chain. It
// never retries; a sequence mismatch only drops the cached account so the
// next call reloads it.
func (a *Adapter) Submit(ctx context.Context, memo string, fee Fee) (Receipt, error) {
	if a.signer == nil {
		return Receipt{}, signerUnavailable("submit", errors.New("no signer configured"))
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	log := a.log.With("submission_id", uuid.NewString(), "memo", memo)

	if err := a.prepare(ctx); err != nil {
		log.Warn("failed to load account state", "error", err)
		return Receipt{}, broadcastFailed("account", err)
	}

	tx, err := buildSelfTransfer(a.signer.Address(), a.cfg.SendAmount, memo, a.signer.pubKey, a.account.Sequence, fee)
	if err != nil {
		return Receipt{}, signingFailed("build", err)
	}
	sig, err := a.signer.Sign(tx.signBytes(a.chainID, a.account.AccountNumber))
	if err != nil {
		return Receipt{}, signingFailed("sign", err)
	}
	txBytes := tx.raw(sig)
	localHash := TxHash(txBytes)

	log.Debug("broadcasting", "sequence", a.account.Sequence, "hash", localHash)
	res, err := a.node.BroadcastTxSync(ctx, txBytes)
	if err != nil {
		// the node may or may not have accepted it; reload the sequence next time
		a.account = nil
		log.Warn("broadcast request failed", "error", err)
		return Receipt{}, broadcastFailed("broadcast", err)
	}
	if res.Code != 0 {
		if res.Code == wrongSequenceCode && (res.Codespace == "" || res.Codespace == "sdk") {
			a.account = nil
		}
		log.Warn("broadcast rejected", "code", res.Code, "codespace", res.Codespace, "log", res.Log)
		return Receipt{}, broadcastFailed("check tx", fmt.Errorf("code %d (%s): %s", res.Code, res.Codespace, res.Log))
	}
	a.account.Sequence++

	hash := strings.ToUpper(res.Hash)
	if hash == "" {
		hash = localHash
	}
	receipt := Receipt{TxHash: hash}
	if !a.cfg.WaitForInclusion {
		log.Info("broadcast accepted", "hash", hash)
		return receipt, nil
	}

	included, err := a.waitForInclusion(ctx, hash)
	switch {
	case errors.Is(err, ErrTxNotFound):
		log.Warn("broadcast accepted but inclusion not observed", "hash", hash, "timeout", a.cfg.InclusionTimeout)
		return receipt, nil
	case ctx.Err() != nil:
		// the node already accepted it; reporting failure would invite a resubmit
		log.Warn("caller gave up waiting for inclusion", "hash", hash, "error", ctx.Err())
		return receipt, nil
	case err != nil:
		return Receipt{}, broadcastFailed("inclusion", err)
	case included.Code != 0:
		log.Warn("transaction failed in block", "hash", hash, "height", included.Height, "code", included.Code, "log", included.Log)
		return Receipt{}, broadcastFailed("deliver tx", fmt.Errorf("code %d: %s", included.Code, included.Log))
	}

	receipt.Height = included.Height
	log.Info("transaction included", "hash", hash, "height", included.Height)
	return receipt, nil
}

// prepare loads the chain id and the account number/sequence once. Must be
// called with mu held.
func (a *Adapter) prepare(ctx context.Context) error {
	if a.chainID == "" {
		id, err := a.node.ChainID(ctx)
		if err != nil {
			return fmt.Errorf("failed to read chain id: %w", err)
		}
		a.chainID = id
	}
	if a.account == nil {
		acc, err := a.node.Account(ctx, a.signer.Address())
		if err != nil {
			return fmt.Errorf("failed to load account %s: %w", a.signer.Address(), err)
		}
		a.account = &acc
		a.log.Info("loaded signer account", "address", acc.Address, "account_number", acc.AccountNumber, "sequence", acc.Sequence)
	}
	return nil
}

// waitForInclusion polls for the transaction until it lands in a block or
// the inclusion timeout passes, in which case ErrTxNotFound is returned.
func (a *Adapter) waitForInclusion(ctx context.Context, hash string) (TxResult, error) {
	waitCtx := ctx
	if a.cfg.InclusionTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, a.cfg.InclusionTimeout)
		defer cancel()
	}

	ticker := time.NewTicker(a.cfg.PollInterval)
	defer ticker.Stop()

	for {
		res, err := a.node.Tx(waitCtx, hash)
		if err == nil {
			return res, nil
		}
		if !errors.Is(err, ErrTxNotFound) && waitCtx.Err() == nil {
			return TxResult{}, err
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return TxResult{}, ctx.Err()
			}
			return TxResult{}, ErrTxNotFound
		case <-ticker.C:
		}
	}
}
