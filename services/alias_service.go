package services

import (
	"context"
	"strings"

	"github.com/camden-git/aliasbackend/chain"
	"github.com/camden-git/aliasbackend/logger"
	"github.com/camden-git/aliasbackend/memo"
)

// Submitter broadcasts a memo-carrying transaction. *chain.Adapter is the
// production implementation.
type Submitter interface {
	Submit(ctx context.Context, memo string, fee chain.Fee) (chain.Receipt, error)
}

type RegisterResult struct {
	Alias  string
	TxHash string
	Memo   string
}

type ConfirmResult struct {
	From   string
	To     string
	TxHash string
	Memo   string
}

// AliasService turns register/confirm requests into on-chain memos.
//
// Neither operation consults the alias index first. Whether an alias is
// taken, and who it currently points to, is decided only when the log is
// read back, so two registrations of the same alias both succeed here.
type AliasService struct {
	chain Submitter
	fee   chain.Fee
	log   *logger.Logger
}

func NewAliasService(submitter Submitter, fee chain.Fee, log *logger.Logger) *AliasService {
	return &AliasService{chain: submitter, fee: fee, log: log.With("component", "alias_service")}
}

// Register records alias:<aliasID> on chain. The alias is trimmed first.
func (s *AliasService) Register(ctx context.Context, aliasID string) (RegisterResult, error) {
	encoded, err := memo.EncodeRegister(aliasID)
	if err != nil {
		return RegisterResult{}, err
	}
	alias := strings.TrimSpace(aliasID)
	if memo.HasSeparator(alias) {
		s.log.Warn("alias contains the confirm separator; confirms naming it will not decode", "alias", alias)
	}

	receipt, err := s.chain.Submit(ctx, encoded, s.fee)
	if err != nil {
		s.log.Error("register failed", "alias", alias, "error", err)
		return RegisterResult{}, err
	}

	s.log.Info("alias registered", "alias", alias, "tx_hash", receipt.TxHash)
	return RegisterResult{Alias: alias, TxHash: receipt.TxHash, Memo: encoded}, nil
}

// Confirm records confirm:<from>-><to> on chain. Neither side is trimmed,
// and from is not checked against the index.
func (s *AliasService) Confirm(ctx context.Context, from, to string) (ConfirmResult, error) {
	encoded, err := memo.EncodeConfirm(from, to)
	if err != nil {
		return ConfirmResult{}, err
	}
	if memo.HasSeparator(from) || memo.HasSeparator(to) {
		s.log.Warn("confirm memo is ambiguous", "memo", encoded)
	}

	receipt, err := s.chain.Submit(ctx, encoded, s.fee)
	if err != nil {
		s.log.Error("confirm failed", "from", from, "to", to, "error", err)
		return ConfirmResult{}, err
	}

	s.log.Info("alias confirmed", "from", from, "to", to, "tx_hash", receipt.TxHash)
	return ConfirmResult{From: from, To: to, TxHash: receipt.TxHash, Memo: encoded}, nil
}
