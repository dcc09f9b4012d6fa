package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/camden-git/aliasbackend/chain"
	"github.com/camden-git/aliasbackend/logger"
	"github.com/camden-git/aliasbackend/memo"
)

type stubSubmitter struct {
	mu    sync.Mutex
	memos []string
	fees  []chain.Fee
	err   error
}

func (s *stubSubmitter) Submit(ctx context.Context, m string, fee chain.Fee) (chain.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return chain.Receipt{}, s.err
	}
	s.memos = append(s.memos, m)
	s.fees = append(s.fees, fee)
	return chain.Receipt{TxHash: fmt.Sprintf("TX%d", len(s.memos))}, nil
}

func TestRegister(t *testing.T) {
	stub := &stubSubmitter{}
	svc := NewAliasService(stub, chain.DefaultFee, logger.Nop())

	res, err := svc.Register(context.Background(), "demo01")
	require.NoError(t, err)
	require.Equal(t, RegisterResult{Alias: "demo01", TxHash: "TX1", Memo: "alias:demo01"}, res)
	require.Equal(t, []chain.Fee{chain.DefaultFee}, stub.fees)
}

func TestRegister_TrimsAlias(t *testing.T) {
	stub := &stubSubmitter{}
	svc := NewAliasService(stub, chain.DefaultFee, logger.Nop())

	res, err := svc.Register(context.Background(), "  demo01  ")
	require.NoError(t, err)
	require.Equal(t, "demo01", res.Alias)
	require.Equal(t, []string{"alias:demo01"}, stub.memos)
}

func TestRegister_InvalidInputNeverSubmits(t *testing.T) {
	stub := &stubSubmitter{}
	svc := NewAliasService(stub, chain.DefaultFee, logger.Nop())

	for _, in := range []string{"", "   "} {
		_, err := svc.Register(context.Background(), in)
		require.ErrorIs(t, err, memo.ErrInvalidInput)
	}
	require.Empty(t, stub.memos)
}

func TestRegister_DuplicateIsNotRejected(t *testing.T) {
	stub := &stubSubmitter{}
	svc := NewAliasService(stub, chain.DefaultFee, logger.Nop())

	_, err := svc.Register(context.Background(), "demo01")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "demo01")
	require.NoError(t, err)
	require.Equal(t, []string{"alias:demo01", "alias:demo01"}, stub.memos)
}

func TestRegister_PropagatesChainError(t *testing.T) {
	chainErr := &chain.Error{Kind: chain.ErrBroadcastFailed, Op: "check tx", Err: errors.New("insufficient funds")}
	svc := NewAliasService(&stubSubmitter{err: chainErr}, chain.DefaultFee, logger.Nop())

	_, err := svc.Register(context.Background(), "demo01")
	require.ErrorIs(t, err, chain.ErrBroadcastFailed)
	require.Same(t, chainErr, err)
}

func TestConfirm(t *testing.T) {
	stub := &stubSubmitter{}
	svc := NewAliasService(stub, chain.DefaultFee, logger.Nop())

	res, err := svc.Confirm(context.Background(), "demo01", "demo02")
	require.NoError(t, err)
	require.Equal(t, ConfirmResult{From: "demo01", To: "demo02", TxHash: "TX1", Memo: "confirm:demo01->demo02"}, res)
}

func TestConfirm_DoesNotTrim(t *testing.T) {
	stub := &stubSubmitter{}
	svc := NewAliasService(stub, chain.DefaultFee, logger.Nop())

	res, err := svc.Confirm(context.Background(), " demo01", "demo02 ")
	require.NoError(t, err)
	require.Equal(t, " demo01", res.From)
	require.Equal(t, "confirm: demo01->demo02 ", res.Memo)
}

func TestConfirm_InvalidInputNeverSubmits(t *testing.T) {
	stub := &stubSubmitter{}
	svc := NewAliasService(stub, chain.DefaultFee, logger.Nop())

	_, err := svc.Confirm(context.Background(), "demo01", "")
	require.ErrorIs(t, err, memo.ErrInvalidInput)
	_, err = svc.Confirm(context.Background(), "", "demo02")
	require.ErrorIs(t, err, memo.ErrInvalidInput)
	require.Empty(t, stub.memos)
}
