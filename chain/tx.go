package chain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"google.golang.org/protobuf/encoding/protowire"
)

// Cosmos SDK type urls and the direct sign mode used by every transaction
// this service builds.
const (
	msgSendTypeURL     = "/cosmos.bank.v1beta1.MsgSend"
	secp256k1TypeURL   = "/cosmos.crypto.secp256k1.PubKey"
	baseAccountTypeURL = "/cosmos.auth.v1beta1.BaseAccount"
	signModeDirect     = 1
)

type Coin struct {
	Denom  string
	Amount int64
}

func (c Coin) String() string {
	return strconv.FormatInt(c.Amount, 10) + c.Denom
}

// Fee is a static fee: no simulation is done before broadcasting.
type Fee struct {
	Amount   Coin
	GasLimit uint64
}

// DefaultFee matches what the alias service has always paid per transaction.
var DefaultFee = Fee{Amount: Coin{Denom: "uxion", Amount: 200}, GasLimit: 200000}

// Account is the signer's on-chain account state.
type Account struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// unsignedTx is a self-transfer carrying a memo, ready to be signed.
type unsignedTx struct {
	bodyBytes     []byte
	authInfoBytes []byte
}

func buildSelfTransfer(address string, amount Coin, memo string, pubKey []byte, sequence uint64, fee Fee) (unsignedTx, error) {
	if address == "" {
		return unsignedTx{}, errors.New("empty signer address")
	}
	if amount.Denom == "" || amount.Amount <= 0 {
		return unsignedTx{}, fmt.Errorf("invalid transfer amount %s", amount)
	}
	if fee.Amount.Denom == "" || fee.Amount.Amount < 0 || fee.GasLimit == 0 {
		return unsignedTx{}, fmt.Errorf("invalid fee %s / %d gas", fee.Amount, fee.GasLimit)
	}
	if len(pubKey) != 33 {
		return unsignedTx{}, fmt.Errorf("unexpected public key length %d", len(pubKey))
	}

	var msg []byte
	msg = appendString(msg, 1, address)
	msg = appendString(msg, 2, address)
	msg = appendMessage(msg, 3, encodeCoin(amount))

	var body []byte
	body = appendMessage(body, 1, encodeAny(msgSendTypeURL, msg))
	body = appendString(body, 2, memo)

	var pk []byte
	pk = appendBytes(pk, 1, pubKey)

	var single []byte
	single = appendVarint(single, 1, signModeDirect)
	var modeInfo []byte
	modeInfo = appendMessage(modeInfo, 1, single)

	var signerInfo []byte
	signerInfo = appendMessage(signerInfo, 1, encodeAny(secp256k1TypeURL, pk))
	signerInfo = appendMessage(signerInfo, 2, modeInfo)
	signerInfo = appendVarint(signerInfo, 3, sequence)

	var feeBytes []byte
	feeBytes = appendMessage(feeBytes, 1, encodeCoin(fee.Amount))
	feeBytes = appendVarint(feeBytes, 2, fee.GasLimit)

	var authInfo []byte
	authInfo = appendMessage(authInfo, 1, signerInfo)
	authInfo = appendMessage(authInfo, 2, feeBytes)

	return unsignedTx{bodyBytes: body, authInfoBytes: authInfo}, nil
}

// signBytes is the SignDoc for SIGN_MODE_DIRECT.
func (tx unsignedTx) signBytes(chainID string, accountNumber uint64) []byte {
	var doc []byte
	doc = appendBytes(doc, 1, tx.bodyBytes)
	doc = appendBytes(doc, 2, tx.authInfoBytes)
	doc = appendString(doc, 3, chainID)
	doc = appendVarint(doc, 4, accountNumber)
	return doc
}

// raw encodes the TxRaw that goes over the wire.
func (tx unsignedTx) raw(signature []byte) []byte {
	var out []byte
	out = appendBytes(out, 1, tx.bodyBytes)
	out = appendBytes(out, 2, tx.authInfoBytes)
	out = appendBytes(out, 3, signature)
	return out
}

// TxHash is the uppercase hex sha256 of the raw transaction, as CometBFT reports it.
func TxHash(txBytes []byte) string {
	sum := sha256.Sum256(txBytes)
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// DecodeTxMemo extracts the body memo from a TxRaw.
func DecodeTxMemo(txBytes []byte) (string, error) {
	body, err := findBytesField(txBytes, 1)
	if err != nil {
		return "", fmt.Errorf("tx raw: %w", err)
	}
	memo, err := findBytesField(body, 2)
	if errors.Is(err, errFieldNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("tx body: %w", err)
	}
	return string(memo), nil
}

// decodeAccount reads account number and sequence out of a
// QueryAccountResponse. Account types that embed a BaseAccount (vesting and
// module accounts) keep it in field 1, so those are unwrapped.
func decodeAccount(resp []byte) (Account, error) {
	anyBytes, err := findBytesField(resp, 1)
	if err != nil {
		return Account{}, fmt.Errorf("query account response: %w", err)
	}
	typeURL, err := findBytesField(anyBytes, 1)
	if err != nil {
		return Account{}, fmt.Errorf("account any: %w", err)
	}
	value, err := findBytesField(anyBytes, 2)
	if err != nil {
		return Account{}, fmt.Errorf("account any: %w", err)
	}

	for depth := 0; string(typeURL) != baseAccountTypeURL && depth < 3; depth++ {
		if looksLikeBaseAccount(value) {
			break
		}
		inner, err := findBytesField(value, 1)
		if err != nil {
			return Account{}, fmt.Errorf("unsupported account type %s", typeURL)
		}
		value = inner
	}

	var acc Account
	err = walkFields(value, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			acc.Address = string(v)
			return n, nil
		case num == 3 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			acc.AccountNumber = v
			return n, nil
		case num == 4 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			acc.Sequence = v
			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
	if err != nil {
		return Account{}, fmt.Errorf("base account: %w", err)
	}
	if acc.Address == "" {
		return Account{}, fmt.Errorf("unsupported account type %s", typeURL)
	}
	return acc, nil
}

// looksLikeBaseAccount reports whether field 1 of b is a printable address string.
func looksLikeBaseAccount(b []byte) bool {
	addr, err := findBytesField(b, 1)
	if err != nil || len(addr) == 0 {
		return false
	}
	for _, c := range addr {
		if c < 0x21 || c > 0x7e {
			return false
		}
	}
	return strings.Contains(string(addr), "1")
}

func encodeQueryAccountRequest(address string) []byte {
	return appendString(nil, 1, address)
}

func encodeCoin(c Coin) []byte {
	var b []byte
	b = appendString(b, 1, c.Denom)
	b = appendString(b, 2, strconv.FormatInt(c.Amount, 10))
	return b
}

func encodeAny(typeURL string, value []byte) []byte {
	var b []byte
	b = appendString(b, 1, typeURL)
	b = appendBytes(b, 2, value)
	return b
}

// proto3 omits default values; the Cosmos SDK rejects non-canonical encodings
// in signed bytes, so the helpers below do the same.

func appendString(b []byte, num protowire.Number, v string) []byte {
	if v == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, v)
}

func appendBytes(b []byte, num protowire.Number, v []byte) []byte {
	if len(v) == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendMessage(b []byte, num protowire.Number, v []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, v)
}

func appendVarint(b []byte, num protowire.Number, v uint64) []byte {
	if v == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

var errFieldNotFound = errors.New("field not found")

// findBytesField returns the first length-delimited field numbered num, or
// errFieldNotFound.
func findBytesField(b []byte, num protowire.Number) ([]byte, error) {
	var (
		found []byte
		ok    bool
	)
	err := walkFields(b, func(n protowire.Number, typ protowire.Type, rest []byte) (int, error) {
		if n == num && typ == protowire.BytesType && !ok {
			v, m := protowire.ConsumeBytes(rest)
			found, ok = v, true
			return m, nil
		}
		return protowire.ConsumeFieldValue(n, typ, rest), nil
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errFieldNotFound
	}
	return found, nil
}

func walkFields(b []byte, fn func(num protowire.Number, typ protowire.Type, rest []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		if m < 0 {
			return protowire.ParseError(m)
		}
		b = b[m:]
	}
	return nil
}
