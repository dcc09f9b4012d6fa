package chain

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/btcutil/bech32"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	bip39 "github.com/cosmos/go-bip39"
	"golang.org/x/crypto/ripemd160"
)

// Signer is the service account: a secp256k1 key derived from a mnemonic
// and its bech32 address.
type Signer struct {
	key     *btcec.PrivateKey
	pubKey  []byte
	address string
}

// NewSigner derives the account key from mnemonic along hdPath
// (e.g. m/44'/118'/0'/0/0) and encodes the address with prefix.
func NewSigner(mnemonic, prefix, hdPath string) (*Signer, error) {
	if strings.TrimSpace(mnemonic) == "" {
		return nil, signerUnavailable("mnemonic", errors.New("empty mnemonic"))
	}
	seed, err := bip39.NewSeedWithErrorChecking(strings.TrimSpace(mnemonic), "")
	if err != nil {
		return nil, signerUnavailable("mnemonic", err)
	}
	path, err := parseHDPath(hdPath)
	if err != nil {
		return nil, signerUnavailable("hd path", err)
	}

	// the network params only affect the xprv version bytes, which are never serialized here
	extKey, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	if err != nil {
		return nil, signerUnavailable("master key", err)
	}
	for _, idx := range path {
		extKey, err = extKey.Derive(idx)
		if err != nil {
			return nil, signerUnavailable("derive", err)
		}
	}
	privKey, err := extKey.ECPrivKey()
	if err != nil {
		return nil, signerUnavailable("private key", err)
	}

	pubKey := privKey.PubKey().SerializeCompressed()
	address, err := bech32Address(prefix, pubKey)
	if err != nil {
		return nil, signerUnavailable("address", err)
	}

	return &Signer{key: privKey, pubKey: pubKey, address: address}, nil
}

func (s *Signer) Address() string {
	return s.address
}

// PubKey returns the 33-byte compressed public key.
func (s *Signer) PubKey() []byte {
	out := make([]byte, len(s.pubKey))
	copy(out, s.pubKey)
	return out
}

// Sign returns the 64-byte r||s signature over sha256(signBytes), the form
// the Cosmos SDK verifies for secp256k1 keys.
func (s *Signer) Sign(signBytes []byte) ([]byte, error) {
	hash := sha256.Sum256(signBytes)
	sig := ecdsa.SignCompact(s.key, hash[:], true)
	if len(sig) != 65 {
		return nil, fmt.Errorf("unexpected compact signature length %d", len(sig))
	}
	// drop the recovery byte
	return sig[1:], nil
}

func bech32Address(prefix string, pubKey []byte) (string, error) {
	sha := sha256.Sum256(pubKey)
	hasher := ripemd160.New()
	if _, err := hasher.Write(sha[:]); err != nil {
		return "", err
	}
	conv, err := bech32.ConvertBits(hasher.Sum(nil), 8, 5, true)
	if err != nil {
		return "", err
	}
	return bech32.Encode(prefix, conv)
}

func parseHDPath(path string) ([]uint32, error) {
	parts := strings.Split(strings.TrimSpace(path), "/")
	if len(parts) < 2 || parts[0] != "m" {
		return nil, fmt.Errorf("invalid hd path '%s'", path)
	}
	out := make([]uint32, 0, len(parts)-1)
	for _, part := range parts[1:] {
		hardened := strings.HasSuffix(part, "'")
		n, err := strconv.ParseUint(strings.TrimSuffix(part, "'"), 10, 31)
		if err != nil {
			return nil, fmt.Errorf("invalid hd path component '%s': %w", part, err)
		}
		idx := uint32(n)
		if hardened {
			idx += hdkeychain.HardenedKeyStart
		}
		out = append(out, idx)
	}
	return out, nil
}
