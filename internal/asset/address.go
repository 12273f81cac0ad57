package asset

import (
	"errors"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

var ErrInvalidAddress = errors.New("asset: invalid address")

// Named accounts (alice.near, app.alice.near) or 64-char implicit hex accounts.
var nearAccount = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// ValidateAddress checks addr against the address format of blockchain.
func ValidateAddress(blockchain Blockchain, addr string) error {
	if addr == "" {
		return ErrInvalidAddress
	}

	switch blockchain.Family() {
	case FamilyEVM:
		if !common.IsHexAddress(addr) {
			return ErrInvalidAddress
		}
	case FamilySolana:
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return errors.Join(ErrInvalidAddress, err)
		}
	case FamilyNear:
		if len(addr) < 2 || len(addr) > 64 || !nearAccount.MatchString(addr) {
			return ErrInvalidAddress
		}
	default:
		return ErrInvalidAddress
	}
	return nil
}

// IsValidAddress is ValidateAddress as a predicate.
func IsValidAddress(blockchain Blockchain, addr string) bool {
	return ValidateAddress(blockchain, addr) == nil
}

// ReceiverRequired reports whether a swap needs an explicit receiver, which is
// the case whenever the destination uses a different wallet family.
func ReceiverRequired(from, to Blockchain) bool {
	return from.Family() != to.Family()
}
