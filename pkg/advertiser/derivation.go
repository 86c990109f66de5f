package advertiser

import (
	"fmt"

	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/types"
	"github.com/bsv-blockchain/go-sdk/overlay"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/wallet"
)

// advertisementKeyID scopes advertisement locking keys. Fixed at "1":
// reissued advertisements for the same protocol and identity deliberately
// derive the same key, so older tokens stay spendable.
const advertisementKeyID = "1"

// advertisementProtocol maps an overlay protocol onto the BRC-43 protocol
// identifier used for advertisement key derivation. The resulting invoice
// number follows the template returned by types.RevocationInvoiceNumber.
func advertisementProtocol(protocol overlay.Protocol) (wallet.Protocol, error) {
	walletProtocol := wallet.Protocol{SecurityLevel: wallet.SecurityLevelEveryAppAndCounterparty}
	if walletProtocol.Protocol = string(protocol.ID()); walletProtocol.Protocol == "" {
		return wallet.Protocol{}, fmt.Errorf("%w: %s", types.ErrUnsupportedProtocol, protocol)
	}
	return walletProtocol, nil
}

// DeriveUnlockingKey derives the child private key that locks and later
// spends advertisement outputs of the given protocol. Derivation runs
// against the openly known "anyone" counterparty, which is what lets any
// overlay host verify token linkage without contacting the advertiser.
func DeriveUnlockingKey(keyDeriver *wallet.KeyDeriver, protocol overlay.Protocol) (*ec.PrivateKey, error) {
	walletProtocol, err := advertisementProtocol(protocol)
	if err != nil {
		return nil, err
	}

	key, err := keyDeriver.DerivePrivateKey(
		walletProtocol,
		advertisementKeyID,
		wallet.Counterparty{Type: wallet.CounterpartyTypeAnyone},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to derive %s unlocking key: %w", protocol, err)
	}
	return key, nil
}
