package utils

import (
	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/token"
	"github.com/bsv-blockchain/go-sdk/overlay"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/wallet"
)

// IsTokenSignatureCorrectlyLinked checks that an advertisement token's
// locking key and trailing signature are both linked to the claimed identity
// key.
//
// The fields are the full on-chain field list, signature last. The locking
// key must be the identity key's child for the protocol named by the first
// field, derived against the "anyone" counterparty, and the signature must
// verify over the remaining fields under that same child key. Either check
// failing, or any undecodable input, yields false.
func IsTokenSignatureCorrectlyLinked(lockingPublicKey *ec.PublicKey, fields [][]byte) bool {
	if lockingPublicKey == nil || len(fields) < 3 {
		return false
	}

	signature := fields[len(fields)-1]
	signed := fields[: len(fields)-1 : len(fields)-1]

	protocol := wallet.Protocol{SecurityLevel: wallet.SecurityLevelEveryAppAndCounterparty}
	if protocol.Protocol = string(overlay.Protocol(signed[0]).ID()); protocol.Protocol == "" {
		return false
	}

	identityKey, err := ec.ParsePubKey(signed[1])
	if err != nil {
		return false
	}

	anyonePrivKey, _ := wallet.AnyoneKey()

	expected, err := wallet.NewKeyDeriver(anyonePrivKey).DerivePublicKey(
		protocol,
		"1",
		wallet.Counterparty{Type: wallet.CounterpartyTypeOther, Counterparty: identityKey},
		false,
	)
	if err != nil {
		return false
	}

	if !expected.IsEqual(lockingPublicKey) {
		return false
	}
	return token.VerifyFieldSignature(expected, signed, signature)
}
