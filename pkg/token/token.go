// Package token implements the push-data field codec used by overlay
// advertisement outputs, together with the unlocking proof that spends them.
//
// A token script locks a compressed public key with OP_CHECKSIG, then pushes
// its ordered data fields followed by the OP_2DROP/OP_DROP sequence that
// clears them from the stack. Advertisements embed five fields: the protocol
// tag, the advertiser's identity key, the advertised domain, the topic or
// service name, and a linkage signature over the first four.
package token

import (
	"crypto/sha256"
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	sighash "github.com/bsv-blockchain/go-sdk/transaction/sighash"
	"github.com/bsv-blockchain/go-sdk/transaction/template/pushdrop"
)

// Static error variables for token operations
var (
	ErrEmptyScript     = errors.New("script cannot be empty")
	ErrMalformedScript = errors.New("script does not match the push-data token template")
	ErrFieldCount      = errors.New("token has too few fields")
	ErrNoLockingKey    = errors.New("locking key is required")
	ErrNoUnlockingKey  = errors.New("unlocking key is required")
	ErrNoFields        = errors.New("at least one field is required")
	ErrNoOutpoint      = errors.New("previous transaction id is required")
)

// SigHashFlags is SIGHASH_NONE | SIGHASH_ANYONECANPAY | SIGHASH_FORKID. The
// spending signature commits to the signed input alone, so an unlocking
// proof can be computed before the consuming transaction is assembled.
const SigHashFlags = sighash.None | sighash.AnyOneCanPay | sighash.ForkID

// Token is a decoded push-data token: the key the output is locked to and
// the ordered fields embedded ahead of the stack cleanup opcodes.
type Token struct {
	LockingPublicKey *ec.PublicKey
	Fields           [][]byte
}

// RequireFields returns ErrFieldCount when the token carries fewer than n
// fields.
func (t *Token) RequireFields(n int) error {
	if len(t.Fields) < n {
		return fmt.Errorf("%w: expected at least %d, got %d", ErrFieldCount, n, len(t.Fields))
	}
	return nil
}

// Lock encodes the ordered fields into a locking script spendable by the
// holder of the private key behind lockingKey.
func Lock(lockingKey *ec.PublicKey, fields [][]byte) (*script.Script, error) {
	if lockingKey == nil {
		return nil, ErrNoLockingKey
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	s := &script.Script{}
	if err := s.AppendPushData(lockingKey.Compressed()); err != nil {
		return nil, fmt.Errorf("failed to append locking key: %w", err)
	}
	if err := s.AppendOpcodes(script.OpCHECKSIG); err != nil {
		return nil, fmt.Errorf("failed to append OpCHECKSIG: %w", err)
	}

	for _, field := range fields {
		if err := s.AppendPushData(field); err != nil {
			return nil, fmt.Errorf("failed to append field: %w", err)
		}
	}

	// Clean up the stack: pairs first, then a single drop for an odd count
	notYetDropped := len(fields)
	for notYetDropped > 1 {
		if err := s.AppendOpcodes(script.Op2DROP); err != nil {
			return nil, fmt.Errorf("failed to append Op2DROP: %w", err)
		}
		notYetDropped -= 2
	}
	if notYetDropped != 0 {
		if err := s.AppendOpcodes(script.OpDROP); err != nil {
			return nil, fmt.Errorf("failed to append OpDROP: %w", err)
		}
	}

	return s, nil
}

// Decode parses a locking script back into a token. It distinguishes an
// empty script (ErrEmptyScript) from one that does not follow the push-data
// template (ErrMalformedScript).
func Decode(s *script.Script) (*Token, error) {
	if s == nil || len(*s) == 0 {
		return nil, ErrEmptyScript
	}

	result := pushdrop.Decode(s)
	if result == nil {
		return nil, ErrMalformedScript
	}

	return &Token{
		LockingPublicKey: result.LockingPublicKey,
		Fields:           result.Fields,
	}, nil
}

// Unlock builds the unlocking script that spends a token output. Everything
// the signature commits to is known before the consuming transaction exists:
// the outpoint, the locking script, and the satoshi value. The digest is
// computed over a one-input skeleton transaction with the standard defaults
// for version (1), sequence (0xffffffff), and lock time (0); with NONE and
// ANYONECANPAY set, the skeleton's missing outputs and siblings never enter
// the digest, so the wallet can splice the proof into whatever transaction
// it assembles.
func Unlock(key *ec.PrivateKey, prevTxID *chainhash.Hash, outputIndex uint32, lockingScript *script.Script, satoshis uint64) (*script.Script, error) {
	if key == nil {
		return nil, ErrNoUnlockingKey
	}
	if prevTxID == nil {
		return nil, ErrNoOutpoint
	}
	if lockingScript == nil || len(*lockingScript) == 0 {
		return nil, ErrEmptyScript
	}

	tx := transaction.NewTransaction()
	input := &transaction.TransactionInput{
		SourceTXID:       prevTxID,
		SourceTxOutIndex: outputIndex,
		SequenceNumber:   transaction.DefaultSequenceNumber,
	}
	input.SetSourceTxOutput(&transaction.TransactionOutput{
		Satoshis:      satoshis,
		LockingScript: lockingScript,
	})
	tx.AddInput(input)

	digest, err := tx.CalcInputSignatureHash(0, SigHashFlags)
	if err != nil {
		return nil, fmt.Errorf("failed to compute signature digest: %w", err)
	}
	sig, err := key.Sign(digest)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token input: %w", err)
	}

	unlockingScript := &script.Script{}
	if err := unlockingScript.AppendPushData(append(sig.Serialize(), byte(SigHashFlags))); err != nil {
		return nil, fmt.Errorf("failed to append signature push: %w", err)
	}
	return unlockingScript, nil
}

// SignFields produces the linkage signature over the concatenation of the
// given fields, appended to advertisement tokens as their final field.
func SignFields(key *ec.PrivateKey, fields [][]byte) ([]byte, error) {
	if key == nil {
		return nil, ErrNoUnlockingKey
	}
	if len(fields) == 0 {
		return nil, ErrNoFields
	}

	sig, err := key.Sign(fieldsDigest(fields))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token fields: %w", err)
	}
	return sig.Serialize(), nil
}

// VerifyFieldSignature reports whether signature is a valid linkage
// signature by key over the concatenation of the given fields.
func VerifyFieldSignature(key *ec.PublicKey, fields [][]byte, signature []byte) bool {
	if key == nil || len(fields) == 0 {
		return false
	}

	sig, err := ec.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(fieldsDigest(fields), key)
}

func fieldsDigest(fields [][]byte) []byte {
	h := sha256.New()
	for _, field := range fields {
		h.Write(field)
	}
	return h.Sum(nil)
}
