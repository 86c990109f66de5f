package token

import (
	"testing"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKeyHex = "2796de8a034d6a07f2f9dff368f93cd1393bdd852c3ae0f6fcfd19b5bd4926fc"

func testKey(t *testing.T) *ec.PrivateKey {
	t.Helper()
	key, err := ec.PrivateKeyFromHex(testPrivateKeyHex)
	require.NoError(t, err)
	return key
}

func sampleFields() [][]byte {
	return [][]byte{
		[]byte("SHIP"),
		{0x02, 0x79, 0xbe, 0x66, 0x7e},
		[]byte("https://example.com/"),
		[]byte("tm_example"),
	}
}

func TestLockDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		fields [][]byte
	}{
		{name: "single field", fields: [][]byte{[]byte("SHIP")}},
		{name: "two fields", fields: [][]byte{[]byte("SHIP"), []byte("tm_example")}},
		{name: "four fields", fields: sampleFields()},
		{name: "five fields", fields: append(sampleFields(), []byte("signature-bytes"))},
	}

	key := testKey(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lockingScript, err := Lock(key.PubKey(), tt.fields)
			require.NoError(t, err)
			require.NotNil(t, lockingScript)

			decoded, err := Decode(lockingScript)
			require.NoError(t, err)
			assert.Equal(t, tt.fields, decoded.Fields)
			require.NotNil(t, decoded.LockingPublicKey)
			assert.True(t, decoded.LockingPublicKey.IsEqual(key.PubKey()))
		})
	}
}

func TestLockRejectsInvalidInput(t *testing.T) {
	key := testKey(t)

	_, err := Lock(nil, sampleFields())
	assert.ErrorIs(t, err, ErrNoLockingKey)

	_, err = Lock(key.PubKey(), nil)
	assert.ErrorIs(t, err, ErrNoFields)
}

func TestDecodeRejectsMalformedScripts(t *testing.T) {
	_, err := Decode(nil)
	assert.ErrorIs(t, err, ErrEmptyScript)

	_, err = Decode(&script.Script{})
	assert.ErrorIs(t, err, ErrEmptyScript)

	// OP_RETURN only
	_, err = Decode(script.NewFromBytes([]byte{0x6a}))
	assert.ErrorIs(t, err, ErrMalformedScript)

	// Truncated P2PKH prefix
	_, err = Decode(script.NewFromBytes([]byte{0x76, 0xa9, 0x14, 0x01, 0x02}))
	assert.ErrorIs(t, err, ErrMalformedScript)
}

func TestRequireFields(t *testing.T) {
	tok := &Token{Fields: sampleFields()[:3]}

	assert.NoError(t, tok.RequireFields(3))
	assert.ErrorIs(t, tok.RequireFields(4), ErrFieldCount)
}

func TestSignFieldsRoundTrip(t *testing.T) {
	key := testKey(t)
	fields := sampleFields()

	signature, err := SignFields(key, fields)
	require.NoError(t, err)
	require.NotEmpty(t, signature)

	assert.True(t, VerifyFieldSignature(key.PubKey(), fields, signature))
}

func TestVerifyFieldSignatureRejections(t *testing.T) {
	key := testKey(t)
	fields := sampleFields()

	signature, err := SignFields(key, fields)
	require.NoError(t, err)

	t.Run("tampered field", func(t *testing.T) {
		tampered := sampleFields()
		tampered[2] = []byte("https://attacker.example/")
		assert.False(t, VerifyFieldSignature(key.PubKey(), tampered, signature))
	})

	t.Run("wrong key", func(t *testing.T) {
		other, err := ec.PrivateKeyFromHex("417539c0352db553fdcbd9b1a52ac9f88dbb0bd5bd6eb4e0e3f6a5a1b2c3d4e5")
		require.NoError(t, err)
		assert.False(t, VerifyFieldSignature(other.PubKey(), fields, signature))
	})

	t.Run("garbage signature", func(t *testing.T) {
		assert.False(t, VerifyFieldSignature(key.PubKey(), fields, []byte{0x01, 0x02, 0x03}))
	})

	t.Run("nil key", func(t *testing.T) {
		assert.False(t, VerifyFieldSignature(nil, fields, signature))
	})
}

func TestUnlock(t *testing.T) {
	key := testKey(t)
	lockingScript, err := Lock(key.PubKey(), sampleFields())
	require.NoError(t, err)

	prevTxID := &chainhash.Hash{0x01, 0x02, 0x03}

	t.Run("produces a signature push", func(t *testing.T) {
		unlockingScript, err := Unlock(key, prevTxID, 0, lockingScript, 1)
		require.NoError(t, err)
		require.NotNil(t, unlockingScript)
		require.NotEmpty(t, *unlockingScript)

		// The script is a single push: length prefix, DER signature, flags byte
		raw := []byte(*unlockingScript)
		assert.Equal(t, byte(SigHashFlags), raw[len(raw)-1])
	})

	t.Run("nil key", func(t *testing.T) {
		_, err := Unlock(nil, prevTxID, 0, lockingScript, 1)
		assert.ErrorIs(t, err, ErrNoUnlockingKey)
	})

	t.Run("nil outpoint", func(t *testing.T) {
		_, err := Unlock(key, nil, 0, lockingScript, 1)
		assert.ErrorIs(t, err, ErrNoOutpoint)
	})

	t.Run("empty locking script", func(t *testing.T) {
		_, err := Unlock(key, prevTxID, 0, &script.Script{}, 1)
		assert.ErrorIs(t, err, ErrEmptyScript)
	})
}

func TestUnlockDistinctOutpoints(t *testing.T) {
	key := testKey(t)
	lockingScript, err := Lock(key.PubKey(), sampleFields())
	require.NoError(t, err)

	first, err := Unlock(key, &chainhash.Hash{0x01}, 0, lockingScript, 1)
	require.NoError(t, err)
	second, err := Unlock(key, &chainhash.Hash{0x02}, 0, lockingScript, 1)
	require.NoError(t, err)

	// Different outpoints must never share a digest
	assert.NotEqual(t, []byte(*first), []byte(*second))
}

func TestUnlockSignatureMatchesInputDigest(t *testing.T) {
	key := testKey(t)
	lockingScript, err := Lock(key.PubKey(), sampleFields())
	require.NoError(t, err)

	prevTxID := &chainhash.Hash{0x0a, 0x0b, 0x0c}
	const outputIndex = uint32(3)
	const satoshis = uint64(1)

	unlockingScript, err := Unlock(key, prevTxID, outputIndex, lockingScript, satoshis)
	require.NoError(t, err)

	// Recompute the digest the way a node validating the spend would: a
	// transaction whose sole input references the token outpoint, hashed
	// under the same flags.
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
	require.NoError(t, err)

	// Single push: length prefix, DER signature, trailing flags byte
	raw := []byte(*unlockingScript)
	require.Greater(t, len(raw), 2)
	require.Equal(t, byte(SigHashFlags), raw[len(raw)-1])

	sig, err := ec.ParseSignature(raw[1 : len(raw)-1])
	require.NoError(t, err)
	assert.True(t, sig.Verify(digest, key.PubKey()))
}
