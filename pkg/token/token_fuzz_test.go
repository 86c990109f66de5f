package token

import (
	"testing"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/stretchr/testify/require"
)

// FuzzDecode ensures arbitrary script bytes never panic the decoder and that
// every successful decode yields a locking key.
func FuzzDecode(f *testing.F) {
	key, err := ec.PrivateKeyFromHex(testPrivateKeyHex)
	require.NoError(f, err)

	valid, err := Lock(key.PubKey(), sampleFields())
	require.NoError(f, err)

	f.Add([]byte(*valid))
	f.Add([]byte{})
	f.Add([]byte{0x6a})
	f.Add([]byte{0x76, 0xa9, 0x14})
	f.Add([]byte{0x21, 0x02, 0xff})
	f.Add([]byte{0x00, 0xac})

	f.Fuzz(func(t *testing.T, data []byte) {
		tok, err := Decode(script.NewFromBytes(data))
		if err != nil {
			return
		}
		if tok.LockingPublicKey == nil {
			t.Error("decoded token without a locking key")
		}
	})
}
