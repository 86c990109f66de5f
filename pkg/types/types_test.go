package types

import (
	"testing"

	"github.com/bsv-blockchain/go-sdk/overlay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetailsFor(t *testing.T) {
	tests := []struct {
		name        string
		protocol    overlay.Protocol
		wantOK      bool
		wantBasket  string
		wantRouting string
	}{
		{name: "SHIP", protocol: overlay.ProtocolSHIP, wantOK: true, wantBasket: "tm_ship", wantRouting: "tm_ship"},
		{name: "SLAP", protocol: overlay.ProtocolSLAP, wantOK: true, wantBasket: "tm_slap", wantRouting: "tm_slap"},
		{name: "unknown", protocol: overlay.Protocol("PING"), wantOK: false},
		{name: "empty", protocol: overlay.Protocol(""), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, ok := DetailsFor(tt.protocol)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.wantBasket, details.Basket)
				assert.Equal(t, tt.wantRouting, details.RoutingTopic)
			}
		})
	}
}

func TestRevocationInvoiceNumber(t *testing.T) {
	// These literals are part of the wire contract: changing them would orphan
	// every previously issued advertisement.
	ship, err := RevocationInvoiceNumber(overlay.ProtocolSHIP)
	require.NoError(t, err)
	assert.Equal(t, "2-service host interconnect-1", ship)

	slap, err := RevocationInvoiceNumber(overlay.ProtocolSLAP)
	require.NoError(t, err)
	assert.Equal(t, "2-service lookup availability-1", slap)

	_, err = RevocationInvoiceNumber(overlay.Protocol("PING"))
	assert.ErrorIs(t, err, ErrUnsupportedProtocol)
}

func TestAdvertisementSpendable(t *testing.T) {
	index := uint32(0)

	tests := []struct {
		name     string
		ad       *Advertisement
		expected bool
	}{
		{name: "nil advertisement", ad: nil, expected: false},
		{name: "no beef", ad: &Advertisement{OutputIndex: &index}, expected: false},
		{name: "no output index", ad: &Advertisement{Beef: []byte{0x01}}, expected: false},
		{name: "output zero is spendable", ad: &Advertisement{Beef: []byte{0x01}, OutputIndex: &index}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.ad.Spendable())
		})
	}
}
