// Package types defines the advertisement records, the SHIP/SLAP protocol
// registry, and the external capability interfaces the advertiser depends on.
package types

import (
	"context"
	"errors"
	"fmt"

	"github.com/bsv-blockchain/go-sdk/overlay"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// ErrUnsupportedProtocol is returned for any protocol outside the closed
// SHIP/SLAP registry.
var ErrUnsupportedProtocol = errors.New("unsupported advertisement protocol")

// Advertisement represents a SHIP or SLAP advertisement token.
//
// Beef is the Atomic BEEF of the token's own transaction, and OutputIndex
// locates the token within it; both are populated by FindAllAdvertisements.
// A freshly parsed advertisement carries neither, and
// OutputIndex is a pointer so that output zero is distinguishable from
// "position unknown".
type Advertisement struct {
	Protocol       overlay.Protocol `json:"protocol"`
	IdentityKey    string           `json:"identityKey"`
	Domain         string           `json:"domain"`
	TopicOrService string           `json:"topicOrService"`
	Beef           []byte           `json:"beef,omitempty"`
	OutputIndex    *uint32          `json:"outputIndex,omitempty"`
}

// Spendable reports whether the advertisement carries the transaction bundle
// and output position required to revoke it.
func (a *Advertisement) Spendable() bool {
	return a != nil && len(a.Beef) > 0 && a.OutputIndex != nil
}

// AdvertisementData describes an advertisement to be created. Memo, when set,
// overrides the generated output description recorded by the wallet.
type AdvertisementData struct {
	Protocol           overlay.Protocol `json:"protocol"`
	TopicOrServiceName string           `json:"topicOrServiceName"`
	Memo               string           `json:"memo,omitempty"`
}

// Advertiser issues, discovers, and revokes overlay advertisements.
type Advertiser interface {
	// Init prepares the advertiser for use. It must be called once before
	// any of the ledger-touching operations.
	Init(ctx context.Context) error

	// CreateAdvertisements issues one token per entry in a single
	// transaction and returns the bundle tagged with the routing topics of
	// the protocols involved.
	CreateAdvertisements(ctx context.Context, adsData []*AdvertisementData) (*overlay.TaggedBEEF, error)

	// FindAllAdvertisements returns every recognizable advertisement of the
	// given protocol currently held by the wallet.
	FindAllAdvertisements(ctx context.Context, protocol overlay.Protocol) ([]*Advertisement, error)

	// RevokeAdvertisement spends the advertisement's output and returns the
	// revocation bundle tagged with the protocol's routing topic.
	RevokeAdvertisement(ctx context.Context, ad *Advertisement) (*overlay.TaggedBEEF, error)

	// ParseAdvertisement decodes a single output script. It returns nil for
	// anything that is not a well-formed advertisement token.
	ParseAdvertisement(outputScript *script.Script) *Advertisement
}

// ProtocolDetails holds the wallet basket an advertisement protocol stores
// its tokens in and the overlay topic its bundles are routed to.
type ProtocolDetails struct {
	Basket       string
	RoutingTopic string
	invoiceID    string
}

var protocolRegistry = map[overlay.Protocol]ProtocolDetails{
	overlay.ProtocolSHIP: {
		Basket:       "tm_ship",
		RoutingTopic: "tm_ship",
		invoiceID:    "service host interconnect",
	},
	overlay.ProtocolSLAP: {
		Basket:       "tm_slap",
		RoutingTopic: "tm_slap",
		invoiceID:    "service lookup availability",
	},
}

// DetailsFor returns the registry entry for a protocol. The second return
// value is false for protocols outside the SHIP/SLAP set.
func DetailsFor(protocol overlay.Protocol) (ProtocolDetails, bool) {
	details, ok := protocolRegistry[protocol]
	return details, ok
}

// RevocationInvoiceNumber returns the BRC-43 invoice number scoping the key
// able to spend an advertisement output of the given protocol.
//
// The template is fixed at security level 2 with key identifier "1". It must
// not change: it is what ties previously issued advertisements to their
// revocation keys, and it keeps SHIP and SLAP unlock paths disjoint.
func RevocationInvoiceNumber(protocol overlay.Protocol) (string, error) {
	details, ok := protocolRegistry[protocol]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}
	return fmt.Sprintf("2-%s-1", details.invoiceID), nil
}

// WalletOutput is one spendable output held by the wallet. Beef is a BEEF
// container that includes the transaction that produced the output; wallets
// may share one container across the outputs of a listing.
type WalletOutput struct {
	Outpoint      transaction.Outpoint
	Satoshis      uint64
	LockingScript *script.Script
	Beef          []byte
}

// ListOutputsArgs selects the outputs of a single basket. IncludeEnvelopes
// asks the wallet to attach the transaction envelope to each output.
type ListOutputsArgs struct {
	Basket           string
	IncludeEnvelopes bool
}

// ListOutputsResult carries the outputs returned for a basket query.
type ListOutputsResult struct {
	Outputs []*WalletOutput
}

// ActionInput spends an existing output inside a wallet action. The
// unlocking script is final; the wallet must not re-sign it.
type ActionInput struct {
	Outpoint         transaction.Outpoint
	UnlockingScript  *script.Script
	InputDescription string
}

// ActionOutput adds a new output to a wallet action and tags it for the
// given basket.
type ActionOutput struct {
	LockingScript     *script.Script
	Satoshis          uint64
	Basket            string
	OutputDescription string
}

// CreateActionArgs describes a transaction for the wallet to build, fund,
// and sign. InputBeef supplies the envelopes of any transactions referenced
// by Inputs.
type CreateActionArgs struct {
	Description string
	Labels      []string
	InputBeef   []byte
	Inputs      []ActionInput
	Outputs     []ActionOutput
}

// CreateActionResult returns the signed transaction produced by the wallet.
type CreateActionResult struct {
	Txid string
	Tx   []byte
}

// Wallet is the capability surface the advertiser needs from a BRC-100
// wallet: basket-scoped output listing and transaction creation. Anything
// satisfying it can back a WalletAdvertiser.
type Wallet interface {
	ListOutputs(ctx context.Context, args ListOutputsArgs) (*ListOutputsResult, error)
	CreateAction(ctx context.Context, args CreateActionArgs) (*CreateActionResult, error)
}

// ProofService packages a transaction into a portable proof bundle suitable
// for submission to overlay hosts.
type ProofService interface {
	Bundle(ctx context.Context, tx *transaction.Transaction) ([]byte, error)
}
