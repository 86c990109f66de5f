// Package advertiser implements the WalletAdvertiser for creating, finding,
// and revoking SHIP (Service Host Interconnect Protocol) and SLAP (Service
// Lookup Availability Protocol) advertisements over a BRC-100 wallet.
package advertiser

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/token"
	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/types"
	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/utils"
	"github.com/bsv-blockchain/go-sdk/overlay"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/wallet"
)

// AdTokenValue is the satoshi value carried by every advertisement output.
const AdTokenValue = 1

// Static error variables for err113 compliance
var (
	errPrivateKeyRequired            = errors.New("privateKey parameter is required and cannot be empty")
	errDomainRequired                = errors.New("domain parameter is required and cannot be empty")
	errDomainNotAdvertisable         = errors.New("domain is not valid according to BRC-101 specification")
	errWalletRequired                = errors.New("wallet is required")
	errAlreadyInitialized            = errors.New("WalletAdvertiser is already initialized")
	errNotInitialized                = errors.New("WalletAdvertiser must be initialized before use")
	errNoAdvertisementData           = errors.New("at least one advertisement data entry is required")
	errNoAdvertisement               = errors.New("an advertisement is required for revocation")
	errInvalidTopicOrServiceName     = errors.New("invalid topic or service name")
	errTopicNameEmpty                = errors.New("topicOrServiceName cannot be empty")
	errMissingBeefData               = errors.New("advertisement is missing BEEF data required for revocation")
	errMissingOutputIndex            = errors.New("advertisement is missing the output index required for revocation")
	errOutputIndexOutOfRange         = errors.New("advertisement output index is out of range")
	errBeefMissingTransaction        = errors.New("advertisement transaction not found in BEEF data")
	errPrivateKeyAllZeros            = errors.New("private key cannot be all zeros")
	errPrivateKeyInsufficientLength  = errors.New("private key must be exactly 32 bytes (64 hex characters)")
	errPrivateKeyInsufficientEntropy = errors.New("private key appears to have insufficient entropy")
)

// WalletAdvertiser implements the types.Advertiser interface on top of a
// narrow wallet capability. The wallet funds and signs transactions;
// advertisement key derivation, token construction, and revocation proofs
// all happen here.
type WalletAdvertiser struct {
	// domain is the BRC-101 URI advertised for service discovery
	domain string
	// privateKey is the advertiser's identity key
	privateKey *ec.PrivateKey
	// keyDeriver derives the per-protocol advertisement keys
	keyDeriver *wallet.KeyDeriver
	// identityKey is the hex-encoded compressed public key, set by Init
	identityKey string
	// wallet lists advertisement outputs and creates transactions
	wallet types.Wallet
	// proofs packages signed transactions into portable bundles
	proofs types.ProofService
	// logger records per-output scan diagnostics
	logger *slog.Logger
	// initialized tracks whether Init has completed
	initialized bool
}

// Compile-time verification that WalletAdvertiser implements types.Advertiser
var _ types.Advertiser = (*WalletAdvertiser)(nil)

// Option configures optional WalletAdvertiser collaborators.
type Option func(*WalletAdvertiser)

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *WalletAdvertiser) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithProofService replaces the default BEEF bundler, letting callers attach
// a service that includes merkle proofs for mined ancestors.
func WithProofService(proofs types.ProofService) Option {
	return func(w *WalletAdvertiser) {
		if proofs != nil {
			w.proofs = proofs
		}
	}
}

// NewWalletAdvertiser creates a new WalletAdvertiser instance. The private
// key is the advertiser's identity key in hex format, and domain is the
// BRC-101 URI that will be embedded in every advertisement.
func NewWalletAdvertiser(privateKeyHex, domain string, walletClient types.Wallet, opts ...Option) (*WalletAdvertiser, error) {
	if strings.TrimSpace(privateKeyHex) == "" {
		return nil, errPrivateKeyRequired
	}
	if strings.TrimSpace(domain) == "" {
		return nil, errDomainRequired
	}
	if walletClient == nil {
		return nil, errWalletRequired
	}

	if err := validatePrivateKeyMaterial(privateKeyHex); err != nil {
		return nil, err
	}
	if !utils.IsAdvertisableURI(domain) {
		return nil, fmt.Errorf("%w: %s", errDomainNotAdvertisable, domain)
	}

	privateKey, err := ec.PrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to create private key object: %w", err)
	}

	w := &WalletAdvertiser{
		domain:     domain,
		privateKey: privateKey,
		keyDeriver: wallet.NewKeyDeriver(privateKey),
		wallet:     walletClient,
		proofs:     beefProofService{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Init prepares the advertiser for use and derives the identity key. It must
// be called once before any of the ledger-touching operations.
func (w *WalletAdvertiser) Init(_ context.Context) error {
	if w.initialized {
		return errAlreadyInitialized
	}

	w.identityKey = hex.EncodeToString(w.privateKey.PubKey().Compressed())
	w.initialized = true
	return nil
}

// IsInitialized returns whether the advertiser has been initialized.
func (w *WalletAdvertiser) IsInitialized() bool {
	return w.initialized
}

// IdentityKey returns the hex-encoded identity key. Empty before Init.
func (w *WalletAdvertiser) IdentityKey() string {
	return w.identityKey
}

// Domain returns the advertised BRC-101 URI.
func (w *WalletAdvertiser) Domain() string {
	return w.domain
}

// CreateAdvertisements issues one advertisement token per entry in a single
// wallet transaction. Every entry is validated before the wallet is touched;
// a single bad entry fails the whole batch. The returned bundle is tagged
// with the routing topic of each protocol involved, deduplicated.
func (w *WalletAdvertiser) CreateAdvertisements(ctx context.Context, adsData []*types.AdvertisementData) (*overlay.TaggedBEEF, error) {
	if !w.initialized {
		return nil, errNotInitialized
	}
	if len(adsData) == 0 {
		return nil, errNoAdvertisementData
	}

	identityKey := w.privateKey.PubKey().Compressed()

	outputs := make([]types.ActionOutput, 0, len(adsData))
	topics := make([]string, 0, len(adsData))
	seenTopics := make(map[string]bool, len(adsData))

	for i, adData := range adsData {
		details, ok := types.DetailsFor(adData.Protocol)
		if !ok {
			return nil, fmt.Errorf("invalid advertisement data at index %d: %w: %s", i, types.ErrUnsupportedProtocol, adData.Protocol)
		}
		if err := validateTopicOrServiceName(adData.Protocol, adData.TopicOrServiceName); err != nil {
			return nil, fmt.Errorf("invalid advertisement data at index %d: %w", i, err)
		}

		lockingKey, err := DeriveUnlockingKey(w.keyDeriver, adData.Protocol)
		if err != nil {
			return nil, err
		}

		fields := [][]byte{
			[]byte(adData.Protocol),
			identityKey,
			[]byte(w.domain),
			[]byte(adData.TopicOrServiceName),
		}
		signature, err := token.SignFields(lockingKey, fields)
		if err != nil {
			return nil, fmt.Errorf("failed to sign advertisement fields: %w", err)
		}
		lockingScript, err := token.Lock(lockingKey.PubKey(), append(fields, signature))
		if err != nil {
			return nil, fmt.Errorf("failed to create locking script: %w", err)
		}

		memo := adData.Memo
		if memo == "" {
			memo = fmt.Sprintf("%s advertisement of %s", adData.Protocol, adData.TopicOrServiceName)
		}
		outputs = append(outputs, types.ActionOutput{
			LockingScript:     lockingScript,
			Satoshis:          AdTokenValue,
			Basket:            details.Basket,
			OutputDescription: memo,
		})

		if !seenTopics[details.RoutingTopic] {
			seenTopics[details.RoutingTopic] = true
			topics = append(topics, details.RoutingTopic)
		}
	}

	createActionResult, err := w.wallet.CreateAction(ctx, types.CreateActionArgs{
		Description: "Issue overlay service advertisements",
		Outputs:     outputs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create advertisement action: %w", err)
	}

	beefBytes, err := w.bundle(ctx, createActionResult.Tx)
	if err != nil {
		return nil, err
	}

	return &overlay.TaggedBEEF{Beef: beefBytes, Topics: topics}, nil
}

// FindAllAdvertisements scans the protocol's wallet basket and returns every
// output that decodes as an advertisement of that protocol. Outputs that
// fail to decode are logged and skipped rather than failing the scan. Each
// returned advertisement carries the envelope and output index needed for
// revocation.
func (w *WalletAdvertiser) FindAllAdvertisements(ctx context.Context, protocol overlay.Protocol) ([]*types.Advertisement, error) {
	if !w.initialized {
		return nil, errNotInitialized
	}
	details, ok := types.DetailsFor(protocol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedProtocol, protocol)
	}

	listResult, err := w.wallet.ListOutputs(ctx, types.ListOutputsArgs{
		Basket:           details.Basket,
		IncludeEnvelopes: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s outputs: %w", details.Basket, err)
	}

	advertisements := make([]*types.Advertisement, 0, len(listResult.Outputs))
	for _, output := range listResult.Outputs {
		if len(output.Beef) < 4 {
			w.logger.Warn("skipping output with truncated envelope",
				"txid", output.Outpoint.Txid.String(),
				"outputIndex", output.Outpoint.Index)
			continue
		}
		beef, err := transaction.NewBeefFromBytes(output.Beef)
		if err != nil {
			w.logger.Warn("skipping output with unusable envelope",
				"txid", output.Outpoint.Txid.String(),
				"outputIndex", output.Outpoint.Index,
				"error", err)
			continue
		}

		// The wallet may hand back one envelope covering the whole basket,
		// so the output's own transaction has to be located by txid.
		tx := beef.FindTransaction(output.Outpoint.Txid.String())
		if tx == nil {
			w.logger.Warn("skipping output whose transaction is missing from its envelope",
				"txid", output.Outpoint.Txid.String(),
				"outputIndex", output.Outpoint.Index)
			continue
		}

		outputIndex := output.Outpoint.Index
		if int(outputIndex) >= len(tx.Outputs) {
			w.logger.Warn("skipping output with out-of-range index",
				"txid", output.Outpoint.Txid.String(),
				"outputIndex", outputIndex,
				"outputs", len(tx.Outputs))
			continue
		}

		ad := w.ParseAdvertisement(tx.Outputs[outputIndex].LockingScript)
		if ad == nil {
			w.logger.Warn("skipping output that does not decode as an advertisement",
				"txid", output.Outpoint.Txid.String(),
				"outputIndex", outputIndex)
			continue
		}
		if ad.Protocol != protocol {
			w.logger.Warn("skipping advertisement of another protocol",
				"txid", output.Outpoint.Txid.String(),
				"protocol", ad.Protocol)
			continue
		}

		adBeef, err := beef.AtomicBytes(&output.Outpoint.Txid)
		if err != nil {
			w.logger.Warn("skipping output whose envelope cannot be rebuilt",
				"txid", output.Outpoint.Txid.String(),
				"outputIndex", outputIndex,
				"error", err)
			continue
		}

		index := outputIndex
		ad.Beef = adBeef
		ad.OutputIndex = &index
		advertisements = append(advertisements, ad)
	}

	return advertisements, nil
}

// RevokeAdvertisement spends the advertisement's output, removing it from
// the overlay. All validation happens before the wallet is touched, so a
// non-revocable advertisement never costs a wallet round trip. The returned
// bundle is tagged with the protocol's routing topic.
func (w *WalletAdvertiser) RevokeAdvertisement(ctx context.Context, ad *types.Advertisement) (*overlay.TaggedBEEF, error) {
	if !w.initialized {
		return nil, errNotInitialized
	}
	if ad == nil {
		return nil, errNoAdvertisement
	}
	details, ok := types.DetailsFor(ad.Protocol)
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnsupportedProtocol, ad.Protocol)
	}
	if len(ad.Beef) == 0 {
		return nil, errMissingBeefData
	}
	if ad.OutputIndex == nil {
		return nil, errMissingOutputIndex
	}

	prevTx, err := transaction.NewTransactionFromBEEF(ad.Beef)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct advertisement transaction: %w", err)
	}
	if prevTx == nil {
		return nil, errBeefMissingTransaction
	}
	outputIndex := *ad.OutputIndex
	if int(outputIndex) >= len(prevTx.Outputs) {
		return nil, fmt.Errorf("%w: output %d of a transaction with %d outputs", errOutputIndexOutOfRange, outputIndex, len(prevTx.Outputs))
	}
	prevOutput := prevTx.Outputs[outputIndex]

	unlockingKey, err := DeriveUnlockingKey(w.keyDeriver, ad.Protocol)
	if err != nil {
		return nil, err
	}

	prevTxID := prevTx.TxID()
	unlockingScript, err := token.Unlock(unlockingKey, prevTxID, outputIndex, prevOutput.LockingScript, prevOutput.Satoshis)
	if err != nil {
		return nil, fmt.Errorf("failed to build revocation proof: %w", err)
	}

	createActionResult, err := w.wallet.CreateAction(ctx, types.CreateActionArgs{
		Description: fmt.Sprintf("Revoke %s advertisement of %s", ad.Protocol, ad.TopicOrService),
		InputBeef:   ad.Beef,
		Inputs: []types.ActionInput{{
			Outpoint:         transaction.Outpoint{Txid: *prevTxID, Index: outputIndex},
			UnlockingScript:  unlockingScript,
			InputDescription: "Advertisement token being revoked",
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create revocation action: %w", err)
	}

	beefBytes, err := w.bundle(ctx, createActionResult.Tx)
	if err != nil {
		return nil, err
	}

	return &overlay.TaggedBEEF{Beef: beefBytes, Topics: []string{details.RoutingTopic}}, nil
}

// ParseAdvertisement decodes a single output script into an advertisement
// record. Anything that is not a well-formed SHIP or SLAP token yields nil:
// malformed scripts, tokens with fewer than four fields, and foreign
// protocol tags are all "not an advertisement" rather than errors.
func (w *WalletAdvertiser) ParseAdvertisement(outputScript *script.Script) *types.Advertisement {
	decoded, err := token.Decode(outputScript)
	if err != nil {
		return nil
	}
	if err := decoded.RequireFields(4); err != nil {
		return nil
	}

	protocol := overlay.Protocol(decoded.Fields[0])
	if _, ok := types.DetailsFor(protocol); !ok {
		return nil
	}

	return &types.Advertisement{
		Protocol:       protocol,
		IdentityKey:    hex.EncodeToString(decoded.Fields[1]),
		Domain:         string(decoded.Fields[2]),
		TopicOrService: string(decoded.Fields[3]),
	}
}

// bundle parses the wallet's signed transaction and packages it through the
// configured proof service.
func (w *WalletAdvertiser) bundle(ctx context.Context, rawTx []byte) ([]byte, error) {
	tx, err := transaction.NewTransactionFromBytes(rawTx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse wallet transaction: %w", err)
	}
	beefBytes, err := w.proofs.Bundle(ctx, tx)
	if err != nil {
		return nil, fmt.Errorf("failed to bundle transaction: %w", err)
	}
	return beefBytes, nil
}

// validateTopicOrServiceName checks the full BRC-87 name, including that its
// prefix matches the protocol: SHIP advertisements name topics (tm_), SLAP
// advertisements name lookup services (ls_).
func validateTopicOrServiceName(protocol overlay.Protocol, name string) error {
	if strings.TrimSpace(name) == "" {
		return errTopicNameEmpty
	}
	if !utils.IsValidTopicOrServiceName(name) {
		return fmt.Errorf("%w: %s", errInvalidTopicOrServiceName, name)
	}

	expectedPrefix := "tm_"
	if protocol == overlay.ProtocolSLAP {
		expectedPrefix = "ls_"
	}
	if !strings.HasPrefix(name, expectedPrefix) {
		return fmt.Errorf("%w: %s advertisements require the %q prefix", errInvalidTopicOrServiceName, protocol, expectedPrefix)
	}
	return nil
}

// validatePrivateKeyMaterial checks the raw key bytes: exact length, not all
// zeros, and a loose entropy heuristic catching obviously degenerate keys.
func validatePrivateKeyMaterial(privateKeyHex string) error {
	privateKeyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return fmt.Errorf("private key is not valid hex: %w", err)
	}
	if len(privateKeyBytes) != 32 {
		return fmt.Errorf("%w, got %d bytes", errPrivateKeyInsufficientLength, len(privateKeyBytes))
	}

	allZeros := true
	uniqueBytes := make(map[byte]bool)
	for _, b := range privateKeyBytes {
		if b != 0 {
			allZeros = false
		}
		uniqueBytes[b] = true
	}
	if allZeros {
		return errPrivateKeyAllZeros
	}
	if len(uniqueBytes) < 4 {
		return errPrivateKeyInsufficientEntropy
	}
	return nil
}

// beefProofService is the default ProofService: it packages the transaction
// as Atomic BEEF without merkle proofs, which is sufficient for newly
// created transactions whose ancestors are still unmined. Partial ancestry
// is allowed because the wallet hands back a bare signed transaction.
type beefProofService struct{}

func (beefProofService) Bundle(_ context.Context, tx *transaction.Transaction) ([]byte, error) {
	beefBytes, err := tx.AtomicBEEF(true)
	if err != nil {
		return nil, fmt.Errorf("failed to create BEEF from transaction: %w", err)
	}
	return beefBytes, nil
}
