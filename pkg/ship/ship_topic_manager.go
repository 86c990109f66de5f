// Package ship implements the overlay topic manager for SHIP (Service Host
// Interconnect Protocol) advertisement tokens.
package ship

import (
	"context"
	"errors"
	"strings"

	"github.com/bsv-blockchain/go-overlay-services/pkg/core/engine"
	"github.com/bsv-blockchain/go-sdk/overlay"
	"github.com/bsv-blockchain/go-sdk/transaction"

	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/token"
	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/utils"
)

var errMissingTransaction = errors.New("submitted BEEF does not contain its subject transaction")

const (
	// Topic is the overlay routing topic SHIP bundles are submitted to.
	Topic = "tm_ship"
	// Identifier is the protocol tag carried in the first token field.
	Identifier = "SHIP"
)

// TopicManager admits SHIP advertisement outputs into the overlay.
type TopicManager struct{}

// NewTopicManager creates a new SHIP topic manager.
func NewTopicManager() *TopicManager {
	return &TopicManager{}
}

var _ engine.TopicManager = (*TopicManager)(nil)

// IdentifyAdmissibleOutputs identifies which outputs of the submitted
// transaction are valid SHIP advertisements. Invalid outputs are skipped,
// not rejected: a transaction mixing SHIP tokens with unrelated outputs
// still has its tokens admitted.
func (tm *TopicManager) IdentifyAdmissibleOutputs(_ context.Context, beef []byte, _ map[uint32]*transaction.TransactionOutput) (overlay.AdmittanceInstructions, error) {
	tx, err := transaction.NewTransactionFromBEEF(beef)
	if err != nil {
		return overlay.AdmittanceInstructions{}, err
	}
	if tx == nil {
		return overlay.AdmittanceInstructions{}, errMissingTransaction
	}

	var outputsToAdmit []uint32
	for i, output := range tx.Outputs {
		if isAdmissibleOutput(output) {
			outputsToAdmit = append(outputsToAdmit, uint32(i))
		}
	}

	return overlay.AdmittanceInstructions{OutputsToAdmit: outputsToAdmit}, nil
}

// IdentifyNeededInputs identifies inputs needed beyond those provided. SHIP
// admission never needs historical coins.
func (tm *TopicManager) IdentifyNeededInputs(_ context.Context, _ []byte) ([]*transaction.Outpoint, error) {
	return nil, nil
}

// GetDocumentation returns documentation for the SHIP topic manager.
func (tm *TopicManager) GetDocumentation() string {
	return TopicManagerDocumentation
}

// GetMetaData returns metadata associated with this topic manager.
func (tm *TopicManager) GetMetaData() *overlay.MetaData {
	return &overlay.MetaData{
		Name:        "SHIP Topic Manager",
		Description: "Admits SHIP advertisement tokens for service host interconnect.",
	}
}

// isAdmissibleOutput checks one output against the SHIP admission rules: a
// five-field token tagged SHIP, an advertisable URI, a tm_-prefixed topic
// name, and a linkage signature tying the locking key to the identity key.
func isAdmissibleOutput(output *transaction.TransactionOutput) bool {
	decoded, err := token.Decode(output.LockingScript)
	if err != nil {
		return false
	}
	if len(decoded.Fields) != 5 {
		return false
	}
	if string(decoded.Fields[0]) != Identifier {
		return false
	}
	if !utils.IsAdvertisableURI(string(decoded.Fields[2])) {
		return false
	}

	topic := string(decoded.Fields[3])
	if !utils.IsValidTopicOrServiceName(topic) || !strings.HasPrefix(topic, "tm_") {
		return false
	}

	return utils.IsTokenSignatureCorrectlyLinked(decoded.LockingPublicKey, decoded.Fields)
}
