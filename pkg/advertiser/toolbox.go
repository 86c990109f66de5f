package advertiser

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bsv-blockchain/go-overlay-advertiser/pkg/types"
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/wallet"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/defs"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/infra"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/services"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/storage"
	toolboxWallet "github.com/bsv-blockchain/go-wallet-toolbox/pkg/wallet"
	"github.com/bsv-blockchain/go-wallet-toolbox/pkg/wdk"
)

// ToolboxWallet adapts a go-wallet-toolbox BRC-100 wallet to the
// types.Wallet capability used by the WalletAdvertiser.
type ToolboxWallet struct {
	wallet wallet.Interface
}

// NewToolboxWallet constructs a GORM-backed toolbox wallet for the given
// chain ("main" or "test") and wraps it as a types.Wallet. The same private
// key funds transactions and identifies the advertiser.
func NewToolboxWallet(ctx context.Context, chain, privateKeyHex string, logger *slog.Logger) (*ToolboxWallet, error) {
	if strings.TrimSpace(privateKeyHex) == "" {
		return nil, errPrivateKeyRequired
	}
	if logger == nil {
		logger = slog.Default()
	}

	privateKey, err := ec.PrivateKeyFromHex(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to create private key object: %w", err)
	}

	cfg := infra.Defaults()
	cfg.ServerPrivateKey = privateKeyHex
	activeServices := services.New(logger, cfg.Services)

	storageManager, err := storage.NewGORMProvider(
		cfg.BSVNetwork,
		activeServices,
		storage.WithDBConfig(cfg.DBConfig),
		storage.WithFeeModel(cfg.FeeModel),
		storage.WithCommission(cfg.Commission),
		storage.WithSynchronizeTxStatuses(cfg.SynchronizeTxStatuses),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage manager: %w", err)
	}

	storageIdentityKey, err := wdk.IdentityKey(cfg.ServerPrivateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage identity key: %w", err)
	}
	if _, err := storageManager.Migrate(ctx, "overlay-advertiser", storageIdentityKey); err != nil {
		return nil, fmt.Errorf("failed to migrate storage: %w", err)
	}

	network := defs.NetworkMainnet
	if chain == "test" {
		network = defs.NetworkTestnet
	}

	wlt, err := toolboxWallet.New(network, privateKey, storageManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}

	return &ToolboxWallet{wallet: wlt}, nil
}

// ListOutputs lists the outputs of a basket, attaching the envelope of each
// output's transaction when requested.
func (t *ToolboxWallet) ListOutputs(ctx context.Context, args types.ListOutputsArgs) (*types.ListOutputsResult, error) {
	listArgs := wallet.ListOutputsArgs{Basket: args.Basket}
	if args.IncludeEnvelopes {
		listArgs.Include = "entire transactions"
	}

	listResult, err := t.wallet.ListOutputs(ctx, listArgs, "")
	if err != nil {
		return nil, fmt.Errorf("wallet failed to list outputs: %w", err)
	}

	outputs := make([]*types.WalletOutput, 0, len(listResult.Outputs))
	for _, output := range listResult.Outputs {
		outputs = append(outputs, &types.WalletOutput{
			Outpoint:      output.Outpoint,
			Satoshis:      output.Satoshis,
			LockingScript: script.NewFromBytes(output.LockingScript),
			Beef:          listResult.BEEF,
		})
	}
	return &types.ListOutputsResult{Outputs: outputs}, nil
}

// CreateAction asks the wallet to build, fund, and sign a transaction with
// the given pre-signed inputs and final outputs.
func (t *ToolboxWallet) CreateAction(ctx context.Context, args types.CreateActionArgs) (*types.CreateActionResult, error) {
	actionArgs := wallet.CreateActionArgs{
		Description: args.Description,
		Labels:      args.Labels,
		InputBEEF:   args.InputBeef,
	}
	for _, input := range args.Inputs {
		actionArgs.Inputs = append(actionArgs.Inputs, wallet.CreateActionInput{
			Outpoint:         input.Outpoint,
			UnlockingScript:  input.UnlockingScript.Bytes(),
			InputDescription: input.InputDescription,
		})
	}
	for _, output := range args.Outputs {
		actionArgs.Outputs = append(actionArgs.Outputs, wallet.CreateActionOutput{
			LockingScript:     output.LockingScript.Bytes(),
			Satoshis:          output.Satoshis,
			Basket:            output.Basket,
			OutputDescription: output.OutputDescription,
		})
	}

	createActionResult, err := t.wallet.CreateAction(ctx, actionArgs, "")
	if err != nil {
		return nil, fmt.Errorf("wallet failed to create action: %w", err)
	}

	result := &types.CreateActionResult{Tx: createActionResult.Tx}
	if tx, errParse := transaction.NewTransactionFromBytes(createActionResult.Tx); errParse == nil {
		result.Txid = tx.TxID().String()
	}
	return result, nil
}
