package apple_iap

import (
	"errors"
	"fmt"

	"github.com/awa/go-iap/appstore/api"

	"github.com/fatflowers/admeter/pkg/config"
)

var ErrNotConfigured = errors.New("apple store client not configured")

// NewStoreClient returns nil when no App Store Connect key is configured.
func NewStoreClient(cfg config.AppleConfig) *api.StoreClient {
	if cfg.BundleID == "" || cfg.KeyID == "" || cfg.KeyContent == "" {
		return nil
	}
	return api.NewStoreClient(&api.StoreConfig{
		KeyContent: []byte(cfg.KeyContent),
		KeyID:      cfg.KeyID,
		BundleID:   cfg.BundleID,
		Issuer:     cfg.Issuer,
		Sandbox:    !cfg.IsProd,
	})
}

// OriginalTransactionID extracts the subscription identity from signedTransactionInfo.
func OriginalTransactionID(client *api.StoreClient, signedTransaction string) (string, error) {
	if client == nil {
		return "", ErrNotConfigured
	}
	tx, err := client.ParseSignedTransaction(signedTransaction)
	if err != nil {
		return "", fmt.Errorf("failed to parse signed transaction: %w", err)
	}
	if tx.OriginalTransactionId != "" {
		return tx.OriginalTransactionId, nil
	}
	return tx.TransactionID, nil
}
