package fabric

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hyperledger/fabric-sdk-go/pkg/gateway"
)

// PopulateWallet imports an MSP identity (signcert + keystore key) into a
// filesystem wallet under the given label. Used by cmd/enroll to prepare
// credentials before the server first connects.
func PopulateWallet(walletPath, label, mspID, mspPath string) error {
	if err := os.MkdirAll(walletPath, 0755); err != nil {
		return fmt.Errorf("failed to create wallet directory: %w", err)
	}

	wallet, err := gateway.NewFileSystemWallet(walletPath)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}

	if wallet.Exists(label) {
		return nil
	}

	cert, err := readFirstFile(filepath.Join(mspPath, "signcerts"))
	if err != nil {
		return fmt.Errorf("failed to read signing certificate: %w", err)
	}

	key, err := readFirstFile(filepath.Join(mspPath, "keystore"))
	if err != nil {
		return fmt.Errorf("failed to read private key: %w", err)
	}

	id := gateway.NewX509Identity(mspID, string(cert), string(key))
	if err := wallet.Put(label, id); err != nil {
		return fmt.Errorf("failed to store identity %q: %w", label, err)
	}
	return nil
}
