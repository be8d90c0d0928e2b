// Imports MSP credentials into a filesystem wallet so the server can sign
// transactions. Run once per identity before starting the server against
// a Fabric network.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/anushankari123/docuchain/internal/fabric"
)

func main() {
	walletPath := flag.String("wallet", "wallet", "path to the wallet directory")
	label := flag.String("label", "appUser", "label to store the identity under")
	mspID := flag.String("msp-id", "Org1MSP", "MSP ID of the identity")
	mspPath := flag.String("msp-path", "", "path to the identity's MSP directory (containing signcerts/ and keystore/)")
	flag.Parse()

	if *mspPath == "" {
		fmt.Fprintln(os.Stderr, "-msp-path is required")
		flag.Usage()
		os.Exit(2)
	}

	if err := fabric.PopulateWallet(*walletPath, *label, *mspID, *mspPath); err != nil {
		fmt.Fprintf(os.Stderr, "failed to populate wallet: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("identity %q stored in wallet %s\n", *label, *walletPath)
}
