// Chaincode entry point for the docucert certificate registry.
package main

import (
	"fmt"
	"os"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"

	"github.com/anushankari123/docuchain/chaincode/docucert"
)

func main() {
	chaincode, err := contractapi.NewChaincode(&docucert.Contract{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating docucert chaincode: %v\n", err)
		os.Exit(1)
	}

	if err := chaincode.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting docucert chaincode: %v\n", err)
		os.Exit(1)
	}
}
