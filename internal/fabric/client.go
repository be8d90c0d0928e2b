// Package fabric connects the registry to a Hyperledger Fabric network
// through the gateway API. The ledger is treated as an opaque service:
// atomicity, ordering, and finality all come from the peer.
package fabric

import (
	"crypto/x509"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperledger/fabric-gateway/pkg/client"
	"github.com/hyperledger/fabric-gateway/pkg/identity"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
)

// Config locates the gateway peer and the MSP credentials used to sign
// transactions. The signing identity is the on-chain owner of every
// certificate issued through this connection.
type Config struct {
	MSPID        string
	CertPath     string
	KeyDir       string
	TLSCertPath  string
	PeerEndpoint string
	GatewayPeer  string
	Channel      string
	Chaincode    string
}

// Client holds an open gateway connection and the docucert contract.
type Client struct {
	connection *grpc.ClientConn
	gateway    *client.Gateway
	contract   *client.Contract
}

// Connect dials the gateway peer and binds to the configured channel and
// chaincode.
func Connect(cfg Config) (*Client, error) {
	connection, err := newGrpcConnection(cfg)
	if err != nil {
		return nil, err
	}

	id, err := newIdentity(cfg)
	if err != nil {
		connection.Close()
		return nil, err
	}

	sign, err := newSign(cfg)
	if err != nil {
		connection.Close()
		return nil, err
	}

	gateway, err := client.Connect(
		id,
		client.WithSign(sign),
		client.WithClientConnection(connection),
		client.WithEvaluateTimeout(5*time.Second),
		client.WithEndorseTimeout(15*time.Second),
		client.WithSubmitTimeout(5*time.Second),
		client.WithCommitStatusTimeout(1*time.Minute),
	)
	if err != nil {
		connection.Close()
		return nil, fmt.Errorf("failed to connect to gateway: %w", err)
	}

	network := gateway.GetNetwork(cfg.Channel)
	contract := network.GetContract(cfg.Chaincode)

	return &Client{
		connection: connection,
		gateway:    gateway,
		contract:   contract,
	}, nil
}

// Contract returns the bound docucert contract.
func (c *Client) Contract() *client.Contract {
	return c.contract
}

// Close releases the gateway and the underlying gRPC connection.
func (c *Client) Close() error {
	c.gateway.Close()
	return c.connection.Close()
}

func newGrpcConnection(cfg Config) (*grpc.ClientConn, error) {
	certificatePEM, err := os.ReadFile(cfg.TLSCertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read TLS certificate: %w", err)
	}

	certPool := x509.NewCertPool()
	if !certPool.AppendCertsFromPEM(certificatePEM) {
		return nil, fmt.Errorf("failed to add TLS certificate to pool")
	}
	transportCredentials := credentials.NewClientTLSFromCert(certPool, cfg.GatewayPeer)

	connection, err := grpc.Dial(cfg.PeerEndpoint, grpc.WithTransportCredentials(transportCredentials))
	if err != nil {
		return nil, fmt.Errorf("failed to create gRPC connection: %w", err)
	}
	return connection, nil
}

func newIdentity(cfg Config) (*identity.X509Identity, error) {
	certificatePEM, err := os.ReadFile(cfg.CertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing certificate: %w", err)
	}

	certificate, err := identity.CertificateFromPEM(certificatePEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing certificate: %w", err)
	}

	return identity.NewX509Identity(cfg.MSPID, certificate)
}

func newSign(cfg Config) (identity.Sign, error) {
	privateKeyPEM, err := readFirstFile(cfg.KeyDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}

	privateKey, err := identity.PrivateKeyFromPEM(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return identity.NewPrivateKeySign(privateKey)
}

// readFirstFile returns the contents of the first file in dir. MSP keystore
// directories contain a single key with a generated name.
func readFirstFile(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no files in %s", dir)
	}
	return os.ReadFile(filepath.Join(dir, entries[0].Name()))
}
