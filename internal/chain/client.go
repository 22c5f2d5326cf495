// Package chain reaches the on-chain collaborators (Vault, registries,
// leagues) through hand-written ABI bindings over ethclient.
package chain

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/oddsware/betcore/internal/config"
)

// Client wraps go-ethereum with the operator identity that signs custody
// transactions.
type Client struct {
	eth         *ethclient.Client
	chainID     *big.Int
	operatorKey *ecdsa.PrivateKey
}

func NewClient(cfg *config.Config) (*Client, error) {
	eth, err := ethclient.Dial(cfg.Chain.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	key, err := crypto.HexToECDSA(cfg.Chain.OperatorKey)
	if err != nil {
		return nil, fmt.Errorf("parse operator key: %w", err)
	}

	return &Client{
		eth:         eth,
		chainID:     big.NewInt(cfg.Chain.DomainID),
		operatorKey: key,
	}, nil
}

// OperatorAddress is the custody account the engine escrows into.
func (c *Client) OperatorAddress() common.Address {
	return crypto.PubkeyToAddress(c.operatorKey.PublicKey)
}

// ChainID returns the configured chain ID.
func (c *Client) ChainID() *big.Int { return c.chainID }

// transactOpts builds a *bind.TransactOpts signed by the operator key.
func (c *Client) transactOpts(ctx context.Context) (*bind.TransactOpts, error) {
	auth, err := bind.NewKeyedTransactorWithChainID(c.operatorKey, c.chainID)
	if err != nil {
		return nil, err
	}
	auth.Context = ctx
	return auth, nil
}
