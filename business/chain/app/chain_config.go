package app

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/asset"
)

// Endpoint is one side of a layer: the network, its shared client handle
// and the rollup contract deployed on it.
type Endpoint struct {
	Network domain.Network
	Client  Backend
	Rollup  common.Address // TaikoL1 on the base side, TaikoL2 on the rollup side
}

// HasRollup reports whether the rollup contract address is set.
func (e Endpoint) HasRollup() bool {
	return e.Rollup != (common.Address{})
}

// ChainConfig is the resolved, immutable configuration of one layer.
// A layer switch replaces it wholesale.
type ChainConfig struct {
	Layer        domain.Layer
	Base         Endpoint
	Rollup       Endpoint
	FeeToken     *asset.Asset
	OracleProver common.Address
	IndexerURL   string
}

// Side returns the endpoint for s.
func (c *ChainConfig) Side(s domain.Side) Endpoint {
	if s == domain.SideRollup {
		return c.Rollup
	}
	return c.Base
}
