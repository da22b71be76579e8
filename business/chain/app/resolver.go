package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/bridge-status/business/chain/domain"
	"github.com/fd1az/bridge-status/internal/apperror"
	"github.com/fd1az/bridge-status/internal/asset"
	"github.com/fd1az/bridge-status/internal/config"
	"github.com/fd1az/bridge-status/internal/logger"
)

// Resolver turns configuration into a ChainConfig for a layer.
type Resolver struct {
	cfg    *config.Config
	dialer Dialer
	logger logger.LoggerInterface
}

// NewResolver creates a new Resolver.
func NewResolver(cfg *config.Config, dialer Dialer, log logger.LoggerInterface) *Resolver {
	return &Resolver{cfg: cfg, dialer: dialer, logger: log}
}

// Resolve validates the layer's configuration and dials both sides.
func (r *Resolver) Resolve(ctx context.Context, layer domain.Layer) (*ChainConfig, error) {
	if !layer.Valid() {
		return nil, apperror.New(apperror.CodeUnknownLayer, apperror.WithContext(layer.String()))
	}

	if err := r.cfg.ValidateLayer(layer.Key()); err != nil {
		return nil, err
	}

	baseCfg, rollupCfg := r.cfg.Endpoints(layer.Key())
	lc := r.cfg.Layer(layer.Key())

	baseNet := toNetwork(baseCfg)
	rollupNet := toNetwork(rollupCfg)

	baseClient, err := r.dialer.Dial(ctx, baseNet)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeChainConnectionFailed, baseNet.Name)
	}
	rollupClient, err := r.dialer.Dial(ctx, rollupNet)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeChainConnectionFailed, rollupNet.Name)
	}

	decimals := r.cfg.FeeTokenDecimals
	if decimals <= 0 {
		decimals = 18
	}

	cc := &ChainConfig{
		Layer: layer,
		Base: Endpoint{
			Network: baseNet,
			Client:  baseClient,
			Rollup:  lc.TaikoL1(),
		},
		Rollup: Endpoint{
			Network: rollupNet,
			Client:  rollupClient,
			Rollup:  lc.TaikoL2(),
		},
		FeeToken:     asset.NewAsset(r.cfg.FeeTokenSymbol, decimals),
		OracleProver: common.HexToAddress(r.cfg.OracleProverAddress),
		IndexerURL:   lc.EventIndexerURL,
	}

	r.logger.Info(ctx, "chain config resolved",
		"layer", layer.String(),
		"base", baseNet.Name,
		"rollup", rollupNet.Name,
		"taiko_l1", cc.Base.Rollup.Hex(),
		"taiko_l2", cc.Rollup.Rollup.Hex(),
		"indexer", cc.IndexerURL)

	return cc, nil
}

func toNetwork(e config.ChainEndpoint) domain.Network {
	name := e.ChainName
	if name == "" {
		name = e.RPCURL
	}
	if name == "" {
		name = e.WSURL
	}
	return domain.Network{
		Name:           name,
		ChainID:        e.ChainID,
		RPCURL:         e.RPCURL,
		WSURL:          e.WSURL,
		ExplorerURL:    e.ExplorerURL,
		Bridge:         common.HexToAddress(e.BridgeAddress),
		TokenVault:     common.HexToAddress(e.TokenVaultAddress),
		SignalService:  common.HexToAddress(e.SignalServiceAddress),
		CrossChainSync: common.HexToAddress(e.CrossChainSyncAddress),
	}
}
