package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Side identifies which chain of a layer an indicator reads from.
type Side string

const (
	SideBase   Side = "base"
	SideRollup Side = "rollup"
)

// Network describes one chain endpoint and its bridge contracts.
type Network struct {
	Name           string
	ChainID        uint64
	RPCURL         string
	WSURL          string
	ExplorerURL    string
	Bridge         common.Address
	TokenVault     common.Address
	SignalService  common.Address
	CrossChainSync common.Address
}

// DialURL returns the preferred endpoint, WebSocket first.
func (n Network) DialURL() string {
	if n.WSURL != "" {
		return n.WSURL
	}
	return n.RPCURL
}

// ConnectionState represents the state of a chain connection.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
)

// ConnectionStatus contains detailed connection information.
type ConnectionStatus struct {
	Name       string
	URL        string
	State      ConnectionState
	UsingHTTP  bool // true when event watches fall back to log polling
	LastError  string
	LastUpdate time.Time
}
