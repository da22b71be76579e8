// Package di contains dependency injection tokens for the status context.
package di

import (
	"github.com/fd1az/bridge-status/business/status/app"
	"github.com/fd1az/bridge-status/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Stream    = di.NewToken[*app.Stream]("status.Stream")
	Dashboard = di.NewToken[*app.Dashboard]("status.Dashboard")
)

// Private dependency tokens - internal to status module
var (
	ChainReader   = di.NewToken[app.ChainReader]("status:chainReader")
	IndexerReader = di.NewToken[app.IndexerReader]("status:indexerReader")
)

// Helper functions for type-safe access
func GetStream(c di.ServiceRegistry) *app.Stream {
	return di.GetToken(c, Stream)
}

func GetDashboard(c di.ServiceRegistry) *app.Dashboard {
	return di.GetToken(c, Dashboard)
}

func GetChainReader(c di.ServiceRegistry) app.ChainReader {
	return di.GetToken(c, ChainReader)
}

func GetIndexerReader(c di.ServiceRegistry) app.IndexerReader {
	return di.GetToken(c, IndexerReader)
}
