package domain

import "time"

// Indicator ids, in dashboard order.
const (
	UniqueProvers        = "unique-provers"
	UniqueProposers      = "unique-proposers"
	L1LatestSyncedHeader = "l1-latest-synced-header"
	L2LatestSyncedHeader = "l2-latest-synced-header"
	TxMempoolPending     = "tx-mempool-pending"
	TxMempoolQueued      = "tx-mempool-queued"
	AvailableSlots       = "available-slots"
	LastVerifiedBlockID  = "last-verified-block-id"
	NextBlockID          = "next-block-id"
	UnverifiedBlocks     = "unverified-blocks"
	EthDeposits          = "eth-deposits"
	NextEthDeposit       = "next-eth-deposit"
	GasPrice             = "gas-price"
	BlockFee             = "block-fee"
	ProofReward          = "proof-reward"
	LatestProof          = "latest-proof"
	AverageProofTime     = "average-proof-time"
)

// Status is the latest accepted value of one indicator and its color.
type Status struct {
	ID        string
	Header    string
	Tooltip   string
	Value     Value
	Color     Color
	Link      Link
	Seq       uint64
	UpdatedAt time.Time
}

// Href resolves the status link against its current value.
func (s Status) Href() string {
	return s.Link.Resolve(s.Value)
}
