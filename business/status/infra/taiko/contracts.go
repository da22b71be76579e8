package taiko

import "math/big"

// RollupABI covers the read-only surface of TaikoL1 and TaikoL2 used by the
// dashboard. getConfig declares only its leading fields; trailing words of
// the return data are ignored when unpacking.
const RollupABI = `[
	{
		"inputs": [],
		"name": "getStateVariables",
		"outputs": [
			{
				"components": [
					{"internalType": "uint64", "name": "blockFee", "type": "uint64"},
					{"internalType": "uint64", "name": "accBlockFees", "type": "uint64"},
					{"internalType": "uint64", "name": "genesisHeight", "type": "uint64"},
					{"internalType": "uint64", "name": "genesisTimestamp", "type": "uint64"},
					{"internalType": "uint64", "name": "numBlocks", "type": "uint64"},
					{"internalType": "uint64", "name": "proofTimeIssued", "type": "uint64"},
					{"internalType": "uint64", "name": "lastVerifiedBlockId", "type": "uint64"},
					{"internalType": "uint64", "name": "accProposedAt", "type": "uint64"},
					{"internalType": "uint64", "name": "nextEthDepositToProcess", "type": "uint64"},
					{"internalType": "uint64", "name": "numEthDeposits", "type": "uint64"}
				],
				"internalType": "struct TaikoData.StateVariables",
				"name": "",
				"type": "tuple"
			}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getConfig",
		"outputs": [
			{
				"components": [
					{"internalType": "uint256", "name": "chainId", "type": "uint256"},
					{"internalType": "uint256", "name": "maxNumProposedBlocks", "type": "uint256"}
				],
				"internalType": "struct TaikoData.Config",
				"name": "",
				"type": "tuple"
			}
		],
		"stateMutability": "pure",
		"type": "function"
	},
	{
		"inputs": [],
		"name": "getBlockFee",
		"outputs": [{"internalType": "uint64", "name": "", "type": "uint64"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint64", "name": "proofTime", "type": "uint64"}],
		"name": "getProofReward",
		"outputs": [{"internalType": "uint64", "name": "", "type": "uint64"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [{"internalType": "uint256", "name": "number", "type": "uint256"}],
		"name": "getCrossChainBlockHash",
		"outputs": [{"internalType": "bytes32", "name": "", "type": "bytes32"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "uint256", "name": "srcHeight", "type": "uint256"},
			{"indexed": false, "internalType": "bytes32", "name": "blockHash", "type": "bytes32"},
			{"indexed": false, "internalType": "bytes32", "name": "signalRoot", "type": "bytes32"}
		],
		"name": "CrossChainSynced",
		"type": "event"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "internalType": "uint256", "name": "id", "type": "uint256"},
			{"indexed": false, "internalType": "bytes32", "name": "parentHash", "type": "bytes32"},
			{"indexed": false, "internalType": "bytes32", "name": "blockHash", "type": "bytes32"},
			{"indexed": false, "internalType": "bytes32", "name": "signalRoot", "type": "bytes32"},
			{"indexed": false, "internalType": "address", "name": "prover", "type": "address"},
			{"indexed": false, "internalType": "uint32", "name": "parentGasUsed", "type": "uint32"}
		],
		"name": "BlockProven",
		"type": "event"
	}
]`

// StateVariables mirrors TaikoData.StateVariables.
type StateVariables struct {
	BlockFee                uint64
	AccBlockFees            uint64
	GenesisHeight           uint64
	GenesisTimestamp        uint64
	NumBlocks               uint64
	ProofTimeIssued         uint64
	LastVerifiedBlockId     uint64
	AccProposedAt           uint64
	NextEthDepositToProcess uint64
	NumEthDeposits          uint64
}

// ProtocolConfig holds the leading fields of TaikoData.Config.
type ProtocolConfig struct {
	ChainId              *big.Int
	MaxNumProposedBlocks *big.Int
}

// PendingBlocks is the number of proposed blocks not yet verified.
func (s StateVariables) PendingBlocks() uint64 {
	return saturatingSub(s.NumBlocks, s.LastVerifiedBlockId+1)
}

// PendingEthDeposits is the number of queued ETH deposits.
func (s StateVariables) PendingEthDeposits() uint64 {
	return saturatingSub(s.NumEthDeposits, s.NextEthDepositToProcess)
}

// ProofTimeSeconds is the issued proof time in seconds.
func (s StateVariables) ProofTimeSeconds() uint64 {
	return s.ProofTimeIssued / 1000
}

func saturatingSub(a, b uint64) uint64 {
	if b >= a {
		return 0
	}
	return a - b
}

// TxPoolStatus is the result of txpool_status.
type TxPoolStatus struct {
	Pending uint64
	Queued  uint64
}
