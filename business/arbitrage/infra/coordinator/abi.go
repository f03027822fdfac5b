package coordinator

// CoordinatorABI covers the one entry point the engine prepares calls for.
const CoordinatorABI = `[
	{
		"inputs": [
			{"internalType": "uint256", "name": "startAmount", "type": "uint256"},
			{"internalType": "address", "name": "lapExchange", "type": "address"},
			{"internalType": "address[]", "name": "intermediaries", "type": "address[]"},
			{"internalType": "address[]", "name": "tokens", "type": "address[]"},
			{"internalType": "address[]", "name": "data", "type": "address[]"}
		],
		"name": "initiateArbitrage",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": false, "internalType": "uint256", "name": "amountOut", "type": "uint256"}
		],
		"name": "Arbitrage",
		"type": "event"
	}
]`

const methodInitiate = "initiateArbitrage"
