package mongodb

const (
	tbRequestSent     string = "RequestSent"
	tbRequestSettled  string = "RequestSettled"
	tbSettledRequests string = "SettledRequests"
	tbNonces          string = "Nonces"
	tbFeeLedger       string = "FeeLedger"
	tbBalances        string = "Balances"
)

// MgoRequest a request handed to the transport, key is the request id
type MgoRequest struct {
	Key           string        `bson:"_id"`
	SrcChainID    uint64        `bson:"srcChainID"`
	DstChainID    uint64        `bson:"dstChainID"`
	Nonce         uint64        `bson:"nonce"`
	Sender        string        `bson:"sender"`
	Receiver      string        `bson:"receiver"`
	Token         string        `bson:"token"`
	Amount        string        `bson:"amount"`
	Message       string        `bson:"message"`
	Fee           string        `bson:"fee"`
	GasBudget     uint64        `bson:"gasBudget"`
	EndUser       string        `bson:"endUser,omitempty"`
	Integrator    string        `bson:"integrator,omitempty"`
	SrcToken      string        `bson:"srcToken,omitempty"`
	AmountIn      string        `bson:"amountIn,omitempty"`
	Status        RequestStatus `bson:"status"`
	DeliveryTimes int           `bson:"deliveryTimes"`
	Timestamp     int64         `bson:"timestamp"`
	InitTime      int64         `bson:"inittime"`
	Memo          string        `bson:"memo"`
}

// MgoSettlement a destination settlement, key is the request id
type MgoSettlement struct {
	Key           string `bson:"_id"`
	SrcChainID    uint64 `bson:"srcChainID"`
	DstChainID    uint64 `bson:"dstChainID"`
	Nonce         uint64 `bson:"nonce"`
	Branch        string `bson:"branch"`
	Receiver      string `bson:"receiver"`
	Token         string `bson:"token"`
	FinalAmount   string `bson:"finalAmount"`
	NetAmount     string `bson:"netAmount"`
	PlatformFee   string `bson:"platformFee"`
	IntegratorFee string `bson:"integratorFee"`
	Integrator    string `bson:"integrator,omitempty"`
	Timestamp     int64  `bson:"timestamp"`
	InitTime      int64  `bson:"inittime"`
}

// MgoSettledRequest entry of the settled set of one contract
type MgoSettledRequest struct {
	Key       string `bson:"_id"` // chainID:requestID
	ChainID   uint64 `bson:"chainID"`
	RequestID string `bson:"requestID"`
	Outcome   string `bson:"outcome"` // json of tokens.SettlementOutcome
	InitTime  int64  `bson:"inittime"`
}

// MgoNonce nonce counter of one contract, key is the chain id
type MgoNonce struct {
	Key       string `bson:"_id"`
	Nonce     uint64 `bson:"nonce"`
	Timestamp int64  `bson:"timestamp"`
}

// MgoFeeEntry fee ledger entry, key is chainID:token:beneficiary
type MgoFeeEntry struct {
	Key         string `bson:"_id"`
	ChainID     uint64 `bson:"chainID"`
	Token       string `bson:"token"`
	Beneficiary string `bson:"beneficiary"`
	Amount      string `bson:"amount"`
	Timestamp   int64  `bson:"timestamp"`
}

// MgoBalance custody balance, key is chainID:token:account
type MgoBalance struct {
	Key       string `bson:"_id"`
	ChainID   uint64 `bson:"chainID"`
	Token     string `bson:"token"`
	Account   string `bson:"account"`
	Amount    string `bson:"amount"`
	Timestamp int64  `bson:"timestamp"`
}
