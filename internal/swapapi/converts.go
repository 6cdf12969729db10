package swapapi

import (
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/anyswap/CrossChain-Settlement/tokens"
)

// ConvertMgoRequestToRequestInfo convert
func ConvertMgoRequestToRequestInfo(mr *mongodb.MgoRequest) *RequestInfo {
	return &RequestInfo{
		RequestID:     mr.Key,
		SrcChainID:    mr.SrcChainID,
		DstChainID:    mr.DstChainID,
		Nonce:         mr.Nonce,
		Sender:        mr.Sender,
		Receiver:      mr.Receiver,
		Token:         mr.Token,
		Amount:        mr.Amount,
		Fee:           mr.Fee,
		EndUser:       mr.EndUser,
		Integrator:    mr.Integrator,
		SrcToken:      mr.SrcToken,
		AmountIn:      mr.AmountIn,
		Status:        mr.Status,
		StatusMsg:     mr.Status.String(),
		DeliveryTimes: mr.DeliveryTimes,
		InitTime:      mr.InitTime,
		Timestamp:     mr.Timestamp,
		Memo:          mr.Memo,
	}
}

// ConvertMgoSettlementToSettlementInfo convert
func ConvertMgoSettlementToSettlementInfo(ms *mongodb.MgoSettlement) *SettlementInfo {
	return &SettlementInfo{
		RequestID:     ms.Key,
		SrcChainID:    ms.SrcChainID,
		DstChainID:    ms.DstChainID,
		Nonce:         ms.Nonce,
		Branch:        ms.Branch,
		Receiver:      ms.Receiver,
		Token:         ms.Token,
		FinalAmount:   ms.FinalAmount,
		NetAmount:     ms.NetAmount,
		PlatformFee:   ms.PlatformFee,
		IntegratorFee: ms.IntegratorFee,
		Integrator:    ms.Integrator,
		Timestamp:     ms.Timestamp,
	}
}

// ConvertOutcomeToSettlementInfo convert in memory outcome of the local contract
func ConvertOutcomeToSettlementInfo(dstChainID uint64, outcome *tokens.SettlementOutcome) *SettlementInfo {
	return &SettlementInfo{
		RequestID:     outcome.RequestID.Hex(),
		DstChainID:    dstChainID,
		Branch:        outcome.Branch.String(),
		Receiver:      outcome.Receiver.Hex(),
		Token:         outcome.Token.Hex(),
		FinalAmount:   bigString(outcome.FinalAmount),
		NetAmount:     bigString(outcome.NetAmount),
		PlatformFee:   bigString(outcome.PlatformFee),
		IntegratorFee: bigString(outcome.IntegratorFee),
	}
}

// ConvertCryptoFeeQuote convert
func ConvertCryptoFeeQuote(dstChainID uint64, integrator string, quote *tokens.CryptoFeeQuote) *CryptoFeeInfo {
	return &CryptoFeeInfo{
		DstChainID:      dstChainID,
		Integrator:      integrator,
		TransportFee:    bigString(quote.TransportFee),
		PlatformShare:   bigString(quote.PlatformShare),
		IntegratorShare: bigString(quote.IntegratorShare),
		Total:           quote.Total().String(),
	}
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
