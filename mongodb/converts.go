package mongodb

import (
	"encoding/json"
	"fmt"
	"math/big"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/state"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/anyswap/CrossChain-Settlement/tokens/fee"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// ConvertFromPacket convert
func ConvertFromPacket(packet *tokens.TransferPacket) *MgoRequest {
	return &MgoRequest{
		Key:        packet.RequestID.Hex(),
		SrcChainID: packet.SrcChainID,
		DstChainID: packet.DstChainID,
		Nonce:      packet.Nonce,
		Sender:     packet.Sender.Hex(),
		Receiver:   packet.Receiver.Hex(),
		Token:      packet.Token.Hex(),
		Amount:     bigString(packet.Amount),
		Message:    hexutil.Encode(packet.Message),
		Fee:        bigString(packet.Fee),
		GasBudget:  packet.GasBudget,
		Status:     RequestSent,
		Timestamp:  common.NowMilli() / 1000,
	}
}

// ConvertToPacket convert
func ConvertToPacket(mr *MgoRequest) (*tokens.TransferPacket, error) {
	amount, err := common.GetBigIntFromStr(mr.Amount)
	if err != nil {
		return nil, fmt.Errorf("wrong amount %v", mr.Amount)
	}
	feeValue, err := common.GetBigIntFromStr(mr.Fee)
	if err != nil {
		return nil, fmt.Errorf("wrong fee %v", mr.Fee)
	}
	message, err := hexutil.Decode(mr.Message)
	if err != nil {
		return nil, fmt.Errorf("wrong message %v", mr.Message)
	}
	return &tokens.TransferPacket{
		RequestID:  ethcommon.HexToHash(mr.Key),
		SrcChainID: mr.SrcChainID,
		DstChainID: mr.DstChainID,
		Sender:     ethcommon.HexToAddress(mr.Sender),
		Receiver:   ethcommon.HexToAddress(mr.Receiver),
		Token:      ethcommon.HexToAddress(mr.Token),
		Amount:     amount,
		Message:    message,
		Fee:        feeValue,
		GasBudget:  mr.GasBudget,
		Nonce:      mr.Nonce,
	}, nil
}

// ConvertFromSettledEvent convert
func ConvertFromSettledEvent(ev *tokens.RequestSettledEvent, outcome *tokens.SettlementOutcome) *MgoSettlement {
	ms := &MgoSettlement{
		Key:           ev.RequestID.Hex(),
		SrcChainID:    ev.SrcChainID,
		DstChainID:    ev.DstChainID,
		Nonce:         ev.Nonce,
		Branch:        ev.Branch.String(),
		Receiver:      ev.Receiver.Hex(),
		Token:         ev.Token.Hex(),
		FinalAmount:   bigString(ev.FinalAmount),
		PlatformFee:   bigString(ev.PlatformFee),
		IntegratorFee: bigString(ev.IntegratorFee),
		Timestamp:     int64(ev.Timestamp),
	}
	if ev.Integrator != (ethcommon.Address{}) {
		ms.Integrator = ev.Integrator.Hex()
	}
	if outcome != nil {
		ms.NetAmount = bigString(outcome.NetAmount)
	}
	return ms
}

// ConvertToSettledRequest convert
func ConvertToSettledRequest(chainID uint64, outcome *tokens.SettlementOutcome) (*MgoSettledRequest, error) {
	data, err := json.Marshal(outcome)
	if err != nil {
		return nil, err
	}
	return &MgoSettledRequest{
		ChainID:   chainID,
		RequestID: outcome.RequestID.Hex(),
		Outcome:   string(data),
	}, nil
}

// ConvertFromSettledRequest convert
func ConvertFromSettledRequest(mr *MgoSettledRequest) (*tokens.SettlementOutcome, error) {
	outcome := &tokens.SettlementOutcome{}
	if err := json.Unmarshal([]byte(mr.Outcome), outcome); err != nil {
		return nil, fmt.Errorf("wrong settled request %v: %w", mr.RequestID, err)
	}
	outcome.Replayed = false
	return outcome, nil
}

// ConvertFromLedgerEntries convert
func ConvertFromLedgerEntries(chainID uint64, entries []*fee.LedgerEntry) []*MgoFeeEntry {
	result := make([]*MgoFeeEntry, 0, len(entries))
	for _, entry := range entries {
		result = append(result, &MgoFeeEntry{
			ChainID:     chainID,
			Token:       entry.Token.Hex(),
			Beneficiary: entry.Beneficiary.Hex(),
			Amount:      bigString(entry.Amount),
		})
	}
	return result
}

// ConvertToLedgerEntries convert
func ConvertToLedgerEntries(entries []*MgoFeeEntry) ([]*fee.LedgerEntry, error) {
	result := make([]*fee.LedgerEntry, 0, len(entries))
	for _, entry := range entries {
		amount, err := common.GetBigIntFromStr(entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("wrong fee amount %v of %v", entry.Amount, entry.Key)
		}
		result = append(result, &fee.LedgerEntry{
			Token:       ethcommon.HexToAddress(entry.Token),
			Beneficiary: ethcommon.HexToAddress(entry.Beneficiary),
			Amount:      amount,
		})
	}
	return result, nil
}

// ConvertFromBalances convert
func ConvertFromBalances(chainID uint64, balances []*state.Balance) []*MgoBalance {
	result := make([]*MgoBalance, 0, len(balances))
	for _, bal := range balances {
		result = append(result, &MgoBalance{
			ChainID: chainID,
			Token:   bal.Token.Hex(),
			Account: bal.Account.Hex(),
			Amount:  bigString(bal.Amount),
		})
	}
	return result
}

// ConvertToBalances convert
func ConvertToBalances(balances []*MgoBalance) ([]*state.Balance, error) {
	result := make([]*state.Balance, 0, len(balances))
	for _, bal := range balances {
		amount, err := common.GetBigIntFromStr(bal.Amount)
		if err != nil {
			return nil, fmt.Errorf("wrong balance amount %v of %v", bal.Amount, bal.Key)
		}
		result = append(result, &state.Balance{
			Token:   ethcommon.HexToAddress(bal.Token),
			Account: ethcommon.HexToAddress(bal.Account),
			Amount:  amount,
		})
	}
	return result, nil
}

func bigString(value *big.Int) string {
	if value == nil {
		return "0"
	}
	return value.String()
}
