package mongodb

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/pkg/errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	updateStatusLock sync.Mutex

	maxCountOfResults = int64(1000)
)

// GetRequestKey key of request and settlement documents
func GetRequestKey(requestID string) string {
	return strings.ToLower(requestID)
}

// GetChainKey key of per chain documents
func GetChainKey(chainID uint64, parts ...string) string {
	key := fmt.Sprintf("%v", chainID)
	for _, part := range parts {
		key += ":" + part
	}
	return strings.ToLower(key)
}

// AddRequestSent add request
func AddRequestSent(mr *MgoRequest) error {
	mr.Key = GetRequestKey(mr.Key)
	mr.InitTime = common.NowMilli()
	_, err := collRequestSent.InsertOne(clientCtx, mr)
	switch {
	case err == nil:
		log.Info("mongodb add request success", "requestID", mr.Key, "srcChainID", mr.SrcChainID, "dstChainID", mr.DstChainID, "nonce", mr.Nonce)
	case mongo.IsDuplicateKeyError(err):
		log.Debug("mongodb add request duplicated", "requestID", mr.Key)
		return nil
	default:
		log.Error("mongodb add request failed", "requestID", mr.Key, "err", err)
	}
	return mgoError(err)
}

// UpdateRequestSentInfo complete request with fields known only to the RequestSent event
func UpdateRequestSentInfo(requestID, endUser, integrator, srcToken, amountIn string) error {
	key := GetRequestKey(requestID)
	updates := bson.M{
		"endUser":    endUser,
		"integrator": integrator,
		"srcToken":   srcToken,
		"amountIn":   amountIn,
	}
	_, err := collRequestSent.UpdateByID(clientCtx, key, bson.M{"$set": updates})
	if err != nil {
		log.Error("mongodb update request info failed", "requestID", key, "err", err)
	}
	return mgoError(err)
}

// UpdateRequestStatus update request status
func UpdateRequestStatus(requestID string, status RequestStatus, memo string) error {
	updateStatusLock.Lock()
	defer updateStatusLock.Unlock()

	key := GetRequestKey(requestID)
	req, err := FindRequest(key)
	if err != nil {
		return err
	}
	if req.Status == Settled && status != Settled {
		return fmt.Errorf("forbid update request status from %v to %v", req.Status, status)
	}
	updates := bson.M{"status": status, "timestamp": time.Now().Unix()}
	if memo != "" {
		updates["memo"] = memo
	}
	update := bson.M{"$set": updates}
	if status == Delivering {
		update["$inc"] = bson.M{"deliveryTimes": 1}
	}
	_, err = collRequestSent.UpdateByID(clientCtx, key, update)
	if err == nil {
		logFunc := log.GetPrintFuncOr(func() bool { return status == ManualIntervention }, log.Warn, log.Info)
		logFunc("mongodb update request status success", "requestID", key, "status", status)
	} else {
		log.Error("mongodb update request status failed", "requestID", key, "status", status, "err", err)
	}
	return mgoError(err)
}

// FindRequest find request
func FindRequest(requestID string) (*MgoRequest, error) {
	result := &MgoRequest{}
	err := collRequestSent.FindOne(clientCtx, bson.M{"_id": GetRequestKey(requestID)}).Decode(result)
	if err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}

func getStatusQuery(status RequestStatus, septime int64) bson.M {
	qtime := bson.M{"timestamp": bson.M{"$gte": septime}}
	qstatus := bson.M{"status": status}
	queries := []bson.M{qtime, qstatus}
	return bson.M{"$and": queries}
}

// FindRequestsWithStatus find requests with status in the past septime
func FindRequestsWithStatus(status RequestStatus, septime int64) ([]*MgoRequest, error) {
	query := getStatusQuery(status, septime)
	opts := &options.FindOptions{
		Sort:  bson.D{{Key: "inittime", Value: 1}},
		Limit: &maxCountOfResults,
	}
	cur, err := collRequestSent.Find(clientCtx, query, opts)
	if err != nil {
		return nil, mgoError(err)
	}
	result := make([]*MgoRequest, 0, 20)
	err = cur.All(clientCtx, &result)
	if err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}

// AddRequestSettled add settlement
func AddRequestSettled(ms *MgoSettlement) error {
	ms.Key = GetRequestKey(ms.Key)
	ms.InitTime = common.NowMilli()
	_, err := collRequestSettled.InsertOne(clientCtx, ms)
	switch {
	case err == nil:
		log.Info("mongodb add settlement success", "requestID", ms.Key, "branch", ms.Branch, "receiver", ms.Receiver)
	case mongo.IsDuplicateKeyError(err):
		return nil
	default:
		log.Error("mongodb add settlement failed", "requestID", ms.Key, "err", err)
	}
	return mgoError(err)
}

// FindSettlement find settlement
func FindSettlement(requestID string) (*MgoSettlement, error) {
	result := &MgoSettlement{}
	err := collRequestSettled.FindOne(clientCtx, bson.M{"_id": GetRequestKey(requestID)}).Decode(result)
	if err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}

// AddSettledRequest add to settled set of chain
func AddSettledRequest(mr *MgoSettledRequest) error {
	mr.Key = GetChainKey(mr.ChainID, mr.RequestID)
	mr.InitTime = common.NowMilli()
	_, err := collSettledRequests.InsertOne(clientCtx, mr)
	if err != nil && mongo.IsDuplicateKeyError(err) {
		return nil
	}
	if err != nil {
		log.Error("mongodb add settled request failed", "key", mr.Key, "err", err)
	}
	return mgoError(err)
}

// LoadSettledRequests settled set of chain
func LoadSettledRequests(chainID uint64) ([]*MgoSettledRequest, error) {
	cur, err := collSettledRequests.Find(clientCtx, bson.M{"chainID": chainID})
	if err != nil {
		return nil, mgoError(err)
	}
	result := make([]*MgoSettledRequest, 0, 20)
	if err = cur.All(clientCtx, &result); err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}

// UpdateNonce store nonce of chain, never goes backwards
func UpdateNonce(chainID, nonce uint64) error {
	key := GetChainKey(chainID)
	update := bson.M{
		"$max": bson.M{"nonce": nonce},
		"$set": bson.M{"timestamp": time.Now().Unix()},
	}
	opts := options.Update().SetUpsert(true)
	_, err := collNonces.UpdateByID(clientCtx, key, update, opts)
	if err != nil {
		log.Error("mongodb update nonce failed", "chainID", chainID, "nonce", nonce, "err", err)
	}
	return mgoError(err)
}

// FindNonce stored nonce of chain
func FindNonce(chainID uint64) (uint64, error) {
	result := &MgoNonce{}
	err := collNonces.FindOne(clientCtx, bson.M{"_id": GetChainKey(chainID)}).Decode(result)
	if err != nil {
		return 0, mgoError(err)
	}
	return result.Nonce, nil
}

// UpsertFeeEntries store the fee ledger snapshot of chain
func UpsertFeeEntries(entries []*MgoFeeEntry) error {
	if len(entries) == 0 {
		return nil
	}
	now := time.Now().Unix()
	models := make([]mongo.WriteModel, 0, len(entries))
	for _, entry := range entries {
		entry.Key = GetChainKey(entry.ChainID, entry.Token, entry.Beneficiary)
		entry.Timestamp = now
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": entry.Key}).
			SetReplacement(entry).
			SetUpsert(true))
	}
	_, err := collFeeLedger.BulkWrite(clientCtx, models)
	if err != nil {
		log.Error("mongodb upsert fee ledger failed", "count", len(entries), "err", err)
		return errors.Wrap(mgoError(err), "upsert fee ledger")
	}
	return nil
}

// LoadFeeEntries stored fee ledger of chain
func LoadFeeEntries(chainID uint64) ([]*MgoFeeEntry, error) {
	cur, err := collFeeLedger.Find(clientCtx, bson.M{"chainID": chainID})
	if err != nil {
		return nil, mgoError(err)
	}
	result := make([]*MgoFeeEntry, 0, 20)
	if err = cur.All(clientCtx, &result); err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}

// UpsertBalances store the custody snapshot of chain
func UpsertBalances(balances []*MgoBalance) error {
	if len(balances) == 0 {
		return nil
	}
	now := time.Now().Unix()
	models := make([]mongo.WriteModel, 0, len(balances))
	for _, bal := range balances {
		bal.Key = GetChainKey(bal.ChainID, bal.Token, bal.Account)
		bal.Timestamp = now
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": bal.Key}).
			SetReplacement(bal).
			SetUpsert(true))
	}
	_, err := collBalances.BulkWrite(clientCtx, models)
	if err != nil {
		log.Error("mongodb upsert balances failed", "count", len(balances), "err", err)
		return errors.Wrap(mgoError(err), "upsert balances")
	}
	return nil
}

// LoadBalances stored custody balances of chain
func LoadBalances(chainID uint64) ([]*MgoBalance, error) {
	cur, err := collBalances.Find(clientCtx, bson.M{"chainID": chainID})
	if err != nil {
		return nil, mgoError(err)
	}
	result := make([]*MgoBalance, 0, 20)
	if err = cur.All(clientCtx, &result); err != nil {
		return nil, mgoError(err)
	}
	return result, nil
}
