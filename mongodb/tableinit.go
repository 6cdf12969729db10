package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	collRequestSent     *mongo.Collection
	collRequestSettled  *mongo.Collection
	collSettledRequests *mongo.Collection
	collNonces          *mongo.Collection
	collFeeLedger       *mongo.Collection
	collBalances        *mongo.Collection
)

func initCollections() {
	initCollection(tbRequestSent, &collRequestSent, "inittime", "status", "srcChainID")
	initCollection(tbRequestSettled, &collRequestSettled, "inittime", "dstChainID")
	initCollection(tbSettledRequests, &collSettledRequests, "chainID")
	initCollection(tbNonces, &collNonces)
	initCollection(tbFeeLedger, &collFeeLedger, "chainID")
	initCollection(tbBalances, &collBalances, "chainID")
	ensureIndexKey(collRequestSent, "receiver", "srcChainID") // speed find history
	ensureIndexKey(collRequestSettled, "receiver")
}

func initCollection(table string, collection **mongo.Collection, indexKey ...string) {
	*collection = database.Collection(table)
	for _, key := range indexKey {
		ensureIndexKey(*collection, key)
	}
}

func ensureIndexKey(collection *mongo.Collection, keys ...string) {
	index := bson.D{}
	for _, key := range keys {
		index = append(index, bson.E{Key: key, Value: 1})
	}
	_, _ = collection.Indexes().CreateOne(clientCtx, mongo.IndexModel{Keys: index})
}
