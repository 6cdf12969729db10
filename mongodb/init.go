// Package mongodb persists requests, settlements, nonces and the fee ledger.
package mongodb

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/tokens"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

var (
	clientCtx = context.Background()

	client   *mongo.Client
	database *mongo.Database

	connectTimeout = 10 * time.Second
	retryInterval  = 3 * time.Second
)

// IsEnabled is mongodb initialized
func IsEnabled() bool {
	return database != nil
}

// MongoServerInit connect to mongodb, retry until success
func MongoServerInit(appName string, hosts []string, dbName, user, pass string) {
	for {
		err := connect(appName, hosts, dbName, user, pass)
		if err == nil {
			break
		}
		log.Warn("retry connect mongodb", "hosts", hosts, "dbName", dbName, "err", err)
		time.Sleep(retryInterval)
	}
	initCollections()
	log.Info("mongodb init success", "hosts", hosts, "dbName", dbName)
}

func connect(appName string, hosts []string, dbName, user, pass string) (err error) {
	uri := hosts[0]
	if !strings.HasPrefix(uri, "mongodb://") && !strings.HasPrefix(uri, "mongodb+srv://") {
		uri = fmt.Sprintf("mongodb://%v", strings.Join(hosts, ","))
	}
	clientOpts := options.Client().ApplyURI(uri).SetAppName(appName).SetConnectTimeout(connectTimeout)
	if user != "" {
		clientOpts.SetAuth(options.Credential{
			AuthSource: dbName,
			Username:   user,
			Password:   pass,
		})
	}

	ctx, cancel := context.WithTimeout(clientCtx, connectTimeout)
	defer cancel()

	client, err = mongo.Connect(ctx, clientOpts)
	if err != nil {
		return errors.Wrap(err, "mongodb connect")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.Wrap(err, "mongodb ping")
	}
	database = client.Database(dbName)
	return nil
}

// Close disconnect
func Close() {
	if client == nil {
		return
	}
	if err := client.Disconnect(clientCtx); err != nil {
		log.Warn("mongodb disconnect failed", "err", err)
	}
}

func mgoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return tokens.ErrNotFound
	default:
		return errors.WithStack(err)
	}
}
