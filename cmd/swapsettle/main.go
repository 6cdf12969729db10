// Command swapsettle is main program to start the settlement node or its sub commands.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/internal/swapapi"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/anyswap/CrossChain-Settlement/metrics"
	"github.com/anyswap/CrossChain-Settlement/mongodb"
	"github.com/anyswap/CrossChain-Settlement/params"
	rpcserver "github.com/anyswap/CrossChain-Settlement/rpc/server"
	"github.com/anyswap/CrossChain-Settlement/worker"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	clientIdentifier = "swapsettle"
	// Git SHA1 commit hash of the release (set via linker flags)
	gitCommit = ""
	gitDate   = ""
	// The app that holds all commands and flags.
	app = utils.NewApp(clientIdentifier, gitCommit, gitDate, "the swapsettle command line interface")

	peerConfigFlag = &cli.StringSliceFlag{
		Name:  "peerconfig",
		Usage: "config file of a peer chain contract hosted in process for the loopback relay",
	}
)

func initApp() {
	// Initialize the CLI app and start action
	app.Action = swapsettle
	app.HideVersion = true // we have a command to print the version
	app.Copyright = "Copyright 2017-2023 The CrossChain-Settlement Authors"
	app.Commands = []*cli.Command{
		configCommand,
		encodeCommand,
		deriveIDCommand,
		quoteCommand,
		simulateCommand,
		utils.LicenseCommand,
		utils.VersionCommand,
	}
	app.Flags = []cli.Flag{
		utils.DataDirFlag,
		utils.ConfigFileFlag,
		peerConfigFlag,
		utils.EnvFileFlag,
		utils.RunServerFlag,
		utils.WatchConfigFlag,
		utils.LogFileFlag,
		utils.LogRotationFlag,
		utils.LogMaxAgeFlag,
		utils.VerbosityFlag,
		utils.JSONFormatFlag,
		utils.ColorFormatFlag,
	}
}

func main() {
	initApp()
	if err := app.Run(os.Args); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func loadEnvFile(ctx *cli.Context) {
	envFile := ctx.String(utils.EnvFileFlag.Name)
	if envFile == "" {
		// optional .env of the working directory
		_ = godotenv.Load()
		return
	}
	if err := godotenv.Load(envFile); err != nil {
		log.Fatal("load env file failed", "envfile", envFile, "err", err)
	}
	log.Info("load env file success", "envfile", envFile)
}

func swapsettle(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	if ctx.NArg() > 0 {
		return fmt.Errorf("invalid command: %q", ctx.Args().Get(0))
	}
	loadEnvFile(ctx)
	isServer := ctx.Bool(utils.RunServerFlag.Name)

	params.SetDataDir(utils.GetDataDir(ctx))
	configFile := utils.GetConfigFilePath(ctx)
	config := params.LoadConfig(configFile, true)

	peerConfigs := make([]*params.Config, 0, len(ctx.StringSlice(peerConfigFlag.Name)))
	for _, file := range ctx.StringSlice(peerConfigFlag.Name) {
		peerConfig, err := params.DecodeConfigFile(file, true)
		if err != nil {
			return fmt.Errorf("load peer config '%v' failed: %w", file, err)
		}
		peerConfigs = append(peerConfigs, peerConfig)
	}

	metrics.BuildInfo.WithLabelValues(params.VersionWithMeta, gitCommit).Set(1)

	if dbConfig := config.MongoDB; dbConfig != nil {
		mongodb.MongoServerInit(
			params.GetIdentifier(),
			dbConfig.GetURLs(),
			dbConfig.DBName,
			dbConfig.UserName,
			dbConfig.GetPassword(),
		)
	}

	n, err := newNode(config, peerConfigs)
	if err != nil {
		return err
	}
	if err = n.restoreState(); err != nil {
		return err
	}
	swapapi.SetContract(n.primary)

	runCtx, cancel := context.WithCancel(context.Background())
	if config.Relay != nil && config.Relay.Enable {
		worker.StartSettleWork(runCtx, n.relay, config.Relay)
	}

	if ctx.Bool(utils.WatchConfigFlag.Name) {
		stop, errw := params.WatchConfigFile(configFile, n.applyConfig)
		if errw != nil {
			log.Warn("watch config file failed", "configFile", configFile, "err", errw)
		} else {
			defer stop()
		}
	}

	if isServer {
		time.Sleep(100 * time.Millisecond)
		rpcserver.StartAPIServer()
	}

	utils.TopWaitGroup.Add(1)
	go utils.WaitAndCleanup(func() {
		defer utils.TopWaitGroup.Done()
		cancel()
		mongodb.Close()
	})

	utils.TopWaitGroup.Wait()
	return nil
}
