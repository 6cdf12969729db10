package main

import (
	"encoding/json"
	"fmt"

	"github.com/anyswap/CrossChain-Settlement/cmd/utils"
	"github.com/anyswap/CrossChain-Settlement/params"
	"github.com/anyswap/CrossChain-Settlement/router"
	"github.com/urfave/cli/v2"
)

var (
	configCommand = &cli.Command{
		Name:  "config",
		Usage: "show or check settle config",
		Flags: utils.CommonLogFlags,
		Description: `
show or check settle config
`,
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "show decoded config",
				Action: showConfig,
				Flags:  []cli.Flag{utils.ConfigFileFlag},
			},
			{
				Name:   "check",
				Usage:  "check config and build the registry from it",
				Action: checkConfig,
				Flags:  []cli.Flag{utils.ConfigFileFlag},
			},
		},
	}
)

func showConfig(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	cfg, err := params.DecodeConfigFile(utils.GetConfigFilePath(ctx), false)
	if err != nil {
		return err
	}
	jsdata, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(jsdata))
	return nil
}

func checkConfig(ctx *cli.Context) error {
	utils.SetLogger(ctx)
	configFile := utils.GetConfigFilePath(ctx)
	cfg, err := params.DecodeConfigFile(configFile, true)
	if err != nil {
		return err
	}
	registry, err := router.NewRegistryFromConfig(cfg)
	if err != nil {
		return err
	}
	fmt.Printf("config '%v' is ok. chainID %v, integrators %v, routers %v\n",
		configFile, cfg.ChainID, len(registry.GetAllIntegrators()), len(registry.GetAvailableRouters()))
	return nil
}
