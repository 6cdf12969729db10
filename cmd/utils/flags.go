// Package utils contains internal helper functions for the settlement commands.
package utils

import (
	"path/filepath"

	"github.com/anyswap/CrossChain-Settlement/common"
	"github.com/anyswap/CrossChain-Settlement/log"
	"github.com/urfave/cli/v2"
)

var (
	// DataDirFlag --datadir
	DataDirFlag = &cli.StringFlag{
		Name:  "datadir",
		Usage: "data directory (default in the execute directory)",
		Value: "",
	}
	// ConfigFileFlag -c|--config
	ConfigFileFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Specify config file",
	}
	// EnvFileFlag --envfile
	EnvFileFlag = &cli.StringFlag{
		Name:  "envfile",
		Usage: "Load environment variables from file (eg. mongodb password)",
	}
	// RunServerFlag --runserver
	RunServerFlag = &cli.BoolFlag{
		Name:  "runserver",
		Usage: "run api server and relay worker",
	}
	// WatchConfigFlag --watchconfig
	WatchConfigFlag = &cli.BoolFlag{
		Name:  "watchconfig",
		Usage: "reload fee and registry config when the config file changes",
	}
	// LogFileFlag --log
	LogFileFlag = &cli.StringFlag{
		Name:  "log",
		Usage: "Specify log file, support rotate",
	}
	// LogRotationFlag --rotate
	LogRotationFlag = &cli.Uint64Flag{
		Name:  "rotate",
		Usage: "log rotation time (unit hour)",
		Value: 24,
	}
	// LogMaxAgeFlag --maxage
	LogMaxAgeFlag = &cli.Uint64Flag{
		Name:  "maxage",
		Usage: "log max age (unit hour)",
		Value: 720,
	}
	// VerbosityFlag -v|--verbosity
	VerbosityFlag = &cli.Uint64Flag{
		Name:    "verbosity",
		Aliases: []string{"v"},
		Usage:   "log verbosity (0:panic, 1:fatal, 2:error, 3:warn, 4:info, 5:debug, 6:trace)",
		Value:   4,
	}
	// JSONFormatFlag --json
	JSONFormatFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output log in json format",
	}
	// ColorFormatFlag --color
	ColorFormatFlag = &cli.BoolFlag{
		Name:  "color",
		Usage: "output log in color text format",
		Value: true,
	}

	// CommonLogFlags common log flags
	CommonLogFlags = []cli.Flag{
		VerbosityFlag,
		JSONFormatFlag,
		ColorFormatFlag,
	}
)

// SetLogger set log level, json format, color, rotation and maxAge
func SetLogger(ctx *cli.Context) {
	logLevel := ctx.Uint64(VerbosityFlag.Name)
	jsonFormat := ctx.Bool(JSONFormatFlag.Name)
	colorFormat := ctx.Bool(ColorFormatFlag.Name)
	log.SetLogger(uint32(logLevel), jsonFormat, colorFormat)

	logFile := ctx.String(LogFileFlag.Name)
	if logFile != "" {
		logRotation := ctx.Uint64(LogRotationFlag.Name)
		logMaxAge := ctx.Uint64(LogMaxAgeFlag.Name)
		log.SetLogFile(logFile, logRotation, logMaxAge)
	}
}

// GetConfigFilePath specified by `-c|--config`
func GetConfigFilePath(ctx *cli.Context) string {
	configFile := ctx.String(ConfigFileFlag.Name)
	if configFile != "" {
		return configFile
	}
	execDir, err := common.ExecuteDir()
	if err != nil {
		log.Fatal("get execute dir failed", "err", err)
	}
	return filepath.Join(execDir, "config.toml")
}

// GetDataDir specified by `--datadir`
func GetDataDir(ctx *cli.Context) string {
	return ctx.String(DataDirFlag.Name)
}
