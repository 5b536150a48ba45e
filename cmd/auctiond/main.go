package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	bid "github.com/celiakwan/cw20-bid"
	"github.com/jessevdk/go-flags"
)

var (
	defaultConfigFilename = "auctiond.conf"
)

func main() {
	err := start()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func start() error {
	config := defaultConfig

	// Parse command line flags.
	parser := flags.NewParser(&config, flags.Default)
	_, err := parser.Parse()
	if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		return nil
	}
	if err != nil {
		return err
	}

	// Parse ini file.
	if err := os.MkdirAll(config.BaseDir, os.ModePerm); err != nil {
		return err
	}

	configFile := filepath.Join(config.BaseDir, defaultConfigFilename)
	if err := flags.IniParse(configFile, &config); err != nil {
		// If it's a parsing related error, then we'll return
		// immediately, otherwise we can proceed as possibly the config
		// file doesn't exist which is OK.
		if _, ok := err.(*flags.IniError); ok {
			return err
		}
	}

	// Parse command line flags again to restore flags overwritten by ini
	// parse.
	_, err = parser.Parse()
	if err != nil {
		return err
	}

	// Show the version and exit if the version flag was specified.
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if config.ShowVersion {
		fmt.Println(appName, "version", bid.Version())
		os.Exit(0)
	}

	if err := setLogLevels(config.DebugLevel); err != nil {
		return err
	}

	// Print the version before starting the daemon.
	log.Infof("Version: %v", bid.Version())

	return daemon(&config)
}
