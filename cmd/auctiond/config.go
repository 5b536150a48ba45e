package main

import (
	"os"
	"path/filepath"
)

var (
	auctionDirBase = defaultBaseDir()

	defaultLogLevel     = "info"
	defaultRESTListen   = "localhost:8281"
	defaultTokenGateway = "http://localhost:8290"
)

type config struct {
	ShowVersion bool   `short:"V" long:"version" description:"Display version information and exit"`
	BaseDir     string `long:"basedir" description:"The base directory where auctiond stores all its data"`
	RESTListen  string `long:"restlisten" description:"Address to listen on for REST clients"`

	TokenGateway string `long:"tokengateway" description:"HTTP gateway address of the fungible token contract used for the settlement payout"`

	DebugLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical} -- You may also specify <subsystem>=<level>,<subsystem2>=<level>,... to set the log level for individual subsystems"`
}

var defaultConfig = config{
	BaseDir:      auctionDirBase,
	RESTListen:   defaultRESTListen,
	TokenGateway: defaultTokenGateway,
	DebugLevel:   defaultLogLevel,
}

// defaultBaseDir resolves the default data directory below the user's home
// directory, falling back to the working directory if the home directory
// cannot be determined.
func defaultBaseDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".auctiond")
}
