package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/btcsuite/btclog"
	bid "github.com/celiakwan/cw20-bid"
	"github.com/celiakwan/cw20-bid/auction"
	"github.com/celiakwan/cw20-bid/auctiondb"
	"github.com/celiakwan/cw20-bid/token"
)

const Subsystem = "AUCD"

var (
	logBackend = btclog.NewBackend(os.Stdout)
	log        = logBackend.Logger(Subsystem)

	// subsystemLoggers tracks all registered subsystem loggers so debug
	// levels can be set per subsystem.
	subsystemLoggers = map[string]btclog.Logger{
		Subsystem: log,
	}
)

func init() {
	addSubLogger(auction.Subsystem, auction.UseLogger)
	addSubLogger(auctiondb.Subsystem, auctiondb.UseLogger)
	addSubLogger(token.Subsystem, token.UseLogger)
	addSubLogger(bid.Subsystem, bid.UseLogger)
}

// addSubLogger is a helper method to conveniently create and register the
// logger of a sub system.
func addSubLogger(subsystem string, useLogger func(btclog.Logger)) {
	logger := logBackend.Logger(subsystem)
	subsystemLoggers[subsystem] = logger
	useLogger(logger)
}

// setLogLevels applies the given debug level specification, either a single
// level for all subsystems or a comma separated list of
// <subsystem>=<level> pairs.
func setLogLevels(spec string) error {
	// A single level name means all subsystems log at that level.
	if !strings.Contains(spec, "=") {
		level, ok := btclog.LevelFromString(spec)
		if !ok {
			return fmt.Errorf("invalid log level %q", spec)
		}
		for _, logger := range subsystemLoggers {
			logger.SetLevel(level)
		}
		return nil
	}

	for _, pair := range strings.Split(spec, ",") {
		fields := strings.Split(pair, "=")
		if len(fields) != 2 {
			return fmt.Errorf("invalid log level pair %q", pair)
		}

		logger, ok := subsystemLoggers[strings.ToUpper(fields[0])]
		if !ok {
			return fmt.Errorf("unknown log subsystem %q",
				fields[0])
		}
		level, ok := btclog.LevelFromString(fields[1])
		if !ok {
			return fmt.Errorf("invalid log level %q", fields[1])
		}
		logger.SetLevel(level)
	}

	return nil
}
