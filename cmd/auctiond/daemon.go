package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	bid "github.com/celiakwan/cw20-bid"
	"github.com/celiakwan/cw20-bid/auction"
	"github.com/celiakwan/cw20-bid/auctiondb"
	"github.com/celiakwan/cw20-bid/token"
	"golang.org/x/sync/errgroup"
)

// daemon runs auctiond in daemon mode. It serves the auction's message
// surface over REST until a shutdown signal arrives.
func daemon(config *config) error {
	db, err := auctiondb.New(config.BaseDir, auctiondb.DBFilename)
	if err != nil {
		return err
	}
	defer db.Close()

	// The token contract reference lives in the auction configuration, so
	// the client resolves it from the database per payout call.
	tokenClient := token.NewClient(
		config.TokenGateway, func() (auction.Identity, error) {
			dbCfg, err := db.Config()
			if err != nil {
				return "", err
			}
			return dbCfg.TokenRef, nil
		},
	)

	engine := bid.NewEngine(&bid.EngineConfig{
		Store: db,
		Token: tokenClient,
	})

	restServer := &http.Server{
		Addr:    config.RESTListen,
		Handler: bid.NewServer(engine, db),
	}

	eg, ctx := errgroup.WithContext(context.Background())

	eg.Go(func() error {
		log.Infof("REST server listening on %s", config.RESTListen)
		err := restServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	// Run until the user terminates auctiond or the server fails.
	eg.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		select {
		case sig := <-sigChan:
			log.Infof("Received shutdown signal (%v), stopping "+
				"server", sig)

		case <-ctx.Done():
		}

		return restServer.Shutdown(context.Background())
	})

	return eg.Wait()
}
