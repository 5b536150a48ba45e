package auctiondb

import (
	"bytes"
	"io"

	"github.com/celiakwan/cw20-bid/auction"
	"go.etcd.io/bbolt"
)

var (
	// auctionBucketKey is the top level bucket holding the singleton
	// slots of the auction instance: the immutable configuration, the bid
	// sequence counter and the best-bid slot.
	auctionBucketKey = []byte("auction")

	// configKey is the key that stores the serialized auction
	// configuration within the auction bucket.
	//
	// path: auctionBucketKey -> configKey
	configKey = []byte("config")
)

// Init persists the auction configuration and seeds the bid sequence counter
// at zero. The configuration is written exactly once, a second call returns
// ErrAlreadyInitialized.
//
// NOTE: This is part of the auction.Store interface.
func (db *DB) Init(cfg *auction.Config) error {
	return db.Update(func(tx *bbolt.Tx) error {
		rootBucket, err := getBucket(tx, auctionBucketKey)
		if err != nil {
			return err
		}

		if rootBucket.Get(configKey) != nil {
			return auction.ErrAlreadyInitialized
		}

		var w bytes.Buffer
		if err := serializeConfig(&w, cfg); err != nil {
			return err
		}
		if err := rootBucket.Put(configKey, w.Bytes()); err != nil {
			return err
		}

		return putBidSequence(rootBucket, 0)
	})
}

// Config returns the auction configuration, or ErrNotInitialized if Init was
// never called on this database.
//
// NOTE: This is part of the auction.Store interface.
func (db *DB) Config() (*auction.Config, error) {
	var cfg *auction.Config
	err := db.View(func(tx *bbolt.Tx) error {
		rootBucket, err := getBucket(tx, auctionBucketKey)
		if err != nil {
			return err
		}
		return fetchConfigTX(rootBucket, &cfg)
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// fetchConfigTX reads and deserializes the config slot within the given
// database transaction.
func fetchConfigTX(rootBucket *bbolt.Bucket, cfg **auction.Config) error {
	rawConfig := rootBucket.Get(configKey)
	if rawConfig == nil {
		return auction.ErrNotInitialized
	}

	deserialized, err := deserializeConfig(bytes.NewReader(rawConfig))
	if err != nil {
		return err
	}
	*cfg = deserialized
	return nil
}

// serializeConfig binary serializes the auction configuration.
func serializeConfig(w io.Writer, cfg *auction.Config) error {
	return WriteElements(
		w, cfg.TokenRef, cfg.Seller, cfg.ReservePrice, cfg.Increment,
		cfg.Duration, cfg.StartHeight,
	)
}

// deserializeConfig deserializes an auction configuration from its binary
// storage format.
func deserializeConfig(r io.Reader) (*auction.Config, error) {
	var cfg auction.Config
	err := ReadElements(
		r, &cfg.TokenRef, &cfg.Seller, &cfg.ReservePrice,
		&cfg.Increment, &cfg.Duration, &cfg.StartHeight,
	)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}
