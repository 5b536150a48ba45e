package auctiondb

import (
	"bytes"
	"io"

	"github.com/celiakwan/cw20-bid/auction"
	"go.etcd.io/bbolt"
)

var (
	// bidBucketKey is the bucket that contains the append-only bid
	// ledger. Records are keyed by their big endian bid id so that a
	// cursor scan iterates them in acceptance order.
	bidBucketKey = []byte("bid-records")

	// bidSeqKey is the key that stores the id of the most recently
	// accepted bid. It reads as zero before the first bid.
	//
	// path: auctionBucketKey -> bidSeqKey
	bidSeqKey = []byte("bid-seq")

	// bestBidKey is the key that stores the serialized best-bid slot,
	// including the sold flag.
	//
	// path: auctionBucketKey -> bestBidKey
	bestBidKey = []byte("best-bid")
)

// BidSequence returns the id of the most recently accepted bid, or zero
// before any bid was accepted.
//
// NOTE: This is part of the auction.Store interface.
func (db *DB) BidSequence() (uint64, error) {
	var seq uint64
	err := db.View(func(tx *bbolt.Tx) error {
		rootBucket, err := getBucket(tx, auctionBucketKey)
		if err != nil {
			return err
		}
		seq = fetchBidSequence(rootBucket)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return seq, nil
}

// BidRecord returns the bid with the given id. If the id was never assigned,
// ErrBidNotFound is returned.
//
// NOTE: This is part of the auction.Store interface.
func (db *DB) BidRecord(id uint64) (*auction.BidRecord, error) {
	var record *auction.BidRecord
	err := db.View(func(tx *bbolt.Tx) error {
		bidBucket, err := getBucket(tx, bidBucketKey)
		if err != nil {
			return err
		}

		rawRecord := bidBucket.Get(bidKey(id))
		if rawRecord == nil {
			return auction.ErrBidNotFound
		}

		record, err = deserializeBidRecord(
			id, bytes.NewReader(rawRecord),
		)
		return err
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// BidRecords returns all bids in the ledger in acceptance order.
func (db *DB) BidRecords() ([]*auction.BidRecord, error) {
	var records []*auction.BidRecord
	err := db.View(func(tx *bbolt.Tx) error {
		bidBucket, err := getBucket(tx, bidBucketKey)
		if err != nil {
			return err
		}

		// Big endian keys make the cursor deliver the records in id
		// order already.
		return bidBucket.ForEach(func(k, v []byte) error {
			record, err := deserializeBidRecord(
				byteOrder.Uint64(k), bytes.NewReader(v),
			)
			if err != nil {
				return err
			}
			records = append(records, record)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// BestBid returns the current leading bid together with the sold flag, or
// nil (with a nil error) before any bid has been accepted.
//
// NOTE: This is part of the auction.Store interface.
func (db *DB) BestBid() (*auction.BestBid, error) {
	var best *auction.BestBid
	err := db.View(func(tx *bbolt.Tx) error {
		rootBucket, err := getBucket(tx, auctionBucketKey)
		if err != nil {
			return err
		}
		best, err = fetchBestBidTX(rootBucket)
		return err
	})
	if err != nil {
		return nil, err
	}
	return best, nil
}

// CreateBid assigns the next bid id, appends the record to the ledger,
// replaces the best-bid slot and records a bid-placed event, all within a
// single database transaction.
//
// NOTE: This is part of the auction.Store interface.
func (db *DB) CreateBid(bidder auction.Identity, price auction.Amount,
	height uint64) (*auction.BidRecord, error) {

	var record *auction.BidRecord
	err := db.Update(func(tx *bbolt.Tx) error {
		rootBucket, err := getBucket(tx, auctionBucketKey)
		if err != nil {
			return err
		}
		bidBucket, err := getBucket(tx, bidBucketKey)
		if err != nil {
			return err
		}

		// The sequence is only ever advanced here, together with the
		// ledger append, which keeps the ids dense.
		id := fetchBidSequence(rootBucket) + 1
		record = &auction.BidRecord{
			ID:     id,
			Bidder: bidder,
			Price:  price,
			Height: height,
		}

		var w bytes.Buffer
		if err := serializeBidRecord(&w, record); err != nil {
			return err
		}
		if err := bidBucket.Put(bidKey(id), w.Bytes()); err != nil {
			return err
		}
		if err := putBidSequence(rootBucket, id); err != nil {
			return err
		}

		best := &auction.BestBid{
			BidID:  id,
			Bidder: bidder,
			Price:  price,
		}
		if err := putBestBidTX(rootBucket, best); err != nil {
			return err
		}

		return storeEventTX(tx, NewBidPlacedEvent(record))
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

// MarkSold flips the sold flag of the best bid and records the settlement
// event. The flag only ever transitions from false to true, a second call
// returns ErrAuctionSold and settling without any bid returns ErrNoBids.
//
// NOTE: This is part of the auction.Store interface.
func (db *DB) MarkSold() error {
	return db.Update(func(tx *bbolt.Tx) error {
		rootBucket, err := getBucket(tx, auctionBucketKey)
		if err != nil {
			return err
		}

		best, err := fetchBestBidTX(rootBucket)
		if err != nil {
			return err
		}
		if best == nil {
			return auction.ErrNoBids
		}
		if best.Sold {
			return auction.ErrAuctionSold
		}

		best.Sold = true
		if err := putBestBidTX(rootBucket, best); err != nil {
			return err
		}

		return storeEventTX(tx, NewSettledEvent(best))
	})
}

// bidKey returns the ledger key of the given bid id.
func bidKey(id uint64) []byte {
	var key [8]byte
	byteOrder.PutUint64(key[:], id)
	return key[:]
}

// fetchBidSequence reads the bid sequence slot, defaulting to zero if the
// slot was never written.
func fetchBidSequence(rootBucket *bbolt.Bucket) uint64 {
	rawSeq := rootBucket.Get(bidSeqKey)
	if len(rawSeq) != 8 {
		return 0
	}
	return byteOrder.Uint64(rawSeq)
}

// putBidSequence writes the bid sequence slot.
func putBidSequence(rootBucket *bbolt.Bucket, seq uint64) error {
	var b [8]byte
	byteOrder.PutUint64(b[:], seq)
	return rootBucket.Put(bidSeqKey, b[:])
}

// fetchBestBidTX reads and deserializes the best-bid slot within the given
// database transaction. A nil best bid means no bid was accepted yet.
func fetchBestBidTX(rootBucket *bbolt.Bucket) (*auction.BestBid, error) {
	rawBest := rootBucket.Get(bestBidKey)
	if rawBest == nil {
		return nil, nil
	}

	var best auction.BestBid
	err := ReadElements(
		bytes.NewReader(rawBest), &best.BidID, &best.Bidder,
		&best.Price, &best.Sold,
	)
	if err != nil {
		return nil, err
	}
	return &best, nil
}

// putBestBidTX serializes and writes the best-bid slot.
func putBestBidTX(rootBucket *bbolt.Bucket, best *auction.BestBid) error {
	var w bytes.Buffer
	err := WriteElements(
		&w, best.BidID, best.Bidder, best.Price, best.Sold,
	)
	if err != nil {
		return err
	}
	return rootBucket.Put(bestBidKey, w.Bytes())
}

// serializeBidRecord binary serializes a bid record. The id is not part of
// the serialization as it doubles as the ledger key.
func serializeBidRecord(w io.Writer, record *auction.BidRecord) error {
	return WriteElements(w, record.Bidder, record.Price, record.Height)
}

// deserializeBidRecord deserializes a bid record from its binary storage
// format.
func deserializeBidRecord(id uint64, r io.Reader) (*auction.BidRecord,
	error) {

	record := auction.BidRecord{ID: id}
	err := ReadElements(r, &record.Bidder, &record.Price, &record.Height)
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// A compile time check to make certain that DB implements the auction.Store
// interface.
var _ auction.Store = (*DB)(nil)
