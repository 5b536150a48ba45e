package auctiondb

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/celiakwan/cw20-bid/auction"
	"github.com/celiakwan/cw20-bid/event"
	"go.etcd.io/bbolt"
)

var (
	// eventBucketKey is the top level bucket where we can find all events
	// of the auction instance. These events are indexed by their
	// timestamps which are guaranteed to be unique by the event store
	// API.
	eventBucketKey = []byte("event")
)

const (
	// eventsAllocSize is the average number of events we expect an
	// auction to accumulate and use that to pre-allocate the event slice.
	eventsAllocSize = 32
)

// GetEventsInRange returns all events that have their timestamps between the
// given start and end time (inclusive) and are of the given type. Use
// event.TypeAny to not filter by type.
func (db *DB) GetEventsInRange(start, end time.Time,
	evtType event.Type) ([]event.Event, error) {

	return db.getEvents(func(ts time.Time, t event.Type) bool {
		typeOk := evtType == event.TypeAny || evtType == t
		return typeOk && !ts.Before(start) && !ts.After(end)
	})
}

// AllEvents returns all events that are of the given type. Use event.TypeAny
// to not filter by type.
func (db *DB) AllEvents(evtType event.Type) ([]event.Event, error) {
	return db.getEvents(func(_ time.Time, t event.Type) bool {
		return evtType == event.TypeAny || evtType == t
	})
}

// getEvents iterates through all keys in the main events bucket and returns
// all events that match the given predicate.
func (db *DB) getEvents(predicate event.Predicate) ([]event.Event, error) {
	events := make([]event.Event, 0, eventsAllocSize)
	err := db.View(func(tx *bbolt.Tx) error {
		eventBucket, err := getBucket(tx, eventBucketKey)
		if err != nil {
			return err
		}

		return eventBucket.ForEach(func(k, v []byte) error {
			// There shouldn't be any other keys below the main
			// event bucket so we fail hard if a key doesn't match
			// our required length.
			if len(k) != event.TimestampLength {
				return fmt.Errorf("unexpected timestamp "+
					"key length: %d", len(k))
			}

			// The value must contain at least one byte which is
			// the event type.
			if len(v) < 1 {
				return fmt.Errorf("unexpected timestamp "+
					"value length: %d", len(v))
			}

			// Decode the timestamp and type to make sure this
			// event matches our given filter predicate.
			ts := time.Unix(0, int64(byteOrder.Uint64(k)))
			evtType := event.Type(v[0])
			if !predicate(ts, evtType) {
				return nil
			}

			// Deserialize the event according to its type.
			reader := bytes.NewReader(v[1:])
			evt, err := deserializeEvent(reader, ts, evtType)
			if err != nil {
				return err
			}

			events = append(events, evt)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	// Make sure we always return a sorted list, even if the underlying
	// storage might scramble them.
	sort.Slice(events, func(i, j int) bool {
		return events[i].Timestamp().Before(events[j].Timestamp())
	})

	return events, nil
}

// storeEventTX stores a single event in the main events bucket, ensuring the
// uniqueness of its timestamp in the process.
func storeEventTX(tx *bbolt.Tx, evt event.Event) error {
	evtBucket, err := getBucket(tx, eventBucketKey)
	if err != nil {
		return err
	}
	return event.StoreEvent(evtBucket, evt)
}

// deserializeEvent reads a single event from the given reader and
// deserializes it according to the given event type.
func deserializeEvent(reader io.Reader, timestamp time.Time,
	eventType event.Type) (event.Event, error) {

	var evt event.Event
	switch eventType {
	case event.TypeBidPlaced:
		evt = &BidPlacedEvent{}

	case event.TypeAuctionSettled:
		evt = &SettledEvent{}

	default:
		return nil, fmt.Errorf("unknown event type <%d>", eventType)
	}

	evt.SetTimestamp(timestamp)
	if err := evt.Deserialize(reader); err != nil {
		return nil, err
	}

	return evt, nil
}

// BidPlacedEvent is an event implementation that tracks the acceptance of a
// bid into the ledger.
type BidPlacedEvent struct {
	// timestamp is the unique timestamp the event was created/recorded
	// at.
	timestamp time.Time

	// BidID is the id the accepted bid was assigned.
	BidID uint64

	// Bidder is the identity that placed the bid.
	Bidder auction.Identity

	// Price is the accepted offer.
	Price auction.Amount

	// Height is the chain height the bid was accepted at.
	Height uint64
}

// NewBidPlacedEvent creates a new BidPlacedEvent from an accepted bid record
// with the current system time as the timestamp.
func NewBidPlacedEvent(record *auction.BidRecord) *BidPlacedEvent {
	return &BidPlacedEvent{
		timestamp: time.Now(),
		BidID:     record.ID,
		Bidder:    record.Bidder,
		Price:     record.Price,
		Height:    record.Height,
	}
}

// Type returns the type of the event.
//
// NOTE: This is part of the event.Event interface.
func (e *BidPlacedEvent) Type() event.Type {
	return event.TypeBidPlaced
}

// Timestamp is the time the event happened. This will be made unique once it
// is stored. To avoid collisions, the timestamp is adjusted on the nanosecond
// scale to reach uniqueness.
//
// NOTE: This is part of the event.Event interface.
func (e *BidPlacedEvent) Timestamp() time.Time {
	return e.timestamp
}

// SetTimestamp updates the timestamp of the event. This is needed to adjust
// timestamps in case they collide to ensure the global uniqueness of all
// event timestamps.
//
// NOTE: This is part of the event.Event interface.
func (e *BidPlacedEvent) SetTimestamp(ts time.Time) {
	e.timestamp = ts
}

// String returns a human readable representation of the event.
//
// NOTE: This is part of the event.Event interface.
func (e *BidPlacedEvent) String() string {
	return fmt.Sprintf("BidPlaced(%d)", e.BidID)
}

// Serialize writes the event data to a binary storage format. This does not
// serialize the event type as that's handled generically to allow for easy
// filtering.
//
// NOTE: This is part of the event.Event interface.
func (e *BidPlacedEvent) Serialize(w io.Writer) error {
	return WriteElements(w, e.BidID, e.Bidder, e.Price, e.Height)
}

// Deserialize reads the event data from a binary storage format. This does
// not deserialize the event type as that's handled generically to allow for
// easy filtering.
//
// NOTE: This is part of the event.Event interface.
func (e *BidPlacedEvent) Deserialize(r io.Reader) error {
	return ReadElements(r, &e.BidID, &e.Bidder, &e.Price, &e.Height)
}

// A compile time assertion to make sure BidPlacedEvent implements the
// event.Event interface.
var _ event.Event = (*BidPlacedEvent)(nil)

// SettledEvent is an event implementation that tracks the one-shot
// settlement of the auction.
type SettledEvent struct {
	// timestamp is the unique timestamp the event was created/recorded
	// at.
	timestamp time.Time

	// BidID is the id of the winning bid.
	BidID uint64

	// Winner is the identity the item was sold to.
	Winner auction.Identity

	// Price is the amount that was paid to the seller.
	Price auction.Amount
}

// NewSettledEvent creates a new SettledEvent from the winning best bid with
// the current system time as the timestamp.
func NewSettledEvent(best *auction.BestBid) *SettledEvent {
	return &SettledEvent{
		timestamp: time.Now(),
		BidID:     best.BidID,
		Winner:    best.Bidder,
		Price:     best.Price,
	}
}

// Type returns the type of the event.
//
// NOTE: This is part of the event.Event interface.
func (e *SettledEvent) Type() event.Type {
	return event.TypeAuctionSettled
}

// Timestamp is the time the event happened. This will be made unique once it
// is stored. To avoid collisions, the timestamp is adjusted on the nanosecond
// scale to reach uniqueness.
//
// NOTE: This is part of the event.Event interface.
func (e *SettledEvent) Timestamp() time.Time {
	return e.timestamp
}

// SetTimestamp updates the timestamp of the event. This is needed to adjust
// timestamps in case they collide to ensure the global uniqueness of all
// event timestamps.
//
// NOTE: This is part of the event.Event interface.
func (e *SettledEvent) SetTimestamp(ts time.Time) {
	e.timestamp = ts
}

// String returns a human readable representation of the event.
//
// NOTE: This is part of the event.Event interface.
func (e *SettledEvent) String() string {
	return fmt.Sprintf("AuctionSettled(%d)", e.BidID)
}

// Serialize writes the event data to a binary storage format. This does not
// serialize the event type as that's handled generically to allow for easy
// filtering.
//
// NOTE: This is part of the event.Event interface.
func (e *SettledEvent) Serialize(w io.Writer) error {
	return WriteElements(w, e.BidID, e.Winner, e.Price)
}

// Deserialize reads the event data from a binary storage format. This does
// not deserialize the event type as that's handled generically to allow for
// easy filtering.
//
// NOTE: This is part of the event.Event interface.
func (e *SettledEvent) Deserialize(r io.Reader) error {
	return ReadElements(r, &e.BidID, &e.Winner, &e.Price)
}

// A compile time assertion to make sure SettledEvent implements the
// event.Event interface.
var _ event.Event = (*SettledEvent)(nil)
