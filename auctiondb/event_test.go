package auctiondb

import (
	"testing"
	"time"

	"github.com/celiakwan/cw20-bid/event"
	"github.com/stretchr/testify/require"
)

// TestBidEvents tests that accepting bids and settling the auction creates
// the correct events in the main event bucket.
func TestBidEvents(t *testing.T) {
	t.Parallel()

	store, cleanup := newTestDB(t)
	defer cleanup()

	require.NoError(t, store.Init(testDBConfig()))

	first, err := store.CreateBid("buyer1", 110, 200010)
	require.NoError(t, err)
	second, err := store.CreateBid("buyer2", 125, 200050)
	require.NoError(t, err)

	require.NoError(t, store.MarkSold())

	// All three events must come back in chronological order.
	events, err := store.AllEvents(event.TypeAny)
	require.NoError(t, err)
	require.Len(t, events, 3)
	for idx := 1; idx < len(events); idx++ {
		require.True(t, events[idx].Timestamp().After(
			events[idx-1].Timestamp(),
		))
	}

	// Filtering by type must only return the matching subset.
	bidEvents, err := store.AllEvents(event.TypeBidPlaced)
	require.NoError(t, err)
	require.Len(t, bidEvents, 2)

	placed, ok := bidEvents[0].(*BidPlacedEvent)
	require.True(t, ok)
	require.Equal(t, first.ID, placed.BidID)
	require.Equal(t, first.Bidder, placed.Bidder)
	require.Equal(t, first.Price, placed.Price)
	require.Equal(t, first.Height, placed.Height)

	settleEvents, err := store.AllEvents(event.TypeAuctionSettled)
	require.NoError(t, err)
	require.Len(t, settleEvents, 1)

	settled, ok := settleEvents[0].(*SettledEvent)
	require.True(t, ok)
	require.Equal(t, second.ID, settled.BidID)
	require.Equal(t, second.Bidder, settled.Winner)
	require.Equal(t, second.Price, settled.Price)
}

// TestGetEventsInRange tests that the timestamp range filter is applied
// inclusively on both ends.
func TestGetEventsInRange(t *testing.T) {
	t.Parallel()

	store, cleanup := newTestDB(t)
	defer cleanup()

	require.NoError(t, store.Init(testDBConfig()))

	_, err := store.CreateBid("buyer1", 110, 200010)
	require.NoError(t, err)
	_, err = store.CreateBid("buyer2", 125, 200050)
	require.NoError(t, err)

	events, err := store.AllEvents(event.TypeAny)
	require.NoError(t, err)
	require.Len(t, events, 2)

	// A range covering only the first event's timestamp must exclude the
	// second one.
	firstTS := events[0].Timestamp()
	ranged, err := store.GetEventsInRange(
		firstTS, firstTS, event.TypeAny,
	)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	require.Equal(t, events[0], ranged[0])

	// A range in the past must come back empty.
	past := firstTS.Add(-time.Hour)
	ranged, err = store.GetEventsInRange(
		past, past.Add(time.Minute), event.TypeAny,
	)
	require.NoError(t, err)
	require.Len(t, ranged, 0)
}
