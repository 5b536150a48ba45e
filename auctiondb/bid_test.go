package auctiondb

import (
	"reflect"
	"testing"

	"github.com/celiakwan/cw20-bid/auction"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// TestCreateBid tests that bids are assigned dense ids, can be retrieved
// individually and in bulk, and that the best-bid slot tracks the latest
// accepted offer.
func TestCreateBid(t *testing.T) {
	t.Parallel()

	store, cleanup := newTestDB(t)
	defer cleanup()

	require.NoError(t, store.Init(testDBConfig()))

	// The best-bid slot starts out empty.
	best, err := store.BestBid()
	require.NoError(t, err)
	require.Nil(t, best)

	// Store two bids and see if we can retrieve them again.
	first, err := store.CreateBid("buyer1", 110, 200010)
	require.NoError(t, err)
	require.Equal(t, uint64(1), first.ID)

	second, err := store.CreateBid("buyer2", 125, 200050)
	require.NoError(t, err)
	require.Equal(t, uint64(2), second.ID)

	storedBid, err := store.BidRecord(first.ID)
	require.NoError(t, err)
	if !reflect.DeepEqual(first, storedBid) {
		t.Fatalf("expected bid: %v\ngot: %v", spew.Sdump(first),
			spew.Sdump(storedBid))
	}

	// Get all bids and check that they come back in id order.
	allBids, err := store.BidRecords()
	require.NoError(t, err)
	require.Len(t, allBids, 2)
	require.Equal(t, first, allBids[0])
	require.Equal(t, second, allBids[1])

	// The sequence counter and the best-bid slot must both reflect the
	// latest accepted bid.
	seq, err := store.BidSequence()
	require.NoError(t, err)
	require.Equal(t, uint64(2), seq)

	best, err = store.BestBid()
	require.NoError(t, err)
	require.Equal(t, &auction.BestBid{
		BidID:  second.ID,
		Bidder: second.Bidder,
		Price:  second.Price,
	}, best)
}

// TestBidRecordNotFound tests the error returned when querying an id that was
// never assigned.
func TestBidRecordNotFound(t *testing.T) {
	t.Parallel()

	store, cleanup := newTestDB(t)
	defer cleanup()

	require.NoError(t, store.Init(testDBConfig()))

	_, err := store.BidRecord(42)
	require.ErrorIs(t, err, auction.ErrBidNotFound)
}

// TestMarkSold tests that the sold flag can flip exactly once and only when a
// bid exists.
func TestMarkSold(t *testing.T) {
	t.Parallel()

	store, cleanup := newTestDB(t)
	defer cleanup()

	require.NoError(t, store.Init(testDBConfig()))

	// Without any bids there is nothing to sell.
	err := store.MarkSold()
	require.ErrorIs(t, err, auction.ErrNoBids)

	_, err = store.CreateBid("buyer1", 110, 200010)
	require.NoError(t, err)

	require.NoError(t, store.MarkSold())

	best, err := store.BestBid()
	require.NoError(t, err)
	require.True(t, best.Sold)

	// The flag is one-shot, a second attempt must fail.
	err = store.MarkSold()
	require.ErrorIs(t, err, auction.ErrAuctionSold)
}
