package auction

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *mockStore, *mockToken) {
	t.Helper()

	store := newMockStore()
	token := newMockToken()
	mgr := NewManager(&ManagerConfig{
		Store: store,
		Token: token,
	})

	_, err := mgr.Init("cw20token", "seller", 100, 10, 200, 200000)
	require.NoError(t, err)

	return mgr, store, token
}

// TestManagerInit makes sure parameter validation runs before anything is
// persisted and that a second initialization is rejected.
func TestManagerInit(t *testing.T) {
	t.Parallel()

	store := newMockStore()
	mgr := NewManager(&ManagerConfig{
		Store: store,
		Token: newMockToken(),
	})

	// Invalid parameters must not touch the store.
	_, err := mgr.Init("cw20token", "seller", 0, 10, 200, 200000)
	var paramErr *InvalidParameterError
	require.ErrorAs(t, err, &paramErr)
	require.Nil(t, store.cfg)

	cfg, err := mgr.Init("cw20token", "seller", 100, 10, 200, 200000)
	require.NoError(t, err)
	require.Equal(t, uint64(200200), cfg.Deadline())

	_, err = mgr.Init("cw20token", "seller", 100, 10, 200, 200000)
	require.ErrorIs(t, err, ErrAlreadyInitialized)
}

// TestManagerSubmitBid walks through a typical bid sequence: a rejected
// low-ball, two accepted bids with dense ids and a rejected raise below the
// increment.
func TestManagerSubmitBid(t *testing.T) {
	t.Parallel()

	mgr, store, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.SubmitBid(ctx, "buyer1", 90, 200001)
	require.ErrorIs(t, err, ErrBidTooLow)

	record, err := mgr.SubmitBid(ctx, "buyer1", 110, 200001)
	require.NoError(t, err)
	require.Equal(t, uint64(1), record.ID)

	_, err = mgr.SubmitBid(ctx, "buyer2", 115, 200002)
	require.ErrorIs(t, err, ErrBidTooLow)

	record, err = mgr.SubmitBid(ctx, "buyer2", 125, 200002)
	require.NoError(t, err)
	require.Equal(t, uint64(2), record.ID)

	// The ledger keeps both records, the best-bid slot points at the
	// latest one.
	seq, err := store.BidSequence()
	require.NoError(t, err)
	require.Equal(t, uint64(2), seq)

	best, err := store.BestBid()
	require.NoError(t, err)
	require.Equal(t, uint64(2), best.BidID)
	require.Equal(t, Identity("buyer2"), best.Bidder)
	require.Equal(t, Amount(125), best.Price)
	require.False(t, best.Sold)

	first, err := store.BidRecord(1)
	require.NoError(t, err)
	require.Equal(t, Identity("buyer1"), first.Bidder)
	require.Equal(t, Amount(110), first.Price)
}

// TestManagerSettle covers the happy settlement path and the strict one-shot
// guarantee.
func TestManagerSettle(t *testing.T) {
	t.Parallel()

	mgr, store, token := newTestManager(t)
	ctx := context.Background()

	// Settling before any bid fails with NoBids.
	_, err := mgr.Settle(ctx, "buyer1", 110)
	require.ErrorIs(t, err, ErrNoBids)

	_, err = mgr.SubmitBid(ctx, "buyer1", 110, 200001)
	require.NoError(t, err)
	_, err = mgr.SubmitBid(ctx, "buyer2", 125, 200002)
	require.NoError(t, err)

	best, err := mgr.Settle(ctx, "buyer2", 125)
	require.NoError(t, err)
	require.True(t, best.Sold)
	require.Equal(t, uint64(2), best.BidID)

	// The payout must pull the winning amount from the winner to the
	// seller.
	require.Len(t, token.calls, 1)
	require.Equal(t, Identity("buyer2"), token.calls[0].owner)
	require.Equal(t, Identity("seller"), token.calls[0].recipient)
	require.Equal(t, Amount(125), token.calls[0].amount)

	// A second settlement with identical arguments fails terminally.
	_, err = mgr.Settle(ctx, "buyer2", 125)
	require.ErrorIs(t, err, ErrAuctionSold)

	// So does any further bid, regardless of price.
	_, err = mgr.SubmitBid(ctx, "buyer3", 10000, 200003)
	require.ErrorIs(t, err, ErrAuctionSold)

	stored, err := store.BestBid()
	require.NoError(t, err)
	require.True(t, stored.Sold)
}

// TestManagerSettleRejections makes sure a wrong sender or a wrong amount
// fails the whole call without any state change.
func TestManagerSettleRejections(t *testing.T) {
	t.Parallel()

	mgr, store, token := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.SubmitBid(ctx, "buyer1", 110, 200001)
	require.NoError(t, err)
	_, err = mgr.SubmitBid(ctx, "buyer2", 125, 200002)
	require.NoError(t, err)

	// Wrong sender, even one holding an outbid record.
	_, err = mgr.Settle(ctx, "buyer1", 125)
	require.ErrorIs(t, err, ErrNotWinner)

	// Wrong amount, both below and above the winning price.
	_, err = mgr.Settle(ctx, "buyer2", 110)
	require.ErrorIs(t, err, ErrAmountMismatch)
	_, err = mgr.Settle(ctx, "buyer2", 130)
	require.ErrorIs(t, err, ErrAmountMismatch)

	// No payout was requested and the auction is still unsold.
	require.Empty(t, token.calls)
	best, err := store.BestBid()
	require.NoError(t, err)
	require.False(t, best.Sold)

	// The standing winner can still settle afterwards.
	_, err = mgr.Settle(ctx, "buyer2", 125)
	require.NoError(t, err)
}

// TestManagerSettlePayoutFailure makes sure a failed outbound transfer rolls
// the whole settlement back: the sold flag is never committed and the winner
// can retry.
func TestManagerSettlePayoutFailure(t *testing.T) {
	t.Parallel()

	mgr, store, token := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.SubmitBid(ctx, "buyer1", 110, 200001)
	require.NoError(t, err)

	token.failErr = fmt.Errorf("insufficient allowance")
	_, err = mgr.Settle(ctx, "buyer1", 110)
	require.Error(t, err)

	best, err := store.BestBid()
	require.NoError(t, err)
	require.False(t, best.Sold)

	// Once the allowance is in place the retry succeeds.
	token.failErr = nil
	settled, err := mgr.Settle(ctx, "buyer1", 110)
	require.NoError(t, err)
	require.True(t, settled.Sold)
}

// TestManagerSettleAfterExpiry makes sure the standing winner can settle even
// though the bidding window has elapsed.
func TestManagerSettleAfterExpiry(t *testing.T) {
	t.Parallel()

	mgr, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := mgr.SubmitBid(ctx, "buyer1", 110, 200001)
	require.NoError(t, err)

	// Window closes at height 200200, no more bids after that.
	_, err = mgr.SubmitBid(ctx, "buyer2", 125, 200300)
	require.ErrorIs(t, err, ErrAuctionExpired)

	state, _, err := mgr.Status(200300)
	require.NoError(t, err)
	require.Equal(t, StateExpired, state)

	// Expiry doesn't block settlement by the winner.
	best, err := mgr.Settle(ctx, "buyer1", 110)
	require.NoError(t, err)
	require.True(t, best.Sold)
}

// TestManagerUninitialized makes sure mutating calls require a configured
// auction.
func TestManagerUninitialized(t *testing.T) {
	t.Parallel()

	mgr := NewManager(&ManagerConfig{
		Store: newMockStore(),
		Token: newMockToken(),
	})
	ctx := context.Background()

	_, err := mgr.SubmitBid(ctx, "buyer1", 110, 200001)
	require.ErrorIs(t, err, ErrNotInitialized)

	_, err = mgr.Settle(ctx, "buyer1", 110)
	require.ErrorIs(t, err, ErrNotInitialized)
}
