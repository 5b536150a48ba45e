package auction

import (
	"fmt"
)

// State describes the lifecycle phase of an auction instance. The state is
// never persisted, it is derived lazily from the configuration, the best-bid
// slot and the caller-supplied chain height at the moment of each call.
type State uint8

const (
	// StateOpen means the bidding window is running and no bid has been
	// accepted yet.
	StateOpen State = 0

	// StateLeading means at least one bid has been accepted and the
	// bidding window is still running.
	StateLeading State = 1

	// StateExpired means the bidding window has elapsed without a sale.
	// Bids are no longer accepted but the standing winner may still
	// settle.
	StateExpired State = 2

	// StateSold is the terminal state after successful settlement.
	StateSold State = 3
)

// String returns a human readable representation of the auction state.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"

	case StateLeading:
		return "leading"

	case StateExpired:
		return "expired"

	case StateSold:
		return "sold"

	default:
		return fmt.Sprintf("unknown<%d>", s)
	}
}

// DeriveState computes the current auction state from the immutable config,
// the best-bid slot (nil before any bid) and the current chain height.
func DeriveState(cfg *Config, best *BestBid, height uint64) State {
	switch {
	case best != nil && best.Sold:
		return StateSold

	case height > cfg.Deadline():
		return StateExpired

	case best != nil:
		return StateLeading

	default:
		return StateOpen
	}
}

// MinBidPrice returns the lowest price the next bid must reach: the reserve
// price while no bid exists, the best price plus one increment afterwards. An
// error is returned if the minimum overflows the amount range, in which case
// no further bid can be accepted.
func MinBidPrice(cfg *Config, best *BestBid) (Amount, error) {
	if best == nil {
		return cfg.ReservePrice, nil
	}
	if best.Price > ^Amount(0)-cfg.Increment {
		return 0, fmt.Errorf("%w: minimum next bid overflows",
			ErrBidTooLow)
	}
	return best.Price + cfg.Increment, nil
}

// CheckBid is the pure bid admission decision. Given the auction config, the
// current best bid (nil before any bid), the current chain height and the
// proposed bid, it returns nil if the bid is acceptable or the exact
// rejection reason otherwise. No state is read or written here, callers pass
// in everything the decision depends on.
func CheckBid(cfg *Config, best *BestBid, height uint64, bidder Identity,
	price Amount) error {

	if err := bidder.Validate(); err != nil {
		return err
	}

	switch DeriveState(cfg, best, height) {
	case StateSold:
		return ErrAuctionSold

	case StateExpired:
		return fmt.Errorf("%w: height %d is past deadline %d",
			ErrAuctionExpired, height, cfg.Deadline())
	}

	minPrice, err := MinBidPrice(cfg, best)
	if err != nil {
		return err
	}
	if price < minPrice {
		return fmt.Errorf("%w: price %v, minimum acceptable %v",
			ErrBidTooLow, price, minPrice)
	}

	return nil
}
