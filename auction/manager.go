package auction

import (
	"context"
	"fmt"
	"sync"
)

// ManagerConfig contains all of the required dependencies for the Manager to
// carry out its duties.
type ManagerConfig struct {
	// Store is responsible for storing and retrieving the auction state.
	Store Store

	// Token is the client for the fungible token contract that is used to
	// execute the settlement payout.
	Token TokenClient
}

// Manager drives the bid and settlement state machine of a single auction
// instance. All mutating calls are processed strictly one at a time, each
// call runs to completion (including the outbound payout call) before the
// next one starts.
type Manager struct {
	cfg ManagerConfig

	// mu serializes all mutating calls against this auction instance.
	mu sync.Mutex
}

// NewManager instantiates a new Manager backed by the given config.
func NewManager(cfg *ManagerConfig) *Manager {
	return &Manager{
		cfg: *cfg,
	}
}

// Init validates the given auction parameters and persists them. The start
// height is set to the supplied current chain height.
func (m *Manager) Init(tokenRef, seller Identity, reservePrice,
	increment Amount, duration, height uint64) (*Config, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg := &Config{
		TokenRef:     tokenRef,
		Seller:       seller,
		ReservePrice: reservePrice,
		Increment:    increment,
		Duration:     duration,
		StartHeight:  height,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := m.cfg.Store.Init(cfg); err != nil {
		return nil, err
	}

	log.Infof("Auction initialized: seller=%v, reserve=%v, increment=%v, "+
		"deadline=%d", shortenIdentity(seller), reservePrice,
		increment, cfg.Deadline())

	return cfg, nil
}

// SubmitBid validates a proposed bid against the current auction state and,
// if it is acceptable, appends it to the bid ledger and promotes it to the
// new best bid. The returned record carries the assigned bid id.
func (m *Manager) SubmitBid(ctx context.Context, bidder Identity,
	price Amount, height uint64) (*BidRecord, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.cfg.Store.Config()
	if err != nil {
		return nil, err
	}
	best, err := m.cfg.Store.BestBid()
	if err != nil {
		return nil, err
	}

	if err := CheckBid(cfg, best, height, bidder, price); err != nil {
		log.Debugf("Rejecting bid from %v at price %v: %v",
			shortenIdentity(bidder), price, err)
		return nil, err
	}

	record, err := m.cfg.Store.CreateBid(bidder, price, height)
	if err != nil {
		return nil, err
	}

	log.Infof("Accepted bid %d from %v at price %v (height %d)",
		record.ID, shortenIdentity(bidder), price, height)

	return record, nil
}

// Settle reacts to a funds-received notification from the token contract: it
// verifies the payer and amount against the standing best bid, executes the
// payout to the seller through the token contract and marks the auction sold.
//
// The operation is logically atomic. The sold flag is only committed to the
// store after the outbound transfer call reported success, so a failed payout
// (for example because of insufficient allowance) leaves the auction exactly
// as it was. Settlement is strictly one-shot, any call after a successful
// settlement fails with ErrAuctionSold.
func (m *Manager) Settle(ctx context.Context, sender Identity,
	amount Amount) (*BestBid, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	cfg, err := m.cfg.Store.Config()
	if err != nil {
		return nil, err
	}
	best, err := m.cfg.Store.BestBid()
	if err != nil {
		return nil, err
	}

	switch {
	case best != nil && best.Sold:
		return nil, ErrAuctionSold

	case best == nil:
		return nil, ErrNoBids

	case sender != best.Bidder:
		return nil, ErrNotWinner

	case amount != best.Price:
		return nil, fmt.Errorf("%w: got %v, winning price is %v",
			ErrAmountMismatch, amount, best.Price)
	}

	// All checks passed, so we execute the payout first. The winner has
	// pre-authorized this auction to pull the funds, the notification we
	// just verified is the authorization signal, not a value transfer.
	err = m.cfg.Token.TransferFrom(ctx, best.Bidder, cfg.Seller, amount)
	if err != nil {
		log.Warnf("Payout of %v from %v failed, auction stays "+
			"unsettled: %v", amount, shortenIdentity(best.Bidder),
			err)
		return nil, fmt.Errorf("payout transfer failed: %w", err)
	}

	// Only now that the funds have moved do we commit the state change.
	if err := m.cfg.Store.MarkSold(); err != nil {
		return nil, err
	}

	log.Infof("Auction settled: bid %d, winner %v, amount %v paid to %v",
		best.BidID, shortenIdentity(best.Bidder), amount,
		shortenIdentity(cfg.Seller))

	best.Sold = true
	return best, nil
}

// Status returns the derived auction state together with the current best bid
// for the given chain height. It is a read-only convenience projection.
func (m *Manager) Status(height uint64) (State, *BestBid, error) {
	cfg, err := m.cfg.Store.Config()
	if err != nil {
		return 0, nil, err
	}
	best, err := m.cfg.Store.BestBid()
	if err != nil {
		return 0, nil, err
	}
	return DeriveState(cfg, best, height), best, nil
}
