package auction

import (
	"context"
)

type mockStore struct {
	cfg  *Config
	bids map[uint64]*BidRecord
	seq  uint64
	best *BestBid
}

func newMockStore() *mockStore {
	return &mockStore{
		bids: make(map[uint64]*BidRecord),
	}
}

// Init persists the auction configuration and seeds the bid sequence at zero.
func (s *mockStore) Init(cfg *Config) error {
	if s.cfg != nil {
		return ErrAlreadyInitialized
	}
	cfgCopy := *cfg
	s.cfg = &cfgCopy
	return nil
}

// Config returns the auction configuration or ErrNotInitialized.
func (s *mockStore) Config() (*Config, error) {
	if s.cfg == nil {
		return nil, ErrNotInitialized
	}
	cfgCopy := *s.cfg
	return &cfgCopy, nil
}

// BidSequence returns the id of the most recently accepted bid.
func (s *mockStore) BidSequence() (uint64, error) {
	return s.seq, nil
}

// BidRecord returns the bid with the given id or ErrBidNotFound.
func (s *mockStore) BidRecord(id uint64) (*BidRecord, error) {
	record, ok := s.bids[id]
	if !ok {
		return nil, ErrBidNotFound
	}
	recordCopy := *record
	return &recordCopy, nil
}

// BestBid returns the current leading bid or nil before any bid.
func (s *mockStore) BestBid() (*BestBid, error) {
	if s.best == nil {
		return nil, nil
	}
	bestCopy := *s.best
	return &bestCopy, nil
}

// CreateBid appends a record to the ledger and replaces the best-bid slot.
func (s *mockStore) CreateBid(bidder Identity, price Amount,
	height uint64) (*BidRecord, error) {

	s.seq++
	record := &BidRecord{
		ID:     s.seq,
		Bidder: bidder,
		Price:  price,
		Height: height,
	}
	s.bids[record.ID] = record
	s.best = &BestBid{
		BidID:  record.ID,
		Bidder: bidder,
		Price:  price,
	}

	recordCopy := *record
	return &recordCopy, nil
}

// MarkSold flips the sold flag of the best bid exactly once.
func (s *mockStore) MarkSold() error {
	if s.best == nil {
		return ErrNoBids
	}
	if s.best.Sold {
		return ErrAuctionSold
	}
	s.best.Sold = true
	return nil
}

var _ Store = (*mockStore)(nil)

type transferCall struct {
	owner     Identity
	recipient Identity
	amount    Amount
}

type mockToken struct {
	calls   []transferCall
	failErr error
}

func newMockToken() *mockToken {
	return &mockToken{}
}

// TransferFrom records the requested payout and fails if the mock was primed
// with an error.
func (t *mockToken) TransferFrom(_ context.Context, owner,
	recipient Identity, amount Amount) error {

	if t.failErr != nil {
		return t.failErr
	}
	t.calls = append(t.calls, transferCall{
		owner:     owner,
		recipient: recipient,
		amount:    amount,
	})
	return nil
}

var _ TokenClient = (*mockToken)(nil)
