package auction

import (
	"context"
	"errors"
	"fmt"
	"strconv"
)

// Amount is a token amount expressed in the smallest unit of the auctioned
// token. Amounts cross the external boundary as base-10 integer strings and
// are only ever converted here.
type Amount uint64

// String returns the base-10 representation of the amount.
func (a Amount) String() string {
	return strconv.FormatUint(uint64(a), 10)
}

// ParseAmount parses a base-10 integer string into an Amount. Leading signs,
// whitespace and values that don't fit into 64 bits are rejected.
func ParseAmount(s string) (Amount, error) {
	if s == "" {
		return 0, fmt.Errorf("empty amount string")
	}
	value, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %v", s, err)
	}
	return Amount(value), nil
}

// MaxIdentityLen is the longest identity string we accept. The limit matches
// the longest address representation of common bech32 based chains.
const MaxIdentityLen = 90

// Identity is an opaque identifier of an external actor (bidder, seller or
// the token contract). The engine only ever compares identities for equality,
// no further structure is assumed.
type Identity string

// Validate checks that the identity is well formed enough to be stored and
// compared: non-empty, bounded in size and free of whitespace and control
// characters.
func (id Identity) Validate() error {
	if len(id) == 0 {
		return &InvalidParameterError{
			Param:  "identity",
			Reason: "must not be empty",
		}
	}
	if len(id) > MaxIdentityLen {
		return &InvalidParameterError{
			Param: "identity",
			Reason: fmt.Sprintf("longer than %d bytes",
				MaxIdentityLen),
		}
	}
	for _, r := range string(id) {
		if r <= ' ' || r > '~' {
			return &InvalidParameterError{
				Param:  "identity",
				Reason: "contains non-printable characters",
			}
		}
	}
	return nil
}

// Config holds the immutable parameters of a single auction instance. It is
// written exactly once at instantiation and never mutated afterwards.
type Config struct {
	// TokenRef is the identity of the fungible token contract that holds
	// the balances this auction settles in.
	TokenRef Identity

	// Seller is the identity that receives the proceeds at settlement.
	Seller Identity

	// ReservePrice is the minimum acceptable first bid.
	ReservePrice Amount

	// Increment is the minimum step between two successive bids.
	Increment Amount

	// Duration is the length of the bidding window in chain height units.
	Duration uint64

	// StartHeight is the chain height the auction was instantiated at.
	StartHeight uint64
}

// Validate checks all instantiation invariants: positive numeric parameters,
// well formed identities and a deadline that doesn't overflow the height
// range.
func (c *Config) Validate() error {
	if err := c.TokenRef.Validate(); err != nil {
		return &InvalidParameterError{
			Param:  "token_ref",
			Reason: err.Error(),
		}
	}
	if err := c.Seller.Validate(); err != nil {
		return &InvalidParameterError{
			Param:  "seller",
			Reason: err.Error(),
		}
	}
	if c.ReservePrice == 0 {
		return &InvalidParameterError{
			Param:  "reserve_price",
			Reason: "must be positive",
		}
	}
	if c.Increment == 0 {
		return &InvalidParameterError{
			Param:  "increment",
			Reason: "must be positive",
		}
	}
	if c.Duration == 0 {
		return &InvalidParameterError{
			Param:  "duration",
			Reason: "must be positive",
		}
	}
	if c.StartHeight > ^uint64(0)-c.Duration {
		return &InvalidParameterError{
			Param:  "duration",
			Reason: "deadline overflows the height range",
		}
	}
	return nil
}

// Deadline returns the last chain height at which bids are still accepted.
// Validate guarantees the sum cannot overflow.
func (c *Config) Deadline() uint64 {
	return c.StartHeight + c.Duration
}

// BidRecord is one accepted bid. Records are immutable once created and are
// kept indefinitely as the audit trail of the auction.
type BidRecord struct {
	// ID is the 1-based rank of the bid in acceptance order. IDs are dense
	// and strictly increasing.
	ID uint64

	// Bidder is the identity that placed the bid.
	Bidder Identity

	// Price is the offered amount.
	Price Amount

	// Height is the chain height the bid was accepted at.
	Height uint64
}

// BestBid is the single mutable slot that tracks the current leading bid. The
// bidder and price are denormalized copies of the referenced BidRecord which
// stays consistent because records are immutable.
type BestBid struct {
	// BidID references the winning record in the bid ledger.
	BidID uint64

	// Bidder is the identity of the leading bidder.
	Bidder Identity

	// Price is the leading offer.
	Price Amount

	// Sold flags a settled auction. The flag only ever transitions from
	// false to true.
	Sold bool
}

var (
	// ErrAuctionSold is returned for any mutating call once the auction
	// has settled.
	ErrAuctionSold = errors.New("auction already sold")

	// ErrAuctionExpired is returned for bids submitted after the bidding
	// window has elapsed.
	ErrAuctionExpired = errors.New("bidding window has closed")

	// ErrBidTooLow is returned if a bid doesn't reach the reserve price or
	// doesn't exceed the current best bid by the minimum increment.
	ErrBidTooLow = errors.New("bid price too low")

	// ErrNoBids is returned if settlement is attempted before any bid was
	// accepted.
	ErrNoBids = errors.New("no bids have been placed")

	// ErrBidNotFound is returned when querying a bid id that was never
	// assigned.
	ErrBidNotFound = errors.New("no bid record found")

	// ErrNotWinner is returned if someone other than the leading bidder
	// attempts to settle.
	ErrNotWinner = errors.New("sender is not the winning bidder")

	// ErrAmountMismatch is returned if the settlement payment doesn't
	// match the winning price exactly.
	ErrAmountMismatch = errors.New("payment amount does not match " +
		"winning price")

	// ErrUnrecognizedAction is returned when a receive notification
	// carries a payload that doesn't decode to a known intent.
	ErrUnrecognizedAction = errors.New("unrecognized receive payload")

	// ErrAlreadyInitialized is returned on an attempt to initialize an
	// auction instance a second time.
	ErrAlreadyInitialized = errors.New("auction already initialized")

	// ErrNotInitialized is returned if an operation runs against a store
	// that holds no auction configuration yet.
	ErrNotInitialized = errors.New("auction not initialized")
)

// InvalidParameterError is returned for malformed instantiation input. It
// names the offending parameter so hosts can surface actionable errors.
type InvalidParameterError struct {
	// Param is the name of the bad parameter.
	Param string

	// Reason describes why the value was rejected.
	Reason string
}

// Error returns the string representation of the parameter failure.
func (e *InvalidParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s: %s", e.Param, e.Reason)
}

// A compile-time constraint to ensure InvalidParameterError implements the
// error interface.
var _ error = (*InvalidParameterError)(nil)

// Store is the interface the persistence layer has to implement to back an
// auction instance. Implementations must apply each mutating call atomically:
// either all of its writes are persisted or none are.
type Store interface {
	// Init persists the auction configuration and seeds the bid sequence
	// at zero. A second call returns ErrAlreadyInitialized.
	Init(cfg *Config) error

	// Config returns the auction configuration or ErrNotInitialized.
	Config() (*Config, error)

	// BidSequence returns the id of the most recently accepted bid, or
	// zero before any bid.
	BidSequence() (uint64, error)

	// BidRecord returns the bid with the given id or ErrBidNotFound if
	// the id was never assigned.
	BidRecord(id uint64) (*BidRecord, error)

	// BestBid returns the current leading bid, or nil (with a nil error)
	// before any bid has been accepted.
	BestBid() (*BestBid, error)

	// CreateBid assigns the next bid id, appends the record to the ledger
	// and replaces the best-bid slot, all in one atomic step.
	CreateBid(bidder Identity, price Amount, height uint64) (*BidRecord,
		error)

	// MarkSold flips the sold flag of the best bid. It returns ErrNoBids
	// if no bid exists and ErrAuctionSold if the flag is already set.
	MarkSold() error
}

// TokenClient is the subset of the fungible token contract's interface the
// engine calls at settlement. The token contract itself is an external
// collaborator, the engine never implements or validates it.
type TokenClient interface {
	// TransferFrom moves amount units from owner to recipient using the
	// allowance the owner granted this auction beforehand.
	TransferFrom(ctx context.Context, owner, recipient Identity,
		amount Amount) error
}

// shortenIdentity trims long identities for log output.
func shortenIdentity(id Identity) string {
	const max = 16
	s := string(id)
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
