package auction

import (
	"testing"

	"github.com/stretchr/testify/require"
)

var testConfig = &Config{
	TokenRef:     "cw20token",
	Seller:       "seller",
	ReservePrice: 100,
	Increment:    10,
	Duration:     200,
	StartHeight:  200000,
}

// TestCheckBid makes sure the pure bid admission decision enforces the
// reserve price, the minimum increment, the bidding window and the terminal
// sold state.
func TestCheckBid(t *testing.T) {
	t.Parallel()

	leading := &BestBid{
		BidID:  1,
		Bidder: "buyer1",
		Price:  110,
	}
	soldBest := &BestBid{
		BidID:  2,
		Bidder: "buyer2",
		Price:  125,
		Sold:   true,
	}

	testCases := []struct {
		name        string
		best        *BestBid
		height      uint64
		bidder      Identity
		price       Amount
		expectedErr error
	}{{
		name:        "first bid below reserve",
		best:        nil,
		height:      200001,
		bidder:      "buyer1",
		price:       90,
		expectedErr: ErrBidTooLow,
	}, {
		name:   "first bid at reserve",
		best:   nil,
		height: 200001,
		bidder: "buyer1",
		price:  100,
	}, {
		name:   "first bid above reserve",
		best:   nil,
		height: 200001,
		bidder: "buyer1",
		price:  110,
	}, {
		name:        "raise below increment",
		best:        leading,
		height:      200002,
		bidder:      "buyer2",
		price:       115,
		expectedErr: ErrBidTooLow,
	}, {
		name:        "raise equal to best",
		best:        leading,
		height:      200002,
		bidder:      "buyer2",
		price:       110,
		expectedErr: ErrBidTooLow,
	}, {
		name:   "raise at exactly one increment",
		best:   leading,
		height: 200002,
		bidder: "buyer2",
		price:  120,
	}, {
		name:   "self raise is permitted",
		best:   leading,
		height: 200002,
		bidder: "buyer1",
		price:  125,
	}, {
		name:   "bid at deadline height",
		best:   leading,
		height: 200200,
		bidder: "buyer2",
		price:  125,
	}, {
		name:        "bid past deadline",
		best:        leading,
		height:      200201,
		bidder:      "buyer2",
		price:       10000,
		expectedErr: ErrAuctionExpired,
	}, {
		name:        "bid after sale",
		best:        soldBest,
		height:      200100,
		bidder:      "buyer3",
		price:       10000,
		expectedErr: ErrAuctionSold,
	}, {
		name:        "sold wins over expiry",
		best:        soldBest,
		height:      900000,
		bidder:      "buyer3",
		price:       10000,
		expectedErr: ErrAuctionSold,
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := CheckBid(
				testConfig, tc.best, tc.height, tc.bidder,
				tc.price,
			)
			if tc.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

// TestCheckBidRejectsBadBidder makes sure malformed bidder identities never
// reach the acceptance path.
func TestCheckBidRejectsBadBidder(t *testing.T) {
	t.Parallel()

	err := CheckBid(testConfig, nil, 200001, "", 110)
	var paramErr *InvalidParameterError
	require.ErrorAs(t, err, &paramErr)

	err = CheckBid(testConfig, nil, 200001, "has space", 110)
	require.ErrorAs(t, err, &paramErr)
}

// TestMinBidPriceOverflow makes sure a best bid close to the amount range
// ceiling cannot be outbid instead of wrapping around.
func TestMinBidPriceOverflow(t *testing.T) {
	t.Parallel()

	best := &BestBid{
		BidID:  1,
		Bidder: "buyer1",
		Price:  ^Amount(0) - 5,
	}
	_, err := MinBidPrice(testConfig, best)
	require.ErrorIs(t, err, ErrBidTooLow)
}

// TestDeriveState checks the lazy state derivation against all four phases.
func TestDeriveState(t *testing.T) {
	t.Parallel()

	best := &BestBid{BidID: 1, Bidder: "buyer1", Price: 110}
	sold := &BestBid{BidID: 1, Bidder: "buyer1", Price: 110, Sold: true}

	require.Equal(t, StateOpen, DeriveState(testConfig, nil, 200001))
	require.Equal(t, StateLeading, DeriveState(testConfig, best, 200001))
	require.Equal(t, StateLeading, DeriveState(testConfig, best, 200200))
	require.Equal(t, StateExpired, DeriveState(testConfig, best, 200201))
	require.Equal(t, StateExpired, DeriveState(testConfig, nil, 200201))
	require.Equal(t, StateSold, DeriveState(testConfig, sold, 200100))
	require.Equal(t, StateSold, DeriveState(testConfig, sold, 900000))
}

// TestConfigValidate exercises the instantiation parameter checks.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := *testConfig
	require.NoError(t, valid.Validate())

	testCases := []struct {
		name   string
		mutate func(*Config)
	}{{
		name:   "zero reserve",
		mutate: func(c *Config) { c.ReservePrice = 0 },
	}, {
		name:   "zero increment",
		mutate: func(c *Config) { c.Increment = 0 },
	}, {
		name:   "zero duration",
		mutate: func(c *Config) { c.Duration = 0 },
	}, {
		name:   "empty token ref",
		mutate: func(c *Config) { c.TokenRef = "" },
	}, {
		name:   "empty seller",
		mutate: func(c *Config) { c.Seller = "" },
	}, {
		name: "deadline overflow",
		mutate: func(c *Config) {
			c.StartHeight = ^uint64(0) - 10
			c.Duration = 20
		},
	}}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := *testConfig
			tc.mutate(&cfg)

			var paramErr *InvalidParameterError
			require.ErrorAs(t, cfg.Validate(), &paramErr)
		})
	}
}
