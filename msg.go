package bid

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/celiakwan/cw20-bid/auction"
)

// InstantiateMsg configures a fresh auction. All integers travel as base-10
// strings, matching the cw20 convention of stringified amounts.
type InstantiateMsg struct {
	// TokenRef is the reference of the fungible token contract bids are
	// denominated in.
	TokenRef string `json:"token_ref"`

	// ReservePrice is the minimum acceptable first offer.
	ReservePrice string `json:"reserve_price"`

	// Increment is the minimum raise over the standing best bid.
	Increment string `json:"increment"`

	// Duration is the length of the bidding window in blocks, starting at
	// the instantiation height.
	Duration string `json:"duration"`
}

// ExecuteMsg is the tagged-variant envelope of all state-changing calls.
// Exactly one variant is set per message.
type ExecuteMsg struct {
	// Bid places an offer on the item.
	Bid *BidMsg `json:"bid,omitempty"`

	// Receive is the token contract's notification of an incoming
	// payment, carrying the settlement intent.
	Receive *ReceiveMsg `json:"receive,omitempty"`
}

// BidMsg places an offer at the given price.
type BidMsg struct {
	Price string `json:"price"`
}

// ReceiveMsg mirrors the cw20 receive hook: the token contract reports that
// sender transferred amount to the auction, with an opaque payload describing
// what the transfer is for.
type ReceiveMsg struct {
	// Sender is the account the tokens came from.
	Sender string `json:"sender"`

	// Amount is the number of transferred units as a base-10 string.
	Amount string `json:"amount"`

	// Msg is the embedded intent, base64 on the wire.
	Msg []byte `json:"msg"`
}

// receivePayload is the decoded form of ReceiveMsg.Msg. Buying the item is
// the single recognized intent.
type receivePayload struct {
	Buy *struct{} `json:"buy"`
}

// decodeReceivePayload parses the embedded payload of a receive notification.
// Anything other than a buy intent is rejected before any settlement logic
// runs.
func decodeReceivePayload(payload []byte) (*receivePayload, error) {
	decoder := json.NewDecoder(bytes.NewReader(payload))
	decoder.DisallowUnknownFields()

	var msg receivePayload
	if err := decoder.Decode(&msg); err != nil {
		return nil, fmt.Errorf("%w: %v",
			auction.ErrUnrecognizedAction, err)
	}
	if msg.Buy == nil {
		return nil, auction.ErrUnrecognizedAction
	}

	return &msg, nil
}

// QueryMsg is the tagged-variant envelope of all read-only calls. Exactly one
// variant is set per message.
type QueryMsg struct {
	GetConfig      *GetConfigQuery      `json:"get_config,omitempty"`
	GetBidSequence *GetBidSequenceQuery `json:"get_bid_sequence,omitempty"`
	GetBidRecord   *GetBidRecordQuery   `json:"get_bid_record,omitempty"`
	GetBestBid     *GetBestBidQuery     `json:"get_best_bid,omitempty"`
}

// GetConfigQuery asks for the immutable auction configuration.
type GetConfigQuery struct{}

// GetBidSequenceQuery asks for the id of the latest accepted bid.
type GetBidSequenceQuery struct{}

// GetBidRecordQuery asks for a single historic bid by its id.
type GetBidRecordQuery struct {
	ID uint64 `json:"id"`
}

// GetBestBidQuery asks for the standing best bid and the sold flag.
type GetBestBidQuery struct{}

// ConfigResponse is the answer to a get_config query.
type ConfigResponse struct {
	TokenRef     string `json:"token_ref"`
	Seller       string `json:"seller"`
	ReservePrice string `json:"reserve_price"`
	Increment    string `json:"increment"`
	Duration     string `json:"duration"`
	StartHeight  uint64 `json:"start_height"`
}

// BidSequenceResponse is the answer to a get_bid_sequence query. The
// sequence is zero while no bid was accepted yet.
type BidSequenceResponse struct {
	Sequence uint64 `json:"sequence"`
}

// BidRecordResponse is the answer to a get_bid_record query.
type BidRecordResponse struct {
	ID     uint64 `json:"id"`
	Bidder string `json:"bidder"`
	Price  string `json:"price"`
	Height uint64 `json:"height"`
}

// BestBidInfo describes the standing best bid.
type BestBidInfo struct {
	BidID  uint64 `json:"bid_id"`
	Bidder string `json:"bidder"`
	Price  string `json:"price"`
	Sold   bool   `json:"sold"`
}

// BestBidResponse is the answer to a get_best_bid query. Bid is null while no
// bid was accepted yet.
type BestBidResponse struct {
	Bid *BestBidInfo `json:"bid"`
}

// BidResult is the structured result of an accepted bid execution.
type BidResult struct {
	BidID  uint64 `json:"bid_id"`
	Bidder string `json:"bidder"`
	Price  string `json:"price"`
	Height uint64 `json:"height"`
}

// SettleResult is the structured result of a successful settlement.
type SettleResult struct {
	BidID  uint64 `json:"bid_id"`
	Winner string `json:"winner"`
	Price  string `json:"price"`
}

// newConfigResponse converts the engine's configuration into its wire shape.
func newConfigResponse(cfg *auction.Config) *ConfigResponse {
	return &ConfigResponse{
		TokenRef:     string(cfg.TokenRef),
		Seller:       string(cfg.Seller),
		ReservePrice: cfg.ReservePrice.String(),
		Increment:    cfg.Increment.String(),
		Duration:     strconv.FormatUint(cfg.Duration, 10),
		StartHeight:  cfg.StartHeight,
	}
}

// newBidRecordResponse converts a ledger record into its wire shape.
func newBidRecordResponse(record *auction.BidRecord) *BidRecordResponse {
	return &BidRecordResponse{
		ID:     record.ID,
		Bidder: string(record.Bidder),
		Price:  record.Price.String(),
		Height: record.Height,
	}
}

// newBestBidResponse converts the best-bid slot into its wire shape, mapping
// an empty slot to an explicit null.
func newBestBidResponse(best *auction.BestBid) *BestBidResponse {
	if best == nil {
		return &BestBidResponse{}
	}

	return &BestBidResponse{
		Bid: &BestBidInfo{
			BidID:  best.BidID,
			Bidder: string(best.Bidder),
			Price:  best.Price.String(),
			Sold:   best.Sold,
		},
	}
}
