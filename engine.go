package bid

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/celiakwan/cw20-bid/auction"
)

// EngineConfig contains all of the required dependencies for the Engine to
// carry out its duties.
type EngineConfig struct {
	// Store is the persistent auction state the engine operates on.
	Store auction.Store

	// Token is the client for the fungible token contract.
	Token auction.TokenClient
}

// Engine is the host-facing boundary of the auction. It decodes the JSON
// message surface, parses the stringified integers and dispatches to the
// auction manager. The host supplies the caller identity and the current
// chain height with every call.
type Engine struct {
	cfg EngineConfig

	mgr *auction.Manager
}

// NewEngine creates a new engine backed by the given store and token client.
func NewEngine(cfg *EngineConfig) *Engine {
	return &Engine{
		cfg: *cfg,
		mgr: auction.NewManager(&auction.ManagerConfig{
			Store: cfg.Store,
			Token: cfg.Token,
		}),
	}
}

// Instantiate configures a fresh auction from the given instantiate message.
// The calling identity becomes the seller and the supplied height the start
// of the bidding window.
func (e *Engine) Instantiate(sender string, height uint64,
	rawMsg json.RawMessage) (*ConfigResponse, error) {

	var msg InstantiateMsg
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		return nil, fmt.Errorf("unable to decode instantiate "+
			"message: %v", err)
	}

	reservePrice, err := parseAmountParam("reserve_price", msg.ReservePrice)
	if err != nil {
		return nil, err
	}
	increment, err := parseAmountParam("increment", msg.Increment)
	if err != nil {
		return nil, err
	}
	duration, err := parseAmountParam("duration", msg.Duration)
	if err != nil {
		return nil, err
	}

	cfg, err := e.mgr.Init(
		auction.Identity(msg.TokenRef), auction.Identity(sender),
		reservePrice, increment, uint64(duration), height,
	)
	if err != nil {
		return nil, err
	}

	return newConfigResponse(cfg), nil
}

// Execute dispatches a state-changing message. It returns the structured
// result of the executed action: a *BidResult for an accepted bid, a
// *SettleResult for a successful settlement.
func (e *Engine) Execute(ctx context.Context, sender string, height uint64,
	rawMsg json.RawMessage) (interface{}, error) {

	var msg ExecuteMsg
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		return nil, fmt.Errorf("unable to decode execute message: %v",
			err)
	}

	switch {
	case msg.Bid != nil:
		return e.executeBid(ctx, sender, height, msg.Bid)

	case msg.Receive != nil:
		return e.executeReceive(ctx, msg.Receive)

	default:
		return nil, fmt.Errorf("%w: unknown execute variant",
			auction.ErrUnrecognizedAction)
	}
}

// executeBid submits the offer to the manager.
func (e *Engine) executeBid(ctx context.Context, sender string, height uint64,
	msg *BidMsg) (*BidResult, error) {

	price, err := parseAmountParam("price", msg.Price)
	if err != nil {
		return nil, err
	}

	record, err := e.mgr.SubmitBid(
		ctx, auction.Identity(sender), price, height,
	)
	if err != nil {
		return nil, err
	}

	return &BidResult{
		BidID:  record.ID,
		Bidder: string(record.Bidder),
		Price:  record.Price.String(),
		Height: record.Height,
	}, nil
}

// executeReceive handles the token contract's payment notification. The
// embedded payload must carry the buy intent, the payer reported by the token
// contract must be the standing winner and the transferred amount must match
// the winning price exactly.
func (e *Engine) executeReceive(ctx context.Context,
	msg *ReceiveMsg) (*SettleResult, error) {

	if _, err := decodeReceivePayload(msg.Msg); err != nil {
		return nil, err
	}

	amount, err := parseAmountParam("amount", msg.Amount)
	if err != nil {
		return nil, err
	}

	best, err := e.mgr.Settle(ctx, auction.Identity(msg.Sender), amount)
	if err != nil {
		return nil, err
	}

	return &SettleResult{
		BidID:  best.BidID,
		Winner: string(best.Bidder),
		Price:  best.Price.String(),
	}, nil
}

// Query dispatches a read-only message and returns the matching response
// struct.
func (e *Engine) Query(rawMsg json.RawMessage) (interface{}, error) {
	var msg QueryMsg
	if err := json.Unmarshal(rawMsg, &msg); err != nil {
		return nil, fmt.Errorf("unable to decode query message: %v",
			err)
	}

	switch {
	case msg.GetConfig != nil:
		cfg, err := e.cfg.Store.Config()
		if err != nil {
			return nil, err
		}
		return newConfigResponse(cfg), nil

	case msg.GetBidSequence != nil:
		seq, err := e.cfg.Store.BidSequence()
		if err != nil {
			return nil, err
		}
		return &BidSequenceResponse{Sequence: seq}, nil

	case msg.GetBidRecord != nil:
		record, err := e.cfg.Store.BidRecord(msg.GetBidRecord.ID)
		if err != nil {
			return nil, err
		}
		return newBidRecordResponse(record), nil

	case msg.GetBestBid != nil:
		best, err := e.cfg.Store.BestBid()
		if err != nil {
			return nil, err
		}
		return newBestBidResponse(best), nil

	default:
		return nil, fmt.Errorf("%w: unknown query variant",
			auction.ErrUnrecognizedAction)
	}
}

// parseAmountParam parses a stringified integer message field, attributing
// parse failures to the named parameter.
func parseAmountParam(param, value string) (auction.Amount, error) {
	amount, err := auction.ParseAmount(value)
	if err != nil {
		return 0, &auction.InvalidParameterError{
			Param:  param,
			Reason: err.Error(),
		}
	}
	return amount, nil
}
