package main

import (
	"encoding/json"
	"fmt"

	bid "github.com/celiakwan/cw20-bid"
	"github.com/urfave/cli"
)

var auctionCommands = []cli.Command{
	initCommand,
	bidCommand,
	notifyCommand,
	configCommand,
	bidsCommand,
	bidRecordCommand,
	bestBidCommand,
	sequenceCommand,
	eventsCommand,
}

var initCommand = cli.Command{
	Name:      "init",
	Usage:     "initialize a new auction",
	ArgsUsage: "reserve_price increment duration",
	Description: `
	Initialize the auction with the given reserve price, minimum bid
	increment and bidding window duration in blocks. The sender becomes
	the seller and the given height the start of the bidding window.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "token_ref",
			Usage: "reference of the fungible token contract " +
				"bids are denominated in",
		},
		senderFlag,
		heightFlag,
	},
	Action: auctionInit,
}

func auctionInit(ctx *cli.Context) error {
	if ctx.NArg() != 3 {
		return cli.ShowCommandHelp(ctx, "init")
	}
	args := ctx.Args()

	rawMsg, err := json.Marshal(&bid.InstantiateMsg{
		TokenRef:     ctx.String("token_ref"),
		ReservePrice: args.Get(0),
		Increment:    args.Get(1),
		Duration:     args.Get(2),
	})
	if err != nil {
		return err
	}

	var resp bid.ConfigResponse
	err = postRequest(ctx, "/v1/instantiate", &callRequest{
		Sender: ctx.String("sender"),
		Height: ctx.Uint64("height"),
		Msg:    rawMsg,
	}, &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

var bidCommand = cli.Command{
	Name:      "bid",
	Usage:     "place an offer on the item",
	ArgsUsage: "price",
	Description: `
	Place an offer at the given price. The first accepted offer must reach
	the reserve price, every following one must raise the standing best
	bid by at least the configured increment.`,
	Flags: []cli.Flag{senderFlag, heightFlag},
	Action: placeBid,
}

func placeBid(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "bid")
	}

	rawMsg, err := json.Marshal(&bid.ExecuteMsg{
		Bid: &bid.BidMsg{
			Price: ctx.Args().First(),
		},
	})
	if err != nil {
		return err
	}

	var resp bid.BidResult
	err = postRequest(ctx, "/v1/execute", &callRequest{
		Sender: ctx.String("sender"),
		Height: ctx.Uint64("height"),
		Msg:    rawMsg,
	}, &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

var notifyCommand = cli.Command{
	Name:      "notify",
	Usage:     "deliver a token payment notification",
	ArgsUsage: "amount",
	Description: `
	Deliver the payment notification the token contract sends after the
	winner transferred the winning amount with a buy intent attached. The
	sender flag carries the token contract's identity, the from flag the
	payer reported by it.`,
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "from",
			Usage: "the account the tokens came from",
		},
		senderFlag,
		heightFlag,
	},
	Action: notifyPayment,
}

func notifyPayment(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "notify")
	}

	rawMsg, err := json.Marshal(&bid.ExecuteMsg{
		Receive: &bid.ReceiveMsg{
			Sender: ctx.String("from"),
			Amount: ctx.Args().First(),
			Msg:    []byte(`{"buy": {}}`),
		},
	})
	if err != nil {
		return err
	}

	var resp bid.SettleResult
	err = postRequest(ctx, "/v1/execute", &callRequest{
		Sender: ctx.String("sender"),
		Height: ctx.Uint64("height"),
		Msg:    rawMsg,
	}, &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

var configCommand = cli.Command{
	Name:   "config",
	Usage:  "show the auction configuration",
	Action: showConfig,
}

func showConfig(ctx *cli.Context) error {
	var resp bid.ConfigResponse
	err := query(ctx, `{"get_config": {}}`, &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

var sequenceCommand = cli.Command{
	Name:   "sequence",
	Usage:  "show the id of the latest accepted bid",
	Action: showSequence,
}

func showSequence(ctx *cli.Context) error {
	var resp bid.BidSequenceResponse
	err := query(ctx, `{"get_bid_sequence": {}}`, &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

var bidRecordCommand = cli.Command{
	Name:      "bidrecord",
	Usage:     "show a single historic bid",
	ArgsUsage: "id",
	Action:    showBidRecord,
}

func showBidRecord(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return cli.ShowCommandHelp(ctx, "bidrecord")
	}

	var resp bid.BidRecordResponse
	err := query(ctx, fmt.Sprintf(
		`{"get_bid_record": {"id": %s}}`, ctx.Args().First(),
	), &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

var bidsCommand = cli.Command{
	Name:   "bids",
	Usage:  "list all accepted bids",
	Action: listBids,
}

func listBids(ctx *cli.Context) error {
	// Bid ids are assigned densely from one, so the sequence counter
	// tells us exactly which records exist.
	var seqResp bid.BidSequenceResponse
	err := query(ctx, `{"get_bid_sequence": {}}`, &seqResp)
	if err != nil {
		return err
	}

	bids := make([]*bid.BidRecordResponse, 0, seqResp.Sequence)
	for id := uint64(1); id <= seqResp.Sequence; id++ {
		var resp bid.BidRecordResponse
		err := query(ctx, fmt.Sprintf(
			`{"get_bid_record": {"id": %d}}`, id,
		), &resp)
		if err != nil {
			return err
		}
		bids = append(bids, &resp)
	}

	printJSON(bids)
	return nil
}

var bestBidCommand = cli.Command{
	Name:   "bestbid",
	Usage:  "show the standing best bid and the sold flag",
	Action: showBestBid,
}

func showBestBid(ctx *cli.Context) error {
	var resp bid.BestBidResponse
	err := query(ctx, `{"get_best_bid": {}}`, &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

var eventsCommand = cli.Command{
	Name:   "events",
	Usage:  "list the recorded audit events",
	Action: listEvents,
}

func listEvents(ctx *cli.Context) error {
	var resp []interface{}
	err := getRequest(ctx, "/v1/events", &resp)
	if err != nil {
		return err
	}

	printJSON(resp)
	return nil
}

// query runs a single read-only call against the daemon.
func query(ctx *cli.Context, msg string, target interface{}) error {
	return postRequest(ctx, "/v1/query", &queryRequest{
		Msg: json.RawMessage(msg),
	}, target)
}
