package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	bid "github.com/celiakwan/cw20-bid"
	"github.com/urfave/cli"
)

const (
	// defaultRESTServer is the default address the daemon serves its REST
	// interface on.
	defaultRESTServer = "localhost:8281"

	// requestTimeout is the timeout applied to all daemon requests.
	requestTimeout = 30 * time.Second
)

var (
	senderFlag = cli.StringFlag{
		Name:  "sender",
		Usage: "the identity the call is made as",
	}
	heightFlag = cli.Uint64Flag{
		Name:  "height",
		Usage: "the current chain height",
	}
)

// callRequest is the envelope of a state-changing daemon call.
type callRequest struct {
	Sender string          `json:"sender"`
	Height uint64          `json:"height"`
	Msg    json.RawMessage `json:"msg"`
}

// queryRequest is the envelope of a read-only daemon call.
type queryRequest struct {
	Msg json.RawMessage `json:"msg"`
}

// errorReply is the body of a failed daemon call.
type errorReply struct {
	Error string `json:"error"`
}

func printJSON(resp interface{}) {
	b, err := json.Marshal(resp)
	if err != nil {
		fatal(err)
	}

	var out bytes.Buffer
	_ = json.Indent(&out, b, "", "\t")
	out.WriteString("\n")
	_, _ = out.WriteTo(os.Stdout)
}

func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "[auctionctl] %v\n", err)
	os.Exit(1)
}

// daemonURL builds the full URL of a daemon endpoint from the global server
// flag.
func daemonURL(ctx *cli.Context, path string) string {
	return "http://" + ctx.GlobalString("restserver") + path
}

// postRequest sends a JSON request to the daemon and decodes the answer into
// target, mapping error replies to errors.
func postRequest(ctx *cli.Context, path string, req,
	target interface{}) error {

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Post(
		daemonURL(ctx, path), "application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeReply(resp, target)
}

// getRequest fetches a JSON resource from the daemon and decodes the answer
// into target.
func getRequest(ctx *cli.Context, path string, target interface{}) error {
	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Get(daemonURL(ctx, path))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeReply(resp, target)
}

func decodeReply(resp *http.Response, target interface{}) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errReply errorReply
		if err := json.Unmarshal(body, &errReply); err == nil &&
			errReply.Error != "" {

			return fmt.Errorf("%s", errReply.Error)
		}
		return fmt.Errorf("daemon returned status %d",
			resp.StatusCode)
	}

	return json.Unmarshal(body, target)
}

func main() {
	app := cli.NewApp()

	app.Version = bid.Version()
	app.Name = "auctionctl"
	app.Usage = "control plane for your auctiond"
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "restserver",
			Value: defaultRESTServer,
			Usage: "auctiond daemon address host:port",
		},
	}
	app.Commands = append(app.Commands, auctionCommands...)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}
