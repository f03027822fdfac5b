// Package main is a command line client for the feed protocol.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	feedredis "github.com/fd1az/cycle-arbitrage/business/feed/infra/redis"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
	"github.com/fd1az/cycle-arbitrage/internal/wsconn"
)

type options struct {
	url       string
	store     int
	exchange  string
	env       string
	pairs     string
	amountIn  float64
	decisions bool
	redisAddr string
	channel   string
	verbose   bool
}

func main() {
	_ = godotenv.Load()

	var opts options
	flag.StringVar(&opts.url, "url", "ws://localhost:8080", "Feed server URL")
	flag.IntVar(&opts.store, "store", -1, "Price store id (server default when negative)")
	flag.StringVar(&opts.exchange, "exchange", "uniswap", "Exchange to quote on")
	flag.StringVar(&opts.env, "env", "", "Exchange environment (production or development)")
	flag.StringVar(&opts.pairs, "pairs", "", "Comma separated pairs, each NAME:ADDRESS/NAME:ADDRESS")
	flag.Float64Var(&opts.amountIn, "amount", 0, "Input amount in whole tokens (one unit when 0)")
	flag.BoolVar(&opts.decisions, "decisions", false, "Subscribe to decisions")
	flag.StringVar(&opts.redisAddr, "redis", "", "Read decisions from this redis instead of the websocket")
	flag.StringVar(&opts.channel, "channel", "arbitrage:decision", "Redis decision channel or pattern")
	flag.BoolVar(&opts.verbose, "v", false, "Log connection events to stderr")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var err error
	if opts.redisAddr != "" {
		err = watchRedis(ctx, opts, os.Stdout)
	} else {
		err = run(ctx, opts, os.Stdout)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	requests, err := buildRequests(opts)
	if err != nil {
		return err
	}
	if len(requests) == 0 {
		return fmt.Errorf("nothing to subscribe: pass -pairs and/or -decisions")
	}

	target, err := feedURL(opts.url, opts.store)
	if err != nil {
		return err
	}

	log := logger.Nop()
	if opts.verbose {
		log = logger.New(os.Stderr, logger.LevelDebug, "arbctl", nil)
	}

	cfg := wsconn.DefaultConfig(target, "feed")
	cfg.Logger = log
	client, err := wsconn.New(cfg)
	if err != nil {
		return err
	}
	defer client.Close()

	client.OnMessage(func(_ context.Context, msg []byte) {
		fmt.Fprintln(out, string(msg))
	})
	// Subscriptions live in the server session, so a new connection needs
	// them sent again.
	client.OnStateChange(func(state wsconn.State, cause error) {
		log.Info(ctx, "connection state", "state", string(state), "error", cause)
		if state == wsconn.StateConnected {
			go send(ctx, client, requests, log)
		}
	})

	if err := client.Connect(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return nil
}

func send(ctx context.Context, client *wsconn.Client, requests []domain.Request, log logger.LoggerInterface) {
	for _, req := range requests {
		if err := client.SendJSON(ctx, req); err != nil {
			log.Warn(ctx, "send failed", "topic", string(req.Topic), "error", err)
			return
		}
	}
}

func feedURL(raw string, store int) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid -url: %w", err)
	}
	if store >= 0 {
		q := u.Query()
		q.Set("store", strconv.Itoa(store))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// buildRequests turns flags into the session setup: the environment first,
// then one priceData subscription per pair, then the decision topic.
func buildRequests(opts options) ([]domain.Request, error) {
	var reqs []domain.Request

	env := asset.Environment("")
	if opts.env != "" {
		env = asset.ParseEnvironment(opts.env)
		reqs = append(reqs, domain.Request{
			Type:        domain.TypeUpdate,
			Topic:       domain.TopicEnvironment,
			Environment: env,
		})
	}

	for _, raw := range splitList(opts.pairs) {
		a, b, err := parsePair(raw)
		if err != nil {
			return nil, err
		}
		q := &domain.Query{Exchange: opts.exchange, TokenA: a, TokenB: b}
		if opts.amountIn > 0 {
			amount := opts.amountIn
			q.AmountIn = &amount
		}
		reqs = append(reqs, domain.Request{
			Type:        domain.TypeSubscribe,
			Topic:       domain.TopicPriceData,
			Environment: env,
			Query:       q,
		})
	}

	if opts.decisions {
		reqs = append(reqs, domain.Request{Type: domain.TypeSubscribe, Topic: domain.TopicDecision})
	}
	return reqs, nil
}

func parsePair(raw string) (asset.Token, asset.Token, error) {
	left, right, ok := strings.Cut(raw, "/")
	if !ok {
		return asset.Token{}, asset.Token{}, fmt.Errorf("pair %q: want A/B", raw)
	}
	a, err := parseToken(left)
	if err != nil {
		return asset.Token{}, asset.Token{}, err
	}
	b, err := parseToken(right)
	if err != nil {
		return asset.Token{}, asset.Token{}, err
	}
	return a, b, nil
}

// parseToken reads NAME:ADDRESS[:DECIMALS].
func parseToken(raw string) (asset.Token, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return asset.Token{}, fmt.Errorf("token %q: want NAME:ADDRESS[:DECIMALS]", raw)
	}
	payload := map[string]any{"name": parts[0], "address": parts[1]}
	if len(parts) == 3 {
		d, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			return asset.Token{}, fmt.Errorf("token %q: decimals: %w", raw, err)
		}
		payload["decimals"] = d
	}

	data, _ := json.Marshal(payload)
	var t asset.Token
	if err := json.Unmarshal(data, &t); err != nil {
		return asset.Token{}, fmt.Errorf("token %q: %w", raw, err)
	}
	return t, nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func watchRedis(ctx context.Context, opts options, out io.Writer) error {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client, err := feedredis.New(dialCtx, feedredis.ClientConfig{Addr: opts.redisAddr})
	if err != nil {
		return err
	}
	defer client.Close()

	bus := feedredis.NewDecisionBus(client, opts.channel, "")
	decisions, err := bus.Subscribe(ctx, opts.channel)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for resp := range decisions {
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	return nil
}
