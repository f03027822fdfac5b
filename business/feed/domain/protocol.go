// Package domain holds the JSON protocol spoken with feed clients.
package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	arbdomain "github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
	exdomain "github.com/fd1az/cycle-arbitrage/business/exchange/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// MessageType is the verb of a request.
type MessageType string

const (
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypeSilent      MessageType = "silent"
	TypeReset       MessageType = "reset"
	TypeBuy         MessageType = "buy"
	TypeUpdate      MessageType = "update"
)

func (t MessageType) valid() bool {
	switch t {
	case TypeSubscribe, TypeUnsubscribe, TypeSilent, TypeReset, TypeBuy, TypeUpdate:
		return true
	}
	return false
}

// Topic selects the handler of a request.
type Topic string

const (
	TopicPriceData   Topic = "priceData"
	TopicDecision    Topic = "decision"
	TopicReset       Topic = "reset"
	TopicBuy         Topic = "buy"
	TopicEnvironment Topic = "environment"
	TopicNone        Topic = "none"
)

func (t Topic) valid() bool {
	switch t {
	case TopicPriceData, TopicDecision, TopicReset, TopicBuy, TopicEnvironment, TopicNone:
		return true
	}
	return false
}

// Query names a pair on one venue.
type Query struct {
	Exchange       string      `json:"exchange"`
	Type           string      `json:"type,omitempty"`
	TokenA         asset.Token `json:"tokenA"`
	TokenB         asset.Token `json:"tokenB"`
	AmountIn       *float64    `json:"amountIn,omitempty"`
	AmountOut      *float64    `json:"amountOut,omitempty"`
	RouterAddress  string      `json:"routerAddress,omitempty"`
	FactoryAddress string      `json:"factoryAddress,omitempty"`
}

// Request is one client message.
type Request struct {
	Type        MessageType       `json:"type"`
	Topic       Topic             `json:"topic"`
	Environment asset.Environment `json:"environment,omitempty"`
	Query       *Query            `json:"query,omitempty"`
}

// ParseRequest decodes and validates raw. On failure the returned request
// still carries whatever topic could be read.
func ParseRequest(raw []byte) (Request, error) {
	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return req, apperror.New(apperror.CodeMalformedRequest, apperror.WithCause(err))
	}
	if !req.Topic.valid() {
		return req, apperror.New(apperror.CodeUnsupportedTopic,
			apperror.WithContext(fmt.Sprintf("topic %q", req.Topic)))
	}
	if !req.Type.valid() {
		return req, apperror.New(apperror.CodeMalformedRequest,
			apperror.WithContext(fmt.Sprintf("type %q", req.Type)))
	}

	switch req.Environment {
	case "", asset.Development, asset.Production:
	default:
		return req, apperror.New(apperror.CodeMalformedRequest,
			apperror.WithContext(fmt.Sprintf("environment %q", req.Environment)))
	}
	return req, nil
}

// Env is the requested environment, or fallback when none was given.
func (r Request) Env(fallback asset.Environment) asset.Environment {
	if r.Environment == "" {
		return fallback
	}
	return r.Environment
}

// Status is the outcome of a response.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Response is every server message: request acknowledgements and pushes.
type Response struct {
	Status        Status         `json:"status"`
	Topic         Topic          `json:"topic"`
	Error         string         `json:"error,omitempty"`
	QueryTime     *float64       `json:"queryTime,omitempty"` // ms
	Quote         *Quote         `json:"quote,omitempty"`
	ExecutedTrade *ExecutedTrade `json:"executedTrade,omitempty"`
}

func Success(topic Topic) Response {
	return Response{Status: StatusSuccess, Topic: topic}
}

// Failure carries err's message when there is one.
func Failure(topic Topic, err error) Response {
	r := Response{Status: StatusError, Topic: topic}
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// WithQueryTime stamps d in milliseconds.
func (r Response) WithQueryTime(d time.Duration) Response {
	ms := float64(d.Microseconds()) / 1000
	r.QueryTime = &ms
	return r
}

// Quote is the wire form of a venue quote.
type Quote struct {
	ExchangeName     string      `json:"exchangeName"`
	Amount           string      `json:"amount"`
	AmountOut        string      `json:"amountOut"`
	Decimals         uint8       `json:"decimals"`
	Price            float64     `json:"price"`
	TransactionPrice float64     `json:"transactionPrice"`
	TokenA           asset.Token `json:"tokenA"`
	TokenB           asset.Token `json:"tokenB"`
	Ask              *float64    `json:"ask,omitempty"`
	Bid              *float64    `json:"bid,omitempty"`
	TTF              *float64    `json:"ttf,omitempty"`
}

// NewQuote converts an exchange quote.
func NewQuote(q exdomain.Quote) *Quote {
	return &Quote{
		ExchangeName:     q.ExchangeName,
		Amount:           q.Amount.String(),
		AmountOut:        q.AmountOut.String(),
		Decimals:         q.Decimals,
		Price:            q.Price,
		TransactionPrice: q.TransactionPrice,
		TokenA:           q.TokenA,
		TokenB:           q.TokenB,
		Ask:              q.Ask,
		Bid:              q.Bid,
		TTF:              q.TTF,
	}
}

// RouteStep is one leg of an executed trade.
type RouteStep struct {
	Exchange string `json:"exchange"`
	Token    string `json:"token"`
}

// ExecutedTrade reports a decision. Timestamp is unix milliseconds.
type ExecutedTrade struct {
	Timestamp   int64            `json:"timestamp"`
	Token       string           `json:"token"`
	StartAmount decimal.Decimal  `json:"startAmount"`
	Route       []RouteStep      `json:"route"`
	Profit      decimal.Decimal  `json:"profit"`
	Fees        *decimal.Decimal `json:"fees,omitempty"`
	TxHash      string           `json:"txHash,omitempty"`
}

// NewExecutedTrade converts a decision into its broadcast form.
func NewExecutedTrade(d arbdomain.Decision) *ExecutedTrade {
	route := make([]RouteStep, 0, len(d.Result.Path))
	for _, step := range d.Result.Path {
		route = append(route, RouteStep{Exchange: step.ExchangeName, Token: step.TokenName})
	}
	return &ExecutedTrade{
		Timestamp:   d.Timestamp.UnixMilli(),
		Token:       d.TokenName(),
		StartAmount: d.StartAmount(),
		Route:       route,
		Profit:      d.Profit(),
		Fees:        d.Fees,
	}
}

// DecisionResponse wraps d as a decision push.
func DecisionResponse(d arbdomain.Decision) Response {
	r := Success(TopicDecision)
	r.ExecutedTrade = NewExecutedTrade(d)
	return r
}
