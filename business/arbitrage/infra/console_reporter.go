// Package infra contains the decision reporters of the arbitrage context.
package infra

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fd1az/cycle-arbitrage/business/arbitrage/app"
	"github.com/fd1az/cycle-arbitrage/business/arbitrage/domain"
)

var _ app.DecisionListener = (*ConsoleReporter)(nil)

// ConsoleReporter prints every decision as a block of text.
type ConsoleReporter struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsoleReporter writes to w, or stdout when w is nil.
func NewConsoleReporter(w io.Writer) *ConsoleReporter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleReporter{out: w}
}

// OnDecision outputs one decision.
func (r *ConsoleReporter) OnDecision(_ context.Context, d domain.Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule := strings.Repeat("=", 80)
	fmt.Fprintln(r.out, "")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintln(r.out, "ARBITRAGE DECISION")
	fmt.Fprintln(r.out, rule)
	fmt.Fprintf(r.out, "ID:             %s\n", d.ID)
	fmt.Fprintf(r.out, "Block:          #%d\n", d.Tick)
	fmt.Fprintf(r.out, "Timestamp:      %s\n", d.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(r.out, "Token:          %s\n", d.TokenName())
	fmt.Fprintf(r.out, "Start amount:   %s\n", d.StartAmount().StringFixed(6))
	fmt.Fprintf(r.out, "Profit:         %s\n", d.Profit().StringFixed(6))
	if d.Fees != nil {
		fmt.Fprintf(r.out, "Fees:           %s (gas %d)\n", d.Fees.StringFixed(6), d.GasLimit)
	}
	fmt.Fprintln(r.out, strings.Repeat("-", 80))
	fmt.Fprintln(r.out, "ROUTE")
	for i, step := range d.Result.Path {
		fmt.Fprintf(r.out, "  %d. %-12s %s\n", i+1, step.ExchangeName, step.TokenName)
	}
	fmt.Fprintf(r.out, "Coordinator:    %s (%d bytes calldata)\n", d.Coordinator.Hex(), len(d.Calldata))
	fmt.Fprintln(r.out, rule)
}
