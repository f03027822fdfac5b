package domain

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/fd1az/cycle-arbitrage/internal/asset"
)

// Optimizer searches the head-token input size at which the marginal
// return of a chain crosses 1, using Brent–Dekker root finding on
// f(x) = (price(x+ε) − price(x)) / ε − 1 with x in whole head-token units.
type Optimizer struct {
	Lower   decimal.Decimal
	Upper   decimal.Decimal
	Epsilon decimal.Decimal
	MaxIter int
}

// NewOptimizer searches [lower, upper] with a step of one whole token.
func NewOptimizer(lower, upper float64, maxIter int) *Optimizer {
	return &Optimizer{
		Lower:   decimal.NewFromFloat(lower),
		Upper:   decimal.NewFromFloat(upper),
		Epsilon: decimal.NewFromInt(1),
		MaxIter: maxIter,
	}
}

// DefaultOptimizer searches [0, 10000] for at most 100 iterations.
func DefaultOptimizer() *Optimizer {
	return NewOptimizer(0, 10000, 100)
}

type marginal struct {
	chain   *Hop
	decIn   uint8
	unitOut decimal.Decimal
	eps     decimal.Decimal
}

var one = decimal.NewFromInt(1)

func (m marginal) amount(x decimal.Decimal) *big.Int {
	return asset.FromDecimal(x, m.decIn)
}

func (m marginal) eval(x decimal.Decimal) (decimal.Decimal, error) {
	lo, _, err := m.chain.Price(m.amount(x))
	if err != nil {
		return decimal.Zero, err
	}
	hi, _, err := m.chain.Price(m.amount(x.Add(m.eps)))
	if err != nil {
		return decimal.Zero, err
	}

	diff := decimal.NewFromBigInt(new(big.Int).Sub(hi, lo), 0)
	return diff.Div(m.unitOut).Div(m.eps).Sub(one), nil
}

// OptimalPrice returns the profit-maximizing input for chain together with
// its output and execution path.
func (o *Optimizer) OptimalPrice(chain *Hop) (OptimumResult, error) {
	if chain == nil {
		return OptimumResult{}, ErrChainTooShort
	}

	m := marginal{
		chain:   chain,
		decIn:   chain.TokenA.Decimals,
		unitOut: decimal.NewFromBigInt(chain.Last().TokenB.Unit(), 0),
		eps:     o.Epsilon,
	}

	b, err := o.brent(m)
	if err != nil {
		return OptimumResult{}, err
	}

	amountIn := m.amount(b)
	amountOut, path, err := chain.Price(amountIn)
	if err != nil {
		return OptimumResult{}, err
	}
	return OptimumResult{AmountIn: amountIn, AmountOut: amountOut, Path: path}, nil
}

func (o *Optimizer) brent(m marginal) (decimal.Decimal, error) {
	a, b := o.Lower, o.Upper
	fa, err := m.eval(a)
	if err != nil {
		return decimal.Zero, err
	}
	fb, err := m.eval(b)
	if err != nil {
		return decimal.Zero, err
	}

	if fa.Mul(fb).Sign() >= 0 {
		return decimal.Zero, ErrNoSolution
	}
	if fa.Abs().LessThan(fb.Abs()) {
		a, b, fa, fb = b, a, fb, fa
	}

	c, fc := a, fa
	d := decimal.Zero
	mflag := true
	two, three, four := decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.NewFromInt(4)

	for iter := 0; !fb.IsZero() && b.Sub(a).Abs().GreaterThan(m.eps); iter++ {
		if iter >= o.MaxIter {
			return decimal.Zero, ErrNoSolution
		}

		var s decimal.Decimal
		if !fa.Equal(fc) && !fb.Equal(fc) {
			// inverse quadratic interpolation
			s = a.Mul(fb).Mul(fc).Div(fa.Sub(fb).Mul(fa.Sub(fc))).
				Add(b.Mul(fa).Mul(fc).Div(fb.Sub(fa).Mul(fb.Sub(fc)))).
				Add(c.Mul(fa).Mul(fb).Div(fc.Sub(fa).Mul(fc.Sub(fb))))
		} else {
			// secant
			s = b.Sub(fb.Mul(b.Sub(a)).Div(fb.Sub(fa)))
		}

		bound := three.Mul(a).Add(b).Div(four)
		lo, hi := decimal.Min(bound, b), decimal.Max(bound, b)
		step := s.Sub(b).Abs()

		if s.LessThan(lo) || s.GreaterThan(hi) ||
			(mflag && step.GreaterThanOrEqual(b.Sub(c).Abs().Div(two))) ||
			(!mflag && step.GreaterThanOrEqual(c.Sub(d).Abs().Div(two))) {
			s = a.Add(b).Div(two)
			mflag = true
		} else {
			mflag = false
		}

		fs, err := m.eval(s)
		if err != nil {
			return decimal.Zero, err
		}

		d = c
		c, fc = b, fb
		if fa.Mul(fs).Sign() < 0 {
			b, fb = s, fs
		} else {
			a, fa = s, fs
		}
		if fa.Abs().LessThan(fb.Abs()) {
			a, b, fa, fb = b, a, fb, fa
		}
	}

	return b, nil
}
