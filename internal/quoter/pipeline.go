package quoter

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/mselser95/fpmm-quoter/internal/fees"
	"github.com/mselser95/fpmm-quoter/pkg/types"
	"go.uber.org/zap"
)

// MarketSource provides the pool snapshot and fee fraction a quote is computed against.
type MarketSource interface {
	CurrentPool(ctx context.Context) ([]types.PoolBalance, error)
	CurrentFeeFraction(ctx context.Context) (*big.Int, error)
}

// Input is one user input event.
type Input struct {
	Side         types.Side
	Amount       *big.Int
	OutcomeIndex int
}

// Result is a published quote together with its fee accounting.
type Result struct {
	Generation  uint64
	Input       Input
	Quote       *TradeQuote
	Fees        fees.FeeQuote
	FeeFraction *big.Int
	Err         error
}

// PipelineConfig holds pipeline configuration.
type PipelineConfig struct {
	Quoter   *Quoter
	Source   MarketSource
	Debounce time.Duration
	Logger   *zap.Logger
}

// Pipeline derives the current quote from a stream of user inputs.
// Inputs are debounced, and only the result for the latest input is ever
// published: every Submit cancels the pending timer and the in-flight oracle
// call, and a computation finishing for an older generation is discarded.
type Pipeline struct {
	quoter   *Quoter
	source   MarketSource
	debounce time.Duration
	logger   *zap.Logger

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu         sync.Mutex
	generation uint64
	timer      *time.Timer
	cancel     context.CancelFunc
	latest     Result
	hasLatest  bool
	closed     bool
	results    chan Result
}

// NewPipeline creates a new quote pipeline.
func NewPipeline(cfg PipelineConfig) (*Pipeline, error) {
	if cfg.Quoter == nil {
		return nil, errors.New("quoter cannot be nil")
	}
	if cfg.Source == nil {
		return nil, errors.New("market source cannot be nil")
	}
	if cfg.Debounce < 0 {
		return nil, errors.New("debounce must not be negative")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, stop := context.WithCancel(context.Background())
	return &Pipeline{
		quoter:   cfg.Quoter,
		source:   cfg.Source,
		debounce: cfg.Debounce,
		logger:   logger,
		ctx:      ctx,
		stop:     stop,
		results:  make(chan Result, 1),
	}, nil
}

// Submit records a new input and schedules its quote after the debounce window.
// It returns the generation assigned to the input. Submit never blocks on the oracle.
func (p *Pipeline) Submit(in Input) uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return p.generation
	}

	p.generation++
	gen := p.generation
	p.supersede()

	ctx, cancel := context.WithCancel(p.ctx)
	p.cancel = cancel

	submitted := time.Now()
	p.wg.Add(1)
	p.timer = time.AfterFunc(p.debounce, func() {
		defer p.wg.Done()
		p.run(ctx, gen, in, submitted)
	})

	return gen
}

// supersede stops the pending timer and cancels the in-flight computation.
// Callers must hold p.mu.
func (p *Pipeline) supersede() {
	if p.timer != nil && p.timer.Stop() {
		// the timer func will never run
		p.wg.Done()
	}
	if p.cancel != nil {
		p.cancel()
	}
}

func (p *Pipeline) run(ctx context.Context, gen uint64, in Input, submitted time.Time) {
	if ctx.Err() != nil {
		p.discard(gen)
		return
	}

	res := Result{Generation: gen, Input: in}

	pool, err := p.source.CurrentPool(ctx)
	if err != nil {
		res.Err = fmt.Errorf("current pool: %w", err)
		p.publish(res, submitted)
		return
	}

	feeFraction, err := p.source.CurrentFeeFraction(ctx)
	if err != nil {
		res.Err = fmt.Errorf("current fee fraction: %w", err)
		p.publish(res, submitted)
		return
	}

	var q *TradeQuote
	if in.Side == types.SideSell {
		q = p.quoter.QuoteSell(ctx, in.Amount, in.OutcomeIndex, pool)
	} else {
		q = p.quoter.Quote(ctx, in.Amount, in.OutcomeIndex, pool)
	}
	q.Generation = gen

	res.Quote = q
	res.FeeFraction = feeFraction
	res.Fees = fees.Compute(q.AmountUsed, q.TradedShares, feeFraction)

	p.publish(res, submitted)
}

// publish stores res as the latest result unless a newer input has arrived.
func (p *Pipeline) publish(res Result, submitted time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || res.Generation != p.generation {
		p.discardLocked(res.Generation)
		return
	}

	p.latest = res
	p.hasLatest = true

	// keep only the newest unread result
	select {
	case <-p.results:
	default:
	}
	p.results <- res

	PipelineQuoteLatency.Observe(time.Since(submitted).Seconds())
	if res.Err != nil {
		p.logger.Warn("quote-input-unavailable",
			zap.Uint64("generation", res.Generation),
			zap.Error(res.Err))
		return
	}
	p.logger.Debug("quote-published",
		zap.Uint64("generation", res.Generation),
		zap.String("side", string(res.Quote.Side)),
		zap.String("traded-shares", res.Quote.TradedShares.String()),
		zap.Bool("oracle-failed", res.Quote.OracleFailed))
}

func (p *Pipeline) discard(gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.discardLocked(gen)
}

func (p *Pipeline) discardLocked(gen uint64) {
	QuotesDiscardedTotal.Inc()
	p.logger.Debug("quote-discarded",
		zap.Uint64("generation", gen),
		zap.Uint64("current-generation", p.generation))
}

// Latest returns the most recently published result.
func (p *Pipeline) Latest() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.latest, p.hasLatest
}

// Generation returns the generation of the most recent input.
func (p *Pipeline) Generation() uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generation
}

// Results returns a channel carrying published results. Only the newest unread
// result is buffered. The channel is closed by Close.
func (p *Pipeline) Results() <-chan Result {
	return p.results
}

// Close cancels pending work, waits for it to finish and closes the results channel.
func (p *Pipeline) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.supersede()
	p.mu.Unlock()

	p.stop()
	p.wg.Wait()
	close(p.results)
}
