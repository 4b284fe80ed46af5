package discount

import (
	"context"
	"crypto/rand"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Config holds the discount policy knobs. Both values are configuration, not
// literals baked into the engine.
type Config struct {
	// Rate is the fraction of the subtotal taken off when a code applies,
	// e.g. 0.1 for ten percent.
	Rate decimal.Decimal
	// CodeLength is the length of generated code values. Defaults to 8.
	CodeLength int
}

// StatsRecorder is notified of every issued code so that codes show up in
// aggregate stats immediately, whether or not they are ever redeemed.
type StatsRecorder interface {
	RecordIssuedCode(ctx context.Context, value string) error
}

// Codes use an uppercase alphabet without the easily confused 0/O and 1/I.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	defaultCodeLength = 8
	maxGenerateTries  = 100

	issuedFilterCapacity = 1_000_000
	issuedFilterFPR      = 0.001
)

// Registry issues unique single-use discount codes and redeems them at
// checkout. Safe for concurrent use.
type Registry struct {
	repo  Repository
	stats StatsRecorder
	cfg   Config

	// issued is a probabilistic prefilter over every value this process has
	// seen. A positive test means the candidate is likely taken, so Generate
	// retries before touching storage; the Insert unique check stays
	// authoritative.
	mu     sync.Mutex
	issued *bloom.BloomFilter
}

// NewRegistry creates a Registry with the given policy.
func NewRegistry(repo Repository, stats StatsRecorder, cfg Config) *Registry {
	if cfg.CodeLength <= 0 {
		cfg.CodeLength = defaultCodeLength
	}
	return &Registry{
		repo:   repo,
		stats:  stats,
		cfg:    cfg,
		issued: bloom.NewWithEstimates(issuedFilterCapacity, issuedFilterFPR),
	}
}

// Rate returns the configured discount fraction.
func (r *Registry) Rate() decimal.Decimal {
	return r.cfg.Rate
}

// Generate mints a new code with a value unique among all codes ever issued.
// Collisions are retried internally and never surface to the caller.
func (r *Registry) Generate(ctx context.Context) (*Code, error) {
	for range maxGenerateTries {
		value, err := r.randomValue()
		if err != nil {
			return nil, errors.Wrap(err, "generate code value")
		}
		if r.seen(value) {
			continue
		}

		c := &Code{Value: value, CreatedAt: time.Now().UTC()}
		if err := r.repo.Insert(ctx, c); err != nil {
			if errors.Is(err, ErrCodeExists) {
				r.remember(value)
				continue
			}
			return nil, errors.Wrap(err, "insert code")
		}
		r.remember(value)

		if err := r.stats.RecordIssuedCode(ctx, value); err != nil {
			return nil, errors.Wrap(err, "record issued code")
		}
		return c, nil
	}
	return nil, errors.New("exhausted attempts to generate a unique code")
}

// Redeem validates and consumes the code against the given subtotal. The three
// outcomes are mutually exclusive: unknown code, already consumed, applied.
// Only the applied outcome mutates the registry, and only one concurrent
// caller can ever win it for a given code. A non-nil error means the registry
// itself failed, not that the code was refused.
func (r *Registry) Redeem(ctx context.Context, value string, subtotal decimal.Decimal) (Result, error) {
	err := r.repo.Consume(ctx, value)
	switch {
	case err == nil:
		amount := subtotal.Mul(r.cfg.Rate).Round(2)
		if amount.GreaterThan(subtotal) {
			amount = subtotal
		}
		if amount.IsNegative() {
			amount = decimal.Zero
		}
		return Result{Applied: true, Message: MsgApplied, Amount: amount}, nil
	case errors.Is(err, ErrCodeNotFound):
		return Result{Applied: false, Message: MsgInvalid, Amount: decimal.Zero}, nil
	case errors.Is(err, ErrCodeConsumed):
		return Result{Applied: false, Message: MsgAlreadyUsed, Amount: decimal.Zero}, nil
	default:
		return Result{}, errors.Wrapf(err, "consume code %q", value)
	}
}

func (r *Registry) randomValue() (string, error) {
	buf := make([]byte, r.cfg.CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(buf), nil
}

func (r *Registry) seen(value string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.issued.TestString(value)
}

func (r *Registry) remember(value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued.AddString(value)
}
