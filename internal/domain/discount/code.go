package discount

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Repository-level sentinel errors.
var (
	// ErrCodeExists is returned by Insert when the code value is already taken.
	ErrCodeExists = errors.New("code already exists")
	// ErrCodeNotFound is returned by Consume for a code that was never issued.
	ErrCodeNotFound = errors.New("code not found")
	// ErrCodeConsumed is returned by Consume for a code that was already spent.
	ErrCodeConsumed = errors.New("code already consumed")
)

// Code is a single-use discount code. Once consumed it is permanently inert;
// codes are never deleted from the registry.
type Code struct {
	Value     string
	Consumed  bool
	CreatedAt time.Time
}

// Result reports the outcome of a redemption attempt. A non-applied result is
// not an error: checkout proceeds at full price carrying the message.
type Result struct {
	Applied bool
	Message string
	Amount  decimal.Decimal
}

// Messages surfaced to clients in Result.Message.
const (
	MsgApplied     = "discount applied"
	MsgInvalid     = "invalid code"
	MsgAlreadyUsed = "code already used"
	MsgNoCode      = "no code provided"
)

// Repository is the append-only registry log.
type Repository interface {
	// Insert stores a fresh, unconsumed code. Returns ErrCodeExists when the
	// value is already taken.
	Insert(ctx context.Context, c *Code) error
	// Consume flips the consumed flag. It must behave as a single atomic
	// compare-and-set: for a given code, at most one caller ever observes a nil
	// result, no matter how many race. Returns ErrCodeNotFound or
	// ErrCodeConsumed otherwise, without mutating anything.
	Consume(ctx context.Context, value string) error
	// Codes returns every code value ever issued, in issue order.
	Codes(ctx context.Context) ([]string, error)
}
