package checkout

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
)

const (
	// orderNumberPrefix keeps numbers recognisable and copyable.
	orderNumberPrefix = "FS"

	// numberTimeLayout yields second-granularity, creation-sortable numbers.
	numberTimeLayout = "060102150405"

	// maxNumberAttempts bounds the collision retry loop.
	maxNumberAttempts = 5

	suffixAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"
	suffixLength   = 4
)

// ExistsFunc reports whether a candidate order number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// NumberGenerator mints human-readable, time-derived order numbers.
//
// Minting is a check-then-act sequence and inherently racy under extreme
// concurrency; the database's unique constraint on order_number is the
// real backstop. The bounded retry with a random suffix fallback only
// keeps collisions out of the common path.
type NumberGenerator interface {
	// Generate returns an order number unused at the time of the check.
	Generate(ctx context.Context, exists ExistsFunc) (string, error)
}

// numberGenerator implements NumberGenerator.
type numberGenerator struct {
	logger zerolog.Logger
	now    func() time.Time
	sleep  func(time.Duration)
}

// NewNumberGenerator creates a new order number generator.
func NewNumberGenerator(logger zerolog.Logger) NumberGenerator {
	return &numberGenerator{
		logger: logger.With().Str("component", "order-number").Logger(),
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Generate returns an order number unused at the time of the check.
func (g *numberGenerator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	var candidate string
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		candidate = g.candidate()

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to check order number: %w", err)
		}
		if !taken {
			return candidate, nil
		}

		g.logger.Debug().
			Str("candidate", candidate).
			Int("attempt", attempt+1).
			Msg("order number collision, retrying")

		// Small random backoff so competing submissions land on different
		// timestamps.
		g.sleep(time.Duration(rand.IntN(50)+10) * time.Millisecond)
	}

	// Still colliding after the bound: append a random suffix to guarantee
	// termination.
	candidate = g.candidate() + randomSuffix()
	g.logger.Warn().
		Str("candidate", candidate).
		Msg("order number retries exhausted, using random suffix")

	return candidate, nil
}

// candidate derives a timestamp-based order number with a short random tail.
func (g *numberGenerator) candidate() string {
	return fmt.Sprintf("%s%s%03d", orderNumberPrefix, g.now().Format(numberTimeLayout), rand.IntN(1000))
}

// randomSuffix returns a short random alphanumeric string. The alphabet
// omits easily confused characters.
func randomSuffix() string {
	b := make([]byte, suffixLength)
	for i := range b {
		b[i] = suffixAlphabet[rand.IntN(len(suffixAlphabet))]
	}
	return string(b)
}

// NewVerificationCode returns the short secret paired with an order
// number, required to query or verify the order without authentication.
func NewVerificationCode() string {
	return fmt.Sprintf("%06d", rand.IntN(1000000))
}
