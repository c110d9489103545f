// Package domain contains the trade safety rules: deadline expiry and the
// price-impact gate applied before anything is handed to a submitter.
package domain

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fd1az/amm-quoter/internal/apperror"
)

// Impact is the outcome of the price-impact gate.
type Impact int

const (
	Allowed Impact = iota
	Warned         // submission permitted, user must be told
	Blocked        // submission refused locally
)

func (i Impact) String() string {
	switch i {
	case Allowed:
		return "allowed"
	case Warned:
		return "warned"
	case Blocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// MarshalText renders the decision in JSON and logs.
func (i Impact) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// Thresholds bound the Warned band. Both ends are inclusive.
type Thresholds struct {
	Warn  decimal.Decimal
	Block decimal.Decimal
}

// DefaultThresholds warn from 5% and block above 15%.
var DefaultThresholds = Thresholds{
	Warn:  decimal.NewFromInt(5),
	Block: decimal.NewFromInt(15),
}

// ImpactDecision gates a price impact: below Warn is Allowed, Warn through
// Block inclusive is Warned, above Block is Blocked.
func ImpactDecision(pct decimal.Decimal, th Thresholds) Impact {
	switch {
	case pct.LessThan(th.Warn):
		return Allowed
	case pct.LessThanOrEqual(th.Block):
		return Warned
	default:
		return Blocked
	}
}

// DeadlineExpired reports whether now is strictly past the deadline.
// Both are unix seconds, the unit the contract compares in.
func DeadlineExpired(nowSeconds, deadlineSeconds int64) bool {
	return nowSeconds > deadlineSeconds
}

// CheckDeadline fails with DEADLINE_EXPIRED once now is past deadline.
func CheckDeadline(now, deadline time.Time) error {
	if DeadlineExpired(now.Unix(), deadline.Unix()) {
		return apperror.New(apperror.CodeDeadlineExpired,
			apperror.WithContextf("deadline %d, now %d", deadline.Unix(), now.Unix()))
	}
	return nil
}
