// Package app applies the trade safety rules to quotes.
package app

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	quoting "github.com/fd1az/amm-quoter/business/quoting/domain"
	"github.com/fd1az/amm-quoter/business/safety/domain"
	"github.com/fd1az/amm-quoter/internal/apperror"
	"github.com/fd1az/amm-quoter/internal/asset"
	"github.com/fd1az/amm-quoter/internal/config"
)

// DefaultDeadlineWindow is how long a quoted swap stays submittable.
const DefaultDeadlineWindow = 60 * time.Second

// Policy is stateless apart from its thresholds; safe for concurrent use.
type Policy struct {
	thresholds     domain.Thresholds
	deadlineWindow time.Duration
}

// NewPolicy creates a policy. A non-positive window falls back to the default.
func NewPolicy(th domain.Thresholds, deadlineWindow time.Duration) *Policy {
	if deadlineWindow <= 0 {
		deadlineWindow = DefaultDeadlineWindow
	}
	return &Policy{thresholds: th, deadlineWindow: deadlineWindow}
}

// NewPolicyFromConfig reads the thresholds from the safety section.
func NewPolicyFromConfig(cfg config.SafetyConfig) *Policy {
	return NewPolicy(domain.Thresholds{
		Warn:  cfg.WarnImpactDecimal(),
		Block: cfg.BlockImpactDecimal(),
	}, cfg.DeadlineWindow)
}

func (p *Policy) Thresholds() domain.Thresholds {
	return p.thresholds
}

// Deadline is now plus the window, truncated to whole seconds.
func (p *Policy) Deadline(now time.Time) time.Time {
	return now.Add(p.deadlineWindow).Truncate(time.Second)
}

func (p *Policy) CheckDeadline(now, deadline time.Time) error {
	return domain.CheckDeadline(now, deadline)
}

func (p *Policy) ImpactDecision(q quoting.SwapQuote) domain.Impact {
	return domain.ImpactDecision(q.PriceImpactPct, p.thresholds)
}

// SlippageGuard returns the floor the contract enforces on the output. It is
// passed along unchanged; nothing is checked after execution.
func (p *Policy) SlippageGuard(q quoting.SwapQuote) asset.Amount {
	return q.MinimumReceived
}

// Decision is the verdict on one quote.
type Decision struct {
	Impact   domain.Impact
	Tier     quoting.ImpactTier
	Allowed  bool
	Reason   string // why a trade was refused
	Warning  string // set for Warned trades
	Deadline time.Time

	// Submission is nil unless Allowed.
	Submission *quoting.SwapSubmission

	// Err is the typed rejection, nil when Allowed.
	Err error
}

// Evaluate gates a quote on deadline and price impact and, if it passes,
// builds the tuple for the submitter.
func (p *Policy) Evaluate(pool common.Address, q quoting.SwapQuote, now, deadline time.Time) Decision {
	d := Decision{
		Impact:   p.ImpactDecision(q),
		Tier:     q.Tier(),
		Deadline: deadline,
	}

	if err := p.CheckDeadline(now, deadline); err != nil {
		d.Reason = "deadline has passed, request a fresh quote"
		d.Err = err
		return d
	}

	impact := q.PriceImpactPct.StringFixed(2)

	switch d.Impact {
	case domain.Blocked:
		d.Reason = fmt.Sprintf("price impact %s%% exceeds the %s%% limit", impact, p.thresholds.Block.String())
		d.Err = apperror.New(apperror.CodePriceImpactBlocked,
			apperror.WithContextf("impact %s%%, limit %s%%", impact, p.thresholds.Block.String()))
		return d
	case domain.Warned:
		d.Warning = fmt.Sprintf("high price impact: %s%%", impact)
	}

	sub := quoting.NewSwapSubmission(pool, q, deadline)
	d.Submission = &sub
	d.Allowed = true
	return d
}
