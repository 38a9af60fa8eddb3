package risk

import (
	"fmt"
	"time"

	"hype_trader/internal/config"
	"hype_trader/internal/ledger"
	"hype_trader/internal/signal"
)

// Exit rule identifiers, stable strings for journaling and metrics
const (
	RuleHardStop          = "hard_stop"
	RuleProfitLock        = "profit_lock"
	RuleTightTrail        = "tight_trail"
	RuleLooseTrail        = "loose_trail"
	RuleMomentumReversal  = "momentum_reversal"
	RuleTechnicalWeakness = "technical_weakness"
)

// ExitDecision is the verdict for one held position
type ExitDecision struct {
	Exit   bool
	Rule   string
	Reason string
}

func hold() ExitDecision {
	return ExitDecision{}
}

func exit(rule, format string, args ...interface{}) ExitDecision {
	return ExitDecision{Exit: true, Rule: rule, Reason: fmt.Sprintf(format, args...)}
}

// EvaluateExit runs the exit rule chain for a position. The hard stop and the
// profit lock apply unconditionally; everything else is suppressed during the
// post-entry grace window. Pure function of its inputs. Indicators may be nil
// when market data was unavailable, which disables the technical-weakness rule
// but nothing else.
func EvaluateExit(pos *ledger.Position, ind *signal.IndicatorSet, momentum float64, now time.Time, cfg config.RiskConfig) ExitDecision {
	plPct := pos.PLPct()
	drawdown := pos.DrawdownPct()

	if plPct < cfg.HardStopPct {
		return exit(RuleHardStop, "P&L %.2f%% breached hard stop %.2f%%", plPct, cfg.HardStopPct)
	}

	profitLocked := plPct > cfg.ProfitLockTriggerPct && drawdown < cfg.ProfitLockDrawdown

	grace := time.Duration(cfg.GraceWindowMinutes) * time.Minute
	if pos.Age(now) < grace {
		// Only the profit lock pierces the grace window: a gain still banked
		// past the trigger must not round-trip no matter how young the
		// position is
		if profitLocked {
			return exit(RuleProfitLock, "P&L %.2f%% locked, gave back %.2f%% from high", plPct, drawdown)
		}
		return hold()
	}

	if plPct > cfg.TightTriggerPct {
		if drawdown <= -cfg.TightTrailingPct {
			return exit(RuleTightTrail, "drawdown %.2f%% hit tight trail %.2f%% (P&L %.2f%%)", drawdown, -cfg.TightTrailingPct, plPct)
		}
	} else if drawdown <= -cfg.LooseTrailingPct {
		return exit(RuleLooseTrail, "drawdown %.2f%% hit trail %.2f%% (P&L %.2f%%)", drawdown, -cfg.LooseTrailingPct, plPct)
	}

	// Winners between the trail tiers: still up past the lock trigger, gave
	// back more than the lock drawdown but less than the loose trail
	if profitLocked {
		return exit(RuleProfitLock, "P&L %.2f%% locked, gave back %.2f%% from high", plPct, drawdown)
	}

	if momentum < cfg.MomentumReversalPct && plPct > cfg.MomentumProfitPct {
		return exit(RuleMomentumReversal, "momentum %.2f%% reversed against %.2f%% gain", momentum, plPct)
	}

	if ind != nil {
		weakness := 0
		if ind.BelowBothMAs() {
			weakness++
		}
		if ind.MACDDiff() < -0.5 {
			weakness++
		}
		if momentum < cfg.WeakMomentumPct {
			weakness++
		}
		// One weak signal is noise; two or more is a confirmed breakdown
		if weakness >= 2 {
			return exit(RuleTechnicalWeakness, "%d of 3 weakness signals confirmed", weakness)
		}
	}

	return hold()
}
