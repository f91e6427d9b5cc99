package entitlements

import (
	"strings"

	"github.com/Hackeries/AlgoRise-sub002/app/models"
)

type Plan string

const (
	PlanFree  Plan = "free"
	PlanPro   Plan = "pro"
	PlanElite Plan = "elite"
)

// Normalize maps arbitrary plan strings to a known plan, defaulting to free.
func Normalize(plan string) Plan {
	switch strings.ToLower(strings.TrimSpace(plan)) {
	case string(PlanPro):
		return PlanPro
	case string(PlanElite):
		return PlanElite
	default:
		return PlanFree
	}
}

// HintQuotaPerDay returns how many AI hints a plan may request per day.
func HintQuotaPerDay(plan Plan) int {
	switch plan {
	case PlanElite:
		return 50
	case PlanPro:
		return 15
	default:
		return 3
	}
}

// AllowedArenaModes returns which duel modes a plan can queue for.
func AllowedArenaModes(plan Plan) []string {
	switch plan {
	case PlanElite, PlanPro:
		return []string{models.ArenaModeBlitz, models.ArenaModeStandard}
	default:
		return []string{models.ArenaModeStandard}
	}
}

// ModeAllowed reports whether the plan can queue for the given mode.
func ModeAllowed(plan Plan, mode string) bool {
	for _, m := range AllowedArenaModes(plan) {
		if m == mode {
			return true
		}
	}
	return false
}

// EffectivePlan derives the plan from the mirrored subscription state on a
// profile: an active paid subscription entitles the paid plan, anything else
// falls back to free.
func EffectivePlan(p *models.Profile) Plan {
	if p == nil {
		return PlanFree
	}
	if p.SubscriptionStatus != models.SubscriptionStatusActive {
		return PlanFree
	}
	return Normalize(p.Plan)
}
