// Package scoring converts a player's raw per-round statistics into fantasy points.
package scoring

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/okian/playoffdraft/internal/domain/model"
	"github.com/okian/playoffdraft/internal/domain/rules"
)

// Statistic field names as entered on the score form.
const (
	FieldTouchdowns       = "touchdowns"
	FieldYards            = "yards"
	FieldTwoPtConversions = "twoPtConversions"
	FieldInterceptions    = "interceptions"
	FieldCompletions      = "completions"
	FieldRushingYards     = "rushingYards"
	FieldRushingAttempts  = "rushingAttempts"
	FieldReceivingYards   = "receivingYards"
	FieldReceptions       = "receptions"
	FieldPAT              = "pat"
	FieldFGMisses         = "fgMisses"
	FieldSacks            = "sacks"
	FieldBlockedKicks     = "blockedKicks"
	FieldFumblesRecovered = "fumblesRecovered"
	FieldSafeties         = "safeties"
	FieldPointsAllowed    = "pointsAllowed"
	FieldYardsAllowed     = "yardsAllowed"
)

var receiverFields = []string{FieldTouchdowns, FieldReceivingYards, FieldReceptions, FieldTwoPtConversions}

var fields = map[model.Position][]string{
	model.QB:  {FieldTouchdowns, FieldYards, FieldTwoPtConversions, FieldInterceptions, FieldCompletions},
	model.RB:  {FieldTouchdowns, FieldRushingYards, FieldRushingAttempts, FieldTwoPtConversions},
	model.WR:  receiverFields,
	model.TE:  receiverFields,
	model.K:   {FieldPAT, FieldFGMisses},
	model.DST: {FieldTouchdowns, FieldSacks, FieldBlockedKicks, FieldInterceptions, FieldFumblesRecovered, FieldSafeties, FieldPointsAllowed, FieldYardsAllowed},
}

// Fields lists the scalar input fields for position. Kickers additionally carry
// model.FieldGoalsKey.
func Fields(pos model.Position) []string {
	out := make([]string, len(fields[pos]))
	copy(out, fields[pos])
	return out
}

// RuleSource resolves scoring coefficients. *rules.Table implements it.
type RuleSource interface {
	Lookup(ctx context.Context, pos model.Position, category string) float64
}

// Calculator computes fantasy scores against the current rule table.
type Calculator struct {
	rules RuleSource
}

// NewCalculator creates a calculator over src.
func NewCalculator(src RuleSource) *Calculator {
	return &Calculator{rules: src}
}

// Compute returns the fantasy score of one player's statistics. It never fails:
// absent or unparseable fields count as zero, and fields foreign to the position are ignored.
func (c *Calculator) Compute(ctx context.Context, pos model.Position, data *model.ScoreData) int {
	r := func(category string) float64 { return c.rules.Lookup(ctx, pos, category) }
	n := func(field string) float64 { return number(data, field) }

	var total float64
	switch pos {
	case model.QB:
		total = r(rules.PassingTouchdown)*n(FieldTouchdowns) +
			per(n(FieldYards), r(rules.PassingYardsPerPoint), math.Round) +
			r(rules.TwoPtConversion)*n(FieldTwoPtConversions) +
			r(rules.Interception)*n(FieldInterceptions) +
			per(n(FieldCompletions), r(rules.CompletionsPerPoint), math.Round)
	case model.RB:
		total = r(rules.RushingTouchdown)*n(FieldTouchdowns) +
			per(n(FieldRushingYards), r(rules.RushingYardsPerPoint), math.Floor) +
			per(n(FieldRushingAttempts), r(rules.RushingAttemptsPerPoint), math.Floor) +
			r(rules.TwoPtConversion)*n(FieldTwoPtConversions)
	case model.WR, model.TE:
		total = r(rules.ReceivingTouchdown)*n(FieldTouchdowns) +
			per(n(FieldReceivingYards), r(rules.ReceivingYardsPerPoint), math.Floor) +
			r(rules.Reception)*n(FieldReceptions) +
			r(rules.TwoPtConversion)*n(FieldTwoPtConversions)
	case model.K:
		total = r(rules.PAT)*n(FieldPAT) + r(rules.FGMiss)*n(FieldFGMisses)
		if data != nil {
			for _, raw := range data.FieldGoals {
				total += r(FieldGoalCategory(parse(raw)))
			}
		}
	case model.DST:
		total = r(rules.Touchdown)*n(FieldTouchdowns) +
			r(rules.Sack)*n(FieldSacks) +
			r(rules.BlockedKick)*n(FieldBlockedKicks) +
			r(rules.Interception)*n(FieldInterceptions) +
			r(rules.FumbleRecovered)*n(FieldFumblesRecovered) +
			r(rules.Safety)*n(FieldSafeties) +
			r(PointsAllowedCategory(n(FieldPointsAllowed))) +
			r(YardsAllowedCategory(n(FieldYardsAllowed)))
	}
	return int(math.Round(total))
}

// per converts units into points through a "units per point" divisor. A non-positive
// divisor earns nothing.
func per(units, divisor float64, round func(float64) float64) float64 {
	if divisor <= 0 {
		return 0
	}
	return round(units / divisor)
}

// FieldGoalCategory buckets one made field goal by its yardage.
func FieldGoalCategory(yards float64) string {
	switch {
	case yards < 40:
		return rules.FG0To39
	case yards < 50:
		return rules.FG40To49
	case yards < 60:
		return rules.FG50To59
	default:
		return rules.FG60Plus
	}
}

// PointsAllowedCategory buckets the points a defense allowed.
func PointsAllowedCategory(points float64) string {
	switch {
	case points <= 0:
		return rules.PointsAllowed0
	case points <= 6:
		return rules.PointsAllowed1To6
	case points <= 13:
		return rules.PointsAllowed7To13
	case points <= 17:
		return rules.PointsAllowed14To17
	case points <= 27:
		return rules.PointsAllowed18To27
	case points <= 34:
		return rules.PointsAllowed28To34
	case points <= 45:
		return rules.PointsAllowed35To45
	default:
		return rules.PointsAllowed46Plus
	}
}

// YardsAllowedCategory buckets the yards a defense allowed.
func YardsAllowedCategory(yards float64) string {
	switch {
	case yards < 100:
		return rules.YardsAllowedUnder100
	case yards < 200:
		return rules.YardsAllowed100To199
	case yards < 300:
		return rules.YardsAllowed200To299
	case yards < 400:
		return rules.YardsAllowed300To399
	case yards < 450:
		return rules.YardsAllowed400To449
	case yards < 500:
		return rules.YardsAllowed450To499
	default:
		return rules.YardsAllowed500Plus
	}
}

func number(data *model.ScoreData, field string) float64 {
	raw, ok := data.Get(field)
	if !ok {
		return 0
	}
	return parse(raw)
}

func parse(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
