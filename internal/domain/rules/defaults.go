package rules

import "github.com/okian/playoffdraft/internal/domain/model"

// Rule categories. "PerPoint" categories are divisors: that many units earn one point.
const (
	PassingTouchdown        = "passingTouchdown"
	PassingYardsPerPoint    = "passingYardsPerPoint"
	TwoPtConversion         = "twoPtConversion"
	Interception            = "interception"
	CompletionsPerPoint     = "completionsPerPoint"
	RushingTouchdown        = "rushingTouchdown"
	RushingYardsPerPoint    = "rushingYardsPerPoint"
	RushingAttemptsPerPoint = "rushingAttemptsPerPoint"
	ReceivingTouchdown      = "receivingTouchdown"
	ReceivingYardsPerPoint  = "receivingYardsPerPoint"
	Reception               = "reception"
	PAT                     = "pat"
	FGMiss                  = "fgMiss"
	FG0To39                 = "fg0to39"
	FG40To49                = "fg40to49"
	FG50To59                = "fg50to59"
	FG60Plus                = "fg60plus"
	Touchdown               = "touchdown"
	Sack                    = "sack"
	BlockedKick             = "blockedKick"
	FumbleRecovered         = "fumbleRecovered"
	Safety                  = "safety"
	PointsAllowed0          = "pointsAllowed0"
	PointsAllowed1To6       = "pointsAllowed1to6"
	PointsAllowed7To13      = "pointsAllowed7to13"
	PointsAllowed14To17     = "pointsAllowed14to17"
	PointsAllowed18To27     = "pointsAllowed18to27"
	PointsAllowed28To34     = "pointsAllowed28to34"
	PointsAllowed35To45     = "pointsAllowed35to45"
	PointsAllowed46Plus     = "pointsAllowed46plus"
	YardsAllowedUnder100    = "yardsAllowedUnder100"
	YardsAllowed100To199    = "yardsAllowed100to199"
	YardsAllowed200To299    = "yardsAllowed200to299"
	YardsAllowed300To399    = "yardsAllowed300to399"
	YardsAllowed400To449    = "yardsAllowed400to449"
	YardsAllowed450To499    = "yardsAllowed450to499"
	YardsAllowed500Plus     = "yardsAllowed500plus"
)

type def struct {
	category    string
	value       float64
	description string
}

var receiverDefaults = []def{
	{ReceivingTouchdown, 6, "points per receiving touchdown"},
	{ReceivingYardsPerPoint, 10, "receiving yards per point (floored)"},
	{Reception, 1, "points per reception"},
	{TwoPtConversion, 2, "points per two-point conversion"},
}

var defaults = map[model.Position][]def{
	model.QB: {
		{PassingTouchdown, 4, "points per passing touchdown"},
		{PassingYardsPerPoint, 25, "passing yards per point (rounded)"},
		{TwoPtConversion, 2, "points per two-point conversion"},
		{Interception, -2, "points per interception thrown"},
		{CompletionsPerPoint, 10, "completions per point (rounded)"},
	},
	model.RB: {
		{RushingTouchdown, 6, "points per rushing touchdown"},
		{RushingYardsPerPoint, 10, "rushing yards per point (floored)"},
		{RushingAttemptsPerPoint, 5, "rushing attempts per point (floored)"},
		{TwoPtConversion, 2, "points per two-point conversion"},
	},
	model.WR: receiverDefaults,
	model.TE: receiverDefaults,
	model.K: {
		{PAT, 1, "points per extra point made"},
		{FGMiss, -1, "points per missed field goal"},
		{FG0To39, 3, "field goal 0-39 yards"},
		{FG40To49, 4, "field goal 40-49 yards"},
		{FG50To59, 5, "field goal 50-59 yards"},
		{FG60Plus, 6, "field goal 60+ yards"},
	},
	model.DST: {
		{Touchdown, 6, "points per defensive or return touchdown"},
		{Sack, 2, "points per sack"},
		{BlockedKick, 2, "points per blocked kick"},
		{Interception, 2, "points per interception"},
		{FumbleRecovered, 2, "points per fumble recovered"},
		{Safety, 2, "points per safety"},
		{PointsAllowed0, 10, "0 points allowed"},
		{PointsAllowed1To6, 5, "1-6 points allowed"},
		{PointsAllowed7To13, 3, "7-13 points allowed"},
		{PointsAllowed14To17, 1, "14-17 points allowed"},
		{PointsAllowed18To27, 0, "18-27 points allowed"},
		{PointsAllowed28To34, -1, "28-34 points allowed"},
		{PointsAllowed35To45, -3, "35-45 points allowed"},
		{PointsAllowed46Plus, -5, "46+ points allowed"},
		{YardsAllowedUnder100, 5, "under 100 yards allowed"},
		{YardsAllowed100To199, 3, "100-199 yards allowed"},
		{YardsAllowed200To299, 2, "200-299 yards allowed"},
		{YardsAllowed300To399, 0, "300-399 yards allowed"},
		{YardsAllowed400To449, -1, "400-449 yards allowed"},
		{YardsAllowed450To499, -3, "450-499 yards allowed"},
		{YardsAllowed500Plus, -5, "500+ yards allowed"},
	},
}

// Defaults returns the built-in rule table for position.
func Defaults(pos model.Position) []model.ScoringRule {
	ds := defaults[pos]
	out := make([]model.ScoringRule, len(ds))
	for i, d := range ds {
		out[i] = model.ScoringRule{Position: pos, Category: d.category, Value: d.value, Description: d.description}
	}
	return out
}

// Default returns the built-in value of one rule.
func Default(pos model.Position, category string) (float64, bool) {
	for _, d := range defaults[pos] {
		if d.category == category {
			return d.value, true
		}
	}
	return 0, false
}

// Categories lists the rule categories known for position.
func Categories(pos model.Position) []string {
	ds := defaults[pos]
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = d.category
	}
	return out
}
