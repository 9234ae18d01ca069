package scheduling

import "strings"

// ─────────────────────────────────────────────────────────────────────────────
// Scheduling rules
// ─────────────────────────────────────────────────────────────────────────────

// SchedulingRule is the closed set of interval rules deciding how an
// equipment test's next valid date is derived. ResolveRule returns exactly
// one of FixedIntervalRule or AnnualSurveyAnchoredRule; no other
// implementations exist.
type SchedulingRule interface {
	schedulingRule()
}

// FixedIntervalRule renews a fixed number of months after the test date.
type FixedIntervalRule struct {
	Months int `json:"months"`
}

func (FixedIntervalRule) schedulingRule() {}

// AnnualSurveyAnchoredRule renews relative to the ship's annual survey
// anniversary rather than the test date itself.
type AnnualSurveyAnchoredRule struct{}

func (AnnualSurveyAnchoredRule) schedulingRule() {}

// DefaultIntervalMonths is the interval applied to equipment whose name
// matches no keyword, and the interval of every fixed-interval keyword.
const DefaultIntervalMonths = 12

// anchoredKeywords are the equipment categories whose servicing is tied to
// the ship's annual survey. Checked before fixedIntervalKeywords: a name
// matching both resolves as anchored.
var anchoredKeywords = []string{
	"epirb",
	"sart",
	"ais",
	"ssas",
	"lifeboat",
	"rescue boat",
	"davit",
	"launching appliance",
}

// fixedIntervalKeywords are the categories serviced on a plain 12-month
// cycle regardless of the ship's survey position.
var fixedIntervalKeywords = []string{
	"lifesaving appliance",
	"protective equipment",
	"fire extinguisher",
	"fixed fire",
	"gas detection",
}

// ResolveRule maps an equipment name to its scheduling rule by
// case-insensitive substring match, anchored keywords first. Names matching
// nothing fall back to the fixed 12-month interval, so every equipment
// record is always schedulable.
func ResolveRule(name string) SchedulingRule {
	lower := strings.ToLower(name)
	for _, kw := range anchoredKeywords {
		if strings.Contains(lower, kw) {
			return AnnualSurveyAnchoredRule{}
		}
	}
	for _, kw := range fixedIntervalKeywords {
		if strings.Contains(lower, kw) {
			return FixedIntervalRule{Months: DefaultIntervalMonths}
		}
	}
	return FixedIntervalRule{Months: DefaultIntervalMonths}
}
