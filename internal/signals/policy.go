package signals

import "github.com/banshee-data/spm.report/internal/config"

// Policy is a single pass-speed limit per train type. It stands in for the
// aspect-dependent limits of real signalling: every signal is treated as if
// it showed a caution aspect.
type Policy struct {
	CoachingLimit float64
	OtherLimit    float64
}

// PolicyFromConfig reads the limits from cfg.
func PolicyFromConfig(cfg *config.AnalysisConfig) Policy {
	return Policy{
		CoachingLimit: cfg.GetCoachingSignalLimit(),
		OtherLimit:    cfg.GetOtherSignalLimit(),
	}
}

// LimitFor returns the pass limit in km/h for tt.
func (p Policy) LimitFor(tt config.TrainType) float64 {
	if tt == config.TrainCoaching {
		return p.CoachingLimit
	}
	return p.OtherLimit
}

// Violation is a signal pass above the policy limit.
type Violation struct {
	SignalPass
	Limit  float64 `json:"limit_kmph"`
	Excess float64 `json:"excess_kmph"`
}

// Violations returns the passes whose speed is strictly above limit.
func Violations(passes []SignalPass, limit float64) []Violation {
	var out []Violation
	for _, p := range passes {
		if p.Speed > limit {
			out = append(out, Violation{SignalPass: p, Limit: limit, Excess: p.Speed - limit})
		}
	}
	return out
}
