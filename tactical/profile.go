package tactical

// PriorityWeights tune the heuristic scorer. They are part of the plan-cache
// fingerprint: two profiles with different weights never share cached plans.
type PriorityWeights struct {
	Aggression float64 `json:"aggression" yaml:"aggression"`
	Mobility   float64 `json:"mobility" yaml:"mobility"`
	Caution    float64 `json:"caution" yaml:"caution"`
	Efficiency float64 `json:"efficiency" yaml:"efficiency"`
}

// Profile selects how plans are scored. Expression, when set, is an expr
// source evaluated against the plan features; otherwise a weighted default
// heuristic applies.
type Profile struct {
	Name       string          `json:"name" yaml:"name"`
	Weights    PriorityWeights `json:"weights" yaml:"weights"`
	Expression string          `json:"expression,omitempty" yaml:"expression,omitempty"`
}
