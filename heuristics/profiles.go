package heuristics

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/industry-digital/flux-game-sub007/tactical"
)

// ProfilesFile is the on-disk shape of a heuristic profile set.
type ProfilesFile struct {
	Profiles []tactical.Profile `yaml:"profiles"`
}

// LoadProfiles reads heuristic profiles from a YAML file, keyed by name.
func LoadProfiles(path string) (map[string]tactical.Profile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	var f ProfilesFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse profiles %s: %w", path, err)
	}
	out := make(map[string]tactical.Profile, len(f.Profiles))
	for _, p := range f.Profiles {
		if p.Name == "" {
			return nil, fmt.Errorf("parse profiles %s: profile with empty name", path)
		}
		out[p.Name] = p
	}
	return out, nil
}

// DefaultProfile is the balanced stock profile used when no profile is named.
func DefaultProfile() tactical.Profile {
	return tactical.Profile{
		Name: "balanced",
		Weights: tactical.PriorityWeights{
			Aggression: 1.0,
			Mobility:   0.6,
			Caution:    0.4,
			Efficiency: 0.2,
		},
	}
}

// BerserkerProfile favors strike-heavy plans and ignores reserve AP.
func BerserkerProfile() tactical.Profile {
	return tactical.Profile{
		Name: "berserker",
		Weights: tactical.PriorityWeights{
			Aggression: 1.8,
			Mobility:   0.5,
			Caution:    0.1,
			Efficiency: 0,
		},
	}
}

// SkirmisherProfile favors repositioning and kiting over committed strikes.
func SkirmisherProfile() tactical.Profile {
	return tactical.Profile{
		Name: "skirmisher",
		Weights: tactical.PriorityWeights{
			Aggression: 0.7,
			Mobility:   1.4,
			Caution:    0.8,
			Efficiency: 0.3,
		},
	}
}
