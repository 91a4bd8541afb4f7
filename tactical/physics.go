package tactical

// Physics is the injectable bag of movement and weapon formulas the planner
// consults. All three functions are pure; tests swap in fixed-rate versions
// so search behavior is deterministic.
type Physics struct {
	// APToDistance returns how far an actor can move for the given AP.
	APToDistance func(power, finesse, ap, massKg float64) float64
	// DistanceToAP returns the AP required to move the given distance.
	// Inverse of APToDistance for the same actor stats.
	DistanceToAP func(power, finesse, distance, massKg float64) float64
	// WeaponAPCost returns the AP price of one strike with a weapon of the
	// given mass wielded at the given finesse.
	WeaponAPCost func(weaponMassKg, finesse float64) float64
}

// DefaultPhysics returns the reference formula set.
//
// Movement shares a single stride rate so APToDistance and DistanceToAP are
// exact inverses: heavier bodies move less per AP, finesse grants a modest
// bonus. Weapon cost grows with mass and shrinks with finesse, floored so a
// strike is never free.
func DefaultPhysics() Physics {
	return Physics{
		APToDistance: func(power, finesse, ap, massKg float64) float64 {
			return ap * strideRate(power, finesse, massKg)
		},
		DistanceToAP: func(power, finesse, distance, massKg float64) float64 {
			rate := strideRate(power, finesse, massKg)
			if rate <= 0 {
				return distance // immobile; any positive distance is unaffordable
			}
			return distance / rate
		},
		WeaponAPCost: func(weaponMassKg, finesse float64) float64 {
			f := finesse
			if f < 0 {
				f = 0
			}
			if f > 100 {
				f = 100
			}
			cost := 0.5 + weaponMassKg*0.4*(200-f)/200
			if cost < 0.5 {
				cost = 0.5
			}
			return cost
		},
	}
}

// strideRate is meters of movement per AP for the given body stats.
func strideRate(power, finesse, massKg float64) float64 {
	if power <= 0 || massKg <= 0 {
		return 0
	}
	return 6 * power / (power + massKg) * (1 + finesse/200)
}

// ConstantRatePhysics returns a physics bag where movement costs
// distance/rate AP and every strike costs strikeAP. Intended for tests and
// benchmarks that need predictable numbers.
func ConstantRatePhysics(rate, strikeAP float64) Physics {
	return Physics{
		APToDistance: func(_, _, ap, _ float64) float64 { return ap * rate },
		DistanceToAP: func(_, _, distance, _ float64) float64 { return distance / rate },
		WeaponAPCost: func(_, _ float64) float64 { return strikeAP },
	}
}
