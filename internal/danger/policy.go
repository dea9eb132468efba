package danger

// Policy holds the heuristics applied while aggregating danger. They are
// judgment calls about AI caution, not combat rules.
type Policy struct {
	// TwoPass reruns aggregation once with the zone of control of likely
	// casualties removed.
	TwoPass bool

	FogDanger               int // danger per fog contribution
	FogDiscountPct          int // applied when the attacker's tile is not known-visible
	SuicideDiscountPct      int // applied when a non-suicide attacker would die attacking
	UnknownTerrainDamage    int // flat terrain damage assumed for an unknown defender
	CityFallMargin          int
	AirSweepInterceptionMod int // percent, applied to ground interceptors during a sweep
	EnemyHealRate           int // area damage at or below this heals off and is ignored

	UnitFogRange int
	CityFogRange int
	CampFogRange int
}

// DefaultPolicy returns the standard tuning.
func DefaultPolicy() Policy {
	return Policy{
		FogDanger:               1,
		FogDiscountPct:          80,
		SuicideDiscountPct:      50,
		UnknownTerrainDamage:    20,
		CityFallMargin:          50,
		AirSweepInterceptionMod: -50,
		EnemyHealRate:           5,
		UnitFogRange:            2,
		CityFogRange:            3,
		CampFogRange:            3,
	}
}
