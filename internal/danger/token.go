package danger

// Token proves the holder runs on the simulation goroutine. The zero value
// is a non-simulation caller and may only trigger reload rebuilds.
type Token struct {
	simulation bool
}

// SimulationToken returns a token for the goroutine that owns world
// mutation. Only that goroutine should hold one.
func SimulationToken() Token {
	return Token{simulation: true}
}

// IsSimulation reports whether the token was issued to the simulation.
func (t Token) IsSimulation() bool {
	return t.simulation
}
