package simulation

import "time"

// SetNowFunc pins the generator's clock for deterministic tests.
func (g *Generator) SetNowFunc(now func() time.Time) {
	g.now = now
}
