package world

import "fmt"

// Bot is the state of one participant at a single turn.
type Bot struct {
	ID           int
	Energy       float64
	Position     Vector
	Direction    float64
	Speed        float64
	GunDirection float64
	// RadarDirection is carried for clients; the step driver never turns it.
	RadarDirection float64
	// GunHeat must be zero for the bot to fire.
	GunHeat float64
}

func (b Bot) String() string {
	return fmt.Sprintf("bot(%d e=%.1f @%.1f,%.1f)", b.ID, b.Energy, b.Position.X, b.Position.Y)
}

func (b Bot) Alive() bool {
	return b.Energy > 0
}
