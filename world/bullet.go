package world

import (
	"cmp"
	"fmt"
	"math"
)

const (
	MinBulletPower = 0.1
	MaxBulletPower = 3.0
)

// Bullet is a projectile in flight. BotID names the bot that fired it, which
// may no longer be present in the turn holding the bullet.
type Bullet struct {
	ID        int
	BotID     int
	Power     float64
	Position  Vector
	Direction float64
	Speed     float64
}

func (b Bullet) String() string {
	return fmt.Sprintf("bullet(%d from %d p=%.1f @%.1f,%.1f)", b.ID, b.BotID, b.Power, b.Position.X, b.Position.Y)
}

// ClampBulletPower limits power to [MinBulletPower, MaxBulletPower]. NaN maps
// to MinBulletPower.
func ClampBulletPower(power float64) float64 {
	if math.IsNaN(power) {
		return MinBulletPower
	}
	return math.Max(MinBulletPower, math.Min(power, MaxBulletPower))
}

func BulletSpeed(power float64) float64 {
	return 20 - 3*ClampBulletPower(power)
}

// GunHeat is the heat a gun takes from firing with power.
func GunHeat(power float64) float64 {
	return 1 + ClampBulletPower(power)/5
}

func (b Bullet) Damage() float64 {
	damage := 4 * b.Power
	if b.Power > 1 {
		damage += 2 * (b.Power - 1)
	}
	return damage
}

func (b Bullet) advance() Bullet {
	b.Position = b.Position.Add(Heading(b.Direction, b.Speed))
	return b
}

// compareBullets orders bullets by owner, then id, then the remaining fields,
// so that listings of a turn are stable.
func compareBullets(a, b Bullet) int {
	return cmp.Or(
		cmp.Compare(a.BotID, b.BotID),
		cmp.Compare(a.ID, b.ID),
		cmp.Compare(a.Position.X, b.Position.X),
		cmp.Compare(a.Position.Y, b.Position.Y),
		cmp.Compare(a.Power, b.Power),
		cmp.Compare(a.Direction, b.Direction),
		cmp.Compare(a.Speed, b.Speed),
	)
}
