package world

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
)

type Arena struct {
	Width, Height float64
}

func (a Arena) Contains(v Vector) bool {
	return v.X >= 0 && v.X <= a.Width && v.Y >= 0 && v.Y <= a.Height
}

func (a Arena) clamp(v Vector) Vector {
	return Vector{
		X: math.Max(0, math.Min(v.X, a.Width)),
		Y: math.Max(0, math.Min(v.Y, a.Height)),
	}
}

// DefaultGunCoolingRate is the heat a gun loses per turn.
const DefaultGunCoolingRate = 0.1

var (
	ErrGunHot       = errors.New("gun is hot")
	ErrInvalidPower = errors.New("invalid bullet power")
)

type shot struct {
	botID int
	power float64
}

// Battle advances a battle one turn at a time. It only moves bots and bullets
// along their heading, cools guns and spawns queued shots; hits and damage
// are not resolved here.
type Battle struct {
	arena       Arena
	coolingRate float64
	builder     *TurnBuilder
	current     *Turn

	mu           sync.Mutex
	shots        []shot
	nextBulletID int
}

// NewBattle starts a battle at turn 0 with the given bots. Guns lose
// coolingRate heat per turn.
func NewBattle(arena Arena, coolingRate float64, bots []Bot) *Battle {
	builder := NewTurnBuilder()
	return &Battle{
		arena:        arena,
		coolingRate:  coolingRate,
		builder:      builder,
		current:      builder.SetTurnNumber(0).SetBots(bots).Build(),
		nextBulletID: 1,
	}
}

func (b *Battle) Arena() Arena {
	return b.arena
}

func (b *Battle) Current() *Turn {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

// Fire queues a shot from botID to be spawned on the next step. A bot fires
// at most once per turn and only with a cold gun. It is safe to call
// concurrently with Step.
func (b *Battle) Fire(botID int, power float64) error {
	if math.IsNaN(power) || math.IsInf(power, 0) {
		return fmt.Errorf("%w: %v", ErrInvalidPower, power)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	bot, err := b.current.Bot(botID)
	if err != nil {
		return err
	}
	if !bot.Alive() {
		return fmt.Errorf("bot %d is disabled", botID)
	}
	if bot.GunHeat > 0 || slices.ContainsFunc(b.shots, func(s shot) bool { return s.botID == botID }) {
		return fmt.Errorf("bot %d: %w", botID, ErrGunHot)
	}
	b.shots = append(b.shots, shot{botID: botID, power: power})
	return nil
}

// Step builds the next turn from the current one.
func (b *Battle) Step() *Turn {
	b.mu.Lock()
	defer b.mu.Unlock()

	prev := b.current
	bots := prev.Bots()
	heat := make(map[int]float64, len(b.shots))
	for _, s := range b.shots {
		heat[s.botID] = GunHeat(s.power)
	}
	for i := range bots {
		bot := &bots[i]
		bot.Position = b.arena.clamp(bot.Position.Add(Heading(bot.Direction, bot.Speed)))
		if h, fired := heat[bot.ID]; fired {
			bot.GunHeat = h
		} else {
			bot.GunHeat = math.Max(0, bot.GunHeat-b.coolingRate)
		}
	}

	bullets := make([]Bullet, 0, prev.BulletCount())
	for _, bullet := range prev.Bullets() {
		next := bullet.advance()
		if b.arena.Contains(next.Position) {
			bullets = append(bullets, next)
		}
	}

	b.builder.
		SetTurnNumber(prev.TurnNumber() + 1).
		SetBots(bots).
		SetBullets(bullets)

	for _, s := range b.shots {
		bot, err := prev.Bot(s.botID)
		if err != nil {
			continue
		}
		power := ClampBulletPower(s.power)
		b.builder.AddBullet(Bullet{
			ID:        b.nextBulletID,
			BotID:     bot.ID,
			Power:     power,
			Position:  bot.Position,
			Direction: bot.GunDirection,
			Speed:     BulletSpeed(power),
		})
		b.nextBulletID++
	}
	b.shots = b.shots[:0]

	b.current = b.builder.Build()
	return b.current
}
