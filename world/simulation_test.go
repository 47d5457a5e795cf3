package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tankroyale/utils"
)

const threshold = 1e-9

var testArena = Arena{Width: 800, Height: 600}

func TestNewBattleStartsAtTurnZero(t *testing.T) {
	b := NewBattle(testArena, DefaultGunCoolingRate, sampleBots())

	assert.Equal(t, 0, b.Current().TurnNumber())
	assert.Len(t, b.Current().Bots(), 2)
	assert.Empty(t, b.Current().Bullets())
}

func TestBattleStepMovesBots(t *testing.T) {
	b := NewBattle(testArena, DefaultGunCoolingRate, []Bot{
		{ID: 1, Energy: 100, Position: Vector{X: 100, Y: 100}, Speed: 8},
		{ID: 2, Energy: 100, Position: Vector{X: 5, Y: 5}, Direction: math.Pi, Speed: 8},
	})

	next := b.Step()
	require.Equal(t, 1, next.TurnNumber())

	moved := next.MustBot(1)
	assert.True(t, utils.AlmostEqual(moved.Position.X, 108, threshold), "x=%v", moved.Position.X)
	assert.True(t, utils.AlmostEqual(moved.Position.Y, 100, threshold), "y=%v", moved.Position.Y)

	clamped := next.MustBot(2)
	assert.Equal(t, 0.0, clamped.Position.X)
}

func TestBattleFire(t *testing.T) {
	b := NewBattle(testArena, DefaultGunCoolingRate, []Bot{
		{ID: 1, Energy: 100, Position: Vector{X: 400, Y: 300}, GunDirection: math.Pi / 2},
	})

	require.NoError(t, b.Fire(1, 5))
	require.ErrorIs(t, b.Fire(2, 1), ErrBotNotFound)

	first := b.Step()
	bullets := first.BotBullets(1)
	require.Len(t, bullets, 1)
	assert.Equal(t, MaxBulletPower, bullets[0].Power)
	assert.Equal(t, BulletSpeed(MaxBulletPower), bullets[0].Speed)
	assert.Equal(t, Vector{X: 400, Y: 300}, bullets[0].Position)

	second := b.Step()
	bullets = second.BotBullets(1)
	require.Len(t, bullets, 1)
	assert.True(t, utils.AlmostEqual(bullets[0].Position.Y, 311, threshold), "y=%v", bullets[0].Position.Y)
	assert.Equal(t, 1, bullets[0].ID)

	assert.Len(t, first.BotBullets(1), 1, "earlier turns are not touched")
	assert.Equal(t, Vector{X: 400, Y: 300}, first.BotBullets(1)[0].Position)
}

func TestBattleDropsBulletsLeavingArena(t *testing.T) {
	b := NewBattle(testArena, DefaultGunCoolingRate, []Bot{
		{ID: 1, Energy: 100, Position: Vector{X: 795, Y: 300}},
	})
	require.NoError(t, b.Fire(1, 1))

	assert.Equal(t, 1, b.Step().BulletCount())
	assert.Equal(t, 0, b.Step().BulletCount())
}

func TestBattleDisabledBotCannotFire(t *testing.T) {
	b := NewBattle(testArena, DefaultGunCoolingRate, []Bot{{ID: 1}})

	assert.Error(t, b.Fire(1, 1))
}

func TestBulletHelpers(t *testing.T) {
	assert.Equal(t, MinBulletPower, ClampBulletPower(0))
	assert.Equal(t, 17.0, BulletSpeed(1))
	assert.Equal(t, 4.0, Bullet{Power: 1}.Damage())
	assert.Equal(t, 16.0, Bullet{Power: 3}.Damage())
	assert.Equal(t, MinBulletPower, ClampBulletPower(math.NaN()))
	assert.Equal(t, MaxBulletPower, ClampBulletPower(math.Inf(1)))
	assert.True(t, utils.AlmostEqual(GunHeat(3), 1.6, threshold))
	assert.True(t, utils.AlmostEqual(GunHeat(math.NaN()), 1.02, threshold))
}

func TestBattleGunHeat(t *testing.T) {
	b := NewBattle(testArena, 0.5, []Bot{
		{ID: 1, Energy: 100, Position: Vector{X: 400, Y: 300}},
		{ID: 2, Energy: 100, Position: Vector{X: 100, Y: 100}, GunHeat: 0.25},
	})

	require.ErrorIs(t, b.Fire(2, 1), ErrGunHot)
	require.NoError(t, b.Fire(1, 2.5))
	require.ErrorIs(t, b.Fire(1, 1), ErrGunHot, "one shot per turn")

	turn := b.Step()
	assert.Equal(t, 1.5, turn.MustBot(1).GunHeat)
	assert.Equal(t, 0.0, turn.MustBot(2).GunHeat)
	assert.Len(t, turn.BotBullets(1), 1)

	for _, want := range []float64{1, 0.5, 0} {
		require.ErrorIs(t, b.Fire(1, 1), ErrGunHot)
		assert.Equal(t, want, b.Step().MustBot(1).GunHeat)
	}
	require.NoError(t, b.Fire(1, 1))
	assert.Len(t, b.Step().BotBullets(1), 2)
}

func TestBattleFireRejectsNonFinitePower(t *testing.T) {
	b := NewBattle(testArena, DefaultGunCoolingRate, []Bot{
		{ID: 1, Energy: 100, Position: Vector{X: 400, Y: 300}},
	})

	for _, power := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		assert.ErrorIs(t, b.Fire(1, power), ErrInvalidPower, "power %v", power)
	}

	turn := b.Step()
	assert.Zero(t, turn.BulletCount())
	assert.True(t, turn.Equal(turn))
}
