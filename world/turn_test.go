package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleBots() []Bot {
	return []Bot{
		{ID: 2, Energy: 100, Position: Vector{X: 50, Y: 60}},
		{ID: 1, Energy: 80, Position: Vector{X: 10, Y: 20}, Direction: 1.5, RadarDirection: 0.25, GunHeat: 1.2},
	}
}

func sampleBullets() []Bullet {
	return []Bullet{
		{ID: 1, BotID: 1, Power: 1, Position: Vector{X: 1, Y: 1}},
		{ID: 2, BotID: 1, Power: 3, Position: Vector{X: 2, Y: 2}},
		{ID: 3, BotID: 2, Power: 0.5, Position: Vector{X: 3, Y: 3}},
	}
}

func TestNewTurn(t *testing.T) {
	turn := NewTurn(7, sampleBots(), nil)

	assert.Equal(t, 7, turn.TurnNumber())
	assert.Equal(t, []Bot{sampleBots()[1], sampleBots()[0]}, turn.Bots())
	assert.Empty(t, turn.Bullets())
	assert.Equal(t, 2, turn.BotCount())
}

func TestTurnBotsIsACopy(t *testing.T) {
	turn := NewTurn(1, sampleBots(), sampleBullets())

	bots := turn.Bots()
	bots[0].Energy = -1

	bullets := turn.Bullets()
	bullets[0].Power = 42

	owned := turn.BotBullets(1)
	owned[0].BotID = 5

	assert.Equal(t, 80.0, turn.MustBot(1).Energy)
	assert.Len(t, turn.Bots(), 2)
	assert.Equal(t, sampleBullets()[0], turn.Bullets()[0])
	assert.Len(t, turn.BotBullets(1), 2)
	assert.Empty(t, turn.BotBullets(5))
}

func TestNewTurnCopiesInput(t *testing.T) {
	bots := sampleBots()
	bullets := sampleBullets()
	turn := NewTurn(1, bots, bullets)

	bots[0].Energy = 0
	bullets[2].BotID = 1

	assert.Equal(t, 100.0, turn.MustBot(2).Energy)
	assert.Len(t, turn.BotBullets(2), 1)
}

func TestTurnBot(t *testing.T) {
	turn := NewTurn(3, sampleBots(), nil)

	bot, err := turn.Bot(1)
	require.NoError(t, err)
	assert.Equal(t, sampleBots()[1], bot)

	_, err = turn.Bot(3)
	require.ErrorIs(t, err, ErrBotNotFound)
	assert.Contains(t, err.Error(), "turn 3")

	assert.Panics(t, func() { turn.MustBot(3) })
}

func TestTurnBotBullets(t *testing.T) {
	bullets := sampleBullets()
	turn := NewTurn(1, sampleBots(), bullets)

	assert.ElementsMatch(t, bullets[:2], turn.BotBullets(1))
	assert.Equal(t, []Bullet{bullets[2]}, turn.BotBullets(2))

	unknown := turn.BotBullets(42)
	assert.NotNil(t, unknown)
	assert.Empty(t, unknown)
}

func TestTurnBulletSetSemantics(t *testing.T) {
	bullet := sampleBullets()[0]
	turn := NewTurn(1, nil, []Bullet{bullet, bullet})

	assert.Equal(t, 1, turn.BulletCount())
	assert.Equal(t, []Bullet{bullet}, turn.Bullets())
}

func TestTurnDuplicateBotIDKeepsLast(t *testing.T) {
	turn := NewTurn(1, []Bot{{ID: 1, Energy: 10}, {ID: 1, Energy: 20}}, nil)

	assert.Equal(t, 1, turn.BotCount())
	assert.Equal(t, 20.0, turn.MustBot(1).Energy)
}

func TestTurnBulletOwnerMayBeGone(t *testing.T) {
	orphan := Bullet{ID: 9, BotID: 3, Power: 1}
	turn := NewTurn(1, sampleBots(), []Bullet{orphan})

	assert.False(t, turn.HasBot(3))
	assert.Equal(t, []Bullet{orphan}, turn.BotBullets(3))
}

func TestTurnEqual(t *testing.T) {
	a := NewTurn(1, sampleBots(), sampleBullets())
	b := NewTurn(1, sampleBots(), sampleBullets())

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(NewTurn(2, sampleBots(), sampleBullets())))
	assert.False(t, a.Equal(NewTurn(1, sampleBots()[:1], sampleBullets())))
	assert.False(t, a.Equal(NewTurn(1, sampleBots(), sampleBullets()[:2])))
	assert.False(t, a.Equal(nil))
}

func TestTurnString(t *testing.T) {
	turn := NewTurn(4, sampleBots()[1:], sampleBullets()[:1])

	assert.Equal(t, "turn 4: bot(1 e=80.0 @10.0,20.0) bullet(1 from 1 p=1.0 @1.0,1.0)", turn.String())
}
