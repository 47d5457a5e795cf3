package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnBuilderDefaults(t *testing.T) {
	turn := NewTurnBuilder().Build()

	assert.Equal(t, 0, turn.TurnNumber())
	assert.Empty(t, turn.Bots())
	assert.Empty(t, turn.Bullets())
}

func TestTurnBuilderChaining(t *testing.T) {
	bullet := Bullet{ID: 1, BotID: 1, Power: 1}

	turn := NewTurnBuilder().
		SetTurnNumber(3).
		SetBots([]Bot{{ID: 1}, {ID: 2}}).
		AddBullet(bullet).
		Build()

	assert.Equal(t, 3, turn.TurnNumber())
	assert.Equal(t, []Bot{{ID: 1}, {ID: 2}}, turn.Bots())
	assert.Equal(t, []Bullet{bullet}, turn.BotBullets(1))
	assert.Empty(t, turn.BotBullets(2))
	assert.Equal(t, Bot{ID: 1}, turn.MustBot(1))

	_, err := turn.Bot(3)
	require.ErrorIs(t, err, ErrBotNotFound)
}

func TestTurnBuilderAddBulletKeepsExisting(t *testing.T) {
	existing := sampleBullets()
	extra := Bullet{ID: 10, BotID: 2, Power: 2}

	turn := NewTurnBuilder().
		SetTurnNumber(5).
		SetBots(sampleBots()).
		SetBullets(existing).
		AddBullet(extra).
		AddBullet(extra).
		Build()

	assert.Equal(t, 5, turn.TurnNumber())
	assert.Equal(t, 4, turn.BulletCount())
	assert.ElementsMatch(t, append(existing, extra), turn.Bullets())
}

func TestTurnBuilderSettersReplace(t *testing.T) {
	builder := NewTurnBuilder().
		SetBots(sampleBots()).
		SetBullets(sampleBullets()).
		SetBots([]Bot{{ID: 7}}).
		SetBullets(nil)

	turn := builder.Build()
	assert.Equal(t, []Bot{{ID: 7}}, turn.Bots())
	assert.Empty(t, turn.Bullets())
}

func TestTurnBuilderCopiesInput(t *testing.T) {
	bots := sampleBots()
	bullets := sampleBullets()
	builder := NewTurnBuilder().SetBots(bots).SetBullets(bullets)

	bots[0].ID = 50
	bullets[0].BotID = 50

	turn := builder.Build()
	assert.False(t, turn.HasBot(50))
	assert.Empty(t, turn.BotBullets(50))
}

func TestTurnBuilderBuildTwice(t *testing.T) {
	builder := NewTurnBuilder().SetTurnNumber(2).SetBots(sampleBots()).SetBullets(sampleBullets())

	first := builder.Build()
	second := builder.Build()

	assert.True(t, first.Equal(second))
	assert.NotSame(t, first, second)

	builder.AddBullet(Bullet{ID: 11, BotID: 2})
	third := builder.Build()
	assert.Equal(t, 3, first.BulletCount())
	assert.Equal(t, 4, third.BulletCount())
}
