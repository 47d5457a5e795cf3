package world

// TurnBuilder collects the parts of a turn. The zero value is not usable; use
// NewTurnBuilder. A builder is owned by a single goroutine and may build any
// number of turns: Build reads the current fields and leaves them in place.
type TurnBuilder struct {
	turnNumber int
	bots       []Bot
	bullets    map[Bullet]struct{}
}

func NewTurnBuilder() *TurnBuilder {
	return &TurnBuilder{
		bullets: make(map[Bullet]struct{}),
	}
}

func (b *TurnBuilder) SetTurnNumber(turnNumber int) *TurnBuilder {
	b.turnNumber = turnNumber
	return b
}

// SetBots replaces the bots with a copy of bots.
func (b *TurnBuilder) SetBots(bots []Bot) *TurnBuilder {
	b.bots = append([]Bot(nil), bots...)
	return b
}

// SetBullets replaces the bullets with a copy of bullets.
func (b *TurnBuilder) SetBullets(bullets []Bullet) *TurnBuilder {
	b.bullets = make(map[Bullet]struct{}, len(bullets))
	for _, bullet := range bullets {
		b.bullets[bullet] = struct{}{}
	}
	return b
}

// AddBullet adds one bullet to the current ones. Adding an identical bullet
// twice keeps a single copy.
func (b *TurnBuilder) AddBullet(bullet Bullet) *TurnBuilder {
	b.bullets[bullet] = struct{}{}
	return b
}

func (b *TurnBuilder) Build() *Turn {
	bullets := make([]Bullet, 0, len(b.bullets))
	for bullet := range b.bullets {
		bullets = append(bullets, bullet)
	}
	return NewTurn(b.turnNumber, b.bots, bullets)
}
