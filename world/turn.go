package world

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

var ErrBotNotFound = errors.New("bot not found")

// Turn is the state of a battle at one turn. It is immutable once built and
// can be shared between goroutines without locking.
//
// Bots are keyed by ID. Bullets form a value set, indexed by owner.
type Turn struct {
	turnNumber int
	bots       map[int]Bot
	bullets    map[Bullet]struct{}
	byOwner    map[int][]Bullet
}

// NewTurn copies bots and bullets, so the caller may reuse its slices. Bot IDs
// are expected to be unique; a repeated ID keeps the last bot given.
func NewTurn(turnNumber int, bots []Bot, bullets []Bullet) *Turn {
	t := &Turn{
		turnNumber: turnNumber,
		bots:       make(map[int]Bot, len(bots)),
		bullets:    make(map[Bullet]struct{}, len(bullets)),
		byOwner:    make(map[int][]Bullet),
	}
	for _, bot := range bots {
		t.bots[bot.ID] = bot
	}
	for _, bullet := range bullets {
		t.bullets[bullet] = struct{}{}
	}
	for bullet := range t.bullets {
		t.byOwner[bullet.BotID] = append(t.byOwner[bullet.BotID], bullet)
	}
	for _, owned := range t.byOwner {
		slices.SortFunc(owned, compareBullets)
	}
	return t
}

func (t *Turn) TurnNumber() int {
	return t.turnNumber
}

// Bots returns every bot in the turn ordered by ID. The slice is freshly
// allocated on each call.
func (t *Turn) Bots() []Bot {
	bots := make([]Bot, 0, len(t.bots))
	for _, id := range slices.Sorted(maps.Keys(t.bots)) {
		bots = append(bots, t.bots[id])
	}
	return bots
}

func (t *Turn) BotCount() int {
	return len(t.bots)
}

// Bot returns the bot with the given ID. The ID must name a bot present in
// this turn; otherwise the error wraps ErrBotNotFound.
func (t *Turn) Bot(id int) (Bot, error) {
	bot, ok := t.bots[id]
	if !ok {
		return Bot{}, fmt.Errorf("turn %d: %w: %d", t.turnNumber, ErrBotNotFound, id)
	}
	return bot, nil
}

// MustBot is like Bot but panics when the bot is absent.
func (t *Turn) MustBot(id int) Bot {
	bot, err := t.Bot(id)
	if err != nil {
		panic(err)
	}
	return bot
}

func (t *Turn) HasBot(id int) bool {
	_, ok := t.bots[id]
	return ok
}

// Bullets returns every bullet in flight, ordered by owner then bullet ID.
func (t *Turn) Bullets() []Bullet {
	bullets := make([]Bullet, 0, len(t.bullets))
	for bullet := range t.bullets {
		bullets = append(bullets, bullet)
	}
	slices.SortFunc(bullets, compareBullets)
	return bullets
}

func (t *Turn) BulletCount() int {
	return len(t.bullets)
}

// BotBullets returns the bullets fired by botID. The result is empty, never
// nil, when the bot has nothing in flight or is unknown.
func (t *Turn) BotBullets(botID int) []Bullet {
	owned := t.byOwner[botID]
	bullets := make([]Bullet, len(owned))
	copy(bullets, owned)
	return bullets
}

// Equal reports whether both turns hold the same number, bots and bullets.
// Fields compare with ==, so a turn holding a NaN is not equal to itself.
func (t *Turn) Equal(o *Turn) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.turnNumber == o.turnNumber &&
		maps.Equal(t.bots, o.bots) &&
		maps.Equal(t.bullets, o.bullets)
}

func (t *Turn) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "turn %d:", t.turnNumber)
	for _, bot := range t.Bots() {
		fmt.Fprintf(&b, " %v", bot)
	}
	for _, bullet := range t.Bullets() {
		fmt.Fprintf(&b, " %v", bullet)
	}
	return b.String()
}
