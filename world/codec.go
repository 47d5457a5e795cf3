package world

import (
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Turns travel in protobuf wire format:
//
//	Turn   { 1: turn_number int64; 2: repeated Bot; 3: repeated Bullet }
//	Bot    { 1: id int64; 2: energy double; 3: x double; 4: y double;
//	         5: direction double; 6: speed double; 7: gun_direction double;
//	         8: radar_direction double; 9: gun_heat double }
//	Bullet { 1: id int64; 2: bot_id int64; 3: power double; 4: x double;
//	         5: y double; 6: direction double; 7: speed double }
const (
	turnNumberField protowire.Number = 1
	turnBotField    protowire.Number = 2
	turnBulletField protowire.Number = 3
)

func appendInt(b []byte, num protowire.Number, v int) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, uint64(int64(v)))
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

func appendBot(b []byte, bot Bot) []byte {
	b = appendInt(b, 1, bot.ID)
	b = appendDouble(b, 2, bot.Energy)
	b = appendDouble(b, 3, bot.Position.X)
	b = appendDouble(b, 4, bot.Position.Y)
	b = appendDouble(b, 5, bot.Direction)
	b = appendDouble(b, 6, bot.Speed)
	b = appendDouble(b, 7, bot.GunDirection)
	b = appendDouble(b, 8, bot.RadarDirection)
	return appendDouble(b, 9, bot.GunHeat)
}

func appendBullet(b []byte, bullet Bullet) []byte {
	b = appendInt(b, 1, bullet.ID)
	b = appendInt(b, 2, bullet.BotID)
	b = appendDouble(b, 3, bullet.Power)
	b = appendDouble(b, 4, bullet.Position.X)
	b = appendDouble(b, 5, bullet.Position.Y)
	b = appendDouble(b, 6, bullet.Direction)
	return appendDouble(b, 7, bullet.Speed)
}

// MarshalTurn encodes t. Bots and bullets are written in the order of
// Bots and Bullets, so equal turns encode to equal bytes.
func MarshalTurn(t *Turn) []byte {
	b := appendInt(nil, turnNumberField, t.TurnNumber())
	for _, bot := range t.Bots() {
		b = protowire.AppendTag(b, turnBotField, protowire.BytesType)
		b = protowire.AppendBytes(b, appendBot(nil, bot))
	}
	for _, bullet := range t.Bullets() {
		b = protowire.AppendTag(b, turnBulletField, protowire.BytesType)
		b = protowire.AppendBytes(b, appendBullet(nil, bullet))
	}
	return b
}

// field is one decoded scalar. Only varint and fixed64 scalars are produced;
// nested messages are handed to the caller as raw bytes.
type field struct {
	num   protowire.Number
	typ   protowire.Type
	value uint64
	bytes []byte
}

func (f field) int() int {
	return int(int64(f.value))
}

func (f field) double() float64 {
	return math.Float64frombits(f.value)
}

// walkFields calls callback for each field in b, skipping groups.
func walkFields(b []byte, callback func(field) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]

		f := field{num: num, typ: typ}
		switch typ {
		case protowire.VarintType:
			f.value, n = protowire.ConsumeVarint(b)
		case protowire.Fixed64Type:
			f.value, n = protowire.ConsumeFixed64(b)
		case protowire.BytesType:
			f.bytes, n = protowire.ConsumeBytes(b)
		default:
			n = protowire.ConsumeFieldValue(num, typ, b)
		}
		if n < 0 {
			return fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		if err := callback(f); err != nil {
			return err
		}
	}
	return nil
}

func expect(f field, typ protowire.Type) error {
	if f.typ != typ {
		return fmt.Errorf("field %d: unexpected wire type %d", f.num, f.typ)
	}
	return nil
}

func unmarshalBot(b []byte) (Bot, error) {
	var bot Bot
	err := walkFields(b, func(f field) error {
		switch f.num {
		case 1:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			bot.ID = f.int()
			return nil
		case 2, 3, 4, 5, 6, 7, 8, 9:
			if err := expect(f, protowire.Fixed64Type); err != nil {
				return err
			}
		default:
			return nil
		}
		v := f.double()
		switch f.num {
		case 2:
			bot.Energy = v
		case 3:
			bot.Position.X = v
		case 4:
			bot.Position.Y = v
		case 5:
			bot.Direction = v
		case 6:
			bot.Speed = v
		case 7:
			bot.GunDirection = v
		case 8:
			bot.RadarDirection = v
		case 9:
			bot.GunHeat = v
		}
		return nil
	})
	return bot, err
}

func unmarshalBullet(b []byte) (Bullet, error) {
	var bullet Bullet
	err := walkFields(b, func(f field) error {
		switch f.num {
		case 1, 2:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			if f.num == 1 {
				bullet.ID = f.int()
			} else {
				bullet.BotID = f.int()
			}
			return nil
		case 3, 4, 5, 6, 7:
			if err := expect(f, protowire.Fixed64Type); err != nil {
				return err
			}
		default:
			return nil
		}
		v := f.double()
		switch f.num {
		case 3:
			bullet.Power = v
		case 4:
			bullet.Position.X = v
		case 5:
			bullet.Position.Y = v
		case 6:
			bullet.Direction = v
		case 7:
			bullet.Speed = v
		}
		return nil
	})
	return bullet, err
}

// UnmarshalTurn decodes a turn written by MarshalTurn. Unknown fields are
// skipped.
func UnmarshalTurn(b []byte) (*Turn, error) {
	builder := NewTurnBuilder()
	var bots []Bot
	err := walkFields(b, func(f field) error {
		switch f.num {
		case turnNumberField:
			if err := expect(f, protowire.VarintType); err != nil {
				return err
			}
			builder.SetTurnNumber(f.int())
		case turnBotField:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			bot, err := unmarshalBot(f.bytes)
			if err != nil {
				return fmt.Errorf("bot: %w", err)
			}
			bots = append(bots, bot)
		case turnBulletField:
			if err := expect(f, protowire.BytesType); err != nil {
				return err
			}
			bullet, err := unmarshalBullet(f.bytes)
			if err != nil {
				return fmt.Errorf("bullet: %w", err)
			}
			builder.AddBullet(bullet)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("unmarshal turn: %w", err)
	}
	return builder.SetBots(bots).Build(), nil
}
