package server

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// FireCommand asks for BotID to fire with Power on the next turn. On the wire
// it is { 1: bot_id int64; 2: power double }.
type FireCommand struct {
	BotID int
	Power float64
}

func MarshalFire(cmd FireCommand) []byte {
	b := protowire.AppendTag(nil, 1, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(int64(cmd.BotID)))
	b = protowire.AppendTag(b, 2, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(cmd.Power))
}

func UnmarshalFire(b []byte) (FireCommand, error) {
	var cmd FireCommand
	seenBot := false
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return cmd, protowire.ParseError(n)
		}
		b = b[n:]

		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return cmd, protowire.ParseError(n)
			}
			cmd.BotID = int(int64(v))
			seenBot = true
			b = b[n:]
		case num == 2 && typ == protowire.Fixed64Type:
			v, n := protowire.ConsumeFixed64(b)
			if n < 0 {
				return cmd, protowire.ParseError(n)
			}
			cmd.Power = math.Float64frombits(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return cmd, fmt.Errorf("field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
		}
	}
	if !seenBot {
		return cmd, errors.New("fire command without bot id")
	}
	if math.IsNaN(cmd.Power) || math.IsInf(cmd.Power, 0) {
		return cmd, fmt.Errorf("fire command power %v is not finite", cmd.Power)
	}
	return cmd, nil
}
