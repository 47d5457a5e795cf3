// Package replay archives finished turns to Parquet files, one row per turn,
// and loads them back.
package replay

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/zstd"

	"tankroyale/world"
)

const schemaVersion = "turn_v2"

type Row struct {
	BattleID string      `parquet:"battle_id,dict"`
	Turn     int64       `parquet:"turn"`
	Bots     []BotRow    `parquet:"bots"`
	Bullets  []BulletRow `parquet:"bullets"`
}

type BotRow struct {
	ID             int64   `parquet:"id"`
	Energy         float64 `parquet:"energy"`
	X              float64 `parquet:"x"`
	Y              float64 `parquet:"y"`
	Direction      float64 `parquet:"direction"`
	Speed          float64 `parquet:"speed"`
	GunDirection   float64 `parquet:"gun_direction"`
	RadarDirection float64 `parquet:"radar_direction"`
	GunHeat        float64 `parquet:"gun_heat"`
}

type BulletRow struct {
	ID        int64   `parquet:"id"`
	BotID     int64   `parquet:"bot_id"`
	Power     float64 `parquet:"power"`
	X         float64 `parquet:"x"`
	Y         float64 `parquet:"y"`
	Direction float64 `parquet:"direction"`
	Speed     float64 `parquet:"speed"`
}

func RowFromTurn(battleID string, t *world.Turn) Row {
	row := Row{
		BattleID: battleID,
		Turn:     int64(t.TurnNumber()),
		Bots:     make([]BotRow, 0, t.BotCount()),
		Bullets:  make([]BulletRow, 0, t.BulletCount()),
	}
	for _, bot := range t.Bots() {
		row.Bots = append(row.Bots, BotRow{
			ID:             int64(bot.ID),
			Energy:         bot.Energy,
			X:              bot.Position.X,
			Y:              bot.Position.Y,
			Direction:      bot.Direction,
			Speed:          bot.Speed,
			GunDirection:   bot.GunDirection,
			RadarDirection: bot.RadarDirection,
			GunHeat:        bot.GunHeat,
		})
	}
	for _, bullet := range t.Bullets() {
		row.Bullets = append(row.Bullets, BulletRow{
			ID:        int64(bullet.ID),
			BotID:     int64(bullet.BotID),
			Power:     bullet.Power,
			X:         bullet.Position.X,
			Y:         bullet.Position.Y,
			Direction: bullet.Direction,
			Speed:     bullet.Speed,
		})
	}
	return row
}

// ToTurn rebuilds the turn stored in r.
func (r Row) ToTurn() *world.Turn {
	bots := make([]world.Bot, 0, len(r.Bots))
	for _, bot := range r.Bots {
		bots = append(bots, world.Bot{
			ID:             int(bot.ID),
			Energy:         bot.Energy,
			Position:       world.Vector{X: bot.X, Y: bot.Y},
			Direction:      bot.Direction,
			Speed:          bot.Speed,
			GunDirection:   bot.GunDirection,
			RadarDirection: bot.RadarDirection,
			GunHeat:        bot.GunHeat,
		})
	}

	builder := world.NewTurnBuilder().
		SetTurnNumber(int(r.Turn)).
		SetBots(bots)
	for _, bullet := range r.Bullets {
		builder.AddBullet(world.Bullet{
			ID:        int(bullet.ID),
			BotID:     int(bullet.BotID),
			Power:     bullet.Power,
			Position:  world.Vector{X: bullet.X, Y: bullet.Y},
			Direction: bullet.Direction,
			Speed:     bullet.Speed,
		})
	}
	return builder.Build()
}

// WriteFile writes rows to path through a temporary file, so readers never
// see a partial archive.
func WriteFile(path string, rows []Row) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	tmpPath := path + ".tmp"
	_ = os.Remove(tmpPath)

	if err := parquet.WriteFile(tmpPath, rows,
		parquet.Compression(&zstd.Codec{Level: zstd.SpeedBetterCompression}),
		parquet.KeyValueMetadata("schema", schemaVersion),
	); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write parquet: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename parquet: %w", err)
	}
	return nil
}

// Load reads an archive and returns its turns ordered by turn number.
func Load(path string) ([]*world.Turn, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("open parquet %s: %w", path, err)
	}
	if schema, ok := pf.Lookup("schema"); ok && schema != schemaVersion {
		return nil, fmt.Errorf("%s: unsupported schema %q", path, schema)
	}

	reader := parquet.NewGenericReader[Row](pf)
	defer reader.Close()

	rows := make([]Row, 0, reader.NumRows())
	batch := make([]Row, 256)
	for {
		// Cleared so the reader cannot reuse slices already handed out.
		clear(batch)
		n, err := reader.Read(batch)
		rows = append(rows, batch[:n]...)
		if errors.Is(err, io.EOF) || (err == nil && n == 0) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read parquet %s: %w", path, err)
		}
	}
	slices.SortFunc(rows, func(a, b Row) int {
		return cmp.Compare(a.Turn, b.Turn)
	})

	turns := make([]*world.Turn, 0, len(rows))
	for _, row := range rows {
		turns = append(turns, row.ToTurn())
	}
	return turns, nil
}

func fileName(battleID string) string {
	return fmt.Sprintf("replay_%s_%d.parquet", battleID, time.Now().UnixNano())
}
