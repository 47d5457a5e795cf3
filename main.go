package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"tankroyale/replay"
	"tankroyale/server"
	"tankroyale/utils"
)

func main() {
	cfg, err := utils.ReadTOML("config.toml")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := utils.NewLogger(cfg.Log.Level, os.Stderr)

	if len(os.Args) > 1 && os.Args[1] == "replay" {
		if len(os.Args) < 3 {
			log.Fatal().Msg("usage: tankroyale replay <file.parquet>")
		}
		if err := printReplay(log, os.Args[2]); err != nil {
			log.Fatal().Err(err).Send()
		}
		return
	}

	if len(os.Args) > 2 && os.Args[1] == "server" {
		cfg.Server.Address = os.Args[2]
	}
	if err := server.Serve(context.Background(), cfg, log); err != nil {
		log.Fatal().Err(err).Send()
	}
}

func printReplay(log zerolog.Logger, path string) error {
	turns, err := replay.Load(path)
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Int("turns", len(turns)).Msg("replay loaded")
	for _, turn := range turns {
		fmt.Println(turn)
	}
	return nil
}
