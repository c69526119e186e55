package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/diamondburned/shotgun-ai/ai"
	"github.com/diamondburned/shotgun-ai/communication/client"
	"github.com/diamondburned/shotgun-ai/communication/server"
	"github.com/diamondburned/shotgun-ai/engine"
	"github.com/diamondburned/shotgun-ai/experiments"
	"github.com/diamondburned/shotgun-ai/experiments/metrics"
	"github.com/diamondburned/shotgun-ai/gamemaster"
	"github.com/diamondburned/shotgun-ai/history"
	"github.com/diamondburned/shotgun-ai/meta"
	"github.com/diamondburned/shotgun-ai/modelstore"
	"github.com/diamondburned/shotgun-ai/nn"
	"github.com/diamondburned/shotgun-ai/player"
	"github.com/diamondburned/shotgun-ai/trainer"
)

const usage = `usage: shotgun <command> [flags]

commands:
  train   train a model until it meets every case
  play    play against the model in this terminal
  eval    pit the model against baseline players
  serve   host a match for a remote human and serve the model as an agent
  join    play a served match from this terminal
  history list recorded matches or export one as JSON
`

func main() {
	_ = godotenv.Load()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if lvl, err := zerolog.ParseLevel(os.Getenv("SHOTGUN_LOG_LEVEL")); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	commands := map[string]func(context.Context, []string) error{
		"train":   runTrain,
		"play":    runPlay,
		"eval":    runEval,
		"serve":   runServe,
		"join":    runJoin,
		"history": runHistory,
	}
	cmd, ok := commands[os.Args[1]]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err := cmd(ctx, os.Args[2:]); err != nil {
		log.Fatal().Err(err).Msgf("%s failed", os.Args[1])
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func loadModel(ctx context.Context, location string) (*nn.Network, error) {
	artifacts, err := modelstore.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return nn.FromArtifacts(artifacts)
}

func isLocal(location string) bool {
	return !strings.HasPrefix(location, "http://") && !strings.HasPrefix(location, "https://")
}

func runTrain(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("train", flag.ExitOnError)
	casesPath := flags.String("cases", "", "YAML case file, defaults to the built-in opening cases")
	modelPath := flags.String("model", envOr("SHOTGUN_MODEL", meta.MODEL_PATH), "model file, resumed if it exists")
	maxIterations := flags.Int("max-iterations", meta.MAX_ITERATIONS, "iterations before giving up")
	seed := flags.Uint64("seed", 1, "weight initialization seed")
	records := flags.String("records", "", "directory for iterations.csv")
	flags.Parse(args)

	cases := trainer.DefaultCases()
	if *casesPath != "" {
		var err error
		if cases, err = trainer.LoadCases(*casesPath); err != nil {
			return err
		}
	}

	model, err := loadModel(ctx, *modelPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		log.Info().Msgf("starting a new model at %s", *modelPath)
		if model, err = nn.New(ai.FeatureWidth, nn.WithSeed(*seed)); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		log.Info().Msgf("resuming model %s", *modelPath)
	}

	if err := os.MkdirAll(filepath.Dir(*modelPath), 0o755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}

	opts := []trainer.Option{
		trainer.WithMaxIterations(*maxIterations),
		trainer.WithCheckpointer(modelstore.NewStore().Target(*modelPath)),
	}
	if *records != "" {
		w, err := metrics.NewWriter(*records, "training")
		if err != nil {
			return err
		}
		opts = append(opts, trainer.WithReporter(w))
	}

	result, err := trainer.New(model, cases, opts...).Run(ctx)
	if err != nil {
		return err
	}
	log.Info().Msgf("training stopped, took %d iterations total, model saved to %s", result.Iterations, *modelPath)
	return nil
}

func runPlay(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("play", flag.ExitOnError)
	location := flags.String("model", envOr("SHOTGUN_MODEL", meta.MODEL_PATH), "model path or URL")
	historyDB := flags.String("history", envOr("SHOTGUN_HISTORY_DB", meta.HISTORY_DB), "history database, empty to disable")
	draw := flags.String("draw", "replay", "what a draw does: replay or end")
	save := flags.Bool("save", false, "save what the model learned from losses back to -model")
	export := flags.String("export", "", "directory to write every match of the session to as JSON")
	flags.Parse(args)

	if *export != "" && *historyDB == "" {
		return errors.New("-export needs -history")
	}

	policy, err := gamemaster.ParseDrawPolicy(*draw)
	if err != nil {
		return err
	}

	model, err := loadModel(ctx, *location)
	if err != nil {
		return err
	}

	var opts []engine.Option
	var store *history.Store
	if *historyDB != "" {
		if store, err = history.Open(*historyDB); err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, engine.WithRecorder(store))
	}

	human := player.NewConsolePlayer("you", os.Stdin, os.Stdout)
	bot := player.NewAIPlayer(model, player.WithLearning(meta.LEARN_ITERATIONS, meta.LEARN_EPOCHS))

	session, err := gamemaster.RunSession(ctx, gamemaster.Local(human, bot, opts...), policy)
	if err != nil {
		return err
	}
	log.Info().Msgf("session over after %d matches: %s", len(session.Matches), session.Outcome)

	if *export != "" {
		for _, id := range session.Matches {
			path, err := store.ExportFile(ctx, id, *export)
			if err != nil {
				return err
			}
			fmt.Printf("saved %s\n", path)
		}
	}

	if *save && isLocal(*location) {
		path := strings.TrimPrefix(*location, "file://")
		if err := modelstore.NewStore().Persist(path, model); err != nil {
			return err
		}
	}
	return nil
}

func runEval(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("eval", flag.ExitOnError)
	location := flags.String("model", envOr("SHOTGUN_MODEL", meta.MODEL_PATH), "model path or URL")
	games := flags.Int("games", meta.EVAL_GAMES, "games per match-up")
	records := flags.String("records", meta.RECORDS_DIR, "directory for game_records.csv")
	seed := flags.Uint64("seed", 1, "seed for random players")
	agentURL := flags.String("agent", "", "URL of a served agent to evaluate as well")
	flags.Parse(args)

	model, err := loadModel(ctx, *location)
	if err != nil {
		return err
	}

	bot := experiments.Contestant{Name: "ai", New: func(int) engine.Player { return player.NewAIPlayer(model) }}
	random := experiments.Contestant{Name: "random", New: func(i int) engine.Player {
		return player.NewRandomPlayer(*seed + uint64(i))
	}}
	loader := experiments.Contestant{Name: "reload", New: func(int) engine.Player {
		return player.NewScriptedPlayer()
	}}

	matchUps := []experiments.MatchUp{
		{Player1: bot, Player2: random},
		{Player1: random, Player2: bot},
		{Player1: bot, Player2: loader},
		{Player1: random, Player2: random},
	}
	if *agentURL != "" {
		agent := experiments.Contestant{Name: "agent", New: func(int) engine.Player {
			return engine.NewRemotePlayer(*agentURL, nil)
		}}
		matchUps = append(matchUps,
			experiments.MatchUp{Player1: agent, Player2: random},
			experiments.MatchUp{Player1: agent, Player2: bot},
		)
	}

	summaries, err := experiments.RunMatchUps(ctx, *records, "evaluation", matchUps, experiments.Config{Games: *games})
	if err != nil {
		return err
	}

	for _, s := range summaries {
		fmt.Printf("%s vs %s: %s\n", s.Records[0].Player1, s.Records[0].Player2, s)
	}
	return nil
}

func runServe(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := flags.String("addr", ":8080", "listen address")
	location := flags.String("model", envOr("SHOTGUN_MODEL", meta.MODEL_PATH), "model path or URL")
	draw := flags.String("draw", "replay", "what a draw does: replay or end")
	pause := flags.Duration("pause", 5*time.Second, "pause between sessions so the result can be read")
	flags.Parse(args)

	policy, err := gamemaster.ParseDrawPolicy(*draw)
	if err != nil {
		return err
	}

	model, err := loadModel(ctx, *location)
	if err != nil {
		return err
	}

	human := player.NewHumanPlayer()
	bot := player.NewAIPlayer(model, player.WithLearning(meta.LEARN_ITERATIONS, meta.LEARN_EPOCHS))
	srv := server.New(server.WithHuman(human), server.WithAgent(player.NewAIPlayer(model)))

	go func() {
		newMatch := gamemaster.Local(human, bot)
		for ctx.Err() == nil {
			session, err := gamemaster.RunSession(ctx, newMatch, policy)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Msg("session failed")
				}
				return
			}
			human.EndSession()
			log.Info().Msgf("session over: %s", session.Outcome)

			select {
			case <-ctx.Done():
			case <-time.After(*pause):
			}
		}
	}()

	err = srv.ListenAndServe(ctx, *addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func runJoin(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("join", flag.ExitOnError)
	url := flags.String("url", "http://localhost:8080", "server URL")
	poll := flags.Duration("poll", 200*time.Millisecond, "state polling interval")
	flags.Parse(args)

	state, err := client.RunConsole(ctx, client.New(*url, nil), os.Stdin, os.Stdout, *poll)
	if err != nil {
		return err
	}
	log.Debug().Msgf("final state: %+v", state)
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	return historyCommand(ctx, args, os.Stdout)
}

func historyCommand(ctx context.Context, args []string, out io.Writer) error {
	flags := flag.NewFlagSet("history", flag.ContinueOnError)
	db := flags.String("db", envOr("SHOTGUN_HISTORY_DB", meta.HISTORY_DB), "history database")
	limit := flags.Int("limit", 10, "matches to list")
	id := flags.String("id", "", "match to export as JSON")
	export := flags.String("export", "", "directory to write the export to instead of stdout")
	if err := flags.Parse(args); err != nil {
		return err
	}

	store, err := history.Open(*db)
	if err != nil {
		return err
	}
	defer store.Close()

	if *id == "" {
		matches, err := store.Recent(ctx, *limit)
		if err != nil {
			return err
		}
		for _, m := range matches {
			fmt.Fprintf(out, "%s  %s  %-13s %d turns\n", m.ID, m.EndTime.Format(time.DateTime), m.Outcome, m.Turns)
		}
		return nil
	}

	matchID, err := uuid.Parse(*id)
	if err != nil {
		return fmt.Errorf("invalid match id: %w", err)
	}
	if *export == "" {
		return store.ExportJSON(ctx, matchID, out)
	}
	path, err := store.ExportFile(ctx, matchID, *export)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "saved %s\n", path)
	return nil
}
