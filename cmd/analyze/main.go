// Command analyze prints quick, human-readable reports about tile catalogs and
// configurations. "catalog" lists every tile kind with its draw probability
// and edges; "simulate" plays unattended games with a greedy placer and
// summarizes the scores, which helps compare configuration files.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/mcp-training/tiletris/game/engine"
)

// SimulationResult is the outcome of one unattended game
type SimulationResult struct {
	Seed        uint64
	Score       int
	Placements  int
	Cities      int
	Specials    int
	LargestCity int
}

// SimulationSummary aggregates a batch of games
type SimulationSummary struct {
	Games          int
	TotalScore     int
	BestScore      int
	WorstScore     int
	TotalPlacement int
}

// Average returns the mean score
func (s SimulationSummary) Average() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.TotalScore) / float64(s.Games)
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "inspect tile catalogs and simulate games",
		Commands: []*cli.Command{
			{
				Name:  "catalog",
				Usage: "list tile kinds with weights, probabilities and edges",
				Flags: []cli.Flag{configFlag()},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd.String("config"))
					if err != nil {
						return err
					}
					catalog, err := cfg.Catalog()
					if err != nil {
						return err
					}
					return printCatalog(cmd.Root().Writer, catalog)
				},
			},
			{
				Name:  "simulate",
				Usage: "play unattended games, always taking the best-matching placement",
				Flags: []cli.Flag{
					configFlag(),
					&cli.IntFlag{
						Name:  "games",
						Value: 10,
						Usage: "number of games to play",
					},
					&cli.Uint64Flag{
						Name:  "seed",
						Value: 1,
						Usage: "seed of the first game; game i uses seed+i",
					},
					&cli.IntFlag{
						Name:  "max-placements",
						Value: 500,
						Usage: "stop a game after this many placements",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					cfg, err := loadConfig(cmd.String("config"))
					if err != nil {
						return err
					}
					games := cmd.Int("games")
					if games <= 0 {
						return fmt.Errorf("--games must be positive, got %d", games)
					}

					out := cmd.Root().Writer
					fmt.Fprintf(out, "=== Simulating %d games on %s ===\n", games, cfg.Name)

					results := make([]SimulationResult, 0, games)
					for i := 0; i < games; i++ {
						res, err := simulate(cfg, cmd.Uint64("seed")+uint64(i), cmd.Int("max-placements"))
						if err != nil {
							return err
						}
						fmt.Fprintf(out, "seed %d: score %d, placements %d, cities %d, specials %d, largest city %d\n",
							res.Seed, res.Score, res.Placements, res.Cities, res.Specials, res.LargestCity)
						results = append(results, res)
					}

					s := summarize(results)
					fmt.Fprintf(out, "\nAverage score: %.1f\nBest: %d\nWorst: %d\nAverage placements: %.1f\n",
						s.Average(), s.BestScore, s.WorstScore, float64(s.TotalPlacement)/float64(s.Games))
					return nil
				},
			},
		},
	}
}

func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "configuration file (JSON or YAML); defaults to the classic ruleset",
	}
}

func loadConfig(path string) (*engine.GameConfig, error) {
	if path == "" {
		return engine.DefaultGameConfig(), nil
	}
	cfg, err := engine.LoadGameConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

func printCatalog(w io.Writer, catalog *engine.Catalog) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tWEIGHT\tPROB\tEDGES\tFLAGS")
	for _, def := range catalog.Definitions() {
		var flags []string
		if def.Bonus {
			flags = append(flags, "bonus")
		}
		if def.Surroundable {
			flags = append(flags, "surroundable")
		}
		fmt.Fprintf(tw, "%s\t%d\t%.3f\t%s\t%s\n",
			def.Kind, def.Weight, catalog.Probability(def.Kind), engine.EdgeSummary(def.Edges), strings.Join(flags, ","))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t\t\t\n", catalog.TotalWeight())
	return tw.Flush()
}

// simulate plays one game without a scheduler, so every resolution runs
// right after its placement. Each piece takes the first placement option.
func simulate(cfg *engine.GameConfig, seed uint64, maxPlacements int) (SimulationResult, error) {
	eng, err := engine.NewEngine(cfg, engine.WithSeed(seed))
	if err != nil {
		return SimulationResult{}, err
	}

	for !eng.IsGameOver() {
		state := eng.GetState()
		if state.Piece == nil || (maxPlacements > 0 && state.Stats.Placements >= maxPlacements) {
			break
		}

		commands := []engine.Command{engine.CommandDrop}
		if options := eng.PlacementOptions(); len(options) > 0 {
			commands = options[0].Commands
		}
		for _, cmd := range commands {
			if _, err := eng.Apply(cmd); err != nil {
				return SimulationResult{}, err
			}
		}
	}

	state := eng.GetState()
	return SimulationResult{
		Seed:        seed,
		Score:       state.Score,
		Placements:  state.Stats.Placements,
		Cities:      state.Stats.CitiesCompleted,
		Specials:    state.Stats.SpecialsCompleted,
		LargestCity: state.Stats.LargestCity,
	}, nil
}

func summarize(results []SimulationResult) SimulationSummary {
	var s SimulationSummary
	for i, r := range results {
		s.Games++
		s.TotalScore += r.Score
		s.TotalPlacement += r.Placements
		if i == 0 || r.Score > s.BestScore {
			s.BestScore = r.Score
		}
		if i == 0 || r.Score < s.WorstScore {
			s.WorstScore = r.Score
		}
	}
	return s
}
