package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/phrazzld/lexis/internal/cache"
	"github.com/phrazzld/lexis/internal/domain"
	"github.com/phrazzld/lexis/internal/embedding"
	"github.com/phrazzld/lexis/internal/engine"
	"github.com/phrazzld/lexis/internal/graph"
	"github.com/phrazzld/lexis/internal/layout"
	"github.com/phrazzld/lexis/internal/viewport"
	"github.com/spf13/cobra"
)

var (
	graphLearner string
	graphCard    string
	graphRefresh bool
	graphTicks   int
	graphWidth   float64
	graphHeight  float64
)

func init() {
	graphCmd.Flags().StringVar(&graphLearner, "learner", "", "draw context words from this learner's unlearned cards")
	graphCmd.Flags().StringVar(&graphCard, "card", "", "build the single-card graph for this card (needs --learner)")
	graphCmd.Flags().BoolVar(&graphRefresh, "refresh", false, "regenerate cached labels")
	graphCmd.Flags().IntVar(&graphTicks, "ticks", engine.DefaultLayoutTicks, "layout simulation ticks")
	graphCmd.Flags().Float64Var(&graphWidth, "width", engine.DefaultViewportWidth, "viewport width for framing")
	graphCmd.Flags().Float64Var(&graphHeight, "height", engine.DefaultViewportHeight, "viewport height for framing")
	rootCmd.AddCommand(graphCmd)
}

var graphCmd = &cobra.Command{
	Use:   "graph [word...]",
	Short: "Build, lay out and frame a word graph",
	Long: `Build the semantic graph for a set of target words (or one card), run the
layout simulation and frame every node. Prints the graph, node positions,
gravity edges and camera as JSON. Generated labels are cached in the
configured database exactly as a live session caches them.

Usage:
  lexis graph cloud rain thunder
  lexis graph --learner 6f1c... cloud rain
  lexis graph --learner 6f1c... --card 9a2e...`,
	RunE: runGraph,
}

// graphOutput is the JSON printed by the graph command.
type graphOutput struct {
	Graph     *domain.Graph        `json:"graph"`
	Positions []layout.Body        `json:"positions"`
	Gravity   []layout.GravityEdge `json:"gravity"`
	Camera    *viewport.Camera     `json:"camera,omitempty"`
}

func runGraph(cmd *cobra.Command, args []string) error {
	if graphCard == "" && len(args) == 0 {
		return withExitCode(ExitDataError, fmt.Errorf("name target words or --card"))
	}
	var learnerID, cardID uuid.UUID
	var err error
	if graphLearner != "" {
		if learnerID, err = uuid.Parse(graphLearner); err != nil {
			return withExitCode(ExitDataError, fmt.Errorf("invalid learner id: %w", err))
		}
	}
	if graphCard != "" {
		if graphLearner == "" {
			return withExitCode(ExitDataError, fmt.Errorf("--card needs --learner"))
		}
		if cardID, err = uuid.Parse(graphCard); err != nil {
			return withExitCode(ExitDataError, fmt.Errorf("invalid card id: %w", err))
		}
	}

	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.cleanup()
	if err := app.setupGeneration(ctx); err != nil {
		return err
	}

	sessionCfg := engine.ConfigFrom(cfg)
	manager := cache.NewManager(app.cacheStore, cache.Options{
		TTL:        sessionCfg.CacheTTL,
		MemorySize: sessionCfg.MemoryCacheSize,
		Logger:     log,
	})
	vectors := embedding.NewVectorService(app.embedder, manager, log)
	builder := graph.NewBuilder(vectors, app.generator, manager, sessionCfg.Graph, log)

	var corpus []string
	if graphLearner != "" {
		cards, err := app.cardService.ListCards(ctx, learnerID)
		if err != nil {
			return err
		}
		for _, c := range cards {
			if !c.IsTerminal() {
				corpus = append(corpus, c.Word)
			}
		}
	}

	var g *domain.Graph
	if graphCard != "" {
		card, err := app.cardService.GetCard(ctx, learnerID, cardID)
		if err != nil {
			return err
		}
		g, err = builder.BuildForCard(ctx, card, corpus, graphRefresh)
		if err != nil {
			return err
		}
	} else {
		g, err = builder.Build(ctx, graph.Request{Targets: args, Corpus: corpus, Refresh: graphRefresh})
		if err != nil {
			return err
		}
	}

	ids := make([]string, len(g.Nodes))
	for i, n := range g.Nodes {
		ids[i] = n.ID
	}
	nodeVectors := vectors.EmbedAll(ctx, ids)

	stepper := layout.NewStepper(g.Nodes)
	stepper.SetForce("charge", layout.ManyBody(engine.DefaultCharge))
	augmenter := layout.NewAugmenter(sessionCfg.GravityThreshold)
	augmenter.Register(stepper, g.Nodes, nodeVectors)
	stepper.Run(graphTicks)

	out := graphOutput{
		Graph:     g,
		Positions: stepper.Positions(),
		Gravity:   augmenter.Edges(),
	}

	points := make([]viewport.Point, len(out.Positions))
	for i, b := range out.Positions {
		points[i] = viewport.Point{X: b.X, Y: b.Y}
	}
	cam, err := viewport.NewFramer(sessionCfg.Viewport).Frame(viewport.Request{
		Positions:      points,
		ViewportWidth:  graphWidth,
		ViewportHeight: graphHeight,
	})
	if err == nil {
		out.Camera = &cam
	} else {
		log.Warn("could not frame graph", "error", err)
	}

	return outputJSON(out)
}
