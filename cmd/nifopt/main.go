// Package main is the batch optimizer driver: it loads options, sets
// up logging, and runs the pass sequence over scene documents. The
// container codec is supplied by the embedding build through the Load
// and Save hooks; this tool only transforms block graphs.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/niflab/nifopt/internal/config"
	"github.com/niflab/nifopt/internal/logger"
	"github.com/niflab/nifopt/internal/spells"
	"github.com/niflab/nifopt/pkg/nif"
)

// Load and Save bridge to the container codec. A build that links a
// codec assigns these before main runs.
var (
	Load func(path string) (*nif.Graph, error)
	Save func(path string, g *nif.Graph) error
)

// passes maps spell names to their entry points, in pipeline order.
var passes = []struct {
	name string
	run  func(g *nif.Graph, opts spells.Options, log *zap.Logger) bool
}{
	{"fix-texture-paths", func(g *nif.Graph, _ spells.Options, log *zap.Logger) bool {
		return spells.FixTexturePaths(g, log)
	}},
	{"clamp-material-alpha", func(g *nif.Graph, _ spells.Options, log *zap.Logger) bool {
		return spells.ClampMaterialAlpha(g, log)
	}},
	{"clean-reference-lists", func(g *nif.Graph, _ spells.Options, log *zap.Logger) bool {
		return spells.CleanRefLists(g, log)
	}},
	{"delete-unused-roots", func(g *nif.Graph, _ spells.Options, log *zap.Logger) bool {
		return spells.DelUnusedRoots(g, log)
	}},
	{"merge-duplicate-branches", func(g *nif.Graph, opts spells.Options, log *zap.Logger) bool {
		return spells.MergeDuplicates(g, opts.Precision, log)
	}},
	{"optimize-geometry", spells.OptimizeGeometry},
	{"optimize-collision-geometry", spells.OptimizeCollisionGeometry},
	{"delete-unused-bones", func(g *nif.Graph, _ spells.Options, log *zap.Logger) bool {
		return spells.DelUnusedBones(g, log)
	}},
	{"optimize-animation-keys", func(g *nif.Graph, opts spells.Options, log *zap.Logger) bool {
		return spells.OptimizeAnimationKeys(g, opts.Significance, log)
	}},
}

func main() {
	configPath := flag.String("config", "", "path to nifopt.yaml")
	listPasses := flag.Bool("list", false, "list pass names and exit")
	only := flag.String("only", "", "comma-separated pass names to run (default: all)")
	dryRun := flag.Bool("dry-run", false, "transform without saving")
	flag.Parse()

	if *listPasses {
		for _, p := range passes {
			fmt.Println(p.name)
		}
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: nifopt [flags] file...")
		os.Exit(2)
	}
	if Load == nil {
		logger.Fatal("no container codec linked into this build")
	}

	opts := optionsFrom(cfg)
	selected := selectPasses(cfg, *only)

	failed := 0
	for _, path := range flag.Args() {
		if err := process(path, selected, opts, *dryRun); err != nil {
			logger.Error("optimization failed",
				zap.String("file", path), zap.Error(err))
			failed++
		}
	}
	if failed > 0 {
		os.Exit(1)
	}
}

func process(path string, selected []int, opts spells.Options, dryRun bool) error {
	g, err := Load(path)
	if err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}

	changed := false
	for _, i := range selected {
		if passes[i].run(g, opts, logger.Log) {
			logger.Info("pass changed document",
				zap.String("file", path), zap.String("pass", passes[i].name))
			changed = true
		}
	}
	if !changed {
		logger.Info("nothing to do", zap.String("file", path))
		return nil
	}
	if dryRun || Save == nil {
		logger.Info("changes not saved", zap.String("file", path))
		return nil
	}
	if err := Save(path, g); err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	logger.Info("optimized", zap.String("file", path))
	return nil
}

// selectPasses resolves the -only list against the config excludes,
// keeping pipeline order.
func selectPasses(cfg *config.Config, only string) []int {
	wanted := map[string]bool{}
	if only != "" {
		for _, name := range strings.Split(only, ",") {
			wanted[strings.TrimSpace(name)] = true
		}
	}
	var out []int
	for i, p := range passes {
		if len(wanted) > 0 && !wanted[p.name] {
			continue
		}
		if cfg.Spells.Excluded(p.name) {
			logger.Info("pass excluded by config", zap.String("pass", p.name))
			continue
		}
		out = append(out, i)
	}
	return out
}

func optionsFrom(cfg *config.Config) spells.Options {
	return spells.Options{
		Precision: nif.Precision{
			Vertex: cfg.Hashing.VertexPrecision,
			Normal: cfg.Hashing.NormalPrecision,
			UV:     cfg.Hashing.UVPrecision,
			VCol:   cfg.Hashing.VColPrecision,
		},
		CollisionPrecision: cfg.Collision.VertexPrecision,
		StripCutoff:        cfg.Geometry.StripCutoff,
		Stitch:             cfg.Geometry.Stitch,
		Significance:       cfg.Animation.Significance,
		MaxTriangles:       cfg.Geometry.MaxTriangles,
		BonesPerPartition:  cfg.Geometry.BonesPerPartition,
		BonesPerVertex:     cfg.Geometry.BonesPerVertex,
	}
}
