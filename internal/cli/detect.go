package cli

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/chainbreak/chainview/pkg/community"
	"github.com/chainbreak/chainview/pkg/config"
	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/graph"
)

// newDetectCmd creates the detect command: run community detection over a
// graph file and print the partition.
func newDetectCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	var (
		resolution float64
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "detect [file]",
		Short: "Run community detection on a transaction graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if noCache {
				cfg.Cache.Backend = "none"
			}
			return runDetect(cmd.Context(), cfg, args[0], resolution)
		},
	}

	cmd.Flags().Float64Var(&resolution, "resolution", community.DefaultResolution, "detection resolution parameter")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the detection result cache")
	return cmd
}

func runDetect(ctx context.Context, cfg config.Config, path string, resolution float64) error {
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	model, stats, err := graph.BuildJSON(data)
	if err != nil {
		return err
	}
	logger.Info("graph built", "nodes", stats.NodesKept, "edges", stats.EdgesKept)

	cacheBackend, err := cfg.OpenCache(ctx)
	if err != nil {
		return err
	}
	client := community.NewClient(cfg.Services.Detection, cacheBackend, logger)

	prog := newProgress(logger)
	p, err := client.Detect(ctx, model, community.Params{Resolution: resolution})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Detected %d communities (modularity %.3f, %s)", p.Count, p.Modularity, p.Quality()))

	printPartition(model, p)
	return nil
}

// printPartition groups member nodes per community in the model's
// deterministic order and writes the summary to stdout.
func printPartition(model *graph.Model, p *community.Partition) {
	members := make(map[int][]string)
	for _, n := range model.Nodes() {
		if idx, ok := p.Lookup(n.ID); ok {
			members[idx] = append(members[idx], n.DisplayLabel())
		}
	}
	indices := make([]int, 0, len(members))
	for idx := range members {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		fmt.Printf("community %d (%d nodes):\n", idx, len(members[idx]))
		for _, label := range members[idx] {
			fmt.Printf("  %s\n", label)
		}
	}
}
