package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/chainbreak/chainview/pkg/community"
	"github.com/chainbreak/chainview/pkg/config"
	"github.com/chainbreak/chainview/pkg/errors"
	"github.com/chainbreak/chainview/pkg/export"
	"github.com/chainbreak/chainview/pkg/graph"
	"github.com/chainbreak/chainview/pkg/intel"
	"github.com/chainbreak/chainview/pkg/layout"
	"github.com/chainbreak/chainview/pkg/render"
	"github.com/chainbreak/chainview/pkg/viewport"
)

const (
	formatPNG = "png"
	formatDOT = "dot"

	defaultWidth  = 1200 // default raster width in pixels
	defaultHeight = 800  // default raster height in pixels

	// maxLayoutTicks bounds the settling loop for pathological graphs; the
	// cooling schedule normally converges well before this.
	maxLayoutTicks = 1000
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string
	format      string
	width       float64
	height      float64
	communities bool
	intelCheck  bool
	resolution  float64
}

// newRenderCmd creates the render command: load a graph file, settle the
// layout offline, and write a PNG raster or DOT interchange file.
func newRenderCmd(loadConfig func() (config.Config, error)) *cobra.Command {
	opts := renderOpts{
		format: formatPNG,
		width:  defaultWidth,
		height: defaultHeight,
	}

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Render a transaction graph to an image",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != formatPNG && opts.format != formatDOT {
				return errors.New(errors.ErrCodeInvalidInput, "unknown format %q (expected png or dot)", opts.format)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), cfg, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: timestamped name in the working directory)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", opts.format, "output format: png (default), dot")
	cmd.Flags().Float64Var(&opts.width, "width", opts.width, "frame width")
	cmd.Flags().Float64Var(&opts.height, "height", opts.height, "frame height")
	cmd.Flags().BoolVar(&opts.communities, "communities", false, "run community detection and color by partition")
	cmd.Flags().BoolVar(&opts.intelCheck, "intel", false, "check addresses against the threat-intel service")
	cmd.Flags().Float64Var(&opts.resolution, "resolution", community.DefaultResolution, "detection resolution parameter")

	return cmd
}

func runRender(ctx context.Context, cfg config.Config, path string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}

	prog := newProgress(logger)
	model, stats, err := graph.BuildJSON(data)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Built graph: %d nodes, %d edges (%d self-loops, %d dangling edges dropped)",
		stats.NodesKept, stats.EdgesKept, stats.SelfLoops, stats.DanglingEdges))

	if opts.format == formatDOT {
		return writeArtifact(logger, opts.output, formatDOT, []byte(export.DOT(model)))
	}

	// Settle the layout offline: the same cooling schedule the interactive
	// session runs, just without frame emission between ticks.
	prog = newProgress(logger)
	engine := layout.New(model, cfg.LayoutConfig(), opts.width/2, opts.height/2)
	ticks := 0
	for !engine.Settled() && ticks < maxLayoutTicks {
		engine.Tick()
		ticks++
	}
	prog.done(fmt.Sprintf("Layout settled after %d ticks", ticks))

	var overlay *community.Partition
	if opts.communities {
		cacheBackend, err := cfg.OpenCache(ctx)
		if err != nil {
			return err
		}
		client := community.NewClient(cfg.Services.Detection, cacheBackend, logger)
		overlay, err = client.Detect(ctx, model, community.Params{Resolution: opts.resolution})
		if err != nil {
			return err
		}
	}

	flags := intel.Set{}
	if opts.intelCheck {
		provider := intel.NewHTTPProvider(cfg.Services.ThreatIntel)
		var addresses []string
		for _, n := range model.Nodes() {
			if n.Kind == graph.KindAddress {
				addresses = append(addresses, n.ID)
			}
		}
		found, err := provider.Check(ctx, addresses)
		if err != nil {
			return err
		}
		flags = intel.NewSet(found)
		logger.Info("threat-intel check complete", "checked", len(addresses), "flagged", len(found))
	}

	frame := render.Compose(render.Inputs{
		Model:     model,
		Transform: viewport.Identity(),
		Width:     opts.width,
		Height:    opts.height,
		Overlay:   overlay,
		Flags:     flags,
	})
	img, err := export.PNG(frame)
	if err != nil {
		return err
	}
	return writeArtifact(logger, opts.output, formatPNG, img)
}

// writeArtifact writes data to the requested path, generating a timestamped
// filename when none was given.
func writeArtifact(logger *log.Logger, path, ext string, data []byte) error {
	if path == "" {
		path = export.Filename(config.Default().Export.Prefix, time.Now(), ext)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeExport, err, "write %s", path)
	}
	logger.Info("artifact written", "file", path, "bytes", len(data))
	return nil
}
