package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/refgraph/refgraph/pkg/backend"
	"github.com/refgraph/refgraph/pkg/pipeline"
)

// renderOpts holds the output flags for the render command.
type renderOpts struct {
	output     string   // output file (single format) or base path
	formats    []string // json, dot, svg, png, pdf
	edgeLabels bool     // draw relationship types on edges
	scale      float64  // png scale factor
	kind       string   // fetch from the backend instead of reading a file
	id         string
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	var (
		opts    renderOpts
		formats string
		pf      pipelineFlags
		qf      queryFlags
	)

	cmd := &cobra.Command{
		Use:   "render [file]",
		Short: "Build a render model and export it",
		Long: `Build a render model from a graph payload and export it.

The payload is read from file ("-" for stdin) or fetched from the backend
with --kind and --id. Output formats are json (the render model), dot, svg,
png and pdf.`,
		Example: `  refgraph render c42.json -f svg,json
  refgraph render --kind component --id c42 --prune -o c42.svg
  cat payload.json | refgraph render - -k face_score -t face_score=0.8 -f dot`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formats)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			if len(args) == 0 && opts.kind == "" {
				return fmt.Errorf("either a payload file or --kind is required")
			}
			return c.runRender(cmd, args, &opts, &pf, &qf)
		},
	}

	pf.register(cmd)
	qf.register(cmd)
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formats, "format", "f", "", "output format(s): json (default), dot, svg, png, pdf (comma-separated)")
	cmd.Flags().BoolVar(&opts.edgeLabels, "edge-labels", false, "draw relationship types on edges")
	cmd.Flags().Float64Var(&opts.scale, "scale", 2, "png scale factor")
	cmd.Flags().StringVar(&opts.kind, "kind", "", "fetch from the backend: component, refsimilar, sameop, offtime")
	cmd.Flags().StringVar(&opts.id, "id", "", "entity id for --kind")
	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, args []string, opts *renderOpts, pf *pipelineFlags, qf *queryFlags) error {
	ctx := cmd.Context()
	logger := loggerFromContext(ctx)

	d, err := c.newDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	base, err := d.cfg.PipelineOptions()
	if err != nil {
		return err
	}

	var (
		payload []byte
		input   string
		kind    backend.Kind
	)
	if len(args) == 1 {
		input = args[0]
		if payload, err = readInput(input); err != nil {
			return err
		}
	} else {
		queryArgs := []string{opts.kind}
		if opts.id != "" {
			queryArgs = append(queryArgs, opts.id)
		}
		q, err := qf.query(queryArgs)
		if err != nil {
			return err
		}
		kind = q.Kind
		input = strings.ReplaceAll(q.String(), ":", "-")
		payload, err = spin(ctx, "Fetching "+q.String(), func(ctx context.Context) ([]byte, error) {
			return d.backend.Fetch(ctx, q, qf.refresh)
		})
		if err != nil {
			return err
		}
	}

	po, err := pf.apply(cmd, base, kind)
	if err != nil {
		return err
	}

	sw := startStopwatch(logger)
	m, cached, err := d.runner.Run(ctx, payload, po)
	if err != nil {
		return err
	}
	sw.done("Built model", "layout", po.Layout, "metric", po.Metric)
	printStats(m.Counts, cached)

	ro := pipeline.RenderOptions{EdgeLabels: opts.edgeLabels, Scale: opts.scale}
	outputs, err := pipeline.RenderAll(ctx, m, opts.formats, ro)
	if err != nil {
		return err
	}
	for i, format := range opts.formats {
		data := outputs[i]
		logger.Debugf("Generated %s: %d bytes", format, len(data))

		if input == "-" && opts.output == "" && len(opts.formats) == 1 {
			_, err := os.Stdout.Write(data)
			return err
		}
		path := outputPath(opts.output, input, format, len(opts.formats) > 1)
		if err := writeFile(path, data); err != nil {
			return err
		}
		printFile(path)
	}
	return nil
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["json"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatJSON}
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// basePath derives the base output path from the output and input paths.
// If output is empty, it strips the extension from input and appends
// ".model" so the render model never overwrites its payload. If output has
// a format extension, that extension is stripped.
func basePath(output, input string) string {
	if output == "" {
		if input == "" || input == "-" {
			input = "graph"
		}
		return strings.TrimSuffix(input, filepath.Ext(input)) + ".model"
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// outputPath picks the file for one format. A single explicit output is
// used as given.
func outputPath(output, input, format string, multiple bool) string {
	if output != "" && !multiple {
		return output
	}
	return basePath(output, input) + "." + format
}

// readInput reads a payload file, or stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}

// writeFile writes data, creating parent directories.
func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
