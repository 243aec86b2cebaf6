package cli

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/composeviz/pkg/compose"
	errs "github.com/matzehuels/composeviz/pkg/errors"
	"github.com/matzehuels/composeviz/pkg/graph"
	"github.com/matzehuels/composeviz/pkg/pipeline"
	"github.com/matzehuels/composeviz/pkg/style"
	"github.com/matzehuels/composeviz/pkg/topology"
)

// Values of --output-format.
const (
	outputDOT      = "dot"      // write DOT source
	outputImage    = "image"    // write a PNG image
	outputDisplay  = "display"  // render to a temporary PNG and open it
	outputGraphviz = "graphviz" // write any Graphviz format (see --graphviz-output-format)
)

var outputFormats = []string{outputDOT, outputImage, outputDisplay, outputGraphviz}

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	outputFile     string
	outputFormat   string
	graphvizFormat string
	include        []string
	exclude        []string
	force          bool
	noVolumes      bool
	noNetworks     bool
	noPorts        bool
	noSecrets      bool
	noConfigs      bool
	horizontal     bool
	ignoreOverride bool
	background     string
	noCache        bool
	interactive    bool
	watch          bool
}

// renderCommand creates the render command.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		outputFormat:   outputDisplay,
		graphvizFormat: pipeline.FormatSVG,
		background:     style.DefaultBackground,
	}

	cmd := &cobra.Command{
		Use:   "render [input-file...]",
		Short: "Render the topology of docker-compose files",
		Long: `Render reads one or more docker-compose files, merges them together with
their override files, and draws services, volumes, networks, ports, configs
and secrets as a Graphviz graph.

With no input file, ./docker-compose.yml is used.`,
		Example: `  composeviz render -m image -o topology.png
  composeviz render -m graphviz --graphviz-output-format svg --no-ports
  composeviz render -m dot --exclude cron docker-compose.yml docker-compose.prod.yml
  composeviz render -m graphviz --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c.Config.Render.apply(cmd.Flags(), &opts)
			if c.Config.Cache.Disabled {
				opts.noCache = true
			}
			if len(args) == 0 {
				args = []string{compose.DefaultFile}
			}
			return c.runRender(cmd.Context(), args, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.outputFile, "output-file", "o", "", `path to the output file (only for "dot", "image" and "graphviz")`)
	cmd.Flags().StringVarP(&opts.outputFormat, "output-format", "m", opts.outputFormat, `output format: one of "dot", "image", "display", "graphviz"`)
	cmd.Flags().StringVar(&opts.graphvizFormat, "graphviz-output-format", opts.graphvizFormat, "Graphviz output format: svg, png, jpg, pdf, json, ...")
	cmd.Flags().StringSliceVar(&opts.include, "include", nil, "only draw the given services")
	cmd.Flags().StringSliceVar(&opts.exclude, "exclude", nil, "do not draw the given services")
	cmd.Flags().BoolVarP(&opts.force, "force", "f", false, "overwrite the output file if it already exists")
	cmd.Flags().BoolVar(&opts.noVolumes, "no-volumes", false, "do not draw volumes")
	cmd.Flags().BoolVar(&opts.noNetworks, "no-networks", false, "do not draw networks")
	cmd.Flags().BoolVar(&opts.noPorts, "no-ports", false, "do not draw ports")
	cmd.Flags().BoolVar(&opts.noSecrets, "no-secrets", false, "do not draw secrets")
	cmd.Flags().BoolVar(&opts.noConfigs, "no-configs", false, "do not draw configs")
	cmd.Flags().BoolVarP(&opts.horizontal, "horizontal", "r", false, "draw a horizontal graph")
	cmd.Flags().BoolVar(&opts.ignoreOverride, "ignore-override", false, "ignore override files")
	cmd.Flags().StringVar(&opts.background, "background", opts.background, `graph background color: "#rrggbb" or "transparent"`)
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "do not read or write the artifact cache")
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "pick the services to draw interactively")
	cmd.Flags().BoolVarP(&opts.watch, "watch", "w", false, "render again whenever an input file changes")
	registerRenderCompletions(cmd)

	return cmd
}

// validate checks the flag values that do not depend on the input.
func (o *renderOpts) validate() error {
	valid := false
	for _, f := range outputFormats {
		if o.outputFormat == f {
			valid = true
			break
		}
	}
	if !valid {
		return errs.New(errs.ErrCodeInvalidFormat, "invalid output format %q: it must be one of %s",
			o.outputFormat, strings.Join(outputFormats, ", "))
	}
	if o.watch && o.outputFormat == outputDisplay {
		return errs.New(errs.ErrCodeInvalidInput, `--watch cannot be used with the "display" output format`)
	}
	if err := errs.ValidateBackground(o.background); err != nil {
		return err
	}
	if o.outputFormat == outputGraphviz {
		return pipeline.ValidateFormat(strings.ToLower(o.graphvizFormat))
	}
	return nil
}

// artifactFormat returns the pipeline format produced for the output format.
func (o *renderOpts) artifactFormat() string {
	switch o.outputFormat {
	case outputDOT:
		return pipeline.FormatDOT
	case outputGraphviz:
		return strings.ToLower(o.graphvizFormat)
	default:
		return pipeline.FormatPNG
	}
}

// outputPath returns the file to write, defaulting to docker-compose.<ext>
// in dir. An existing file is refused unless --force is given.
func (o *renderOpts) outputPath(dir string) (string, error) {
	path := o.outputFile
	if path == "" {
		path = filepath.Join(dir, "docker-compose."+o.artifactFormat())
	}
	if _, err := os.Stat(path); err == nil && !o.force {
		return "", errs.New(errs.ErrCodeFileExists, "file %q already exists; use --force to overwrite it", path)
	}
	return path, nil
}

// pipelineOptions converts the flags to pipeline options.
func (o *renderOpts) pipelineOptions(files []string) pipeline.Options {
	return pipeline.Options{
		Files:          files,
		IgnoreOverride: o.ignoreOverride,
		NoVolumes:      o.noVolumes,
		NoNetworks:     o.noNetworks,
		NoPorts:        o.noPorts,
		NoConfigs:      o.noConfigs,
		NoSecrets:      o.noSecrets,
		Horizontal:     o.horizontal,
		Background:     o.background,
		Include:        o.include,
		Exclude:        o.exclude,
		Format:         o.artifactFormat(),
	}
}

// runRender loads, builds, styles and renders the configuration in files.
func (c *CLI) runRender(ctx context.Context, files []string, opts *renderOpts) error {
	if err := opts.validate(); err != nil {
		return err
	}

	var output string
	if opts.outputFormat == outputDisplay {
		if opts.force || opts.outputFile != "" {
			printWarning(`The following options are ignored with the "display" output format: "--force", "--output-file"`)
		}
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return err
		}
		if output, err = opts.outputPath(cwd); err != nil {
			return err
		}
	}

	popts := opts.pipelineOptions(files)
	popts.Logger = c.Logger
	if err := popts.Validate(); err != nil {
		return err
	}

	runner, err := c.newRunner(ctx, opts.noCache, nil)
	if err != nil {
		return err
	}
	defer runner.Close()

	loaded, err := c.renderOnce(ctx, runner, &popts, opts, output)
	if err != nil || !opts.watch || loaded == nil {
		return err
	}

	fw, err := newFileWatcher(loaded, watchDebounce, c.Logger)
	if err != nil {
		return err
	}
	printInfo("Watching %s for changes", strings.Join(loaded, ", "))
	return fw.run(ctx, func() {
		if _, err := c.renderOnce(ctx, runner, &popts, opts, output); err != nil {
			printWarning("%s", errs.UserMessage(err))
		}
	})
}

// renderOnce runs the pipeline once and writes or displays the artifact.
// It returns the configuration files that were read, or none when the
// user quit the service picker without a selection. A service selection
// made interactively is stored in popts and reused by later renders.
func (c *CLI) renderOnce(ctx context.Context, runner *pipeline.Runner, popts *pipeline.Options, opts *renderOpts, output string) ([]string, error) {
	prog := newProgress(c.Logger)
	doc, loaded, err := runner.Load(ctx, *popts)
	if err != nil {
		return nil, err
	}
	c.Logger.Infof("Reading configuration from %s", strings.Join(loaded, ", "))
	logFilters(c, *popts)

	g, err := runner.Build(ctx, doc, loaded[0], *popts)
	if err != nil {
		return nil, err
	}
	prog.done(fmt.Sprintf("Built graph with %d nodes and %d edges", g.NodeCount(), g.EdgeCount()))

	if opts.interactive {
		selected, ok, err := pickServices(serviceNames(g), popts.Include)
		if err != nil {
			return nil, err
		}
		if !ok {
			printDetail("No selection made")
			return nil, nil
		}
		popts.Include = selected
		opts.interactive = false
	}

	styled := runner.Style(g, *popts)

	spinner := newSpinner(ctx, "Rendering "+popts.Format)
	spinner.Start()
	data, hit, err := runner.Render(ctx, styled, *popts)
	spinner.Stop()
	if err != nil {
		return nil, err
	}

	if opts.outputFormat == outputDisplay {
		return loaded, c.display(data)
	}

	if err := os.WriteFile(output, data, 0644); err != nil {
		return nil, errs.Wrap(errs.ErrCodeInternal, err, "write output").WithPath(output)
	}
	printSuccess("Rendered %s", popts.Format)
	printFile(output)
	printStats(styled, hit)
	return loaded, nil
}

func logFilters(c *CLI, o pipeline.Options) {
	if len(o.Include) > 0 {
		c.Logger.Infof("Only %s services will be displayed", strings.Join(o.Include, ", "))
	}
	if len(o.Exclude) > 0 {
		c.Logger.Infof("Services %s will not be displayed", strings.Join(o.Exclude, ", "))
	}
	for _, skip := range []struct {
		on   bool
		what string
	}{
		{o.NoVolumes, "Volumes"},
		{o.NoNetworks, "Networks"},
		{o.NoPorts, "Ports"},
		{o.NoSecrets, "Secrets"},
		{o.NoConfigs, "Configs"},
	} {
		if skip.on {
			c.Logger.Infof("%s will not be displayed", skip.what)
		}
	}
}

// serviceNames returns the names of the services declared in g, skipping
// external containers.
func serviceNames(g *graph.Graph) []string {
	var names []string
	for _, n := range g.Nodes() {
		if topology.KindOf(n) == topology.KindService && !n.Attrs.Bool(topology.AttrExternal) {
			names = append(names, topology.NameOf(n))
		}
	}
	return names
}

// display writes the image to a temporary file and opens it with the
// platform viewer.
func (c *CLI) display(data []byte) error {
	f, err := os.CreateTemp("", appName+"-*.png")
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	c.Logger.Debug("opening image", "path", f.Name())
	if err := openerCommand(f.Name()).Start(); err != nil {
		return fmt.Errorf("open %s: %w", f.Name(), err)
	}
	printFile(f.Name())
	return nil
}

func openerCommand(path string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return exec.Command("xdg-open", path)
	}
}
