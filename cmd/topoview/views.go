package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"topoview/internal/adapter"
	"topoview/internal/config"
	"topoview/internal/watcher"
)

var (
	exportFormat string
	exportOutput string
	importFormat string
	importName   string
	saveFormat   string
	renderOutput string
	discoverPort string
	forceInit    bool
)

var viewsCmd = &cobra.Command{
	Use:   "views",
	Short: "List stored views",
	RunE:  runViews,
}

var exportCmd = &cobra.Command{
	Use:   "export <view>",
	Short: "Export a stored view",
	Long: `Export a stored view in xml, yaml or json.

Examples:
  topoview export core                   # XML to stdout
  topoview export core -f yaml -o core.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a view document and store it",
	Long: `Import a view document and store it.

The view is named after the file unless --name is given, and the format is
taken from the extension unless --format is given.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var renderCmd = &cobra.Command{
	Use:   "render <view>",
	Short: "Render a stored view to PNG",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var discoverCmd = &cobra.Command{
	Use:   "discover [target...]",
	Short: "Scan targets with nmap and store the objects found",
	Long: `Scan targets with nmap and store the objects found.

Targets default to discovery.targets from the config.

Examples:
  topoview discover 192.168.1.0/24
  topoview discover --ports 22,161,179 10.0.0.1 10.0.0.2`,
	RunE: runDiscover,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config file commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a default config file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective config",
	RunE:  runConfigShow,
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "xml", "output format: xml, yaml, json")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "output file (default stdout)")

	importCmd.Flags().StringVarP(&importFormat, "format", "f", "", "input format (default from extension)")
	importCmd.Flags().StringVar(&importName, "name", "", "view name (default from file name)")
	importCmd.Flags().StringVar(&saveFormat, "store-as", "", "stored format (default views.format)")

	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "output file (default <view>.png)")

	discoverCmd.Flags().StringVar(&discoverPort, "ports", "", "ports to scan (default discovery.ports)")

	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)

	rootCmd.AddCommand(viewsCmd, exportCmd, importCmd, renderCmd, discoverCmd, configCmd)
}

func runViews(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	views, err := a.svc.ListViews(cmd.Context())
	if err != nil {
		return err
	}
	if len(views) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored views.")
		return nil
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tFORMAT\tSIZE\tDIGEST\tUPDATED")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%.12s\t%s\n", v.Name, v.Format, v.Size, v.Digest, v.UpdatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	ctx := cmd.Context()
	if err := a.openStored(ctx, name); err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	return a.svc.Export(ctx, name, exportFormat, out)
}

func runImport(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	path := args[0]
	name := importName
	if name == "" {
		name = watcher.ViewName(filepath.Base(path))
	}
	format := importFormat
	if format == "" {
		format = watcher.FormatOf(path)
	}
	if saveFormat != "" {
		a.cfg.Views.Format = saveFormat
	}

	if err := a.importFile(cmd.Context(), name, format, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %s as view %q\n", path, name)
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	name := args[0]
	ctx := cmd.Context()
	if err := a.openStored(ctx, name); err != nil {
		return err
	}

	output := renderOutput
	if output == "" {
		output = name + ".png"
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := a.svc.Render(ctx, name, f); err != nil {
		f.Close()
		os.Remove(output)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s to %s\n", name, output)
	return nil
}

func runDiscover(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	targets := args
	if len(targets) == 0 {
		targets = a.cfg.Discovery.Targets
	}
	if len(targets) == 0 {
		return fmt.Errorf("no targets: pass them as arguments or set discovery.targets")
	}
	ports := a.cfg.Discovery.Ports
	if discoverPort != "" {
		ports = discoverPort
	}

	scanner := adapter.NewNmapAdapter(
		adapter.WithPortRange(ports),
		adapter.WithTimeout(a.cfg.Discovery.Timeout.Or(10*time.Minute)),
		adapter.WithLogger(a.logger.Named("nmap")),
		adapter.WithProgress(func(target string, found int, err error) {
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %v\n", target, err)
				return
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d hosts\n", target, found)
		}),
	)
	refs, err := a.svc.Discover(cmd.Context(), scanner, targets)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCLASS\tNAME")
	for _, ref := range refs {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", ref.ID, ref.ClassName, ref.Name)
	}
	return tw.Flush()
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := config.DefaultConfigPath()
	if len(args) == 1 {
		path = args[0]
	}
	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, path, err := loadConfig()
	if err != nil {
		return err
	}
	if path == "" {
		path = "(defaults)"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Config: %s\n%s\n", path, cfg.Summary())
	return nil
}

// openStored opens a view that must have been saved before
func (a *app) openStored(ctx context.Context, name string) error {
	if _, err := a.svc.StoredView(ctx, name); err != nil {
		return err
	}
	return a.svc.Open(ctx, name)
}

// importFile imports a document from disk and stores it in the configured
// format
func (a *app) importFile(ctx context.Context, view, format, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	report, err := a.svc.Import(ctx, view, strings.ToLower(format), f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if len(report.Skipped) > 0 {
		a.logger.Named("import").Sugar().Warnf("%s: %d objects not in inventory: %v", path, len(report.Skipped), report.Skipped)
	}
	_, err = a.svc.Save(ctx, view, a.cfg.Views.Format)
	return err
}
