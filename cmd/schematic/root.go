package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/Azhovan/schematic"
	"github.com/Azhovan/schematic/format"
)

var Version = "dev" // Overridden by ldflags

// app carries what every subcommand needs once flags are parsed.
type app struct {
	logger zerolog.Logger
	styles styles
	format format.Format
}

type styles struct {
	ok     lipgloss.Style
	failed lipgloss.Style
	detail lipgloss.Style
	muted  lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		ok:     r.NewStyle().Foreground(lipgloss.Color("46")).Bold(true),
		failed: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		detail: r.NewStyle().Foreground(lipgloss.Color("214")),
		muted:  r.NewStyle().Foreground(lipgloss.Color("240")),
	}
}

func newRootCommand() *cobra.Command {
	a := &app{logger: zerolog.Nop()}
	var logLevel, formatName string

	rootCmd := &cobra.Command{
		Use:   "schematic",
		Short: "Inspect layered configuration sources",
		Long: `schematic checks configuration files (JSON, JSONC, TOML, YAML) for syntax
errors and shows the order in which extends chains are merged.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := zerolog.ParseLevel(strings.ToLower(logLevel))
			if err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			a.logger = zerolog.New(zerolog.ConsoleWriter{
				Out:        cmd.ErrOrStderr(),
				TimeFormat: time.RFC3339,
			}).Level(level).With().Timestamp().Logger()

			a.format = format.Format(strings.ToLower(formatName))
			if a.format != "" && !a.format.IsKnown() {
				return fmt.Errorf("unknown --format %q, expected one of %v", formatName, format.Known())
			}
			a.styles = newStyles(cmd.OutOrStdout())
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&formatName, "format", "f", "", "Source format, inferred from the extension when empty")

	rootCmd.AddCommand(newParseCommand(a))
	rootCmd.AddCommand(newResolveCommand(a))
	rootCmd.AddCommand(newFormatsCommand())

	return rootCmd
}

// sourceFromArg turns a command line argument into a file or URL source.
func (a *app) sourceFromArg(arg string) (schematic.Source, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return schematic.NewURLSource(arg, a.format)
	}
	return schematic.NewFileSource(arg, a.format)
}

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List supported formats and their file extensions",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, f := range format.Known() {
				if _, ok := format.Lookup(f); ok {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%s (no parser registered)\n", f)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "extensions: %s\n", strings.Join(format.Extensions(), " "))
		},
	}
}
