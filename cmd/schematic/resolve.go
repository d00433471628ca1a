package main

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Azhovan/schematic"
	"github.com/Azhovan/schematic/format"
)

func newResolveCommand(a *app) *cobra.Command {
	var (
		extendsKey string
		showKeys   bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "resolve [source...]",
		Short: "Print the merge order of sources and their extends ancestors",
		Long: `Follow the extends chains of the given files or https URLs and print every
source in merge order, lowest precedence first. Each source is listed once,
at its first occurrence.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sources := make([]schematic.Source, 0, len(args))
			for _, arg := range args {
				src, err := a.sourceFromArg(arg)
				if err != nil {
					return err
				}
				sources = append(sources, src)
			}

			logger := a.logger
			rv := schematic.Resolver{
				ExtendsKey: extendsKey,
				Client:     &http.Client{Timeout: timeout},
				Cache:      schematic.NewMemoryCache(),
				Logger:     &logger,
			}

			out := cmd.OutOrStdout()
			docs, err := rv.Resolve(cmd.Context(), sources...)
			if err != nil {
				var parseErr *format.ParserError
				if errors.As(err, &parseErr) {
					fmt.Fprintln(out, a.styles.detail.Render(parseErr.Render()))
				}
				return err
			}

			for i, doc := range docs {
				fmt.Fprintf(out, "%s %s\n", a.styles.muted.Render(fmt.Sprintf("%2d.", i+1)), doc.Source)
				if showKeys {
					keys := make([]string, 0, len(doc.Data))
					for k := range doc.Data {
						keys = append(keys, k)
					}
					sort.Strings(keys)
					fmt.Fprintf(out, "    %s\n", a.styles.muted.Render(strings.Join(keys, ", ")))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&extendsKey, "extends-key", "extends", "Top-level key holding the extends list")
	cmd.Flags().BoolVar(&showKeys, "keys", false, "Print the top-level keys of each source")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "Timeout for fetching URL sources")
	return cmd
}
