package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Azhovan/schematic"
	"github.com/Azhovan/schematic/format"
)

func newParseCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file...]",
		Short: "Check configuration files for syntax errors",
		Long: `Parse every file with the parser for its format and print a diagnostic,
with the offending line marked, for each one that fails. Use "-" to read
from standard input together with --format.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			failed := 0
			for _, arg := range args {
				if err := a.parseOne(cmd.InOrStdin(), out, arg); err != nil {
					failed++
					var parseErr *format.ParserError
					if errors.As(err, &parseErr) {
						fmt.Fprintf(out, "%s %s\n", a.styles.failed.Render("FAIL"), arg)
						fmt.Fprintln(out, a.styles.detail.Render(parseErr.Render()))
						continue
					}
					fmt.Fprintf(out, "%s %s: %v\n", a.styles.failed.Render("FAIL"), arg, err)
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d sources failed to parse", failed, len(args))
			}
			return nil
		},
	}
}

func (a *app) parseOne(stdin io.Reader, out io.Writer, arg string) error {
	var name, content string
	f := a.format

	if arg == "-" {
		if f == "" {
			return errors.New("--format is required when reading standard input")
		}
		data, err := io.ReadAll(stdin)
		if err != nil {
			return err
		}
		name, content = "<stdin>", string(data)
	} else {
		src, err := a.sourceFromArg(arg)
		if err != nil {
			return err
		}
		if src.Kind != schematic.SourceFile {
			return fmt.Errorf("only files can be parsed directly, use resolve for %s", src)
		}
		data, err := os.ReadFile(src.Value)
		if err != nil {
			return err
		}
		name, content, f = src.Name(), string(data), src.Format
	}

	doc, err := format.Parse(f, name, content)
	if err != nil {
		return err
	}
	a.logger.Debug().Str("source", name).Int("keys", len(doc)).Msg("parsed")
	fmt.Fprintf(out, "%s %s %s\n", a.styles.ok.Render("ok"), arg, a.styles.muted.Render(fmt.Sprintf("(%s, %d keys)", f, len(doc))))
	return nil
}
