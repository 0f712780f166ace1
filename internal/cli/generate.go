// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/settlesmart/internal/export"
	"github.com/jeranaias/settlesmart/internal/profile"
	"github.com/jeranaias/settlesmart/internal/util"
)

type generateFlags struct {
	raw     profile.Raw
	format  string
	output  string
	save    bool
	compact bool
}

func newGenerateCmd(a *app) *cobra.Command {
	var f generateFlags

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a plan once and print or save it",
		Example: `  settle generate --phase after --origin India --destination Canada --visa student
  settle generate --origin Brazil --destination Germany --format txt --output plan.txt`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.generate(cmd, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.raw.Phase, "phase", string(profile.DefaultPhase), "before or after arrival")
	flags.StringVar(&f.raw.Origin, "origin", "", "country moving from")
	flags.StringVar(&f.raw.Destination, "destination", "", "country moving to")
	flags.StringVar(&f.raw.VisaType, "visa", string(profile.DefaultVisaType), "student, work, family or startup")
	flags.StringVar(&f.raw.AnchorDate, "anchor", "", "anchor date YYYY-MM-DD (default today)")
	flags.StringVarP(&f.format, "format", "f", "", "txt, md, json or html (default export.default_format)")
	flags.StringVarP(&f.output, "output", "o", "", "write to this file or directory instead of stdout")
	flags.BoolVar(&f.save, "save", false, "write to export.dir with the default file name")
	flags.BoolVar(&f.compact, "compact", false, "short bulleted text without offsets")
	return cmd
}

func (a *app) generate(cmd *cobra.Command, f generateFlags) error {
	format := f.format
	if format == "" {
		format = a.cfg.Export.DefaultFormat
	}
	opts := export.DefaultOptions()
	opts.Compact = f.compact
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return err
	}

	res, err := a.newPipeline().Generate(cmd.Context(), f.raw)
	if err != nil {
		return describeFailure(err)
	}
	if res.Degraded() {
		fmt.Fprintln(cmd.ErrOrStderr(), WarningStyle.Render("The completion service returned an unusable plan. Please try again."))
	}

	doc := &export.Document{Plan: res.Plan, Profile: res.Profile}

	switch {
	case f.output != "" || f.save:
		doc.GeneratedAt = time.Now().UTC()
		path, err := a.writePlan(doc, exporter, opts, f)
		if err != nil {
			return err
		}
		a.logger.Info("plan saved", zap.String("path", path))
		fmt.Fprintf(cmd.OutOrStdout(), "Plan written to %s\n", path)
		return nil
	default:
		body, err := exporter.Export(doc)
		if err != nil {
			return err
		}
		return printPlan(cmd.OutOrStdout(), body, exporter)
	}
}

// writePlan saves the rendered plan. A directory target (or --save) gets
// the default file name; anything else is used as the exact path.
func (a *app) writePlan(doc *export.Document, exporter export.Exporter, opts *export.Options, f generateFlags) (string, error) {
	dir := ""
	switch {
	case f.output == "":
		dir = a.cfg.Export.Dir
	case strings.HasSuffix(f.output, string(os.PathSeparator)) || isDir(f.output):
		dir = f.output
	}
	if dir != "" {
		opts.OutputDir = dir
		return export.ExportToFile(doc, exporter, opts)
	}

	body, err := exporter.Export(doc)
	if err != nil {
		return "", err
	}
	path := filepath.Clean(f.output)
	if err := util.AtomicWriteFile(path, body, 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// printPlan writes body to out, rendering markdown with glamour when out is
// a terminal.
func printPlan(out io.Writer, body []byte, exporter export.Exporter) error {
	if _, ok := exporter.(*export.MarkdownExporter); ok && isTerminal(out) {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(terminalWidth(out)-2),
		)
		if err == nil {
			if rendered, err := renderer.Render(string(body)); err == nil {
				_, err = io.WriteString(out, rendered)
				return err
			}
		}
	}
	_, err := out.Write(body)
	return err
}
