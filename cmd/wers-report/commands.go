package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/a3tai/mcp-wers-reader/internal/analysis"
	"github.com/a3tai/mcp-wers-reader/internal/config"
	"github.com/a3tai/mcp-wers-reader/internal/logging"
	"github.com/a3tai/mcp-wers-reader/internal/report"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

const stdinName = "-"

// app holds the state shared by every subcommand of one invocation
type app struct {
	logLevel    string
	maxFileSize int64
	logger      *zap.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{logger: zap.NewNop()}

	root := &cobra.Command{
		Use:   "wers-report",
		Short: "Reconcile WERS codes against option documents",
		Long: `wers-report flattens WERS option documents (.docx or .pdf), extracts the
code descriptions they carry and reconciles them against a list of input
codes and a pasted VOCI list.

Every analyze run also writes a flat text report into the report directory.`,
		Version:       fmt.Sprintf("%s (built %s, commit %s, %s)", version, buildTime, gitCommit, runtime.Version()),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(logging.Options{Level: a.logLevel})
			if err != nil {
				return err
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
	}

	root.PersistentFlags().StringVar(&a.logLevel, "loglevel", "warn", "Log level (debug, info, warn, error)")
	root.PersistentFlags().Int64Var(&a.maxFileSize, "maxfilesize", config.DefaultMaxFileSize,
		"Maximum document size in bytes")

	root.AddCommand(a.newAnalyzeCommand(), a.newFlattenCommand(), a.newDescriptionsCommand())
	return root
}

// service builds an analysis service; reports may be nil for read-only runs
func (a *app) service(reports *report.Writer) (*analysis.Service, error) {
	return analysis.NewService(analysis.Options{
		MaxFileSize: a.maxFileSize,
		Reports:     reports,
		Logger:      a.logger,
	})
}

func (a *app) newAnalyzeCommand() *cobra.Command {
	var (
		doc1, doc2 string
		codesPath  string
		vociPath   string
		reportDir  string
		format     string
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Reconcile input and VOCI codes against one or two documents",
		Example: `  wers-report analyze --doc1 options.docx --codes codes.txt
  wers-report analyze --doc1 a.docx --doc2 b.pdf --codes - --voci voci.txt --format json < codes.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			if codesPath == stdinName && vociPath == stdinName {
				return errors.New("only one of --codes and --voci can read from stdin")
			}

			inputCodes, err := readCodes(cmd.InOrStdin(), codesPath)
			if err != nil {
				return fmt.Errorf("reading input codes: %w", err)
			}
			vociCodes, err := readCodes(cmd.InOrStdin(), vociPath)
			if err != nil {
				return fmt.Errorf("reading VOCI codes: %w", err)
			}

			reports, err := report.NewWriter(report.Config{Directory: reportDir})
			if err != nil {
				return err
			}
			svc, err := a.service(reports)
			if err != nil {
				return err
			}

			result, err := svc.AnalyzeFiles(cmd.Context(), analysis.FileRequest{
				Doc1Path:   doc1,
				Doc2Path:   doc2,
				InputCodes: inputCodes,
				VociCodes:  vociCodes,
			})
			if err != nil {
				return err
			}

			if format == FormatText {
				return writeAnalysisText(cmd.OutOrStdout(), result)
			}
			return encode(cmd.OutOrStdout(), format, result)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&doc1, "doc1", "", "First WERS document (required)")
	flags.StringVar(&doc2, "doc2", "", "Optional second WERS document")
	flags.StringVar(&codesPath, "codes", "", "File with the input codes, - for stdin")
	flags.StringVar(&vociPath, "voci", "", "File with the pasted VOCI codes, - for stdin")
	flags.StringVar(&reportDir, "report-dir", config.DefaultReportDir, "Directory for report artifacts")
	flags.StringVarP(&format, "format", "f", FormatText, "Output format: text, json or yaml")
	_ = cmd.MarkFlagRequired("doc1")

	return cmd
}

func (a *app) newFlattenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "flatten PATH",
		Short: "Print the flattened text of a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(nil)
			if err != nil {
				return err
			}
			result, err := svc.Flatten(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Text)
			return err
		},
	}
}

func (a *app) newDescriptionsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "descriptions PATH",
		Short: "List the code descriptions extracted from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			svc, err := a.service(nil)
			if err != nil {
				return err
			}
			result, err := svc.Descriptions(args[0])
			if err != nil {
				return err
			}

			if format != FormatText {
				return encode(cmd.OutOrStdout(), format, result)
			}
			out := cmd.OutOrStdout()
			if len(result.Descriptions) == 0 {
				_, err = fmt.Fprintf(out, "No code descriptions found in %s\n", result.Path)
				return err
			}
			for _, d := range result.Descriptions {
				if _, err := fmt.Fprintf(out, "%s: %s\n", d.Code, d.Description); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Output format: text, json or yaml")
	return cmd
}

func checkFormat(format string) error {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("unsupported output format %q", format)
}

// readCodes returns the contents of path, stdin for "-", or "" when unset
func readCodes(stdin io.Reader, path string) (string, error) {
	switch path {
	case "":
		return "", nil
	case stdinName:
		data, err := io.ReadAll(stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func encode(w io.Writer, format string, v any) error {
	if format == FormatYAML {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeAnalysisText(w io.Writer, result *analysis.Result) error {
	m := result.Metrics
	fmt.Fprintf(w, "Total WERS Codes (excluding VOCI-only): %d\n", m.TotalCodes)
	fmt.Fprintf(w, "Total Minutes: %d\n", m.TotalMinutes)
	fmt.Fprintf(w, "Total Hours: %s\n", report.FormatDecimal(m.TotalHours))
	fmt.Fprintf(w, "Total Working Days: %s\n", report.FormatDecimal(m.TotalDays))
	if m.HasEntityMPV {
		fmt.Fprintln(w, "Includes entity or MPV$ codes")
	}
	fmt.Fprintln(w)

	for i, r := range result.Results {
		fmt.Fprintf(w, "%d. %s: %s", i+1, r.Code, r.Label)
		if r.Description != "" {
			fmt.Fprintf(w, " - %s", r.Description)
		}
		fmt.Fprintln(w)
	}

	_, err := fmt.Fprintf(w, "\nReport: %s\n", result.Artifact.Path)
	return err
}
