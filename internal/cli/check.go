package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/kat/pkg/value"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	DocFormat string // "toml" | "yaml"; empty means by extension
	Watch     bool
}

// DocumentReport is the check result for one document.
type DocumentReport struct {
	Path       string   `json:"path"`
	Format     string   `json:"format,omitempty"`
	Hash       string   `json:"hash,omitempty"`
	GlobalKeys []string `json:"global_keys,omitempty"`
	Tests      int      `json:"tests"`
	Problems   []string `json:"problems,omitempty"`
	Error      string   `json:"error,omitempty"`
	Code       string   `json:"code,omitempty"`
}

// OK reports whether the document loaded and every case has the same shape.
func (r DocumentReport) OK() bool {
	return r.Error == "" && len(r.Problems) == 0
}

// CheckResult holds the reports for every checked document.
type CheckResult struct {
	Documents []DocumentReport `json:"documents"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Errors    int              `json:"errors"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <document>...",
		Short: "Load documents and verify their test cases",
		Long: `Load and parse each document, report its global keys and number of
test cases, and verify that every test case has the same keys with the
same value categories as the first one.

Exit codes:
  0 - All documents are consistent
  1 - One or more documents have inconsistent test cases
  2 - A document could not be found, read or parsed

Examples:
  kat check testdata/vectors.toml
  kat check testdata/*.yaml --doc-format yaml
  kat check testdata/vectors.toml --watch`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Watch {
				return watchCheck(opts, args, cmd)
			}
			_, err := runCheck(opts, args, cmd)
			return err
		},
	}

	cmd.Flags().StringVar(&opts.DocFormat, "doc-format", "", "document format (toml|yaml); default by extension")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "re-check when a document changes")

	return cmd
}

func runCheck(opts *CheckOptions, paths []string, cmd *cobra.Command) (CheckResult, error) {
	out := opts.formatter(cmd)
	logger := opts.logger(cmd.ErrOrStderr())

	result := CheckResult{Documents: make([]DocumentReport, 0, len(paths))}
	for _, path := range paths {
		out.VerboseLog("checking %s", path)
		report := checkDocument(path, opts.DocFormat, logger)
		result.Documents = append(result.Documents, report)

		switch {
		case report.Error != "":
			result.Errors++
		case len(report.Problems) > 0:
			result.Failed++
		default:
			result.Passed++
		}
	}

	if out.JSON() {
		if err := out.Success(result); err != nil {
			return result, err
		}
	} else {
		writeCheckText(out, result)
	}

	switch {
	case result.Errors > 0:
		return result, NewExitError(ExitCommandError, fmt.Sprintf("%d of %d documents could not be loaded", result.Errors, len(paths)))
	case result.Failed > 0:
		return result, NewExitError(ExitFailure, fmt.Sprintf("%d of %d documents have inconsistent test cases", result.Failed, len(paths)))
	}
	return result, nil
}

func checkDocument(path, formatName string, logger *slog.Logger) DocumentReport {
	report := DocumentReport{Path: path}

	h, doc, err := openDocument(path, formatName, logger)
	if h != nil && h.Path() != "" {
		report.Path = h.Path()
	}
	if err != nil {
		report.Error = err.Error()
		report.Code = errorCode(err)
		return report
	}

	format, _ := documentFormat(path, formatName)
	report.Format = format.Name()
	hash, err := value.Hash(h.Table())
	if err != nil {
		report.Error = err.Error()
		report.Code = CodeUsage
		return report
	}
	report.Hash = hash
	report.GlobalKeys = globalKeys(doc.Global)
	report.Tests = len(doc.Tests)
	report.Problems = shapeProblems(doc.Tests)
	return report
}

func writeCheckText(out *OutputFormatter, result CheckResult) {
	for _, r := range result.Documents {
		switch {
		case r.Error != "":
			out.Textf("✗ %s\n  %s\n", r.Path, r.Error)
		case len(r.Problems) > 0:
			out.Textf("✗ %s (%s): %d tests\n", r.Path, r.Format, r.Tests)
			for _, p := range r.Problems {
				out.Textf("  %s\n", p)
			}
		default:
			keys := "none"
			if len(r.GlobalKeys) > 0 {
				keys = strings.Join(r.GlobalKeys, ", ")
			}
			out.Textf("✓ %s (%s): %d tests, global keys: %s\n", r.Path, r.Format, r.Tests, keys)
		}
	}
	out.Textf("\n%d passed, %d failed, %d errors\n", result.Passed, result.Failed, result.Errors)
}
