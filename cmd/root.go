// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/bonial-oss/gtfo-suid/internal/datasource/gtfobins"
	"github.com/bonial-oss/gtfo-suid/internal/input"
	"github.com/bonial-oss/gtfo-suid/internal/matcher"
	"github.com/bonial-oss/gtfo-suid/internal/output"
	"github.com/bonial-oss/gtfo-suid/internal/scanner"
	"github.com/bonial-oss/gtfo-suid/internal/types"
)

// Version is set at build time via ldflags.
var Version = "dev"

// ExitError signals a non-zero exit code with an optional message.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string { return e.Message }

// Options holds all CLI flag values.
type Options struct {
	URL         string
	CatalogFile string
	Root        string
	Workers     int
	Exclude     []string
	Timeout     time.Duration
	Format      string
	Output      string
	Unique      bool
	NoBanner    bool
	Progress    string
	FailOnMatch bool
	Verbose     bool
}

// streams carries the command's standard I/O so tests can capture it.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// NewRootCommand creates the root cobra command with all flags.
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	cmd := &cobra.Command{
		Use:     "gtfo-suid",
		Short:   "List local setuid/setgid binaries that GTFOBins documents as escalation vectors",
		Version: Version,
		Long: `gtfo-suid scrapes the GTFOBins index for binaries with a setuid
exploitation path, walks the local filesystem for regular files carrying the
setuid or setgid bit, and prints every file whose name matches a catalog
entry together with its reference page.

Usage:
  gtfo-suid
  gtfo-suid --root /usr --workers 8 --format table
  curl -s https://gtfobins.github.io/ | gtfo-suid --catalog-file -`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(c *cobra.Command, _ []string) error {
			return run(c.Context(), opts, streams{
				in:  c.InOrStdin(),
				out: c.OutOrStdout(),
				err: c.ErrOrStderr(),
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.URL, "url", gtfobins.DefaultBaseURL, "Catalog base URL")
	flags.StringVar(&opts.CatalogFile, "catalog-file", "", "Read the catalog page from a file instead of fetching it (- for stdin)")
	flags.StringVar(&opts.Root, "root", scanner.DefaultRoot, "Directory to scan")
	flags.IntVar(&opts.Workers, "workers", 1, "Number of directories read concurrently")
	flags.StringArrayVar(&opts.Exclude, "exclude", nil, "Glob of paths to skip while scanning (repeatable)")
	flags.DurationVar(&opts.Timeout, "timeout", 60*time.Second, "HTTP timeout for the catalog request")
	flags.StringVar(&opts.Format, "format", "text", "Output format: text, table, json")
	flags.StringVarP(&opts.Output, "output", "o", "", "Write to file instead of stdout")
	flags.BoolVar(&opts.Unique, "unique", false, "Report each catalog entry once, even if several files share its name")
	flags.BoolVar(&opts.NoBanner, "no-banner", false, "Do not print the banner")
	flags.StringVar(&opts.Progress, "progress", "auto", "Scan spinner on stderr: auto, always, never")
	flags.BoolVar(&opts.FailOnMatch, "fail-on-match", false, "Exit code 1 if any match is found")
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "Print catalog and scan statistics to stderr")

	return cmd
}

func validate(opts *Options) error {
	switch opts.Format {
	case "text", "table", "json":
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unsupported output format: %s", opts.Format)}
	}
	switch opts.Progress {
	case "auto", "always", "never":
	default:
		return &ExitError{Code: 2, Message: fmt.Sprintf("unsupported progress mode: %s", opts.Progress)}
	}
	if opts.Workers < 1 {
		return &ExitError{Code: 2, Message: fmt.Sprintf("--workers must be at least 1, got %d", opts.Workers)}
	}
	if opts.Timeout <= 0 {
		return &ExitError{Code: 2, Message: "--timeout must be positive"}
	}
	return nil
}

// run orchestrates the fetch, scan, match and render pipeline. Fetch and
// scan failures are reported as warnings and end in the nothing-found
// outcome; the scan is skipped when the catalog is empty.
func run(ctx context.Context, opts *Options, s streams) error {
	if err := validate(opts); err != nil {
		return err
	}

	// Determine output writer. File output is buffered and only written once
	// the run completes, so an interrupted run leaves no file behind.
	var (
		w       = s.out
		fileBuf *bytes.Buffer
	)
	if opts.Output != "" && opts.Output != "-" {
		fileBuf = &bytes.Buffer{}
		w = fileBuf
	}
	isTerminal := output.IsOutputToTerminal(w)

	if opts.Format != "json" && !opts.NoBanner {
		if err := output.WriteBanner(w, isTerminal); err != nil {
			return fmt.Errorf("writing banner: %w", err)
		}
	}

	source := gtfobins.NewSource(gtfobins.Config{BaseURL: opts.URL, Timeout: opts.Timeout})
	catalog, err := loadCatalog(ctx, source, opts.CatalogFile, s.in)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return &ExitError{Code: 130, Message: "interrupted"}
		}
		warn(s.err, "%v", err)
		catalog = nil
	}
	if opts.Verbose {
		fmt.Fprintf(s.err, "catalog: %d entries from %s\n", len(catalog), source.PageURL())
	}

	var files []types.PrivilegedFile
	if len(catalog) > 0 {
		files, err = scan(ctx, opts, s.err)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return &ExitError{Code: 130, Message: "interrupted"}
			}
			warn(s.err, "%v", err)
			files = nil
		}
	}

	result := matcher.Match(catalog, files, matcher.Config{Dedupe: opts.Unique})

	switch opts.Format {
	case "text":
		err = output.WriteText(w, result.Matches, output.TextConfig{
			NameWidth:  result.NameWidth,
			IsTerminal: isTerminal,
		})
	case "table":
		err = output.WriteTable(w, result.Matches, output.TableConfig{IsTerminal: isTerminal})
	case "json":
		err = output.WriteJSON(w, &output.Report{
			Catalog: source.PageURL(),
			Root:    opts.Root,
			Matches: result.Matches,
		})
	}
	if err != nil {
		return err
	}

	if fileBuf != nil {
		if err := os.WriteFile(opts.Output, fileBuf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("writing output file: %w", err)
		}
	}

	if opts.FailOnMatch && !result.Empty() {
		return &ExitError{Code: 1, Message: fmt.Sprintf("%d privileged catalog binaries found", len(result.Matches))}
	}
	return nil
}

// loadCatalog fetches the catalog, or parses a saved copy when path is set.
func loadCatalog(ctx context.Context, source *gtfobins.Source, path string, stdin io.Reader) ([]types.CatalogEntry, error) {
	if path == "" {
		return source.Fetch(ctx)
	}
	data, err := input.Read(path, stdin)
	if err != nil {
		return nil, err
	}
	return source.Parse(bytes.NewReader(data))
}

// scan walks opts.Root, showing a spinner on stderr when enabled.
func scan(ctx context.Context, opts *Options, errW io.Writer) ([]types.PrivilegedFile, error) {
	cfg := scanner.Config{
		Root:    opts.Root,
		Workers: opts.Workers,
		Exclude: opts.Exclude,
	}

	var bar *progressbar.ProgressBar
	if showProgress(opts.Progress, errW) {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(errW),
			progressbar.OptionSetDescription("scanning"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("dirs"),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
		cfg.OnDir = func(string) { _ = bar.Add(1) }
	}

	s := scanner.New(cfg)
	files, err := s.Scan(ctx)
	if bar != nil {
		_ = bar.Finish()
	}

	if opts.Verbose {
		stats := s.Stats()
		fmt.Fprintf(errW, "scan: %d directories, %d files, %d privileged, %d skipped on error\n",
			stats.Dirs(), stats.Files(), stats.Privileged(), stats.Errors())
	}
	return files, err
}

func showProgress(mode string, errW io.Writer) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	f, ok := errW.(*os.File)
	return ok && output.IsTerminal(f)
}

var warnColor = color.New(color.FgYellow).SprintFunc()

// warn writes a diagnostic line to w.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "%s %s\n", warnColor("warning:"), fmt.Sprintf(format, args...))
}
