// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	aqtable "github.com/aquasecurity/table"
	"github.com/aquasecurity/tml"
	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/bonial-oss/gtfo-suid/internal/types"
)

// TableConfig controls table rendering.
type TableConfig struct {
	IsTerminal bool // true when output goes to a terminal (enables ANSI styling)
}

// IsOutputToTerminal returns true if the writer is stdout connected to a
// character device (TTY).
func IsOutputToTerminal(output io.Writer) bool {
	return output == os.Stdout && term.IsTerminal(int(os.Stdout.Fd()))
}

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// bitsColors highlights the special permission bits.
var bitsColors = map[string]func(a ...any) string{
	"SUID":      color.New(color.FgHiRed).SprintFunc(),
	"SGID":      color.New(color.FgYellow).SprintFunc(),
	"SUID+SGID": color.New(color.FgRed).SprintFunc(),
}

// WriteTable writes matches as a bordered table with a title line. Rows
// sharing a binary name are merged.
func WriteTable(w io.Writer, matches []types.Match, cfg TableConfig) error {
	if len(matches) == 0 {
		return WriteNothingFound(w)
	}

	writeTitle(w, fmt.Sprintf("Gotchu SUID (Total: %d)", len(matches)), cfg.IsTerminal)

	tw := newTableWriter(w, cfg.IsTerminal)
	tw.SetHeaders("Binary", "Path", "Mode", "Reference")
	for i := range matches {
		tw.AddRow(rowCells(&matches[i], cfg)...)
	}
	tw.Render()
	return nil
}

// writeTitle writes an underlined heading.
func writeTitle(w io.Writer, title string, isTerminal bool) {
	if isTerminal {
		_ = tml.Fprintf(w, "<underline><bold>%s</bold></underline>\n\n", title)
		return
	}
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, strings.Repeat("=", utf8.RuneCountInString(title)))
	fmt.Fprintln(w)
}

// newTableWriter creates a table writer with borders, auto-merge and row
// separators. When isTerminal is true, header and line styles use ANSI
// formatting.
func newTableWriter(w io.Writer, isTerminal bool) *aqtable.Table {
	tw := aqtable.New(w)
	if isTerminal {
		tw.SetHeaderStyle(aqtable.StyleBold)
		tw.SetLineStyle(aqtable.StyleDim)
	}
	tw.SetBorders(true)
	tw.SetAutoMerge(true)
	tw.SetRowLines(true)
	return tw
}

func rowCells(m *types.Match, cfg TableConfig) []string {
	bits := formatBits(m.Bits)
	url := m.URL
	if cfg.IsTerminal {
		bits = colorizeBits(bits)
		url = tml.Sprintf("<blue>%s</blue>", url)
	}
	return []string{m.Name, m.Path, bits, url}
}

// formatBits returns the mode label or "-" when unknown.
func formatBits(bits string) string {
	if bits == "" {
		return "-"
	}
	return bits
}

func colorizeBits(bits string) string {
	if fn, ok := bitsColors[bits]; ok {
		return fn(bits)
	}
	return bits
}
