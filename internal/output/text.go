// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/aquasecurity/tml"
	"github.com/fatih/color"

	"github.com/bonial-oss/gtfo-suid/internal/types"
)

const (
	matchHeader  = "\nGotchu SUID\n-----------------\n"
	matchFooter  = "\nHappy Hack Day ^-^\n"
	nothingFound = "\n---------------------------------------------\nThere is nothing here :(\n"
	arrow        = " -------> "
)

// bannerLines keep their trailing spaces; the banner is printed verbatim.
var bannerLines = []string{
	"",
	`    ___________              .__        __    `,
	`    \_   _____/__  __________|__|______/  |_  `,
	`     |    __)_\  \/  /\_  __ \  \____ \   __\ `,
	`     |        \>    <  |  | \/  |  |_> >  |   `,
	`    /_______  /__/\_ \ |__|  |__|   __/|__|   `,
	`            \/      \/          |__|          `,
	"    ",
}

// TextConfig controls the plain text renderer.
type TextConfig struct {
	// NameWidth is the column width names are padded to, in runes.
	NameWidth  int
	IsTerminal bool // enables ANSI styling
}

var (
	bannerColor = color.New(color.FgCyan).SprintFunc()
	nameColor   = color.New(color.FgRed, color.Bold).SprintFunc()
)

// WriteBanner writes the ASCII banner followed by a blank line.
func WriteBanner(w io.Writer, isTerminal bool) error {
	banner := strings.Join(bannerLines, "\n") + "\n"
	if isTerminal {
		banner = bannerColor(banner)
	}
	_, err := io.WriteString(w, banner)
	return err
}

// WriteNothingFound writes the message shown when no match was produced,
// whatever the reason.
func WriteNothingFound(w io.Writer) error {
	_, err := io.WriteString(w, nothingFound)
	return err
}

// WriteText writes one "name -------> url" line per match, names padded to
// cfg.NameWidth. An empty slice is rendered as the nothing-found message.
func WriteText(w io.Writer, matches []types.Match, cfg TextConfig) error {
	if len(matches) == 0 {
		return WriteNothingFound(w)
	}

	var sb strings.Builder
	if cfg.IsTerminal {
		sb.WriteString(tml.Sprintf("\n<bold>Gotchu SUID</bold>\n-----------------\n"))
	} else {
		sb.WriteString(matchHeader)
	}
	for _, m := range matches {
		sb.WriteString(formatRow(m, cfg))
	}
	sb.WriteString(matchFooter)

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("writing text output: %w", err)
	}
	return nil
}

// formatRow pads before styling so escape sequences do not count towards
// the column width.
func formatRow(m types.Match, cfg TextConfig) string {
	name := padRight(m.Name, cfg.NameWidth)
	url := m.URL
	if cfg.IsTerminal {
		name = nameColor(name)
		url = tml.Sprintf("<blue>%s</blue>", url)
	}
	return name + arrow + url + "\n"
}

// padRight left-justifies s to width runes, leaving longer strings intact.
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
