// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/bonial-oss/gtfo-suid/internal/types"
)

// Report is the machine-readable result of a run.
type Report struct {
	Catalog string        `json:"catalog"`
	Root    string        `json:"root"`
	Matches []types.Match `json:"matches"`
}

// WriteJSON writes report as indented JSON. A nil match list is written as
// an empty array.
func WriteJSON(w io.Writer, report *Report) error {
	out := *report
	if out.Matches == nil {
		out.Matches = []types.Match{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
