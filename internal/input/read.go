// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package input

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// ErrEmpty is returned when the catalog input has no content.
var ErrEmpty = errors.New("no catalog input provided")

// Read returns the content of a saved catalog page. The path "-" reads from
// stdin instead of the filesystem.
func Read(path string, stdin io.Reader) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if path == Stdin {
		if stdin == nil {
			return nil, fmt.Errorf("reading stdin: %w", ErrEmpty)
		}
		data, err = io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
	} else {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog file: %w", err)
		}
	}

	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}
