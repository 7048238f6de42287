// SPDX-FileCopyrightText: 2026 Bonial International GmbH
// SPDX-License-Identifier: Apache-2.0

package types

import "io/fs"

// CatalogEntry is a binary listed in the GTFOBins catalog together with the
// page documenting its setuid exploitation path.
type CatalogEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// PrivilegedFile is a regular file carrying the setuid or setgid bit.
type PrivilegedFile struct {
	Path string      `json:"path"`
	Mode fs.FileMode `json:"-"`
}

// Bits returns a short label for the special permission bits of the file:
// "SUID", "SGID" or "SUID+SGID".
func (f PrivilegedFile) Bits() string {
	suid := f.Mode&fs.ModeSetuid != 0
	sgid := f.Mode&fs.ModeSetgid != 0
	switch {
	case suid && sgid:
		return "SUID+SGID"
	case suid:
		return "SUID"
	case sgid:
		return "SGID"
	default:
		return ""
	}
}

// Match pairs a catalog entry with the local file whose basename equals the
// entry name.
type Match struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Path string `json:"path"`
	Bits string `json:"bits,omitempty"`
}
