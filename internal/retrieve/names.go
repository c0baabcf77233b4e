// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"strconv"
	"strings"

	"github.com/pdiddy/pdf-roundup/internal/fetch"
)

// unsafeChars are replaced in file names; they are path separators or are
// rejected by common filesystems.
var unsafeChars = strings.NewReplacer(
	"/", "_", `\`, "_", ":", "_", "*", "_", "?", "_",
	`"`, "_", "<", "_", ">", "_", "|", "_",
)

// Slug returns a filesystem-safe file stem for an identifier.
func Slug(identifier string) string {
	s := unsafeChars.Replace(strings.TrimSpace(identifier))
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, s)
	s = strings.Trim(s, " .")
	if s == "" {
		return "unnamed"
	}
	return s
}

// WorkNames assigns a distinct file name to every identifier, in order. The
// first occurrence of a stem keeps it; later ones get _2, _3, and so on.
// Names are compared case-insensitively so they stay distinct on
// case-insensitive filesystems and inside archives.
func WorkNames(identifiers []string) []string {
	names := make([]string, len(identifiers))
	used := make(map[string]bool, len(identifiers))
	for i, id := range identifiers {
		stem := Slug(id)
		name := stem + fetch.Extension
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = stem + "_" + strconv.Itoa(n) + fetch.Extension
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}
