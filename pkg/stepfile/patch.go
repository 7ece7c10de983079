package stepfile

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// firstLiteral matches the first quoted string inside a matched span.
var firstLiteral = regexp.MustCompile(`'[^']*'`)

// Edit replaces Length bytes at Offset with Replacement.
type Edit struct {
	Offset      int
	Length      int
	Replacement string
}

// RenameEdits builds the edits that substitute new name literals into
// the given entities. names maps a zero-based face index to its final
// name; indices beyond the entity list are silently skipped, since
// there is no record to patch. Only the first quoted literal of each
// matched span changes; the entity id and type tag stay identical.
//
// Names containing an apostrophe are rejected: Part 21 escapes them by
// doubling, and emitting one unescaped would corrupt the record.
func RenameEdits(entities []Entity, names map[int]string) ([]Edit, error) {
	edits := make([]Edit, 0, len(names))
	for faceID, name := range names {
		if faceID < 0 || faceID >= len(entities) {
			continue
		}
		if strings.ContainsRune(name, '\'') {
			return nil, fmt.Errorf("stepfile: name %q contains an apostrophe", name)
		}
		e := entities[faceID]
		loc := firstLiteral.FindStringIndex(e.Match)
		if loc == nil {
			continue
		}
		replaced := e.Match[:loc[0]] + "'" + name + "'" + e.Match[loc[1]:]
		edits = append(edits, Edit{
			Offset:      e.Offset,
			Length:      len(e.Match),
			Replacement: replaced,
		})
	}
	return edits, nil
}

// ApplyEdits returns a copy of content with all edits applied. Edits
// are applied in descending offset order so a replacement never shifts
// the offsets of edits not yet applied.
func ApplyEdits(content []byte, edits []Edit) []byte {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Offset > sorted[j].Offset })

	out := make([]byte, len(content))
	copy(out, content)
	for _, e := range sorted {
		var next []byte
		next = append(next, out[:e.Offset]...)
		next = append(next, e.Replacement...)
		next = append(next, out[e.Offset+e.Length:]...)
		out = next
	}
	return out
}
