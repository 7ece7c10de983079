// Package stepfile works on the raw text of a STEP (ISO 10303-21)
// exchange file. It locates the named ADVANCED_FACE entities, detects
// the declared length unit, and splices new name literals back into the
// original bytes. Everything else in the file is opaque to it: the
// package never parses the Part 21 grammar, which is what keeps the
// rewrite byte-exact outside the replaced spans.
package stepfile

import (
	"regexp"
	"strconv"
	"strings"
)

// entityPattern matches the head of an ADVANCED_FACE record: the
// numeric entity id, the type tag, and the quoted name literal that is
// its first argument.
var entityPattern = regexp.MustCompile(`(?i)#(\d+)\s*=\s*ADVANCED_FACE\s*\(\s*'([^']*)'`)

// Entity is one named-face record found in the text, in file order.
// It is immutable once scanned; the patcher consumes Offset and Match
// to build replacements.
type Entity struct {
	ID     int    // numeric entity id (#123)
	Name   string // raw name literal, possibly empty or a placeholder
	Offset int    // byte offset of the match in the file
	Match  string // exact matched span text
}

// Named returns the entity's display name. Empty literals and the
// common 'NONE' placeholder both mean unnamed.
func (e Entity) Named() (string, bool) {
	if e.Name == "" || strings.EqualFold(e.Name, "NONE") {
		return "", false
	}
	return e.Name, true
}

// ScanEntities finds every ADVANCED_FACE entity in a single pass and
// returns them in file order.
func ScanEntities(content []byte) []Entity {
	var entities []Entity
	for _, m := range entityPattern.FindAllSubmatchIndex(content, -1) {
		id, err := strconv.Atoi(string(content[m[2]:m[3]]))
		if err != nil {
			continue
		}
		entities = append(entities, Entity{
			ID:     id,
			Name:   string(content[m[4]:m[5]]),
			Offset: m[0],
			Match:  string(content[m[0]:m[1]]),
		})
	}
	return entities
}
