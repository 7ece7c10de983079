package session

import "sort"

// Member is one face belonging to a feature, with an optional sub-name
// distinguishing it from the feature's other faces. An empty SubName
// means none.
type Member struct {
	FaceID  int    `json:"face_id" yaml:"face_id"`
	SubName string `json:"sub_name,omitempty" yaml:"sub_name,omitempty"`
}

// Features maps a feature name to its ordered member faces. It is
// supplied wholesale by the caller (replace-all, not a patch); the core
// only consumes it to produce a face -> name mapping.
type Features map[string][]Member

// assignment is the resolved naming for one face.
type assignment struct {
	name    string
	feature string
}

// flatten resolves the assignment to one final name per face: the
// feature name alone, or feature.sub for members with a sub-name.
// Feature names are visited in sorted order so that last-write-wins
// collisions resolve deterministically; members keep caller order
// within a feature.
func (f Features) flatten() map[int]assignment {
	out := make(map[int]assignment)
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, feature := range names {
		for _, m := range f[feature] {
			full := feature
			if m.SubName != "" {
				full = feature + "." + m.SubName
			}
			out[m.FaceID] = assignment{name: full, feature: feature}
		}
	}
	return out
}

// FaceNames resolves the assignment to the face -> final-name mapping
// the patcher consumes.
func (f Features) FaceNames() map[int]string {
	flat := f.flatten()
	out := make(map[int]string, len(flat))
	for id, a := range flat {
		out[id] = a.name
	}
	return out
}
