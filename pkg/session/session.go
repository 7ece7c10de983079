// Package session owns the labeling state for one loaded STEP file: the
// raw text, its named-face entities, the kernel shape and the per-face
// metadata derived from both. Load, query, assignment and export are
// methods on an explicit session value owned by the caller; there is no
// process-wide state. The session is single-threaded by contract;
// callers serialize access.
package session

import (
	"os"
	"path/filepath"

	"github.com/chazu/steplab/pkg/kernel"
	"github.com/chazu/steplab/pkg/stepfile"
	"github.com/chazu/steplab/pkg/tessellate"
)

// Default deflection tolerances for tessellation, in kernel units (mm)
// and radians.
const (
	DefaultLinearDeflection  = 0.1
	DefaultAngularDeflection = 0.5
)

// LoadInfo summarizes a successful load. CountMismatch flags a face
// count that differs from the named-entity count: the positional
// face-to-entity correspondence is assumed, not verified, and a
// mismatch means existing names may not line up.
type LoadInfo struct {
	NumFaces        int     `json:"num_faces"`
	NumStepEntities int     `json:"num_step_entities"`
	LengthUnit      string  `json:"length_unit"`
	LengthScale     float64 `json:"length_scale"`
	CountMismatch   bool    `json:"count_mismatch,omitempty"`
}

// Session processes one STEP file at a time: read, extract metadata,
// tessellate, assign names, export. A new Load discards and replaces
// all previous state.
type Session struct {
	kern kernel.Kernel

	path     string
	content  []byte
	shape    kernel.Shape
	entities []stepfile.Entity
	unit     stepfile.Unit
	records  []FaceRecord
	features Features
}

// New returns an empty session bound to a geometry kernel.
func New(kern kernel.Kernel) *Session {
	return &Session{kern: kern}
}

// Load reads the file's raw text, indexes its named-face entities and
// length unit, loads the B-rep through the kernel and extracts one
// metadata record per face, pairing face i with entity i.
func (s *Session) Load(path string) (LoadInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return LoadInfo{}, &LoadError{Path: path, Err: err}
	}

	shape, err := s.kern.Load(path)
	if err != nil {
		return LoadInfo{}, &LoadError{Path: path, Err: err}
	}

	entities := stepfile.ScanEntities(content)
	unit := stepfile.DetectUnit(content)

	faces := shape.Faces()
	records := make([]FaceRecord, len(faces))
	for i, face := range faces {
		records[i] = extractRecord(face, i, entities)
	}

	// Previous shape, text, metadata and assignment are all replaced.
	s.path = path
	s.content = content
	s.shape = shape
	s.entities = entities
	s.unit = unit
	s.records = records
	s.features = nil

	return LoadInfo{
		NumFaces:        len(faces),
		NumStepEntities: len(entities),
		LengthUnit:      unit.Symbol,
		LengthScale:     unit.Scale,
		CountMismatch:   len(faces) != len(entities),
	}, nil
}

// Loaded reports whether a file has been successfully loaded.
func (s *Session) Loaded() bool {
	return s.shape != nil
}

// Path returns the loaded file's path, empty before a load.
func (s *Session) Path() string {
	return s.path
}

// Unit returns the detected length unit of the loaded file.
func (s *Session) Unit() stepfile.Unit {
	return s.unit
}

// Faces returns the metadata records for all faces in index order.
func (s *Session) Faces() ([]FaceRecord, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	out := make([]FaceRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

// Face returns the metadata record for one face.
func (s *Session) Face(id int) (FaceRecord, error) {
	if !s.Loaded() {
		return FaceRecord{}, ErrNotLoaded
	}
	if id < 0 || id >= len(s.records) {
		return FaceRecord{}, ErrFaceNotFound
	}
	return s.records[id], nil
}

// Mesh tessellates the loaded shape within the given deflections and
// assembles the per-face triangulations into one indexed mesh.
func (s *Session) Mesh(linearDeflection, angularDeflection float64) (*kernel.Mesh, error) {
	if !s.Loaded() {
		return nil, ErrNotLoaded
	}
	mesh, err := tessellate.Assemble(s.shape, linearDeflection, angularDeflection)
	if err != nil {
		return nil, &KernelError{Op: "tessellate", Err: err}
	}
	return mesh, nil
}

// SetFeatures replaces the session's feature assignment wholesale and
// attaches the resolved names to the face records. Faces dropped from
// the assignment lose their assigned name.
func (s *Session) SetFeatures(features Features) error {
	if !s.Loaded() {
		return ErrNotLoaded
	}
	s.features = features

	flat := features.flatten()
	for i := range s.records {
		if a, ok := flat[i]; ok {
			name, feature := a.name, a.feature
			s.records[i].Name = &name
			s.records[i].Feature = &feature
		} else {
			s.records[i].Name = nil
			s.records[i].Feature = nil
		}
	}
	return nil
}

// Features returns the stored feature assignment.
func (s *Session) Features() Features {
	return s.features
}

// ExportName derives the output filename: <stem>_named<ext>.
func (s *Session) ExportName() (string, error) {
	if !s.Loaded() {
		return "", ErrNotLoaded
	}
	base := filepath.Base(s.path)
	ext := filepath.Ext(base)
	stem := base[:len(base)-len(ext)]
	return stem + "_named" + ext, nil
}

// Export writes the original text with the assignment's names patched
// into the named-face entity spans, everything else byte-identical.
// A nil or empty features argument falls back to the stored assignment.
// Face ids beyond the entity list are silently skipped; there is no
// record to patch for them.
func (s *Session) Export(features Features, outPath string) error {
	if !s.Loaded() {
		return ErrNotLoaded
	}
	if len(features) == 0 {
		features = s.features
	}
	names := features.FaceNames()
	if len(names) == 0 {
		return ErrNoAssignment
	}

	edits, err := stepfile.RenameEdits(s.entities, names)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, stepfile.ApplyEdits(s.content, edits), 0o644)
}
