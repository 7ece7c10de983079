package stepfile

import (
	"strings"
	"testing"
)

// sample is a trimmed but structurally faithful Part 21 file with three
// ADVANCED_FACE entities: two unnamed placeholders and one named TOP.
const sample = `ISO-10303-21;
HEADER;
FILE_DESCRIPTION(('bracket'),'2;1');
FILE_NAME('bracket.step','2024-11-02T10:15:00',(''),(''),'writer','','');
FILE_SCHEMA(('AUTOMOTIVE_DESIGN { 1 0 10303 214 1 1 1 1 }'));
ENDSEC;
DATA;
#10 = SHAPE_REPRESENTATION('',(#11),#30);
#12 = ADVANCED_FACE('',(#13),#14,.T.);
#15 = ADVANCED_FACE('NONE',(#16),#17,.F.);
#18 = ADVANCED_FACE('TOP',(#19),#20,.T.);
#30 = ( GEOMETRIC_REPRESENTATION_CONTEXT(3)
GLOBAL_UNIT_ASSIGNED_CONTEXT((#31,#32,#33)) );
#31 = ( LENGTH_UNIT() NAMED_UNIT(*) SI_UNIT(.MILLI.,.METRE.) );
ENDSEC;
END-ISO-10303-21;
`

func TestScanEntities(t *testing.T) {
	entities := ScanEntities([]byte(sample))
	if len(entities) != 3 {
		t.Fatalf("expected 3 entities, got %d", len(entities))
	}

	wantIDs := []int{12, 15, 18}
	wantNames := []string{"", "NONE", "TOP"}
	for i, e := range entities {
		if e.ID != wantIDs[i] {
			t.Errorf("entity %d: id = %d, want %d", i, e.ID, wantIDs[i])
		}
		if e.Name != wantNames[i] {
			t.Errorf("entity %d: name = %q, want %q", i, e.Name, wantNames[i])
		}
		if got := sample[e.Offset : e.Offset+len(e.Match)]; got != e.Match {
			t.Errorf("entity %d: offset/span disagree: %q vs %q", i, got, e.Match)
		}
	}
}

func TestScanEntitiesTolerantSyntax(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantID  int
		want    string
	}{
		{"lowercase tag", `#7=advanced_face('side',(#1),#2,.T.);`, 7, "side"},
		{"extra whitespace", "#8  =  ADVANCED_FACE (  'cap'", 8, "cap"},
		{"no entities", `#9 = CLOSED_SHELL('',(#1));`, 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entities := ScanEntities([]byte(tt.content))
			if tt.wantID == 0 {
				if len(entities) != 0 {
					t.Fatalf("expected no entities, got %d", len(entities))
				}
				return
			}
			if len(entities) != 1 {
				t.Fatalf("expected 1 entity, got %d", len(entities))
			}
			if entities[0].ID != tt.wantID || entities[0].Name != tt.want {
				t.Errorf("got id=%d name=%q, want id=%d name=%q",
					entities[0].ID, entities[0].Name, tt.wantID, tt.want)
			}
		})
	}
}

func TestEntityNamed(t *testing.T) {
	tests := []struct {
		literal string
		want    string
		ok      bool
	}{
		{"", "", false},
		{"NONE", "", false},
		{"none", "", false},
		{"None", "", false},
		{"TOP", "TOP", true},
		{"boss.top", "boss.top", true},
	}
	for _, tt := range tests {
		t.Run("literal "+tt.literal, func(t *testing.T) {
			name, ok := Entity{Name: tt.literal}.Named()
			if name != tt.want || ok != tt.ok {
				t.Errorf("Named() = (%q, %v), want (%q, %v)", name, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestDetectUnit(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Unit
	}{
		{
			"millimeter prefix",
			`SI_UNIT(.MILLI.,.METRE.)`,
			Unit{"mm", 1.0},
		},
		{
			"centimeter prefix",
			`SI_UNIT(.CENTI.,.METRE.)`,
			Unit{"cm", 0.1},
		},
		{
			"kilometer prefix",
			`SI_UNIT(.KILO.,.METRE.)`,
			Unit{"km", 0.000001},
		},
		{
			"bare meter",
			`SI_UNIT($,.METRE.)`,
			Unit{"m", 0.001},
		},
		{
			"inch conversion",
			`CONVERSION_BASED_UNIT('INCH',#42)`,
			Unit{"in", 1.0 / 25.4},
		},
		{
			"foot conversion",
			`CONVERSION_BASED_UNIT('FOOT',#42)`,
			Unit{"ft", 1.0 / 304.8},
		},
		{
			"conversion beats SI",
			"CONVERSION_BASED_UNIT('INCH',#42)\nSI_UNIT(.MILLI.,.METRE.)",
			Unit{"in", 1.0 / 25.4},
		},
		{
			"conversion beats SI regardless of order",
			"SI_UNIT(.MILLI.,.METRE.)\nCONVERSION_BASED_UNIT('MILE',#42)",
			Unit{"mi", 1.0 / 1609344.0},
		},
		{
			"unknown conversion unit passes through",
			`CONVERSION_BASED_UNIT('FURLONG',#42)`,
			Unit{"furlong", 1.0},
		},
		{
			"unknown SI prefix falls back to meter",
			`SI_UNIT(.MEGA.,.METRE.)`,
			Unit{"m", 0.001},
		},
		{
			"lowercase declarations",
			`si_unit(.milli.,.metre.)`,
			Unit{"mm", 1.0},
		},
		{
			"no declaration defaults to millimeter",
			`DATA; #1 = CLOSED_SHELL(); ENDSEC;`,
			Unit{"mm", 1.0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectUnit([]byte(tt.content))
			if got != tt.want {
				t.Errorf("DetectUnit() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestRenameEdits(t *testing.T) {
	content := []byte(sample)
	entities := ScanEntities(content)

	edits, err := RenameEdits(entities, map[int]string{
		0: "boss.top",
		1: "boss",
		5: "ghost", // beyond the entity list: skipped
	})
	if err != nil {
		t.Fatalf("RenameEdits() error: %v", err)
	}
	if len(edits) != 2 {
		t.Fatalf("expected 2 edits, got %d", len(edits))
	}

	patched := string(ApplyEdits(content, edits))
	if !strings.Contains(patched, "#12 = ADVANCED_FACE('boss.top',") {
		t.Error("entity 0 literal not replaced with boss.top")
	}
	if !strings.Contains(patched, "#15 = ADVANCED_FACE('boss',") {
		t.Error("entity 1 literal not replaced with boss")
	}
	if !strings.Contains(patched, "#18 = ADVANCED_FACE('TOP',") {
		t.Error("unassigned entity 2 literal was modified")
	}
}

func TestRenameEditsRejectsApostrophe(t *testing.T) {
	entities := ScanEntities([]byte(sample))
	if _, err := RenameEdits(entities, map[int]string{0: "it's"}); err == nil {
		t.Fatal("RenameEdits() = nil error for name with apostrophe")
	}
}

// Bytes outside the replaced spans must survive byte-for-byte, even
// when replacements change span lengths.
func TestApplyEditsRoundTrip(t *testing.T) {
	content := []byte(sample)
	entities := ScanEntities(content)

	edits, err := RenameEdits(entities, map[int]string{
		0: "a_much_longer_name_than_before",
		1: "x",
		2: "middle",
	})
	if err != nil {
		t.Fatalf("RenameEdits() error: %v", err)
	}
	patched := ApplyEdits(content, edits)

	// Reconstruct what the original should look like by renaming back.
	reverted := ApplyEdits(patched, mustEdits(t, ScanEntities(patched), map[int]string{
		0: "", 1: "NONE", 2: "TOP",
	}))
	if string(reverted) != sample {
		t.Error("patch-then-revert did not reproduce the original bytes")
	}
}

// Applying the same edits twice from the same source must be identical.
func TestApplyEditsDeterministic(t *testing.T) {
	content := []byte(sample)
	entities := ScanEntities(content)
	edits, err := RenameEdits(entities, map[int]string{0: "a", 1: "b", 2: "c"})
	if err != nil {
		t.Fatalf("RenameEdits() error: %v", err)
	}

	first := ApplyEdits(content, edits)
	second := ApplyEdits(content, edits)
	if string(first) != string(second) {
		t.Error("repeated ApplyEdits produced different output")
	}
}

func TestApplyEditsDoesNotMutateInput(t *testing.T) {
	content := []byte(sample)
	entities := ScanEntities(content)
	edits, err := RenameEdits(entities, map[int]string{0: "changed"})
	if err != nil {
		t.Fatalf("RenameEdits() error: %v", err)
	}
	_ = ApplyEdits(content, edits)
	if string(content) != sample {
		t.Error("ApplyEdits mutated its input buffer")
	}
}

func mustEdits(t *testing.T, entities []Entity, names map[int]string) []Edit {
	t.Helper()
	edits, err := RenameEdits(entities, names)
	if err != nil {
		t.Fatalf("RenameEdits() error: %v", err)
	}
	return edits
}
