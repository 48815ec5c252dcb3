package layout

import (
	"reflect"
	"testing"
)

func newTestExtractor() *Extractor {
	return NewExtractor(DefaultTolerances())
}

// weekPage is the reference fixture: a Monday morning cell in the "Label:
// Value" single-fragment variant plus a "Label:" / value two-fragment variant
// for the module.
func weekPage() []Fragment {
	return []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30 -------> 11H", X: 50, Y: 20},
		{Text: "FORMATEUR : Ahmed", X: 55, Y: 100},
		{Text: "SALLE : B12", X: 55, Y: 110},
		{Text: "MODULE :", X: 55, Y: 120},
		{Text: "Algorithmique", X: 120, Y: 120},
	}
}

func TestExtract_SingleCell(t *testing.T) {
	slots := newTestExtractor().Extract(weekPage())
	want := []Slot{{
		Day:     "Lundi",
		Time:    "08:30 - 11:00",
		Teacher: "Ahmed",
		Room:    "B12",
		Module:  "Algorithmique",
	}}
	if !reflect.DeepEqual(slots, want) {
		t.Errorf("expected %+v, got %+v", want, slots)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	e := newTestExtractor()
	first := e.Extract(weekPage())
	for i := 0; i < 5; i++ {
		again := e.Extract(weekPage())
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differed: %+v vs %+v", i, first, again)
		}
	}
}

func TestExtract_NoAnchors(t *testing.T) {
	frags := []Fragment{
		{Text: "Centre de formation", X: 10, Y: 10},
		{Text: "Page 1", X: 10, Y: 800},
	}
	if slots := newTestExtractor().Extract(frags); len(slots) != 0 {
		t.Errorf("expected no slots without anchors, got %+v", slots)
	}
}

func TestExtract_EmptyInput(t *testing.T) {
	if slots := newTestExtractor().Extract(nil); len(slots) != 0 {
		t.Errorf("expected no slots for empty page, got %+v", slots)
	}
}

func TestExtract_EmptyCellSuppressed(t *testing.T) {
	// Anchors exist but nothing falls inside the cell window: no slot at all,
	// not a slot with all fields missing.
	frags := []Fragment{
		{Text: "MARDI", X: 10, Y: 300},
		{Text: "13H30", X: 400, Y: 20},
	}
	if slots := newTestExtractor().Extract(frags); len(slots) != 0 {
		t.Errorf("expected empty cell to emit nothing, got %+v", slots)
	}
}

func TestExtract_LabelsWithoutValuesSuppressed(t *testing.T) {
	// A printed but empty cell: labels present, no values anywhere.
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "FORMATEUR :", X: 55, Y: 100},
		{Text: "SALLE :", X: 55, Y: 110},
		{Text: "MODULE :", X: 55, Y: 120},
	}
	if slots := newTestExtractor().Extract(frags); len(slots) != 0 {
		t.Errorf("expected cell with empty labels to emit nothing, got %+v", slots)
	}
}

func TestExtract_MissingFieldsStayEmpty(t *testing.T) {
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "FORMATEUR : Ahmed", X: 55, Y: 100},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Teacher != "Ahmed" || slots[0].Room != "" || slots[0].Module != "" {
		t.Errorf("unexpected slot %+v", slots[0])
	}

	d := slots[0].Display()
	if d.Room != NoRoom {
		t.Errorf("expected room sentinel %q, got %q", NoRoom, d.Room)
	}
	if d.Module != NoModule {
		t.Errorf("expected module sentinel %q, got %q", NoModule, d.Module)
	}
	if d.Teacher != "Ahmed" {
		t.Errorf("expected teacher preserved, got %q", d.Teacher)
	}
}

func TestExtract_ValueOnSeparateFragment(t *testing.T) {
	frags := []Fragment{
		{Text: "JEUDI", X: 10, Y: 250},
		{Text: "16H -------> 18H30", X: 300, Y: 20},
		{Text: "SALLE :", X: 305, Y: 250},
		{Text: "Atelier 3", X: 360, Y: 250},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Room != "Atelier 3" {
		t.Errorf("expected room %q, got %q", "Atelier 3", slots[0].Room)
	}
	if slots[0].Day != "Jeudi" || slots[0].Time != "16:00 - 18:30" {
		t.Errorf("unexpected day/time %q/%q", slots[0].Day, slots[0].Time)
	}
}

func TestExtract_RepeatedLabelWithColonValue(t *testing.T) {
	// A dangling "MODULE :" restated with its value on a later fragment, a
	// pattern some generators emit. The scan continues past the empty repeat.
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "MODULE :", X: 55, Y: 100},
		{Text: "MODULE : Réseaux", X: 55, Y: 112},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Module != "Réseaux" {
		t.Errorf("expected module %q, got %q", "Réseaux", slots[0].Module)
	}
}

func TestExtract_ScanStopsAtDifferentLabel(t *testing.T) {
	// "FORMATEUR" with no value of its own, then a bare different label:
	// the forward scan must stop rather than steal the room value.
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "FORMATEUR", X: 55, Y: 100},
		{Text: "SALLE B12", X: 55, Y: 112},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 0 {
		t.Fatalf("expected no slot, got %+v", slots)
	}
}

func TestExtract_FirstValueWins(t *testing.T) {
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "FORMATEUR : Ahmed", X: 55, Y: 100},
		{Text: "FORMATEUR : Karim", X: 55, Y: 130},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Teacher != "Ahmed" {
		t.Errorf("expected first teacher to win, got %q", slots[0].Teacher)
	}
}

func TestExtract_ModuleEchoIgnored(t *testing.T) {
	// "MODULE : MODULE" is a header echo, not a value.
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "MODULE : MODULE", X: 55, Y: 100},
		{Text: "SALLE : B12", X: 55, Y: 112},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d", len(slots))
	}
	if slots[0].Module != "" {
		t.Errorf("expected echoed module ignored, got %q", slots[0].Module)
	}
	if slots[0].Room != "B12" {
		t.Errorf("expected room %q, got %q", "B12", slots[0].Room)
	}
}

func TestExtract_MultipleDays(t *testing.T) {
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "MARDI", X: 10, Y: 200},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "13H30", X: 450, Y: 20},
		// Monday morning.
		{Text: "FORMATEUR : Ahmed", X: 55, Y: 100},
		// Tuesday afternoon.
		{Text: "SALLE : Atelier 1", X: 455, Y: 210},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 2 {
		t.Fatalf("expected 2 slots, got %d: %+v", len(slots), slots)
	}
	// Day-major, session-minor order.
	if slots[0].Day != "Lundi" || slots[0].Time != "08:30 - 11:00" {
		t.Errorf("unexpected first slot %+v", slots[0])
	}
	if slots[1].Day != "Mardi" || slots[1].Time != "13:30 - 16:00" {
		t.Errorf("unexpected second slot %+v", slots[1])
	}
}

func TestExtract_CellWindowBounds(t *testing.T) {
	// Just outside the row tolerance and just outside the column window.
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "FORMATEUR : Loin", X: 55, Y: 146},  // dy = 46 >= 45
		{Text: "SALLE : Ailleurs", X: 241, Y: 100}, // dx = 191 >= 190
	}
	if slots := newTestExtractor().Extract(frags); len(slots) != 0 {
		t.Errorf("expected out-of-window fragments ignored, got %+v", slots)
	}
}

func TestExtract_SessionTokenInsideEarlierHeader(t *testing.T) {
	// "11H" occurs in the first column's range text; the 11:00 column must
	// anchor on its own header, not duplicate the 8:30 column.
	frags := []Fragment{
		{Text: "LUNDI", X: 10, Y: 100},
		{Text: "8H30 -------> 11H", X: 50, Y: 20},
		{Text: "11H -------> 13H30", X: 230, Y: 20},
		{Text: "FORMATEUR : Karim", X: 260, Y: 100},
	}
	slots := newTestExtractor().Extract(frags)
	if len(slots) != 1 {
		t.Fatalf("expected 1 slot, got %d: %+v", len(slots), slots)
	}
	if slots[0].Time != "11:00 - 13:30" {
		t.Errorf("expected time %q, got %q", "11:00 - 13:30", slots[0].Time)
	}
}

func TestExtract_DayMatchIsExact(t *testing.T) {
	// "LUNDI 12/01" must not anchor the Monday row; the match is exact.
	frags := []Fragment{
		{Text: "LUNDI 12/01", X: 10, Y: 100},
		{Text: "8H30", X: 50, Y: 20},
		{Text: "FORMATEUR : Ahmed", X: 55, Y: 100},
	}
	if slots := newTestExtractor().Extract(frags); len(slots) != 0 {
		t.Errorf("expected no slots without an exact day label, got %+v", slots)
	}
}
