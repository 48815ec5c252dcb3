// Package layout reconstructs a weekly schedule from the positioned text of a
// timetable PDF page. The source documents follow a nominal grid (days as
// rows, four sessions as columns) but drift from it in practice, so the
// extraction is anchor-based: find the day and session header positions, then
// collect whatever text falls inside a fixed window around each intersection.
package layout

import "strings"

// Display sentinels for fields absent from a cell, in the wording the
// dashboard expects. The core model keeps absent fields empty; Slot.Display
// applies these at the presentation boundary.
const (
	NoTeacher = "Non défini"
	NoRoom    = "Salle Non Définie"
	NoModule  = "Non défini"
)

// days in row order on the source template. The label is matched exactly
// (case-insensitive) against a fragment's text.
var days = []struct {
	label   string
	display string
}{
	{"LUNDI", "Lundi"},
	{"MARDI", "Mardi"},
	{"MERCREDI", "Mercredi"},
	{"JEUDI", "Jeudi"},
	{"VENDREDI", "Vendredi"},
	{"SAMEDI", "Samedi"},
}

// sessions in column order. The start token is matched as a substring because
// column headers usually carry range text, e.g. "8H30 -------> 11H".
var sessions = []struct {
	start   string
	display string
}{
	{"8H30", "08:30 - 11:00"},
	{"11H", "11:00 - 13:30"},
	{"13H30", "13:30 - 16:00"},
	{"16H", "16:00 - 18:30"},
}

// Field label keywords as they appear in the source documents.
const (
	labelTeacher = "FORMATEUR"
	labelRoom    = "SALLE"
	labelModule  = "MODULE"
)

// Slot is one extracted (day, session) occupancy record. Teacher, Room and
// Module are empty when the cell did not name them.
type Slot struct {
	Day     string `json:"day"`
	Time    string `json:"time"`
	Teacher string `json:"teacher"`
	Room    string `json:"room"`
	Module  string `json:"module"`
}

// Display returns a copy with absent fields replaced by their sentinels.
func (s Slot) Display() Slot {
	if s.Teacher == "" {
		s.Teacher = NoTeacher
	}
	if s.Room == "" {
		s.Room = NoRoom
	}
	if s.Module == "" {
		s.Module = NoModule
	}
	return s
}

// Tolerances bound the search window around a (day, session) anchor pair.
// The defaults encode the nominal cell geometry of the source template
// (roughly 180 units wide, 45 tall); they are tuned constants, not discovered
// from the page, and a change to the template's visual layout invalidates
// them.
type Tolerances struct {
	Row    float64 // max |dy| between a fragment and the day anchor
	ColMin float64 // min dx between a fragment and the session anchor
	ColMax float64 // max dx, exclusive
}

// DefaultTolerances returns the windows tuned against the source documents.
func DefaultTolerances() Tolerances {
	return Tolerances{Row: 45, ColMin: -10, ColMax: 190}
}

// Extractor turns a page's positioned fragments into schedule slots.
type Extractor struct {
	tol Tolerances
}

func NewExtractor(tol Tolerances) *Extractor {
	if tol.Row <= 0 || tol.ColMax <= tol.ColMin {
		tol = DefaultTolerances()
	}
	return &Extractor{tol: tol}
}

type anchor struct {
	display string
	pos     float64
}

// Extract reconstructs the schedule from one page's fragments. It is pure:
// no state, no clock, same input gives the same output. Slots come out
// day-major then session-minor, at most one per (day, session) pair. A page
// with no recognizable anchors yields an empty list, never an error.
//
// Fragments are consumed in the order the reader supplies them, assumed to be
// the page's reading order; the extractor does not re-sort, since ordering
// decides which candidate value wins inside a cell.
func (e *Extractor) Extract(frags []Fragment) []Slot {
	var dayAnchors []anchor
	for _, d := range days {
		for _, f := range frags {
			if strings.ToUpper(strings.TrimSpace(f.Text)) == d.label {
				dayAnchors = append(dayAnchors, anchor{d.display, f.Y})
				break
			}
		}
	}

	// A session token can occur inside an earlier column's range text
	// ("8H30 -------> 11H" contains "11H"), so a candidate whose x is already
	// anchored is passed over in favor of the next occurrence.
	var timeAnchors []anchor
	for _, s := range sessions {
		for _, f := range frags {
			if !strings.Contains(strings.ToUpper(f.Text), s.start) {
				continue
			}
			if anchoredAt(timeAnchors, f.X) {
				continue
			}
			timeAnchors = append(timeAnchors, anchor{s.display, f.X})
			break
		}
	}

	var slots []Slot
	for _, day := range dayAnchors {
		for _, sess := range timeAnchors {
			cell := e.cellFragments(frags, day.pos, sess.pos)
			if len(cell) == 0 {
				continue
			}
			teacher, room, module := scanFields(cell)
			if teacher == "" && room == "" && module == "" {
				continue
			}
			slots = append(slots, Slot{
				Day:     day.display,
				Time:    sess.display,
				Teacher: teacher,
				Room:    room,
				Module:  module,
			})
		}
	}
	return slots
}

func anchoredAt(anchors []anchor, x float64) bool {
	for _, a := range anchors {
		if a.pos == x {
			return true
		}
	}
	return false
}

// cellFragments collects the fragments inside the window around one
// (day row, session column) intersection, preserving input order.
func (e *Extractor) cellFragments(frags []Fragment, dayY, sessX float64) []Fragment {
	var cell []Fragment
	for _, f := range frags {
		dy := f.Y - dayY
		dx := f.X - sessX
		if dy < 0 {
			dy = -dy
		}
		if dy < e.tol.Row && dx >= e.tol.ColMin && dx < e.tol.ColMax {
			cell = append(cell, f)
		}
	}
	return cell
}

// scanFields resolves the three labelled fields of one cell. The first value
// found for a field wins; later matches for an already-filled field are
// ignored. A fragment naming several labels only counts for the first one, in
// teacher/room/module precedence.
func scanFields(cell []Fragment) (teacher, room, module string) {
	for i, f := range cell {
		upper := strings.ToUpper(f.Text)
		switch {
		case strings.Contains(upper, labelTeacher):
			if teacher == "" {
				teacher = fieldValue(cell, i)
			}
		case strings.Contains(upper, labelRoom):
			if room == "" {
				room = fieldValue(cell, i)
			}
		case strings.Contains(upper, labelModule):
			if module == "" {
				if v := fieldValue(cell, i); v != "" && !strings.EqualFold(v, labelModule) {
					module = v
				}
			}
		}
	}
	return teacher, room, module
}

// fieldValue resolves the value for the label at index i. Two layout variants
// occur in the documents: "Label: Value" on one fragment, or "Label:" with
// the value as a following fragment. The forward scan is a two-state walk,
// seeking a value until a structurally different label ends the cell's field:
//
//   - a label fragment in "Label :" colon form yields its own colon value if
//     it has one, and is skipped otherwise;
//   - any other fragment naming a label stops the scan with no value;
//   - the first remaining fragment with non-empty text is the value.
func fieldValue(cell []Fragment, i int) string {
	if v := colonValue(cell[i].Text); v != "" {
		return v
	}
	for _, f := range cell[i+1:] {
		text := strings.TrimSpace(f.Text)
		upper := strings.ToUpper(text)
		if isLabel(upper) {
			if !labelColonForm(upper) {
				return ""
			}
			if v := colonValue(text); v != "" {
				return v
			}
			continue
		}
		if text != "" {
			return text
		}
	}
	return ""
}

// colonValue returns the trimmed text after the first colon, if any.
func colonValue(s string) string {
	if _, after, ok := strings.Cut(s, ":"); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

func isLabel(upper string) bool {
	return strings.Contains(upper, labelTeacher) ||
		strings.Contains(upper, labelRoom) ||
		strings.Contains(upper, labelModule)
}

// labelColonForm reports whether upper starts with a bare label immediately
// followed by a colon, e.g. "SALLE :" or "MODULE : Algorithmique".
func labelColonForm(upper string) bool {
	for _, kw := range []string{labelTeacher, labelRoom, labelModule} {
		rest, ok := strings.CutPrefix(upper, kw)
		if !ok {
			continue
		}
		if strings.HasPrefix(strings.TrimLeft(rest, " "), ":") {
			return true
		}
	}
	return false
}
