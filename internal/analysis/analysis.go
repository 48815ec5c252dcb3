// Package analysis turns a batch of timetable documents into an occupancy
// snapshot: which groups have a session running at a reference instant, and
// what their full weekly schedules contain. Each document is extracted at
// most once per (id, last-modified) state; results persist in an injected
// durable cache so unchanged documents are never re-fetched.
package analysis

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmcnador-art/cmc-timetable/internal/layout"
)

// NoPDF is the placeholder location meaning no file is attached to a record.
const NoPDF = "#"

// Document is one timetable record to analyze: where its PDF lives and the
// marker that changes when the file is re-uploaded.
type Document struct {
	ID           string
	Pole         string
	Group        string
	PDFLocation  string
	LastModified string
}

// Entry is one cached extraction: the slots found in a document state.
type Entry struct {
	Slots    []layout.Slot `json:"slots"`
	CachedAt time.Time     `json:"cached_at"`
}

// Cache persists extraction results across runs, keyed by document identity
// plus last-modified marker. A changed marker is a new key; superseded keys
// are orphaned, not evicted. Implementations need not be transactional
// across keys: extraction is deterministic, so a lost racing write only
// costs a redundant recomputation.
type Cache interface {
	Get(key string) (Entry, bool, error)
	PutAll(entries map[string]Entry) error
}

// Source supplies the positioned text of a document's first page.
type Source interface {
	PageFragments(ctx context.Context, location string) ([]layout.Fragment, error)
}

// Metadata is the per-document aggregate handed to the dashboard. Schedule
// slots carry display sentinels; the distinct lists exclude absent values.
type Metadata struct {
	FileName      string        `json:"fileName"`
	Pole          string        `json:"detectedPole"`
	Group         string        `json:"detectedGroup"`
	ID            string        `json:"idCode"`
	Period        string        `json:"period"`
	Schedule      []layout.Slot `json:"fullSchedule"`
	Teachers      []string      `json:"teachers"`
	Rooms         []string      `json:"rooms"`
	Modules       []string      `json:"modules"`
	OccupancyRate int           `json:"occupancyRate"`
}

// Result is the outcome of one analysis pass.
type Result struct {
	TotalGroups    int        `json:"totalGroups"`
	ActiveGroups   int        `json:"activeGroups"`
	InactiveGroups int        `json:"inactiveGroups"`
	LatestScans    []Metadata `json:"latestScans"`
}

// Options tune a pipeline. SessionLength is how long a session counts as
// running from its declared start; the declared end time of a slot is
// deliberately ignored.
type Options struct {
	SessionLength time.Duration
	Period        string
}

// Pipeline runs the analysis. Documents are processed strictly one at a
// time, in input order.
type Pipeline struct {
	source     Source
	extractor  *layout.Extractor
	cache      Cache
	log        *slog.Logger
	sessionMin int
	period     string
}

func New(source Source, extractor *layout.Extractor, cache Cache, log *slog.Logger, opts Options) *Pipeline {
	if opts.SessionLength <= 0 {
		opts.SessionLength = 150 * time.Minute
	}
	if opts.Period == "" {
		opts.Period = "2025/2026"
	}
	return &Pipeline{
		source:     source,
		extractor:  extractor,
		cache:      cache,
		log:        log,
		sessionMin: int(opts.SessionLength.Minutes()),
		period:     opts.Period,
	}
}

// CacheKey builds the durable cache key for one document state.
func CacheKey(id, lastModified string) string {
	return id + "_" + lastModified
}

// Analyze processes documents in order against the given reference time.
// A document whose fetch or decode fails degrades to an empty schedule and
// the batch continues; a cache failure behaves as a cold cache. onProgress,
// when not nil, is called after each document with the percentage complete
// (non-decreasing, 100 on the last document).
func (p *Pipeline) Analyze(ctx context.Context, docs []Document, ref time.Time, onProgress func(int)) Result {
	updated := make(map[string]Entry)
	scans := make([]Metadata, 0, len(docs))

	for i, doc := range docs {
		slots := p.documentSlots(ctx, doc, updated)
		scans = append(scans, p.buildMetadata(doc, slots, ref))
		if onProgress != nil {
			onProgress((i + 1) * 100 / len(docs))
		}
	}

	if len(updated) > 0 {
		if err := p.cache.PutAll(updated); err != nil {
			p.log.Warn("schedule cache write failed", "entries", len(updated), "error", err)
		}
	}

	active := 0
	for _, s := range scans {
		if s.OccupancyRate > 0 {
			active++
		}
	}
	return Result{
		TotalGroups:    len(docs),
		ActiveGroups:   active,
		InactiveGroups: len(docs) - active,
		LatestScans:    scans,
	}
}

// documentSlots returns the schedule for one document, from cache when the
// document state is unchanged, extracting otherwise. Fresh extractions are
// recorded in updated for the end-of-batch cache flush.
func (p *Pipeline) documentSlots(ctx context.Context, doc Document, updated map[string]Entry) []layout.Slot {
	key := CacheKey(doc.ID, doc.LastModified)

	entry, ok, err := p.cache.Get(key)
	if err != nil {
		p.log.Warn("schedule cache read failed", "document", doc.ID, "error", err)
	} else if ok {
		return entry.Slots
	}

	if doc.PDFLocation == "" || doc.PDFLocation == NoPDF {
		return nil
	}

	frags, err := p.source.PageFragments(ctx, doc.PDFLocation)
	if err != nil {
		// Degrade to an empty schedule; the batch goes on. Not cached, so
		// the document is retried on the next pass.
		p.log.Error("timetable extraction failed",
			"document", doc.ID, "group", doc.Group, "location", doc.PDFLocation, "error", err)
		return nil
	}

	slots := p.extractor.Extract(frags)
	updated[key] = Entry{Slots: slots, CachedAt: time.Now()}
	return slots
}

func (p *Pipeline) buildMetadata(doc Document, slots []layout.Slot, ref time.Time) Metadata {
	display := make([]layout.Slot, len(slots))
	for i, s := range slots {
		display[i] = s.Display()
	}
	return Metadata{
		FileName:      doc.Group + ".pdf",
		Pole:          doc.Pole,
		Group:         doc.Group,
		ID:            doc.ID,
		Period:        p.period,
		Schedule:      display,
		Teachers:      distinct(slots, func(s layout.Slot) string { return s.Teacher }),
		Rooms:         distinct(slots, func(s layout.Slot) string { return s.Room }),
		Modules:       distinct(slots, func(s layout.Slot) string { return s.Module }),
		OccupancyRate: p.occupancy(slots, ref),
	}
}

// distinct collects the non-empty values of one slot field, first-seen order,
// never nil so the JSON stays an array.
func distinct(slots []layout.Slot, field func(layout.Slot) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range slots {
		v := field(s)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
