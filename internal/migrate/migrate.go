// Package migrate brings the persisted state document up to the schema
// version the running code expects.
//
// Migration runs before anything else reads the store. Each step is a
// pure, idempotent transform over the document; new steps are appended
// to the list, never inserted, so replaying from any stored version is
// deterministic. Any step failure aborts the run without advancing the
// version marker.
package migrate

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/BrayneSnax/pdaok/internal/models"
	"github.com/BrayneSnax/pdaok/internal/seed"
	"github.com/BrayneSnax/pdaok/internal/store"
)

// Step is one idempotent structural transform.
type Step func(*models.Document) error

// steps is the ordered migration pipeline. Append only.
var steps = []Step{
	resyncAllies,
	resyncAnchors,
	appendMissingAnchors,
	sortAnchors,
}

// CurrentVersion is the highest schema version the code understands.
var CurrentVersion = len(steps)

// NeedsMigration reports whether the stored marker is behind the code.
func NeedsMigration(db *store.DB) (bool, error) {
	v, err := db.Version()
	if err != nil {
		return false, err
	}
	return v < CurrentVersion, nil
}

// Run applies every outstanding step and persists document and marker
// atomically. Safe to re-run, and safe on an empty store: a fresh
// install has nothing to migrate but still advances the marker so it
// is not re-checked every launch.
func Run(db *store.DB, logger *slog.Logger) error {
	stored, err := db.Version()
	if err != nil {
		return fmt.Errorf("migrate: read marker: %w", err)
	}
	if stored >= CurrentVersion {
		return nil
	}

	doc, err := db.LoadDocument()
	if err != nil {
		return fmt.Errorf("migrate: load document: %w", err)
	}
	if doc == nil || doc.Items == nil {
		// Nothing structural to migrate; the loader seeds defaults.
		if err := db.SetVersion(CurrentVersion); err != nil {
			return fmt.Errorf("migrate: advance marker: %w", err)
		}
		logger.Info("migration: empty store, marker advanced",
			slog.Int("from", stored), slog.Int("to", CurrentVersion))
		return nil
	}

	itemsBefore := len(doc.Items)
	for i := stored; i < CurrentVersion; i++ {
		if err := steps[i](doc); err != nil {
			return fmt.Errorf("migrate: step %d: %w", i+1, err)
		}
	}
	// Length diff is cosmetic only; a step may both add and remove.
	logger.Debug("migration: steps applied",
		slog.Int("from", stored), slog.Int("to", CurrentVersion),
		slog.Int("items_added", len(doc.Items)-itemsBefore))

	if err := db.CompleteMigration(doc, CurrentVersion); err != nil {
		return fmt.Errorf("migrate: persist: %w", err)
	}
	logger.Info("migration: complete", slog.Int("version", CurrentVersion))
	return nil
}

// resyncAllies refreshes presentation fields (glyph, mythic name) from
// the canonical table by id. User-authored fields and logs are never
// touched.
func resyncAllies(doc *models.Document) error {
	canon := make(map[string]models.Ally)
	for _, a := range seed.Allies() {
		canon[a.ID] = a
	}
	for i := range doc.Allies {
		c, ok := canon[doc.Allies[i].ID]
		if !ok {
			continue
		}
		doc.Allies[i].Glyph = c.Glyph
		doc.Allies[i].MythicName = c.MythicName
	}
	return nil
}

// resyncAnchors refreshes guidance text on seeded items by id, leaving
// id, container, category, and timestamps untouched.
func resyncAnchors(doc *models.Document) error {
	canon := make(map[string]models.ContainerItem)
	for _, it := range seed.Anchors() {
		canon[it.ID] = it
	}
	for i := range doc.Items {
		c, ok := canon[doc.Items[i].ID]
		if !ok {
			continue
		}
		doc.Items[i].BodyCue = c.BodyCue
		doc.Items[i].Micro = c.Micro
		doc.Items[i].UltraMicro = c.UltraMicro
		doc.Items[i].Desire = c.Desire
	}
	return nil
}

// appendMissingAnchors adds any canonical item whose title is not yet
// present (case-insensitive). Ids are deterministic, so repeated runs
// never duplicate.
func appendMissingAnchors(doc *models.Document) error {
	present := make(map[string]struct{}, len(doc.Items))
	for _, it := range doc.Items {
		present[strings.ToLower(it.Title)] = struct{}{}
	}
	now := time.Now().UnixMilli()
	for _, c := range seed.Anchors() {
		if _, ok := present[strings.ToLower(c.Title)]; ok {
			continue
		}
		c.CreatedAt = now
		doc.Items = append(doc.Items, c)
		present[strings.ToLower(c.Title)] = struct{}{}
	}
	return nil
}

// sortAnchors orders items inside each (container, category) group by
// the static priority table. Unlisted ids sort after all listed ones
// and keep their relative creation order; groups stay in their original
// encounter order.
func sortAnchors(doc *models.Document) error {
	type groupKey struct {
		container models.Container
		category  string
	}
	prio := seed.Priority()

	var order []groupKey
	groups := make(map[groupKey][]models.ContainerItem)
	for _, it := range doc.Items {
		k := groupKey{it.Container, it.Category}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], it)
	}

	rank := func(id string) int {
		if r, ok := prio[id]; ok {
			return r
		}
		return int(^uint(0) >> 1) // unlisted sorts last
	}

	sorted := doc.Items[:0]
	for _, k := range order {
		g := groups[k]
		sort.SliceStable(g, func(i, j int) bool {
			ri, rj := rank(g[i].ID), rank(g[j].ID)
			if ri != rj {
				return ri < rj
			}
			return g[i].CreatedAt < g[j].CreatedAt
		})
		sorted = append(sorted, g...)
	}
	doc.Items = sorted
	return nil
}
