package engine

import (
	"math"

	"github.com/tuannm99/flatsql/internal/catalog"
)

// Viewport is the canvas point the UI currently looks at. FOCUS places items
// relative to it.
type Viewport struct {
	CenterX float64 `yaml:"center_x"`
	CenterY float64 `yaml:"center_y"`
}

const (
	gridColumns  = 4
	gridSpacingX = 200
	gridSpacingY = 150
)

type placement struct {
	name string
	x, y *float64
}

// placeables lists the items FOCUS can move: databases at catalog level,
// tables of the open database at database level, nothing at table level.
func (s *Session) placeables() []placement {
	var out []placement
	switch {
	case s.level == catalog.LevelCatalog:
		for _, db := range s.catalog.Databases {
			out = append(out, placement{name: db.Name, x: &db.X, y: &db.Y})
		}
	case s.level == catalog.LevelDatabase && s.db != nil:
		for _, t := range s.db.Tables {
			out = append(out, placement{name: t.Name, x: &t.X, y: &t.Y})
		}
	}
	return out
}

func (s *Session) Viewport() Viewport     { return s.viewport }
func (s *Session) SetViewport(v Viewport) { s.viewport = v }

// CanFocus reports whether FOCUS name has a target at the current level.
func (s *Session) CanFocus(name string) bool {
	name = catalog.Normalize(name)
	for _, p := range s.placeables() {
		if p.name == name {
			return true
		}
	}
	return false
}

// FocusCount is how many items FOCUS <ALL> would move.
func (s *Session) FocusCount() int { return len(s.placeables()) }

// Focus moves the named item to the viewport center.
func (s *Session) Focus(name string) bool {
	name = catalog.Normalize(name)
	for _, p := range s.placeables() {
		if p.name == name {
			*p.x, *p.y = s.viewport.CenterX, s.viewport.CenterY
			return true
		}
	}
	return false
}

// FocusAll lays every item out on a grid centred on the viewport and returns
// how many items moved.
func (s *Session) FocusAll() int {
	items := s.placeables()
	if len(items) == 0 {
		return 0
	}
	rows := int(math.Ceil(float64(len(items)) / gridColumns))
	startX := s.viewport.CenterX - float64((gridColumns-1)*gridSpacingX)/2
	startY := s.viewport.CenterY - float64((rows-1)*gridSpacingY)/2

	for i, p := range items {
		r, c := i/gridColumns, i%gridColumns
		*p.x = startX + float64(c*gridSpacingX)
		*p.y = startY + float64(r*gridSpacingY)
	}
	return len(items)
}
