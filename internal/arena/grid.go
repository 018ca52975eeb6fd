package arena

import (
	"math"
	"sort"

	"ordnance/internal/geom"
	"ordnance/internal/weapon"
)

// CellKey identifies a grid cell occupied by a unit footprint.
type CellKey struct {
	X int
	Y int
}

type gridEntry struct {
	position geom.Coord3D
	radius   float64
	cells    []CellKey
}

const (
	// DefaultCellSize matches four path-grid cells.
	DefaultCellSize = 4 * weapon.PathfindCellSize
	// DefaultMaxPerCell bounds how many footprints one cell may hold.
	DefaultMaxPerCell = 64
)

// Grid is a uniform-grid spatial index over unit footprints. Each unit is
// filed under every cell its bounding circle touches.
type Grid struct {
	cellSize    float64
	invCellSize float64
	maxPerCell  int
	cells       map[CellKey][]weapon.ObjectID
	entries     map[weapon.ObjectID]*gridEntry
}

// NewGrid constructs a Grid with optional custom parameters.
func NewGrid(cellSize float64, maxPerCell int) *Grid {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	if maxPerCell <= 0 {
		maxPerCell = DefaultMaxPerCell
	}
	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		maxPerCell:  maxPerCell,
		cells:       make(map[CellKey][]weapon.ObjectID),
		entries:     make(map[weapon.ObjectID]*gridEntry),
	}
}

// Upsert inserts or moves a footprint, returning false when the operation
// would exceed the per-cell capacity.
func (g *Grid) Upsert(id weapon.ObjectID, position geom.Coord3D, radius float64) bool {
	if g == nil || id == weapon.InvalidID {
		return true
	}

	entry, existed := g.entries[id]
	newCells := g.cellsFor(position, radius)
	if g.maxPerCell > 0 {
		var existingCellCounts map[CellKey]int
		if existed {
			existingCellCounts = make(map[CellKey]int, len(entry.cells))
			for _, cell := range entry.cells {
				existingCellCounts[cell]++
			}
		}
		for _, cell := range newCells {
			occupancy := len(g.cells[cell])
			if existed {
				occupancy -= existingCellCounts[cell]
			}
			if occupancy >= g.maxPerCell {
				return false
			}
		}
	}

	if existed {
		g.removeFromCells(id, entry.cells)
	}
	g.entries[id] = &gridEntry{position: position, radius: radius, cells: newCells}
	for _, cell := range newCells {
		g.cells[cell] = append(g.cells[cell], id)
	}
	return true
}

// Remove deletes a footprint from the grid.
func (g *Grid) Remove(id weapon.ObjectID) {
	if g == nil || id == weapon.InvalidID {
		return
	}
	entry, ok := g.entries[id]
	if !ok {
		return
	}
	g.removeFromCells(id, entry.cells)
	delete(g.entries, id)
}

// Len returns the number of indexed footprints.
func (g *Grid) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

func (g *Grid) removeFromCells(id weapon.ObjectID, cells []CellKey) {
	for _, cell := range cells {
		bucket := g.cells[cell]
		for i := range bucket {
			if bucket[i] != id {
				continue
			}
			bucket[i] = bucket[len(bucket)-1]
			bucket = bucket[:len(bucket)-1]
			break
		}
		if len(bucket) == 0 {
			delete(g.cells, cell)
		} else {
			g.cells[cell] = bucket
		}
	}
}

func (g *Grid) cellsFor(position geom.Coord3D, radius float64) []CellKey {
	radius = math.Abs(radius)
	minX := g.coordToCell(position.X - radius)
	minY := g.coordToCell(position.Y - radius)
	maxX := g.coordToCell(position.X + radius)
	maxY := g.coordToCell(position.Y + radius)
	cells := make([]CellKey, 0, (maxX-minX+1)*(maxY-minY+1))
	for row := minY; row <= maxY; row++ {
		for col := minX; col <= maxX; col++ {
			cells = append(cells, CellKey{X: col, Y: row})
		}
	}
	return cells
}

func (g *Grid) coordToCell(value float64) int {
	return int(math.Floor(value * g.invCellSize))
}

// candidates collects the unique ids filed in the cells covering the box
// [minX,maxX]x[minY,maxY], in a deterministic order.
func (g *Grid) candidates(minX, minY, maxX, maxY float64) []weapon.ObjectID {
	seen := make(map[weapon.ObjectID]struct{})
	var out []weapon.ObjectID
	for row := g.coordToCell(minY); row <= g.coordToCell(maxY); row++ {
		for col := g.coordToCell(minX); col <= g.coordToCell(maxX); col++ {
			for _, id := range g.cells[CellKey{X: col, Y: row}] {
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				out = append(out, id)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// WithinRadius returns every footprint whose center lies within radius of
// center, measured in the XY plane. Ties keep id order.
func (g *Grid) WithinRadius(center geom.Coord3D, radius float64, query weapon.RadiusQuery) []weapon.ObjectID {
	if g == nil || radius < 0 {
		return nil
	}
	limit := radius * radius
	var out []weapon.ObjectID
	for _, id := range g.candidates(center.X-radius, center.Y-radius, center.X+radius, center.Y+radius) {
		if geom.DistSqr2D(center, g.entries[id].position) <= limit {
			out = append(out, id)
		}
	}
	if query.NearestFirst {
		sort.SliceStable(out, func(i, j int) bool {
			return geom.DistSqr2D(center, g.entries[out[i]].position) < geom.DistSqr2D(center, g.entries[out[j]].position)
		})
	}
	return out
}

// AlongLine returns footprints that come within corridor of the segment,
// ordered by their projection onto it.
func (g *Grid) AlongLine(from, to geom.Coord3D, corridor float64, exclude []weapon.ObjectID) []weapon.ObjectID {
	if g == nil {
		return nil
	}
	skip := make(map[weapon.ObjectID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	margin := corridor + g.maxRadius()
	type hit struct {
		id weapon.ObjectID
		t  float64
	}
	var hits []hit
	ids := g.candidates(
		math.Min(from.X, to.X)-margin, math.Min(from.Y, to.Y)-margin,
		math.Max(from.X, to.X)+margin, math.Max(from.Y, to.Y)+margin,
	)
	for _, id := range ids {
		if _, excluded := skip[id]; excluded {
			continue
		}
		entry := g.entries[id]
		reach := corridor + entry.radius
		distSqr, t := geom.PointSegmentDistSqr2D(entry.position, from, to)
		if distSqr <= reach*reach {
			hits = append(hits, hit{id: id, t: t})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].t < hits[j].t })
	out := make([]weapon.ObjectID, len(hits))
	for i, h := range hits {
		out[i] = h.id
	}
	return out
}

func (g *Grid) maxRadius() float64 {
	var largest float64
	for _, entry := range g.entries {
		largest = math.Max(largest, entry.radius)
	}
	return largest
}
