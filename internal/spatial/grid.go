// Package spatial provides cache-efficient spatial data structures for
// broad-phase collision and neighbor queries.
//
// All structures use preallocated slices with integer indices (not
// pointers) to minimize GC pressure and maximize cache locality.
package spatial

import "math"

// Grid provides O(1) average spatial queries via fixed-size cells.
// Cell size should equal the largest query radius in common use; for the
// combat core that is the largest ranged weapon's maximum range.
//
// Memory layout: cells are stored in row-major order (cells[row*cols+col]).
type Grid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	originX     float64
	originY     float64
	cells       [][]uint32
	scratch     []uint32
	maxEntities int
}

// NewGrid creates a grid covering [originX, originX+width) x
// [originY, originY+height). maxEntities is used only to size initial
// cell capacity.
func NewGrid(originX, originY, width, height, cellSize float64, maxEntities int) *Grid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	avgPerCell := maxEntities / len(cells)
	if avgPerCell < 4 {
		avgPerCell = 4
	}
	for i := range cells {
		cells[i] = make([]uint32, 0, avgPerCell)
	}

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		originX:     originX,
		originY:     originY,
		cells:       cells,
		scratch:     make([]uint32, 0, 64),
		maxEntities: maxEntities,
	}
}

// Clear resets all cells without deallocating underlying memory.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert adds an entity id at (x, y). O(1).
func (g *Grid) Insert(entityID uint32, x, y float64) {
	idx := g.cellIndex(x, y)
	g.cells[idx] = append(g.cells[idx], entityID)
}

func (g *Grid) cellIndex(x, y float64) int {
	col := int((x - g.originX) * g.invCellSize)
	row := int((y - g.originY) * g.invCellSize)

	if col < 0 {
		col = 0
	}
	if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	}
	if row >= g.rows {
		row = g.rows - 1
	}

	return row*g.cols + col
}

// QueryRadius returns candidate entity ids within radius of (cx, cy).
// The returned slice is reused on the next call — copy it if you need to
// retain it. Candidates may lie outside radius; the caller performs the
// narrow-phase distance check.
func (g *Grid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol := int((cx - radius - g.originX) * g.invCellSize)
	maxCol := int((cx + radius - g.originX) * g.invCellSize)
	minRow := int((cy - radius - g.originY) * g.invCellSize)
	maxRow := int((cy + radius - g.originY) * g.invCellSize)

	if minCol < 0 {
		minCol = 0
	}
	if maxCol >= g.cols {
		maxCol = g.cols - 1
	}
	if minRow < 0 {
		minRow = 0
	}
	if maxRow >= g.rows {
		maxRow = g.rows - 1
	}

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			idx := row*g.cols + col
			g.scratch = append(g.scratch, g.cells[idx]...)
		}
	}

	return g.scratch
}

// Stats reports grid occupancy, for the sim's observability endpoint.
type Stats struct {
	TotalCells     int
	NonEmptyCells  int
	TotalEntities  int
	MaxInCell      int
	AvgPerNonEmpty float64
}

func (g *Grid) Stats() Stats {
	var st Stats
	st.TotalCells = len(g.cells)
	for _, cell := range g.cells {
		count := len(cell)
		st.TotalEntities += count
		if count > st.MaxInCell {
			st.MaxInCell = count
		}
		if count > 0 {
			st.NonEmptyCells++
		}
	}
	if st.NonEmptyCells > 0 {
		st.AvgPerNonEmpty = float64(st.TotalEntities) / float64(st.NonEmptyCells)
	}
	return st
}
