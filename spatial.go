package main

// SpatialGrid buckets obstacle indices by cell for broad-phase queries.
// Buckets keep indices in ascending order, so the first candidate that
// passes the narrow test is also the first obstacle in insertion order.
type SpatialGrid struct {
	cellSize   float64
	cols, rows int
	cells      [][]int
}

// NewSpatialGrid creates a grid covering a width x height world
func NewSpatialGrid(width, height, cellSize float64) *SpatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    make([][]int, cols*rows),
	}
}

// Clear resets all cells (keeps allocated capacity)
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

func (g *SpatialGrid) clampCell(cx, cy int) (int, int) {
	if cx < 0 {
		cx = 0
	} else if cx >= g.cols {
		cx = g.cols - 1
	}
	if cy < 0 {
		cy = 0
	} else if cy >= g.rows {
		cy = g.rows - 1
	}
	return cx, cy
}

func (g *SpatialGrid) cellRange(minX, minY, maxX, maxY float64) (x0, y0, x1, y1 int) {
	x0, y0 = g.clampCell(int(minX/g.cellSize), int(minY/g.cellSize))
	x1, y1 = g.clampCell(int(maxX/g.cellSize), int(maxY/g.cellSize))
	return
}

// Insert adds idx to every cell the rectangle touches. Indices must be
// inserted in ascending order.
func (g *SpatialGrid) Insert(r Rect, idx int) {
	x0, y0, x1, y1 := g.cellRange(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			i := cy*g.cols + cx
			g.cells[i] = append(g.cells[i], idx)
		}
	}
}

// QueryPoint returns the indices stored in the cell containing (x,y)
func (g *SpatialGrid) QueryPoint(x, y float64) []int {
	cx, cy := g.clampCell(int(x/g.cellSize), int(y/g.cellSize))
	return g.cells[cy*g.cols+cx]
}

// QueryBuf appends the indices of every cell overlapping the box around
// (x,y) with the given radius to buf, ascending and without duplicates.
func (g *SpatialGrid) QueryBuf(x, y, radius float64, buf []int) []int {
	x0, y0, x1, y1 := g.cellRange(x-radius, y-radius, x+radius, y+radius)
	start := len(buf)
	for cy := y0; cy <= y1; cy++ {
		for cx := x0; cx <= x1; cx++ {
			buf = mergeSorted(buf, start, g.cells[cy*g.cols+cx])
		}
	}
	return buf
}

// mergeSorted merges the ascending slice add into buf[start:], keeping it
// ascending and unique.
func mergeSorted(buf []int, start int, add []int) []int {
	if len(add) == 0 {
		return buf
	}
	head := buf[:start]
	cur := append([]int(nil), buf[start:]...)
	i, j := 0, 0
	for i < len(cur) || j < len(add) {
		var v int
		switch {
		case j >= len(add) || (i < len(cur) && cur[i] < add[j]):
			v = cur[i]
			i++
		case i >= len(cur) || add[j] < cur[i]:
			v = add[j]
			j++
		default:
			v = cur[i]
			i++
			j++
		}
		head = append(head, v)
	}
	return head
}
