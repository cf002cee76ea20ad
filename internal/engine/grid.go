package engine

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// minCell keeps tiny circles from producing an enormous grid.
	minCell = 8.0

	// minCells is the cell budget for small populations.
	minCells = 1024
)

// pair is a candidate collision between circles i < j.
type pair struct {
	i, j int
}

// grid is a uniform spatial hash rebuilt every substep. Cells are at least
// one maximum diameter wide, so two circles can only touch if their cells
// are neighbours.
type grid struct {
	cell       float64
	minX, minY float64
	cols, rows int

	// start[k]:start[k+1] indexes the circles of cell k in items.
	start  []int
	items  []int
	cursor []int
}

func (g *grid) build(circles []Circle) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	rmax := 0.0
	for i := range circles {
		c := &circles[i]
		minX = math.Min(minX, c.X)
		minY = math.Min(minY, c.Y)
		maxX = math.Max(maxX, c.X)
		maxY = math.Max(maxY, c.Y)
		rmax = math.Max(rmax, c.R)
	}

	cell := math.Max(2*rmax, minCell)
	limit := math.Max(minCells, float64(4*len(circles)))
	for {
		cols := math.Floor((maxX-minX)/cell) + 1
		rows := math.Floor((maxY-minY)/cell) + 1
		if cols*rows <= limit {
			g.cols, g.rows = int(cols), int(rows)
			break
		}
		cell *= 2
	}
	g.cell, g.minX, g.minY = cell, minX, minY

	cells := g.cols * g.rows
	g.start = resize(g.start, cells+1)
	for k := range g.start {
		g.start[k] = 0
	}
	for i := range circles {
		g.start[g.index(circles[i].X, circles[i].Y)+1]++
	}
	for k := 0; k < cells; k++ {
		g.start[k+1] += g.start[k]
	}

	g.cursor = resize(g.cursor, cells)
	copy(g.cursor, g.start[:cells])
	g.items = resize(g.items, len(circles))
	for i := range circles {
		k := g.index(circles[i].X, circles[i].Y)
		g.items[g.cursor[k]] = i
		g.cursor[k]++
	}
}

func (g *grid) index(x, y float64) int {
	col := int((x - g.minX) / g.cell)
	row := int((y - g.minY) / g.cell)
	if col >= g.cols {
		col = g.cols - 1
	}
	if row >= g.rows {
		row = g.rows - 1
	}
	return row*g.cols + col
}

func (g *grid) bucket(col, row int) []int {
	k := row*g.cols + col
	return g.items[g.start[k]:g.start[k+1]]
}

// scan appends every overlapping pair whose lower-indexed circle sits in
// rows [r0, r1) to out.
func (g *grid) scan(circles []Circle, r0, r1 int, out []pair) []pair {
	for row := r0; row < r1; row++ {
		for col := 0; col < g.cols; col++ {
			for _, i := range g.bucket(col, row) {
				a := &circles[i]
				pa := a.pos()
				for dr := -1; dr <= 1; dr++ {
					nr := row + dr
					if nr < 0 || nr >= g.rows {
						continue
					}
					for dc := -1; dc <= 1; dc++ {
						nc := col + dc
						if nc < 0 || nc >= g.cols {
							continue
						}
						for _, j := range g.bucket(nc, nr) {
							if j <= i {
								continue
							}
							b := &circles[j]
							rs := a.R + b.R
							if r2.Norm2(r2.Sub(b.pos(), pa)) < rs*rs {
								out = append(out, pair{i: i, j: j})
							}
						}
					}
				}
			}
		}
	}
	return out
}

func resize(s []int, n int) []int {
	if cap(s) < n {
		return make([]int, n)
	}
	return s[:n]
}
