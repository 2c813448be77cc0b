package main

import "math/rand/v2"

// directions a carve step may take, in grid cells
var carveDirs = [4][2]int{{0, 1}, {1, 0}, {0, -1}, {-1, 0}}

// MazeGrid is the logical cell grid of a maze layout; true marks a wall cell.
type MazeGrid struct {
	Cols, Rows int
	Wall       [][]bool // [row][col]
	StartX     int
	StartY     int
}

// CarveMaze runs a randomized depth-first backtracker from the grid centre.
// Every cell starts as wall; a step two cells away in a shuffled direction
// is taken when the destination is still wall, clearing the cell in between.
// The traversal uses an explicit stack so large grids cannot overflow.
func CarveMaze(cols, rows int, rng *rand.Rand) *MazeGrid {
	m := &MazeGrid{
		Cols:   cols,
		Rows:   rows,
		Wall:   make([][]bool, rows),
		StartX: cols / 2,
		StartY: rows / 2,
	}
	for y := range m.Wall {
		m.Wall[y] = make([]bool, cols)
		for x := range m.Wall[y] {
			m.Wall[y][x] = true
		}
	}

	type frame struct {
		x, y int
		dirs [4][2]int
		next int
	}
	visit := func(x, y int) frame {
		m.Wall[y][x] = false
		f := frame{x: x, y: y, dirs: carveDirs}
		rng.Shuffle(len(f.dirs), func(i, j int) { f.dirs[i], f.dirs[j] = f.dirs[j], f.dirs[i] })
		return f
	}

	stack := []frame{visit(m.StartX, m.StartY)}
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next == len(top.dirs) {
			stack = stack[:len(stack)-1]
			continue
		}
		d := top.dirs[top.next]
		top.next++
		nx, ny := top.x+d[0]*2, top.y+d[1]*2
		if nx < 0 || nx >= cols || ny < 0 || ny >= rows || !m.Wall[ny][nx] {
			continue
		}
		m.Wall[top.y+d[1]][top.x+d[0]] = false
		stack = append(stack, visit(nx, ny))
	}
	return m
}

// GenerateObstacles builds the obstacle layout for cfg. The result is the
// layout cells in row-major order followed by the four border walls.
func GenerateObstacles(cfg Config, rng *rand.Rand) []*Obstacle {
	cols, rows := cfg.GridSize()
	var obstacles []*Obstacle

	switch cfg.Layout {
	case LayoutRandom:
		obstacles = randomStrips(cfg, cols, rows, rng)
	default:
		m := CarveMaze(cols, rows, rng)
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if m.Wall[y][x] {
					obstacles = append(obstacles, newObstacle(Rect{
						X:      float64(x) * cfg.CellSize,
						Y:      float64(y) * cfg.CellSize,
						Width:  cfg.CellSize,
						Height: cfg.CellSize,
					}, cfg.WallMaxHealth))
				}
			}
		}
	}

	return append(obstacles, borderWalls(cfg)...)
}

// randomStrips emits, per cell with probability RandomWallChance, a thin
// horizontal or vertical strip spanning the cell through its centre.
func randomStrips(cfg Config, cols, rows int, rng *rand.Rand) []*Obstacle {
	var out []*Obstacle
	t := cfg.StripThickness
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			if rng.Float64() >= cfg.RandomWallChance {
				continue
			}
			cx := float64(x) * cfg.CellSize
			cy := float64(y) * cfg.CellSize
			var r Rect
			if rng.IntN(2) == 0 {
				r = Rect{X: cx, Y: cy + (cfg.CellSize-t)/2, Width: cfg.CellSize, Height: t}
			} else {
				r = Rect{X: cx + (cfg.CellSize-t)/2, Y: cy, Width: t, Height: cfg.CellSize}
			}
			out = append(out, newObstacle(r, cfg.WallMaxHealth))
		}
	}
	return out
}

// borderWalls encloses the world: top, left, right, bottom.
func borderWalls(cfg Config) []*Obstacle {
	w, h, t := cfg.WorldWidth, cfg.WorldHeight, cfg.WallThickness
	return []*Obstacle{
		newObstacle(Rect{X: 0, Y: 0, Width: w, Height: t}, cfg.WallMaxHealth),
		newObstacle(Rect{X: 0, Y: 0, Width: t, Height: h}, cfg.WallMaxHealth),
		newObstacle(Rect{X: w - t, Y: 0, Width: t, Height: h}, cfg.WallMaxHealth),
		newObstacle(Rect{X: 0, Y: h - t, Width: w, Height: t}, cfg.WallMaxHealth),
	}
}
