package main

import (
	"math/rand/v2"
	"testing"
)

func TestCarveMazeIsSpanningTree(t *testing.T) {
	for _, size := range [][2]int{{30, 30}, {31, 21}, {3, 3}, {10, 7}} {
		cols, rows := size[0], size[1]
		m := CarveMaze(cols, rows, rand.New(rand.NewPCG(uint64(cols), uint64(rows))))

		if m.Wall[m.StartY][m.StartX] {
			t.Fatalf("%dx%d: start cell should be cleared", cols, rows)
		}

		cleared, edges := 0, 0
		for y := 0; y < rows; y++ {
			for x := 0; x < cols; x++ {
				if m.Wall[y][x] {
					continue
				}
				cleared++
				if x+1 < cols && !m.Wall[y][x+1] {
					edges++
				}
				if y+1 < rows && !m.Wall[y+1][x] {
					edges++
				}
			}
		}

		// Flood fill from the start reaches every cleared cell
		seen := make([][]bool, rows)
		for y := range seen {
			seen[y] = make([]bool, cols)
		}
		stack := [][2]int{{m.StartX, m.StartY}}
		seen[m.StartY][m.StartX] = true
		reached := 0
		for len(stack) > 0 {
			c := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			reached++
			for _, d := range carveDirs {
				nx, ny := c[0]+d[0], c[1]+d[1]
				if nx < 0 || nx >= cols || ny < 0 || ny >= rows || m.Wall[ny][nx] || seen[ny][nx] {
					continue
				}
				seen[ny][nx] = true
				stack = append(stack, [2]int{nx, ny})
			}
		}

		if reached != cleared {
			t.Errorf("%dx%d: reached %d of %d cleared cells", cols, rows, reached, cleared)
		}
		if edges != cleared-1 {
			t.Errorf("%dx%d: %d passages for %d cells, not a tree", cols, rows, edges, cleared)
		}
	}
}

func TestCarveMazeLargeGrid(t *testing.T) {
	// Deep traversals must not exhaust the goroutine stack
	m := CarveMaze(801, 801, rand.New(rand.NewPCG(7, 7)))
	if m.Wall[m.StartY][m.StartX] {
		t.Fatal("start cell should be cleared")
	}
}

func TestGenerateObstaclesMaze(t *testing.T) {
	cfg := DefaultConfig()
	obs := GenerateObstacles(cfg, rand.New(rand.NewPCG(1, 1)))

	cols, rows := cfg.GridSize()
	if len(obs) <= 4 || len(obs) > cols*rows+4 {
		t.Fatalf("unexpected obstacle count %d", len(obs))
	}
	for i, o := range obs {
		if o.X < 0 || o.Y < 0 || o.X+o.Width > cfg.WorldWidth || o.Y+o.Height > cfg.WorldHeight {
			t.Errorf("obstacle %d out of bounds: %+v", i, o.Rect)
		}
		if o.Health != cfg.WallMaxHealth {
			t.Errorf("obstacle %d health %d", i, o.Health)
		}
		if i < len(obs)-4 && (o.Width != cfg.CellSize || o.Height != cfg.CellSize) {
			t.Errorf("maze obstacle %d should be one cell, got %+v", i, o.Rect)
		}
	}

	borders := obs[len(obs)-4:]
	want := []Rect{
		{X: 0, Y: 0, Width: cfg.WorldWidth, Height: cfg.WallThickness},
		{X: 0, Y: 0, Width: cfg.WallThickness, Height: cfg.WorldHeight},
		{X: cfg.WorldWidth - cfg.WallThickness, Y: 0, Width: cfg.WallThickness, Height: cfg.WorldHeight},
		{X: 0, Y: cfg.WorldHeight - cfg.WallThickness, Width: cfg.WorldWidth, Height: cfg.WallThickness},
	}
	for i, b := range borders {
		if b.Rect != want[i] {
			t.Errorf("border %d = %+v, want %+v", i, b.Rect, want[i])
		}
	}

	// Row-major order
	for i := 1; i < len(obs)-4; i++ {
		p, c := obs[i-1], obs[i]
		if c.Y < p.Y || (c.Y == p.Y && c.X <= p.X) {
			t.Fatalf("obstacles %d and %d out of row-major order", i-1, i)
		}
	}
}

func TestGenerateObstaclesRandom(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Layout = LayoutRandom
	cfg.RandomWallChance = 1
	obs := GenerateObstacles(cfg, rand.New(rand.NewPCG(3, 4)))

	cols, rows := cfg.GridSize()
	if len(obs) != cols*rows+4 {
		t.Fatalf("expected one strip per cell plus borders, got %d", len(obs))
	}
	for i, o := range obs[:len(obs)-4] {
		horizontal := o.Width == cfg.CellSize && o.Height == cfg.StripThickness
		vertical := o.Height == cfg.CellSize && o.Width == cfg.StripThickness
		if !horizontal && !vertical {
			t.Errorf("strip %d has unexpected shape %+v", i, o.Rect)
		}
	}

	cfg.RandomWallChance = 0
	if obs := GenerateObstacles(cfg, rand.New(rand.NewPCG(3, 4))); len(obs) != 4 {
		t.Errorf("zero chance should leave only borders, got %d", len(obs))
	}
}

func TestGenerateObstaclesDeterministic(t *testing.T) {
	cfg := DefaultConfig()
	a := GenerateObstacles(cfg, rand.New(rand.NewPCG(9, 9)))
	b := GenerateObstacles(cfg, rand.New(rand.NewPCG(9, 9)))
	if len(a) != len(b) {
		t.Fatalf("same seed produced %d and %d obstacles", len(a), len(b))
	}
	for i := range a {
		if a[i].Rect != b[i].Rect {
			t.Fatalf("obstacle %d differs for the same seed", i)
		}
	}
}
