package main

import (
	"slices"
	"testing"
)

func TestSpatialGridInsertAndQuery(t *testing.T) {
	grid := NewSpatialGrid(3000, 3000, 100)

	grid.Insert(Rect{X: 90, Y: 90, Width: 20, Height: 20}, 0)

	// Query around (100,100) should find it
	if !slices.Contains(grid.QueryPoint(100, 100), 0) {
		t.Error("expected to find obstacle at (100,100)")
	}
	// It spans four cells
	if !slices.Contains(grid.QueryPoint(95, 95), 0) {
		t.Error("expected to find obstacle in the top-left cell")
	}

	// Query far away should not find it
	if slices.Contains(grid.QueryBuf(2900, 2900, 50, nil), 0) {
		t.Error("should not find obstacle at (2900,2900)")
	}
}

func TestSpatialGridClear(t *testing.T) {
	grid := NewSpatialGrid(3000, 3000, 100)

	grid.Insert(Rect{X: 500, Y: 500, Width: 10, Height: 10}, 0)
	grid.Clear()

	if got := grid.QueryBuf(500, 500, 100, nil); len(got) != 0 {
		t.Errorf("expected 0 results after clear, got %d", len(got))
	}
}

func TestSpatialGridQueryOrderedUnique(t *testing.T) {
	grid := NewSpatialGrid(1000, 1000, 100)

	// A large rectangle lands in many cells; the query must report it once
	grid.Insert(Rect{X: 0, Y: 0, Width: 400, Height: 400}, 0)
	grid.Insert(Rect{X: 250, Y: 250, Width: 10, Height: 10}, 1)
	grid.Insert(Rect{X: 150, Y: 350, Width: 10, Height: 10}, 2)

	got := grid.QueryBuf(250, 250, 150, nil)
	want := []int{0, 1, 2}
	if !slices.Equal(got, want) {
		t.Errorf("QueryBuf = %v, want %v", got, want)
	}

	// Results are appended after existing buffer contents
	buf := []int{42}
	got = grid.QueryBuf(255, 255, 1, buf)
	if !slices.Equal(got, []int{42, 0, 1}) {
		t.Errorf("QueryBuf with prefix = %v", got)
	}
}

func TestSpatialGridBoundaryClamp(t *testing.T) {
	grid := NewSpatialGrid(3000, 3000, 100)

	// Negative coords should clamp to 0
	grid.Insert(Rect{X: -10, Y: -10, Width: 5, Height: 5}, 0)
	if !slices.Contains(grid.QueryPoint(0, 0), 0) {
		t.Error("expected to find obstacle inserted at negative coords")
	}

	// Beyond world edge should clamp to max
	grid.Insert(Rect{X: 5000, Y: 5000, Width: 5, Height: 5}, 1)
	if !slices.Contains(grid.QueryPoint(3000, 3000), 1) {
		t.Error("expected to find obstacle inserted beyond world edge")
	}
}
