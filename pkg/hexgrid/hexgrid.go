// Package hexgrid provides a bounded hex map with dense tile ids.
// Tiles are stored in "odd-r" offset rows and addressed in axial
// coordinates (q, r) for distance and neighbor math.
package hexgrid

import "math"

// TileID is the dense index of a tile (row*width + col).
type TileID int

// NoTile marks an absent tile, e.g. an unknown attacker origin.
const NoTile TileID = -1

// Coord is an axial hex coordinate. The third cube coordinate s is derived.
type Coord struct {
	Q int `json:"q"`
	R int `json:"r"`
}

// S returns the implicit third cube coordinate.
func (c Coord) S() int {
	return -c.Q - c.R
}

// Add returns c offset by d.
func (c Coord) Add(d Coord) Coord {
	return Coord{Q: c.Q + d.Q, R: c.R + d.R}
}

// Scale returns c multiplied by k.
func (c Coord) Scale(k int) Coord {
	return Coord{Q: c.Q * k, R: c.R * k}
}

// Directions are the six neighbor offsets in axial coordinates, in ring-walk order.
var Directions = [6]Coord{
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
	{Q: 0, R: 1},
}

// Distance returns the hex distance between two axial coordinates.
func Distance(a, b Coord) int {
	return max(abs(a.Q-b.Q), abs(a.R-b.R), abs(a.S()-b.S()))
}

// RingCount returns the number of tiles within radius of a center tile on an
// unbounded map (1, 7, 19, 37, ...).
func RingCount(radius int) int {
	if radius < 0 {
		return 0
	}
	return 1 + 3*radius*(radius+1)
}

// Grid is a rectangular hex map of Width x Height tiles.
type Grid struct {
	Width  int
	Height int
	coords []Coord
}

// New builds a grid and precomputes the axial coordinate of every tile.
func New(width, height int) *Grid {
	g := &Grid{Width: width, Height: height, coords: make([]Coord, width*height)}
	for row := range height {
		for col := range width {
			g.coords[row*width+col] = Coord{Q: col - (row-(row&1))/2, R: row}
		}
	}
	return g
}

// Size returns the total number of tiles.
func (g *Grid) Size() int {
	return len(g.coords)
}

// Valid reports whether id addresses a tile on this grid.
func (g *Grid) Valid(id TileID) bool {
	return id >= 0 && int(id) < len(g.coords)
}

// Coord returns the axial coordinate of a tile.
func (g *Grid) Coord(id TileID) Coord {
	return g.coords[id]
}

// ID returns the tile at an axial coordinate, or NoTile if it is off the map.
func (g *Grid) ID(c Coord) TileID {
	row := c.R
	col := c.Q + (c.R-(c.R&1))/2
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return NoTile
	}
	return TileID(row*g.Width + col)
}

// At returns the tile at offset (col, row), or NoTile.
func (g *Grid) At(col, row int) TileID {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return NoTile
	}
	return TileID(row*g.Width + col)
}

// Distance returns the hex distance between two tiles.
func (g *Grid) Distance(a, b TileID) int {
	return Distance(g.coords[a], g.coords[b])
}

// Adjacent reports whether two distinct tiles share an edge.
func (g *Grid) Adjacent(a, b TileID) bool {
	if !g.Valid(a) || !g.Valid(b) {
		return false
	}
	return g.Distance(a, b) == 1
}

// Neighbors returns the on-map tiles adjacent to id.
func (g *Grid) Neighbors(id TileID) []TileID {
	c := g.coords[id]
	out := make([]TileID, 0, 6)
	for _, d := range Directions {
		if n := g.ID(c.Add(d)); n != NoTile {
			out = append(out, n)
		}
	}
	return out
}

// Ring returns the on-map tiles at exactly radius from center.
func (g *Grid) Ring(center TileID, radius int) []TileID {
	if radius == 0 {
		return []TileID{center}
	}
	out := make([]TileID, 0, 6*radius)
	cur := g.coords[center].Add(Directions[4].Scale(radius))
	for i := range 6 {
		for range radius {
			if id := g.ID(cur); id != NoTile {
				out = append(out, id)
			}
			cur = cur.Add(Directions[i])
		}
	}
	return out
}

// Spiral returns the on-map tiles within radius of center, center first and
// then ring by ring outward. Off-map positions are skipped.
func (g *Grid) Spiral(center TileID, radius int) []TileID {
	out := make([]TileID, 0, RingCount(radius))
	for k := 0; k <= radius; k++ {
		out = append(out, g.Ring(center, k)...)
	}
	return out
}

// Line returns the tiles on the straight line from a to b, both ends included.
func (g *Grid) Line(a, b TileID) []TileID {
	ca, cb := g.coords[a], g.coords[b]
	n := Distance(ca, cb)
	if n == 0 {
		return []TileID{a}
	}
	// Nudge off exact edges so the line is drawn consistently.
	const eps = 1e-6
	aq, ar := float64(ca.Q)+eps, float64(ca.R)+eps
	bq, br := float64(cb.Q)+eps, float64(cb.R)+eps
	out := make([]TileID, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		c := roundCube(aq+(bq-aq)*t, ar+(br-ar)*t)
		if id := g.ID(c); id != NoTile {
			out = append(out, id)
		}
	}
	return out
}

func roundCube(fq, fr float64) Coord {
	fs := -fq - fr
	q, r, s := math.Round(fq), math.Round(fr), math.Round(fs)
	dq, dr, ds := math.Abs(q-fq), math.Abs(r-fr), math.Abs(s-fs)
	switch {
	case dq > dr && dq > ds:
		q = -r - s
	case dr > ds:
		r = -q - s
	}
	return Coord{Q: int(q), R: int(r)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
