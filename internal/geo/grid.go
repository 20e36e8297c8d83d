package geo

import (
	"math"
	"sort"
)

// DefaultCellDeg is the grid cell edge used when NewGrid is given a
// non-positive size.
const DefaultCellDeg = 0.01

type cellKey struct {
	x, y int64
}

// Grid buckets points into square cells so bounding-box queries touch only
// the cells that overlap the box instead of scanning every point.
type Grid struct {
	cellDeg float64
	points  []Point
	cells   map[cellKey][]int
}

// NewGrid indexes points. Points with non-finite coordinates are skipped and
// can never be returned by Within. Indices refer to positions in points.
func NewGrid(points []Point, cellDeg float64) *Grid {
	if cellDeg <= 0 || math.IsNaN(cellDeg) {
		cellDeg = DefaultCellDeg
	}
	g := &Grid{
		cellDeg: cellDeg,
		points:  points,
		cells:   make(map[cellKey][]int),
	}
	for i, p := range points {
		if !p.IsValid() {
			continue
		}
		k := g.key(p.Lat, p.Lon)
		g.cells[k] = append(g.cells[k], i)
	}
	return g
}

func (g *Grid) key(lat, lon float64) cellKey {
	return cellKey{
		x: int64(math.Floor(lon / g.cellDeg)),
		y: int64(math.Floor(lat / g.cellDeg)),
	}
}

// Point returns the indexed point at i.
func (g *Grid) Point(i int) Point {
	return g.points[i]
}

// Within returns the indices of points whose latitude and longitude both lie
// in the closed range [center-halfWidthDeg, center+halfWidthDeg]. The result
// is sorted ascending.
func (g *Grid) Within(center Point, halfWidthDeg float64) []int {
	if !center.IsValid() || halfWidthDeg < 0 || math.IsNaN(halfWidthDeg) {
		return nil
	}
	minLat, maxLat := center.Lat-halfWidthDeg, center.Lat+halfWidthDeg
	minLon, maxLon := center.Lon-halfWidthDeg, center.Lon+halfWidthDeg

	lo := g.key(minLat, minLon)
	hi := g.key(maxLat, maxLon)

	var out []int
	for y := lo.y; y <= hi.y; y++ {
		for x := lo.x; x <= hi.x; x++ {
			for _, i := range g.cells[cellKey{x: x, y: y}] {
				p := g.points[i]
				if p.Lat >= minLat && p.Lat <= maxLat && p.Lon >= minLon && p.Lon <= maxLon {
					out = append(out, i)
				}
			}
		}
	}
	sort.Ints(out)
	return out
}
