// Package hotspot places charging or waiting hotspots over ride pickup
// coordinates. It runs k-means for increasing k until the share of pickups
// within RadiusKM of their nearest hotspot reaches the target coverage.
package hotspot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrNoPoints is returned when there is nothing to cluster.
var ErrNoPoints = errors.New("no pickup points")

const earthRadiusKM = 6371.0088

// Point is a pickup location in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate checks the coordinate ranges.
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("lat %v out of range", p.Lat)
	}
	if math.IsNaN(p.Lon) || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("lon %v out of range", p.Lon)
	}
	return nil
}

// Options tunes the placement search.
type Options struct {
	RadiusKM       float64 `json:"radius_km"`
	TargetCoverage float64 `json:"target_coverage"`
	MaxK           int     `json:"max_k"`
	MaxIterations  int     `json:"max_iterations"`
	Seed           int64   `json:"seed"`
}

// SetDefaults fills unset fields.
func (o *Options) SetDefaults() {
	if o.RadiusKM <= 0 {
		o.RadiusKM = 2
	}
	if o.TargetCoverage <= 0 {
		o.TargetCoverage = 0.8
	}
	if o.MaxK <= 0 {
		o.MaxK = 10
	}
	if o.MaxIterations <= 0 {
		o.MaxIterations = 100
	}
	if o.Seed == 0 {
		o.Seed = 1
	}
}

// Validate checks the option ranges.
func (o Options) Validate() error {
	if o.TargetCoverage > 1 {
		return fmt.Errorf("target_coverage %v must be within (0, 1]", o.TargetCoverage)
	}
	if o.MaxK > 100 {
		return fmt.Errorf("max_k %d too large", o.MaxK)
	}
	return nil
}

// Hotspot is one cluster centre.
type Hotspot struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Points  int     `json:"points"`
	Covered int     `json:"covered"`
}

// Placement is the result of a search.
type Placement struct {
	Hotspots []Hotspot `json:"hotspots"`
	Coverage float64   `json:"coverage"`
	K        int       `json:"k"`
}

// Place searches k = 1..MaxK and returns the first placement reaching the
// target coverage, or the best one found.
func Place(ctx context.Context, points []Point, o Options) (Placement, error) {
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return Placement{}, err
	}
	if len(points) == 0 {
		return Placement{}, ErrNoPoints
	}
	for i, p := range points {
		if err := p.Validate(); err != nil {
			return Placement{}, fmt.Errorf("point %d: %w", i, err)
		}
	}
	maxK := o.MaxK
	if d := distinct(points); d < maxK {
		maxK = d
	}

	var best Placement
	for k := 1; k <= maxK; k++ {
		if err := ctx.Err(); err != nil {
			return Placement{}, err
		}
		rng := rand.New(rand.NewSource(o.Seed))
		pl := summarize(points, kmeans(points, k, o.MaxIterations, rng), o.RadiusKM)
		if k == 1 || pl.Coverage > best.Coverage {
			best = pl
		}
		if pl.Coverage >= o.TargetCoverage {
			return pl, nil
		}
	}
	return best, nil
}

// HaversineKM returns the great-circle distance between a and b.
func HaversineKM(a, b Point) float64 {
	lat1, lat2 := a.Lat*math.Pi/180, b.Lat*math.Pi/180
	dLat := lat2 - lat1
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

func kmeans(points []Point, k, maxIter int, rng *rand.Rand) []Point {
	centres := seedPlusPlus(points, k, rng)
	assign := make([]int, len(points))
	dist := make([]float64, len(centres))
	for iter := 0; iter < maxIter; iter++ {
		changed := iter == 0
		for i, p := range points {
			if idx := nearest(p, centres, dist); idx != assign[i] {
				assign[i] = idx
				changed = true
			}
		}
		if !changed {
			break
		}
		for c := range centres {
			var lats, lons []float64
			for i, a := range assign {
				if a == c {
					lats = append(lats, points[i].Lat)
					lons = append(lons, points[i].Lon)
				}
			}
			if len(lats) == 0 {
				continue
			}
			centres[c] = Point{Lat: stat.Mean(lats, nil), Lon: stat.Mean(lons, nil)}
		}
	}
	return centres
}

// seedPlusPlus picks initial centres with probability proportional to the
// squared distance from the nearest centre chosen so far.
func seedPlusPlus(points []Point, k int, rng *rand.Rand) []Point {
	centres := []Point{points[rng.Intn(len(points))]}
	weights := make([]float64, len(points))
	for len(centres) < k {
		for i, p := range points {
			d := math.Inf(1)
			for _, c := range centres {
				d = math.Min(d, HaversineKM(p, c))
			}
			weights[i] = d * d
		}
		total := floats.Sum(weights)
		if total == 0 {
			break
		}
		target := rng.Float64() * total
		pick := -1
		for i, w := range weights {
			if w == 0 {
				continue
			}
			pick = i
			target -= w
			if target <= 0 {
				break
			}
		}
		centres = append(centres, points[pick])
	}
	return centres
}

func nearest(p Point, centres []Point, dist []float64) int {
	for c, ctr := range centres {
		dist[c] = HaversineKM(p, ctr)
	}
	return floats.MinIdx(dist)
}

// summarize attributes every point to its nearest centre and drops empty clusters.
func summarize(points, centres []Point, radius float64) Placement {
	spots := make([]Hotspot, len(centres))
	for c, ctr := range centres {
		spots[c] = Hotspot{Lat: ctr.Lat, Lon: ctr.Lon}
	}
	dist := make([]float64, len(centres))
	covered := 0
	for _, p := range points {
		c := nearest(p, centres, dist)
		spots[c].Points++
		if dist[c] <= radius {
			spots[c].Covered++
			covered++
		}
	}
	kept := spots[:0]
	for _, h := range spots {
		if h.Points > 0 {
			kept = append(kept, h)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Points > kept[j].Points })
	return Placement{
		Hotspots: kept,
		Coverage: float64(covered) / float64(len(points)),
		K:        len(kept),
	}
}

func distinct(points []Point) int {
	seen := make(map[Point]struct{}, len(points))
	for _, p := range points {
		seen[p] = struct{}{}
	}
	return len(seen)
}
