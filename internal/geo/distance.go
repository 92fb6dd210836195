// Package geo computes great-circle distances for venue discovery and
// provides radius filtering and distance ordering over annotated records.
package geo

import (
	"fmt"
	"math"
	"sort"
)

// EarthRadiusKm is the mean Earth radius used by the spherical law of cosines.
const EarthRadiusKm = 6371.0

// DistanceKm returns the great-circle distance in kilometres between two
// coordinates, via the spherical law of cosines. The acos argument is
// clamped to [-1, 1] so floating-point drift on coincident or antipodal
// points cannot produce NaN.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	p1 := lat1 * math.Pi / 180
	p2 := lat2 * math.Pi / 180
	dl := (lng2 - lng1) * math.Pi / 180

	inner := math.Sin(p1)*math.Sin(p2) + math.Cos(p1)*math.Cos(p2)*math.Cos(dl)
	inner = math.Max(-1, math.Min(1, inner))

	return EarthRadiusKm * math.Acos(inner)
}

// Annotated pairs a record with its computed distance from the viewer.
// DistanceKm is nil when either the viewer position or the record position
// is unknown.
type Annotated[T any] struct {
	Record     T
	DistanceKm *float64
}

// Annotate computes the distance from the viewer to every record. at
// extracts the record's coordinates; nil coordinates on either side yield a
// nil distance rather than zero.
func Annotate[T any](records []T, at func(T) (lat, lng *float64), viewerLat, viewerLng *float64) []Annotated[T] {
	out := make([]Annotated[T], len(records))
	for i, r := range records {
		out[i] = Annotated[T]{Record: r}
		if viewerLat == nil || viewerLng == nil {
			continue
		}
		lat, lng := at(r)
		if lat == nil || lng == nil {
			continue
		}
		d := DistanceKm(*viewerLat, *viewerLng, *lat, *lng)
		out[i].DistanceKm = &d
	}
	return out
}

// FilterRadius keeps records within radiusKm of the viewer. Records without
// a computed distance are dropped. The filter degrades to a no-op when the
// radius or the viewer position is missing, so an unknown position never
// empties the result set.
func FilterRadius[T any](items []Annotated[T], viewerLat, viewerLng, radiusKm *float64) []Annotated[T] {
	if radiusKm == nil || viewerLat == nil || viewerLng == nil {
		return items
	}
	out := make([]Annotated[T], 0, len(items))
	for _, it := range items {
		if it.DistanceKm != nil && *it.DistanceKm <= *radiusKm {
			out = append(out, it)
		}
	}
	return out
}

// SortByDistance orders items ascending by distance, ties broken by name for
// a deterministic result. Records without a distance sort last. The sort is
// stable so the caller's default ordering survives among equals.
func SortByDistance[T any](items []Annotated[T], name func(T) string) {
	sort.SliceStable(items, func(i, j int) bool {
		di, dj := items[i].DistanceKm, items[j].DistanceKm
		switch {
		case di == nil && dj == nil:
			return name(items[i].Record) < name(items[j].Record)
		case di == nil:
			return false
		case dj == nil:
			return true
		case *di != *dj:
			return *di < *dj
		default:
			return name(items[i].Record) < name(items[j].Record)
		}
	})
}

// DistanceSQL returns a SQL expression computing the same spherical-law
// distance against stored coordinate columns, with its bind arguments. Used
// to push radius filtering and distance ordering into the database so large
// venue tables are never transferred before filtering. LEAST/GREATEST
// perform the clamp (postgres).
func DistanceSQL(latCol, lngCol string, viewerLat, viewerLng float64) (string, []any) {
	expr := fmt.Sprintf(
		"(%f * ACOS(GREATEST(-1.0, LEAST(1.0, "+
			"SIN(RADIANS(?)) * SIN(RADIANS(%s)) + "+
			"COS(RADIANS(?)) * COS(RADIANS(%s)) * COS(RADIANS(%s) - RADIANS(?))))))",
		EarthRadiusKm, latCol, latCol, lngCol,
	)
	return expr, []any{viewerLat, viewerLat, viewerLng}
}
