package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(f float64) *float64 { return &f }

type venue struct {
	Name string
	Lat  *float64
	Lng  *float64
}

func venueCoords(v venue) (*float64, *float64) { return v.Lat, v.Lng }
func venueName(v venue) string                 { return v.Name }

func TestDistanceKm(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "coincident points",
			lat1: 40.8518, lng1: 14.2681,
			lat2: 40.8518, lng2: 14.2681,
			want: 0, tolerance: 1e-9,
		},
		{
			name: "naples to rome",
			lat1: 40.8518, lng1: 14.2681,
			lat2: 41.9028, lng2: 12.4964,
			want: 188.7, tolerance: 2.0,
		},
		{
			name: "antipodal points",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 180,
			want: 20015.1, tolerance: 1.0,
		},
		{
			name: "equator quarter turn",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 90,
			want: 10007.5, tolerance: 1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	a := DistanceKm(40.8518, 14.2681, 45.4642, 9.19)
	b := DistanceKm(45.4642, 9.19, 40.8518, 14.2681)
	assert.InDelta(t, a, b, 1e-9)
}

func TestAnnotate(t *testing.T) {
	venues := []venue{
		{Name: "A", Lat: ptr(40.86), Lng: ptr(14.27)},
		{Name: "B", Lat: nil, Lng: nil},
	}

	annotated := Annotate(venues, venueCoords, ptr(40.8518), ptr(14.2681))
	require.Len(t, annotated, 2)
	require.NotNil(t, annotated[0].DistanceKm)
	assert.Greater(t, *annotated[0].DistanceKm, 0.0)
	assert.Less(t, *annotated[0].DistanceKm, 2.0)
	assert.Nil(t, annotated[1].DistanceKm)
}

func TestAnnotate_UnknownViewerPosition(t *testing.T) {
	venues := []venue{{Name: "A", Lat: ptr(40.86), Lng: ptr(14.27)}}

	annotated := Annotate(venues, venueCoords, nil, nil)
	require.Len(t, annotated, 1)
	assert.Nil(t, annotated[0].DistanceKm)

	// Without a viewer position the radius filter degrades to a no-op.
	assert.Equal(t, annotated, FilterRadius(annotated, nil, nil, nil))
	assert.Equal(t, annotated, FilterRadius(annotated, nil, nil, ptr(10)))
}

func TestFilterRadius(t *testing.T) {
	venues := []venue{
		{Name: "near", Lat: ptr(40.86), Lng: ptr(14.27)},
		{Name: "far", Lat: ptr(45.4642), Lng: ptr(9.19)},
		{Name: "unknown", Lat: nil, Lng: nil},
	}
	viewerLat, viewerLng := ptr(40.8518), ptr(14.2681)
	annotated := Annotate(venues, venueCoords, viewerLat, viewerLng)

	within := FilterRadius(annotated, viewerLat, viewerLng, ptr(50))
	require.Len(t, within, 1)
	assert.Equal(t, "near", within[0].Record.Name)

	all := FilterRadius(annotated, viewerLat, viewerLng, nil)
	assert.Len(t, all, 3)
}

func TestSortByDistance(t *testing.T) {
	items := []Annotated[venue]{
		{Record: venue{Name: "no-coords"}},
		{Record: venue{Name: "far"}, DistanceKm: ptr(120)},
		{Record: venue{Name: "near"}, DistanceKm: ptr(3)},
		{Record: venue{Name: "alpha"}, DistanceKm: ptr(50)},
		{Record: venue{Name: "beta"}, DistanceKm: ptr(50)},
	}

	SortByDistance(items, venueName)

	names := make([]string, len(items))
	for i, it := range items {
		names[i] = it.Record.Name
	}
	assert.Equal(t, []string{"near", "alpha", "beta", "far", "no-coords"}, names)
}

func TestDistanceSQL(t *testing.T) {
	expr, args := DistanceSQL("locales.latitudine", "locales.longitudine", 40.8518, 14.2681)

	assert.Contains(t, expr, "ACOS")
	assert.Contains(t, expr, "GREATEST(-1.0, LEAST(1.0")
	assert.Contains(t, expr, "locales.latitudine")
	assert.Contains(t, expr, "locales.longitudine")
	assert.Equal(t, []any{40.8518, 40.8518, 14.2681}, args)
}
