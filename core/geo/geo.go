package geo

import "math"

const earthRadiusKm = 6371.0

// kmPerDegree approximates the surface distance covered by one degree of
// latitude. Movement projection uses a flat-earth step, which is accurate
// enough at city scale.
const kmPerDegree = 111.2

// Point is a geographic coordinate in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance in kilometers between two
// coordinates given in decimal degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := radians(lat1)
	rlon1 := radians(lon1)
	rlat2 := radians(lat2)
	rlon2 := radians(lon2)
	dlat := rlat2 - rlat1
	dlon := rlon2 - rlon1
	a := math.Pow(math.Sin(dlat/2), 2) + math.Cos(rlat1)*math.Cos(rlat2)*math.Pow(math.Sin(dlon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// Bearing returns the constant heading in radians from one coordinate toward
// another, using a planar approximation of the coordinate grid.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	return math.Atan2(lat2-lat1, lon2-lon1)
}

// Advance projects a position moved distKm kilometers along the given bearing
// and returns the new latitude and longitude.
func Advance(lat, lon, bearing, distKm float64) (float64, float64) {
	newLat := lat + distKm*math.Sin(bearing)/kmPerDegree
	newLon := lon + distKm*math.Cos(bearing)/(kmPerDegree*math.Cos(radians(lat)))
	return newLat, newLon
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// DistanceMatrix holds pairwise road distances between named locations, in
// kilometers. Distances are precomputed once at load time.
type DistanceMatrix map[string]map[string]float64

// NewDistanceMatrix builds a symmetric distance matrix from the great-circle
// distances between the given points.
func NewDistanceMatrix(points map[string]Point) DistanceMatrix {
	m := make(DistanceMatrix, len(points))
	for id := range points {
		m[id] = make(map[string]float64, len(points))
	}
	for a, pa := range points {
		for b, pb := range points {
			if a == b {
				m[a][b] = 0
				continue
			}
			m[a][b] = Haversine(pa.Lat, pa.Lon, pb.Lat, pb.Lon)
		}
	}
	return m
}

// Between returns the distance between two locations. Unknown pairs map to
// +Inf so they are never considered reachable.
func (m DistanceMatrix) Between(from, to string) float64 {
	row, ok := m[from]
	if !ok {
		return math.Inf(1)
	}
	d, ok := row[to]
	if !ok {
		return math.Inf(1)
	}
	return d
}
