package geo

// kmPerDegree is the fixed planar approximation used for radius-to-degree
// conversion (1 degree ~ 111 km). It degrades near the poles and for large
// radii; the service area is a small country-scale region, so candidates
// from the box are refined by callers if exactness matters.
const kmPerDegree = 111.0

// BoundingBox is an axis-aligned lat/lng box
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoxAround returns the bounding box covering radiusKm around the center
// point, using the planar degree approximation.
func BoxAround(lat, lng, radiusKm float64) BoundingBox {
	delta := radiusKm / kmPerDegree
	return BoundingBox{
		MinLat: lat - delta,
		MaxLat: lat + delta,
		MinLng: lng - delta,
		MaxLng: lng + delta,
	}
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BoundingBox) Contains(lat, lng float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lng >= b.MinLng && lng <= b.MaxLng
}
