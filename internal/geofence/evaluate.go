package geofence

// Zone is the view of a mission the evaluator needs. Defined here so the
// evaluator stays free of the mission package.
type Zone interface {
	ZoneActive() bool
	ZoneGeometry() *Geometry
}

// Result reports whether a location falls inside any active zone and, if so,
// which one.
type Result struct {
	InZone bool
	Zone   Zone
}

// Evaluate returns the first zone, in input order, that is active, has
// geometry, and contains p. First-match is the documented tie-break when a
// point sits inside several overlapping zones. A zone whose geometry fails
// to evaluate is skipped; it never aborts evaluation of the remaining zones.
func Evaluate(p Point, zones []Zone) Result {
	for _, z := range zones {
		if z == nil || !z.ZoneActive() || z.ZoneGeometry() == nil {
			continue
		}
		inside, err := IsInside(p, z.ZoneGeometry())
		if err != nil {
			continue
		}
		if inside {
			return Result{InZone: true, Zone: z}
		}
	}
	return Result{}
}
