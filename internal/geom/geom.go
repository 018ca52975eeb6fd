package geom

import "math"

// Coord3D is a world-space position or direction. Z is up.
type Coord3D struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Up is the unit vector used when a push or pull direction degenerates.
var Up = Coord3D{Z: 1}

// Add returns c + o.
func (c Coord3D) Add(o Coord3D) Coord3D {
	return Coord3D{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

// Sub returns c - o.
func (c Coord3D) Sub(o Coord3D) Coord3D {
	return Coord3D{X: c.X - o.X, Y: c.Y - o.Y, Z: c.Z - o.Z}
}

// Scale multiplies every component by f.
func (c Coord3D) Scale(f float64) Coord3D {
	return Coord3D{X: c.X * f, Y: c.Y * f, Z: c.Z * f}
}

// Dot returns the 3-D dot product.
func (c Coord3D) Dot(o Coord3D) float64 {
	return c.X*o.X + c.Y*o.Y + c.Z*o.Z
}

// LengthSqr returns the squared 3-D length.
func (c Coord3D) LengthSqr() float64 {
	return c.X*c.X + c.Y*c.Y + c.Z*c.Z
}

// Length returns the 3-D length.
func (c Coord3D) Length() float64 {
	return math.Sqrt(c.LengthSqr())
}

// Length2D returns the length of the XY projection.
func (c Coord3D) Length2D() float64 {
	return math.Hypot(c.X, c.Y)
}

// IsZero reports whether every component is exactly zero.
func (c Coord3D) IsZero() bool {
	return c.X == 0 && c.Y == 0 && c.Z == 0
}

// Normalize returns the unit vector along c, or fallback when c has no length.
func (c Coord3D) Normalize(fallback Coord3D) Coord3D {
	length := c.Length()
	if length < Epsilon {
		return fallback
	}
	return c.Scale(1 / length)
}

// Epsilon is the length under which vectors are treated as degenerate.
const Epsilon = 1e-6

// DistSqr returns the squared 3-D distance between a and b.
func DistSqr(a, b Coord3D) float64 {
	return a.Sub(b).LengthSqr()
}

// DistSqr2D returns the squared distance between the XY projections of a and b.
func DistSqr2D(a, b Coord3D) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx + dy*dy
}

// Dist2D returns the distance between the XY projections of a and b.
func Dist2D(a, b Coord3D) float64 {
	return math.Sqrt(DistSqr2D(a, b))
}

// RotateXY rotates the XY components of c counter-clockwise by angle radians.
func RotateXY(c Coord3D, angle float64) Coord3D {
	if angle == 0 {
		return c
	}
	sin, cos := math.Sincos(angle)
	return Coord3D{
		X: c.X*cos - c.Y*sin,
		Y: c.X*sin + c.Y*cos,
		Z: c.Z,
	}
}

// Heading returns the XY angle of the vector from a to b.
func Heading(a, b Coord3D) float64 {
	return math.Atan2(b.Y-a.Y, b.X-a.X)
}

// Clamp limits value to the range [min, max].
func Clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}

// WithinCone reports whether point lies inside the cone whose apex sits at
// origin, opens along facing (radians) and has the given half angle. The test
// compares the normalized dot product against cos(halfAngle) so no angle
// wrap-around arithmetic is needed. A point on the apex is inside.
func WithinCone(origin Coord3D, facing float64, halfAngle float64, point Coord3D) bool {
	if halfAngle <= 0 || halfAngle >= math.Pi {
		return true
	}
	dx := point.X - origin.X
	dy := point.Y - origin.Y
	length := math.Hypot(dx, dy)
	if length < Epsilon {
		return true
	}
	sin, cos := math.Sincos(facing)
	dot := (dx*cos + dy*sin) / length
	return dot >= math.Cos(halfAngle)
}

// DistanceToBox returns the XY distance from point to the oriented rectangle
// centred on center with half extents halfX, halfY rotated by angle. Points
// inside the rectangle report zero.
func DistanceToBox(point, center Coord3D, halfX, halfY, angle float64) float64 {
	local := RotateXY(point.Sub(center), -angle)
	closestX := Clamp(local.X, -halfX, halfX)
	closestY := Clamp(local.Y, -halfY, halfY)
	return math.Hypot(local.X-closestX, local.Y-closestY)
}

// PointSegmentDistSqr2D returns the squared XY distance from point to the
// segment a-b together with the normalized position of the closest point
// along the segment.
func PointSegmentDistSqr2D(point, a, b Coord3D) (float64, float64) {
	abX := b.X - a.X
	abY := b.Y - a.Y
	lengthSqr := abX*abX + abY*abY
	if lengthSqr < Epsilon {
		return DistSqr2D(point, a), 0
	}
	t := ((point.X-a.X)*abX + (point.Y-a.Y)*abY) / lengthSqr
	t = Clamp(t, 0, 1)
	closest := Coord3D{X: a.X + abX*t, Y: a.Y + abY*t}
	return DistSqr2D(point, closest), t
}
