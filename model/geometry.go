package model

import "math"

// Point represents a 2D point
type Point struct {
	X, Y float64
}

// Distance calculates the Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// Rect is a page-local box in top-down coordinates: y grows downward and
// Top <= Bottom for a normalised rectangle.
type Rect struct {
	Left   float64 `json:"left" yaml:"left"`
	Top    float64 `json:"top" yaml:"top"`
	Right  float64 `json:"right" yaml:"right"`
	Bottom float64 `json:"bottom" yaml:"bottom"`
}

// RectFromPoints returns the smallest rectangle containing all points
func RectFromPoints(pts ...Point) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{Left: pts[0].X, Right: pts[0].X, Top: pts[0].Y, Bottom: pts[0].Y}
	for _, p := range pts[1:] {
		r.Left = math.Min(r.Left, p.X)
		r.Right = math.Max(r.Right, p.X)
		r.Top = math.Min(r.Top, p.Y)
		r.Bottom = math.Max(r.Bottom, p.Y)
	}
	return r
}

// Normalize swaps edges so that Left <= Right and Top <= Bottom
func (r Rect) Normalize() Rect {
	if r.Left > r.Right {
		r.Left, r.Right = r.Right, r.Left
	}
	if r.Top > r.Bottom {
		r.Top, r.Bottom = r.Bottom, r.Top
	}
	return r
}

// Width returns the horizontal extent
func (r Rect) Width() float64 {
	return r.Right - r.Left
}

// Height returns the vertical extent
func (r Rect) Height() float64 {
	return r.Bottom - r.Top
}

// CenterY returns the vertical centre
func (r Rect) CenterY() float64 {
	return (r.Top + r.Bottom) / 2
}

// CenterX returns the horizontal centre
func (r Rect) CenterX() float64 {
	return (r.Left + r.Right) / 2
}

// Union returns the smallest rectangle containing both
func (r Rect) Union(other Rect) Rect {
	return Rect{
		Left:   math.Min(r.Left, other.Left),
		Top:    math.Min(r.Top, other.Top),
		Right:  math.Max(r.Right, other.Right),
		Bottom: math.Max(r.Bottom, other.Bottom),
	}
}

// OverlapsVertically reports whether the vertical bands [Top, Bottom] of
// both rectangles share at least one point.
func (r Rect) OverlapsVertically(other Rect) bool {
	return r.Top <= other.Bottom && other.Top <= r.Bottom
}

// Intersects checks if two rectangles intersect
func (r Rect) Intersects(other Rect) bool {
	return r.OverlapsVertically(other) && r.Left <= other.Right && other.Left <= r.Right
}

// Translate shifts the rectangle by dx, dy
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{Left: r.Left + dx, Top: r.Top + dy, Right: r.Right + dx, Bottom: r.Bottom + dy}
}

// IsEmpty returns true if the rectangle has no area
func (r Rect) IsEmpty() bool {
	return r.Width() <= 0 || r.Height() <= 0
}

// Matrix represents a 2D affine transformation matrix [a b c d e f]
type Matrix [6]float64

// Identity returns an identity matrix
func Identity() Matrix {
	return Matrix{1, 0, 0, 1, 0, 0}
}

// Transform applies the matrix transformation to a point
func (m Matrix) Transform(p Point) Point {
	return Point{
		X: m[0]*p.X + m[2]*p.Y + m[4],
		Y: m[1]*p.X + m[3]*p.Y + m[5],
	}
}

// Multiply returns m × other: the result applies m first, then other
func (m Matrix) Multiply(other Matrix) Matrix {
	return Matrix{
		m[0]*other[0] + m[1]*other[2],
		m[0]*other[1] + m[1]*other[3],
		m[2]*other[0] + m[3]*other[2],
		m[2]*other[1] + m[3]*other[3],
		m[4]*other[0] + m[5]*other[2] + other[4],
		m[4]*other[1] + m[5]*other[3] + other[5],
	}
}

// Corners maps the four corners of the rectangle (llx, lly)-(urx, ury)
func (m Matrix) Corners(llx, lly, urx, ury float64) []Point {
	return []Point{
		m.Transform(Point{llx, lly}),
		m.Transform(Point{urx, lly}),
		m.Transform(Point{urx, ury}),
		m.Transform(Point{llx, ury}),
	}
}

// Translate creates a translation matrix
func Translate(tx, ty float64) Matrix {
	return Matrix{1, 0, 0, 1, tx, ty}
}

// Scale creates a scaling matrix
func Scale(sx, sy float64) Matrix {
	return Matrix{sx, 0, 0, sy, 0, 0}
}

// Rotate creates a rotation matrix (angle in radians)
func Rotate(angle float64) Matrix {
	cos := math.Cos(angle)
	sin := math.Sin(angle)
	return Matrix{cos, sin, -sin, cos, 0, 0}
}

// IsIdentity returns true if the matrix is an identity matrix
func (m Matrix) IsIdentity() bool {
	return m == Identity()
}
