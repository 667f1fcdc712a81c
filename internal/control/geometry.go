package control

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/san-kum/polydrive/internal/dynamo"
)

// TargetDirection is the absolute heading the agent must reach at the corner
// following turnCount completed corners. It only wraps downward.
func TargetDirection(cfg PolygonConfig, turnCount int) float64 {
	base := 2.0 * math.Pi / float64(cfg.NumOfSides)
	return dynamo.WrapDown(base * float64(turnCount+1))
}

// IdealVertices returns the NumOfSides+1 corners of the polygon the controller
// aims for when starting at start. The first side follows the start heading,
// every later side follows its corner's target direction.
func IdealVertices(cfg PolygonConfig, start dynamo.Pose) []dynamo.Pose {
	vertices := make([]dynamo.Pose, 0, cfg.NumOfSides+1)
	p := start.Point()
	heading := start.Theta
	vertices = append(vertices, start)

	for side := 0; side < cfg.NumOfSides; side++ {
		if side > 0 {
			heading = TargetDirection(cfg, side-1)
		}
		p = p.Add(r2.Point{X: math.Cos(heading), Y: math.Sin(heading)}.Mul(cfg.LengthOfSide))
		vertices = append(vertices, dynamo.Pose{X: p.X, Y: p.Y, Theta: heading})
	}
	return vertices
}
