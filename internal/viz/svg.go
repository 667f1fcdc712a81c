package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/polydrive/internal/dynamo"
)

// PathToSVG draws the ideal polygon dashed underneath the travelled path.
// Either slice may be empty.
func PathToSVG(path, ideal []dynamo.Pose, width, height int) string {
	b := BoundsOf(0.1, path, ideal)
	project := func(p dynamo.Pose) (float64, float64) {
		x := (p.X - b.MinX) / (b.MaxX - b.MinX) * float64(width)
		y := float64(height) - (p.Y-b.MinY)/(b.MaxY-b.MinY)*float64(height)
		return x, y
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height)

	if len(ideal) > 1 {
		sb.WriteString(`<path id="ideal" fill="none" stroke="#444466" stroke-width="1" stroke-dasharray="4 3" d="`)
		writePathData(&sb, ideal, project)
		sb.WriteString("\"/>\n")
	}
	if len(path) > 1 {
		sb.WriteString(`<path id="travelled" fill="none" stroke="#00ff88" stroke-width="1.5" d="`)
		writePathData(&sb, path, project)
		sb.WriteString("\"/>\n")
	}
	if len(path) > 0 {
		x, y := project(path[0])
		fmt.Fprintf(&sb, "<circle id=\"start\" cx=\"%.1f\" cy=\"%.1f\" r=\"3\" fill=\"#00ccff\"/>\n", x, y)
	}

	sb.WriteString("</svg>")
	return sb.String()
}

func writePathData(sb *strings.Builder, poses []dynamo.Pose, project func(dynamo.Pose) (float64, float64)) {
	for i, p := range poses {
		x, y := project(p)
		if i == 0 {
			fmt.Fprintf(sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(sb, " L%.1f,%.1f", x, y)
		}
	}
}
