package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/polydrive/internal/sim"
)

type ExportSample struct {
	Time      float64 `json:"time"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Theta     float64 `json:"theta"`
	Linear    float64 `json:"linear"`
	Angular   float64 `json:"angular"`
	Phase     string  `json:"phase"`
	TurnCount int     `json:"turn_count"`
}

type ExportData struct {
	Run     RunMetadata    `json:"run"`
	Samples []ExportSample `json:"samples"`
}

// ExportJSON writes a run and its samples as one indented JSON document.
func ExportJSON(w io.Writer, meta *RunMetadata, samples []sim.Sample) error {
	data := ExportData{
		Run:     *meta,
		Samples: make([]ExportSample, len(samples)),
	}
	for i, s := range samples {
		data.Samples[i] = ExportSample{
			Time:      s.Time,
			X:         s.Pose.X,
			Y:         s.Pose.Y,
			Theta:     s.Pose.Theta,
			Linear:    s.Cmd.Linear,
			Angular:   s.Cmd.Angular,
			Phase:     s.Decision.Phase.String(),
			TurnCount: s.TurnCount,
		}
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
