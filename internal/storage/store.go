package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/san-kum/polydrive/internal/config"
	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/sim"
)

const (
	metadataFile = "metadata.json"
	samplesFile  = "samples.csv"
)

var samplesHeader = []string{"time", "x", "y", "theta", "linear", "angular", "phase", "turn_count"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string                `json:"id"`
	Timestamp  time.Time             `json:"timestamp"`
	Controller string                `json:"controller"`
	Integrator string                `json:"integrator"`
	Polygon    control.PolygonConfig `json:"polygon"`
	Start      dynamo.Pose           `json:"start"`
	Seed       int64                 `json:"seed"`
	Dt         float64               `json:"dt"`
	Duration   float64               `json:"duration"`
	Jitter     float64               `json:"jitter"`
	Steps      int                   `json:"steps"`
	Finished   bool                  `json:"finished"`
	Metrics    map[string]float64    `json:"metrics"`
}

// Save writes a run directory and returns its id.
func (s *Store) Save(cfg *config.Config, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", cfg.Controller, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", errors.Wrapf(err, "creating run dir %s", runDir)
	}

	meta := RunMetadata{
		ID:         runID,
		Timestamp:  now,
		Controller: cfg.Controller,
		Integrator: cfg.Integrator,
		Polygon:    cfg.Polygon,
		Start:      cfg.StartPose(),
		Seed:       cfg.Sim.Seed,
		Dt:         cfg.Sim.Dt,
		Duration:   cfg.Sim.Duration,
		Jitter:     cfg.Sim.Jitter,
		Steps:      result.StepsTaken,
		Finished:   result.Finished,
		Metrics:    result.Metrics,
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, samplesFile), result.Samples); err != nil {
		return "", err
	}
	return runID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating metadata")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return errors.Wrap(err, "encoding metadata")
	}
	return nil
}

func writeSamples(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "creating samples")
	}
	defer f.Close()
	return WriteSamplesCSV(f, samples)
}

// WriteSamplesCSV writes samples in the samples.csv layout, header first.
func WriteSamplesCSV(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(samplesHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			formatFloat(smp.Time),
			formatFloat(smp.Pose.X),
			formatFloat(smp.Pose.Y),
			formatFloat(smp.Pose.Theta),
			formatFloat(smp.Cmd.Linear),
			formatFloat(smp.Cmd.Angular),
			smp.Decision.Phase.String(),
			strconv.Itoa(smp.TurnCount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "run %s metadata", runID)
	}
	return &meta, nil
}

// LoadSamples reads a run's samples back. Rows that fail to parse are skipped.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	file, err := os.Open(filepath.Join(s.baseDir, runID, samplesFile))
	if err != nil {
		return nil, errors.Wrapf(err, "run %s", runID)
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "run %s samples", runID)
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		smp, ok := parseSample(record)
		if !ok {
			continue
		}
		smp.Tick = i
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(record []string) (sim.Sample, bool) {
	if len(record) != len(samplesHeader) {
		return sim.Sample{}, false
	}
	vals := make([]float64, 6)
	for i := range vals {
		v, err := strconv.ParseFloat(record[i], 64)
		if err != nil {
			return sim.Sample{}, false
		}
		vals[i] = v
	}
	phase, err := control.ParsePhase(record[6])
	if err != nil {
		return sim.Sample{}, false
	}
	turns, err := strconv.Atoi(record[7])
	if err != nil {
		return sim.Sample{}, false
	}

	cmd := dynamo.Twist{Linear: vals[4], Angular: vals[5]}
	return sim.Sample{
		Time:      vals[0],
		Pose:      dynamo.Pose{X: vals[1], Y: vals[2], Theta: vals[3]},
		Cmd:       cmd,
		Decision:  control.Decision{Cmd: cmd, Phase: phase},
		TurnCount: turns,
	}, true
}
