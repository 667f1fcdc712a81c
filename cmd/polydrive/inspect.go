package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/polydrive/internal/control"
	"github.com/san-kum/polydrive/internal/dynamo"
	"github.com/san-kum/polydrive/internal/sim"
	"github.com/san-kum/polydrive/internal/storage"
	"github.com/san-kum/polydrive/internal/viz"
)

var (
	svgOut    string
	svgWidth  int
	svgHeight int
)

func inspectCommands() []*cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot heading and commands over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	pathCmd := &cobra.Command{
		Use:   "path [run_id]",
		Short: "draw the travelled path",
		Args:  cobra.ExactArgs(1),
		RunE:  pathRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "export the path and ideal polygon as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&svgOut, "output", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&svgWidth, "width", 600, "width in pixels")
	exportSVGCmd.Flags().IntVar(&svgHeight, "height", 600, "height in pixels")

	return []*cobra.Command{listCmd, plotCmd, pathCmd, exportJSONCmd, exportCSVCmd, exportSVGCmd}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSIDES\tLENGTH\tDT\tJITTER\tINTEG\tDONE\tCLOSURE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.4fs\t%.2f\t%s\t%v\t%.4f\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Polygon.NumOfSides,
			run.Polygon.LengthOfSide,
			run.Dt,
			run.Jitter,
			run.Integrator,
			run.Finished,
			run.Metrics["closure_error"],
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []sim.Sample, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(samples) == 0 {
		return nil, nil, fmt.Errorf("run %s has no samples", runID)
	}
	return meta, samples, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("polygon: %d sides, length %.2f\n", meta.Polygon.NumOfSides, meta.Polygon.LengthOfSide)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(sim.Sample) float64
	}{
		{"theta (heading)", func(s sim.Sample) float64 { return s.Pose.Theta }},
		{"linear velocity", func(s sim.Sample) float64 { return s.Cmd.Linear }},
		{"angular velocity", func(s sim.Sample) float64 { return s.Cmd.Angular }},
		{"corners completed", func(s sim.Sample) float64 { return float64(s.TurnCount) }},
	}
	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.value(s)
		}
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		))
		fmt.Println()
	}
	return nil
}

func runPoses(samples []sim.Sample) []dynamo.Pose {
	poses := make([]dynamo.Pose, len(samples))
	for i, s := range samples {
		poses[i] = s.Pose
	}
	return poses
}

func pathRun(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	poses := runPoses(samples)
	ideal := control.IdealVertices(meta.Polygon, meta.Start)
	c := viz.NewCanvas(60, 30)
	bounds := viz.BoundsOf(0.1, poses, ideal)
	c.PlotPath(bounds, ideal)
	c.PlotPath(bounds, poses)

	fmt.Printf("run: %s\n\n", meta.ID)
	fmt.Print(c.String())
	fmt.Printf("\nx [%.2f, %.2f]  y [%.2f, %.2f]\n", bounds.MinX, bounds.MaxX, bounds.MinY, bounds.MaxY)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.ExportJSON(os.Stdout, meta, samples)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return storage.WriteSamplesCSV(os.Stdout, samples)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, samples, err := loadRun(args[0])
	if err != nil {
		return err
	}

	ideal := control.IdealVertices(meta.Polygon, meta.Start)
	svg := viz.PathToSVG(runPoses(samples), ideal, svgWidth, svgHeight)
	if svgOut == "" {
		_, err := fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", svgOut)
	return nil
}
