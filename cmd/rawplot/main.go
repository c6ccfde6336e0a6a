package main

import (
	"bytes"
	"flag"
	"fmt"
	"image/color"
	"math/cmplx"
	"os"
	"path/filepath"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/codec"
)

var plotColors = []color.Color{
	color.RGBA{R: 220, G: 50, B: 47, A: 255},
	color.RGBA{R: 38, G: 139, B: 210, A: 255},
	color.RGBA{R: 133, G: 153, B: 0, A: 255},
	color.RGBA{R: 203, G: 75, B: 22, A: 255},
	color.RGBA{R: 108, G: 113, B: 196, A: 255},
	color.RGBA{R: 42, G: 161, B: 152, A: 255},
}

func main() {
	var (
		rawFile = flag.String("raw", "", "Path to raw waveform file")
		traces  = flag.String("traces", "", "Traces to plot, comma-separated (default: all)")
		step    = flag.Int("step", 0, "Step index for stepped files")
		out     = flag.String("o", "out.png", "Output file (.png, .svg or .pdf report)")
		list    = flag.Bool("list", false, "List traces and exit")
	)
	flag.Parse()

	if *rawFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: rawplot -raw <file.raw> -traces 'V(out),I(R1)' [-step n] [-o out.png]")
		fmt.Fprintln(os.Stderr, "       rawplot -raw <file.raw> -list")
		os.Exit(1)
	}

	if err := run(*rawFile, *traces, *step, *out, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(rawFile, traces string, step int, out string, listOnly bool) error {
	f, err := codec.Decode(rawFile, nil)
	if err != nil {
		return err
	}

	if listOnly {
		for _, name := range f.TraceNames() {
			fmt.Println(name)
		}
		return nil
	}

	names := selectNames(f, traces)
	if len(names) == 0 {
		return fmt.Errorf("%s has no data traces to plot", rawFile)
	}

	if strings.EqualFold(filepath.Ext(out), ".pdf") {
		if err := writeReport(f, names, step, out); err != nil {
			return err
		}
		fmt.Printf("Wrote %s (%d traces)\n", out, len(names))
		return nil
	}

	p, err := buildPlot(f, names, step)
	if err != nil {
		return err
	}
	if err := p.Save(10*vg.Inch, 5*vg.Inch, out); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}
	fmt.Printf("Wrote %s (%d traces)\n", out, len(names))
	return nil
}

func selectNames(f *spiceraw.File, traces string) []string {
	if traces == "" {
		var names []string
		for _, t := range f.Traces() {
			names = append(names, t.Name())
		}
		return names
	}
	var names []string
	for _, name := range strings.Split(traces, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

func buildPlot(f *spiceraw.File, names []string, step int) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = f.Plotname()
	p.X.Label.Text = "index"
	if ax := f.Axis(); ax != nil {
		p.X.Label.Text = fmt.Sprintf("%s [%s]", ax.Name(), ax.Type())
	}
	p.Add(plotter.NewGrid())

	for i, name := range names {
		pts, err := points(f, name, step)
		if err != nil {
			return nil, err
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("line for %s: %w", name, err)
		}
		line.Color = plotColors[i%len(plotColors)]
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(name, line)
	}
	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-10)
	return p, nil
}

func points(f *spiceraw.File, name string, step int) (plotter.XYs, error) {
	y, err := wave(f, name, step)
	if err != nil {
		return nil, err
	}
	var x []float64
	if ax := f.Axis(); ax != nil {
		if x, err = ax.Wave(step); err != nil {
			return nil, err
		}
	}
	pts := make(plotter.XYs, len(y))
	for i := range y {
		px := float64(i)
		if x != nil {
			px = x[i]
		}
		pts[i] = plotter.XY{X: px, Y: y[i]}
	}
	return pts, nil
}

// wave resolves one plottable run: the axis by its declared name, real
// traces directly, complex traces by magnitude.
func wave(f *spiceraw.File, name string, step int) ([]float64, error) {
	if ax := f.Axis(); ax != nil && strings.EqualFold(ax.Name(), name) {
		return ax.Wave(step)
	}
	t, err := f.Trace(name)
	if err != nil {
		return nil, err
	}
	if t.Kind().IsComplex() {
		pairs, err := t.WaveComplex(step)
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(pairs))
		for i, v := range pairs {
			out[i] = cmplx.Abs(v)
		}
		return out, nil
	}
	return t.Wave(step)
}

// writeReport renders one page per trace into a PDF, a combined overview
// first.
func writeReport(f *spiceraw.File, names []string, step int, out string) error {
	const (
		margin       = 12.7
		pageWidth    = 297.0 // A4 landscape
		contentWidth = pageWidth - 2*margin
	)
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(margin, margin, margin)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(contentWidth, 10, "Waveform Report", "", 1, "C", false, 0, "")
	pdf.Ln(2)
	pdf.SetFont("Arial", "", 10)
	m := f.Meta()
	for _, line := range []string{
		fmt.Sprintf("Plot: %s", m.Plotname),
		fmt.Sprintf("Dialect: %s", m.Dialect),
		fmt.Sprintf("Points: %d    Steps: %d    Traces: %d", f.Points(), f.StepCount(), len(names)),
	} {
		pdf.CellFormat(contentWidth, 6, line, "", 1, "L", false, 0, "")
	}

	imgW := contentWidth * 0.92
	imgH := imgW * 0.5
	overview, err := renderPNG(f, names, step)
	if err != nil {
		return err
	}
	pdf.Ln(4)
	pdf.RegisterImageReader("overview", "PNG", bytes.NewReader(overview))
	pdf.Image("overview", margin, pdf.GetY(), imgW, imgH, false, "PNG", 0, "")

	for _, name := range names {
		img, err := renderPNG(f, []string{name}, step)
		if err != nil {
			return err
		}
		pdf.AddPage()
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(contentWidth, 8, name, "", 1, "L", false, 0, "")
		pdf.RegisterImageReader(name, "PNG", bytes.NewReader(img))
		pdf.Image(name, margin, pdf.GetY()+2, imgW, imgH, false, "PNG", 0, "")
	}
	return pdf.OutputFileAndClose(out)
}

func renderPNG(f *spiceraw.File, names []string, step int) ([]byte, error) {
	p, err := buildPlot(f, names, step)
	if err != nil {
		return nil, err
	}
	wt, err := p.WriterTo(vg.Points(800), vg.Points(400), "png")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", strings.Join(names, ","), err)
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", strings.Join(names, ","), err)
	}
	return buf.Bytes(), nil
}
