package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"math/cmplx"
	"os"
	"strings"

	"golang.org/x/term"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/spicekit/spiceraw"
	"github.com/spicekit/spiceraw/codec"
)

const previewLen = 8

func main() {
	var (
		rawFile     = flag.String("raw", "", "Path to raw waveform file")
		list        = flag.Bool("list", false, "List traces and exit")
		traceName   = flag.String("trace", "", "Trace to inspect")
		step        = flag.Int("step", 0, "Step index for stepped files")
		asJSON      = flag.Bool("json", false, "Emit JSON instead of text")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *rawFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: rawview -raw <file.raw> [-trace name] [-step n] [-json]")
		fmt.Fprintln(os.Stderr, "       rawview -raw <file.raw> -list")
		fmt.Fprintln(os.Stderr, "       rawview -raw <file.raw> -i  (interactive mode)")
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*rawFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*rawFile, *traceName, *step, *list, *asJSON); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(rawFile, traceName string, step int, listOnly, asJSON bool) error {
	f, err := codec.Decode(rawFile, nil)
	if err != nil {
		return err
	}
	if listOnly {
		return printList(f, asJSON)
	}
	if traceName != "" {
		return printTrace(f, traceName, step, asJSON)
	}
	return printSummary(f, rawFile, asJSON)
}

type traceSummary struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Kind string `json:"kind"`
}

type fileSummary struct {
	Path     string         `json:"path"`
	Title    string         `json:"title,omitempty"`
	Date     string         `json:"date,omitempty"`
	Plotname string         `json:"plotname"`
	Command  string         `json:"command,omitempty"`
	Dialect  string         `json:"dialect"`
	Flags    []string       `json:"flags,omitempty"`
	Points   int            `json:"points"`
	Steps    int            `json:"steps"`
	Axis     *traceSummary  `json:"axis,omitempty"`
	Traces   []traceSummary `json:"traces"`
}

func summarize(f *spiceraw.File, path string) fileSummary {
	m := f.Meta()
	s := fileSummary{
		Path:     path,
		Title:    m.Title,
		Date:     m.Date,
		Plotname: m.Plotname,
		Command:  m.Command,
		Dialect:  m.Dialect.String(),
		Flags:    flagNames(f),
		Points:   f.Points(),
		Steps:    f.StepCount(),
	}
	if ax := f.Axis(); ax != nil {
		s.Axis = &traceSummary{Name: ax.Name(), Type: ax.Type(), Kind: "float64"}
	}
	for _, t := range f.Traces() {
		s.Traces = append(s.Traces, traceSummary{Name: t.Name(), Type: t.Type(), Kind: t.Kind().String()})
	}
	return s
}

func flagNames(f *spiceraw.File) []string {
	fl := f.Flags()
	var names []string
	if fl.Complex {
		names = append(names, "complex")
	}
	if fl.Stepped {
		names = append(names, "stepped")
	}
	if fl.FastAccess {
		names = append(names, "fastaccess")
	}
	if fl.Double {
		names = append(names, "double")
	}
	names = append(names, fl.Unknown...)
	return names
}

func printSummary(f *spiceraw.File, path string, asJSON bool) error {
	s := summarize(f, path)
	if asJSON {
		return emitJSON(s)
	}
	fmt.Printf("File: %s\n", s.Path)
	if s.Title != "" {
		fmt.Printf("Title: %s\n", s.Title)
	}
	if s.Date != "" {
		fmt.Printf("Date: %s\n", s.Date)
	}
	fmt.Printf("Plotname: %s\n", s.Plotname)
	fmt.Printf("Dialect: %s\n", s.Dialect)
	if len(s.Flags) > 0 {
		fmt.Printf("Flags: %s\n", strings.Join(s.Flags, " "))
	}
	fmt.Printf("Points: %d\n", s.Points)
	if s.Steps > 1 {
		fmt.Printf("Steps: %d\n", s.Steps)
	}

	fmt.Printf("\nTraces:\n")
	if s.Axis != nil {
		fmt.Printf("  %s [%s] %s (axis)\n", s.Axis.Name, s.Axis.Type, s.Axis.Kind)
	}
	for _, t := range s.Traces {
		fmt.Printf("  %s [%s] %s\n", t.Name, t.Type, t.Kind)
	}
	return nil
}

func printList(f *spiceraw.File, asJSON bool) error {
	if asJSON {
		return emitJSON(f.TraceNames())
	}
	for _, name := range f.TraceNames() {
		fmt.Println(name)
	}
	return nil
}

type traceStats struct {
	Name    string    `json:"name"`
	Step    int       `json:"step"`
	N       int       `json:"n"`
	Min     float64   `json:"min"`
	Max     float64   `json:"max"`
	Mean    float64   `json:"mean"`
	StdDev  float64   `json:"stddev"`
	RMS     float64   `json:"rms"`
	Preview []float64 `json:"preview"`
}

func printTrace(f *spiceraw.File, name string, step int, asJSON bool) error {
	w, err := wave(f, name, step)
	if err != nil {
		return err
	}
	st := traceStats{Name: name, Step: step, N: len(w)}
	if len(w) > 0 {
		st.Min = floats.Min(w)
		st.Max = floats.Max(w)
		st.Mean, st.StdDev = stat.MeanStdDev(w, nil)
		var sq float64
		for _, v := range w {
			sq += v * v
		}
		st.RMS = math.Sqrt(sq / float64(len(w)))
		st.Preview = w[:min(previewLen, len(w))]
	}
	if asJSON {
		return emitJSON(st)
	}
	fmt.Printf("Trace: %s  step %d/%d\n", st.Name, st.Step, f.StepCount())
	fmt.Printf("Points: %d\n", st.N)
	if st.N > 0 {
		fmt.Printf("Min: %g  Max: %g\n", st.Min, st.Max)
		fmt.Printf("Mean: %g  StdDev: %g  RMS: %g\n", st.Mean, st.StdDev, st.RMS)
		fmt.Printf("Preview: %v\n", st.Preview)
	}
	return nil
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

func emitJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
