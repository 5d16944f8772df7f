// Command linepreview renders a line document to PNG on the CPU.
//
//	linepreview -doc lines.yaml -out lines.png [-width 800 -height 600] [-verify]
//
// With -verify every line is also drawn reversed and the coverage difference is reported.
package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"os"
	"slices"
	"strconv"

	"github.com/Carmen-Shannon/oxy-lines/engine/config"
	"github.com/Carmen-Shannon/oxy-lines/engine/preview"
	"github.com/npillmayer/schuko/schukonf/testconfig"
	"github.com/npillmayer/schuko/tracing"
	"github.com/npillmayer/schuko/tracing/gologadapter"
	"github.com/npillmayer/schuko/tracing/trace2go"
	"github.com/pterm/pterm"
)

func tracer() tracing.Trace {
	return tracing.Select("oxy.preview")
}

func main() {
	initDisplay()

	tlevel := flag.String("trace", "Error", "Trace level [Debug|Info|Error]")
	docPath := flag.String("doc", "", "Line document (path or URL)")
	outPath := flag.String("out", "lines.png", "Output PNG")
	width := flag.Int("width", 0, "Image width, overrides the document viewport")
	height := flag.Int("height", 0, "Image height, overrides the document viewport")
	workers := flag.Int("workers", 4, "Number of workers")
	verify := flag.Bool("verify", false, "Compare every line with its reversal")
	flag.Parse()

	if err := initTracing(*tlevel); err != nil {
		fatalf("%v", err)
	}
	if *docPath == "" {
		fatalf("-doc is required")
	}

	ctx := context.Background()
	doc, err := config.Load(ctx, *docPath)
	if err != nil {
		fatalf("%v", err)
	}
	lines, err := doc.Resolve()
	if err != nil {
		fatalf("%v", err)
	}
	size := doc.ViewportSize([2]int{512, 512})
	if *width > 0 {
		size[0] = *width
	}
	if *height > 0 {
		size[1] = *height
	}
	if size[0] <= 0 || size[1] <= 0 {
		fatalf("image size must be > 0, got %dx%d", size[0], size[1])
	}

	r := preview.NewRenderer(
		preview.WithSize(size[0], size[1]),
		preview.WithWorkers(*workers),
		preview.WithBackground(background(doc.Background)),
	)
	img := r.Render(lines)

	f, err := os.Create(*outPath)
	if err != nil {
		fatalf("cannot create output: %v", err)
	}
	if err := preview.WritePNG(f, img); err != nil {
		f.Close()
		fatalf("%v", err)
	}
	if err := f.Close(); err != nil {
		fatalf("cannot close output: %v", err)
	}
	pterm.Info.Printf("wrote %d lines at %dx%d to %s\n", len(lines), size[0], size[1], *outPath)

	if *verify {
		if !verifyReversal(r, lines) {
			os.Exit(2)
		}
	}
}

// verifyReversal prints the coverage of each line next to its reversal and reports whether all
// lines stayed within one percent of differing pixels.
func verifyReversal(r preview.Renderer, lines []config.ResolvedLine) bool {
	ok := true
	data := pterm.TableData{{"Line", "Style", "Covered", "Reversed", "Differing"}}
	for _, l := range lines {
		forward := r.Coverage(l)
		back := l
		back.Points = slices.Clone(l.Points)
		slices.Reverse(back.Points)
		backward := r.Coverage(back)

		diff, err := preview.Compare(forward, backward, 128)
		if err != nil {
			pterm.Error.Println(err.Error())
			return false
		}
		covered := preview.Covered(forward)
		if diff*100 > covered {
			ok = false
		}
		data = append(data, []string{
			l.Name,
			fmt.Sprintf("%s/%s", l.Style.Join, l.Style.Cap),
			strconv.Itoa(covered),
			strconv.Itoa(preview.Covered(backward)),
			strconv.Itoa(diff),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	if !ok {
		pterm.Error.Println("some lines are not congruent with their reversal")
	}
	return ok
}

func background(c []float64) color.Color {
	if len(c) != 4 {
		return color.Transparent
	}
	ch := func(v float64) uint8 { return uint8(min(1, max(0, v))*255 + 0.5) }
	return color.NRGBA{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: ch(c[3])}
}

func initTracing(level string) error {
	tracing.RegisterTraceAdapter("go", gologadapter.GetAdapter(), false)
	conf := testconfig.Conf{
		"tracing.adapter":    "go",
		"trace.oxy.preview":  level,
		"trace.oxy.config":   level,
		"trace.oxy.geometry": level,
	}
	if err := trace2go.ConfigureRoot(conf, "trace", trace2go.ReplaceTracers(true)); err != nil {
		return fmt.Errorf("cannot configure tracing: %w", err)
	}
	tracing.SetTraceSelector(trace2go.Selector())
	switch level {
	case "Debug":
		tracer().SetTraceLevel(tracing.LevelDebug)
	case "Info":
		tracer().SetTraceLevel(tracing.LevelInfo)
	case "Error":
		tracer().SetTraceLevel(tracing.LevelError)
	default:
		return fmt.Errorf("invalid trace level: %s", level)
	}
	return nil
}

// pterm for moderately fancy output.
func initDisplay() {
	pterm.Info.Prefix = pterm.Prefix{
		Text:  " !  ",
		Style: pterm.NewStyle(pterm.BgCyan, pterm.FgBlack),
	}
	pterm.Error.Prefix = pterm.Prefix{
		Text:  " Error",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}
}

func fatalf(format string, args ...any) {
	pterm.Error.Println(fmt.Sprintf(format, args...))
	os.Exit(1)
}
