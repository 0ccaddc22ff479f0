// Command pyramidplan prints the per-level dispatch plans of the depth and
// colour pyramids for a viewport and can run both passes on the software
// device, writing every level as a PNG.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/gogpu/pyramid"
	"github.com/gogpu/pyramid/backend"
	_ "github.com/gogpu/pyramid/backend/native"
	"github.com/gogpu/pyramid/backend/software"
	"github.com/gogpu/pyramid/gpucore"
)

func main() {
	var (
		width   = flag.Int("width", 1920, "viewport width")
		height  = flag.Int("height", 1080, "viewport height")
		xrScale = flag.Float64("xr", 1, "double-wide stereo scale")
		reduce  = flag.String("reduce", "max", "depth reduction: max or min")
		lang    = flag.String("lang", "en", "language tag for number formatting")
		run     = flag.Bool("run", false, "run both passes and write PNGs")
		devName = flag.String("backend", backend.Software, "backend used by -run")
		outDir  = flag.String("out", "pyramid_out", "PNG output directory")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		pyramid.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	reduction := pyramid.ReduceMax
	switch *reduce {
	case "max":
	case "min":
		reduction = pyramid.ReduceMin
	default:
		log.Fatalf("unknown reduction %q", *reduce)
	}

	vp := pyramid.Viewport{Width: *width, Height: *height}
	if err := vp.Validate(); err != nil {
		log.Fatal(err)
	}

	p := message.NewPrinter(language.Make(*lang))
	printPlans(p, vp, float32(*xrScale))

	if !*run {
		return
	}
	dev, err := backend.Open(*devName)
	if err != nil {
		log.Fatalf("open backend: %v (available: %s)", err, strings.Join(backend.Available(), ", "))
	}
	sw, ok := dev.(*software.Device)
	if !ok {
		backend.Close(dev)
		log.Fatalf("backend %s cannot upload input textures; use -backend %s", *devName, backend.Software)
	}

	err = runPasses(sw, vp, reduction, float32(*xrScale), *outDir)
	sw.Close()
	if err != nil {
		log.Fatalf("run: %v", err)
	}
	log.Printf("Levels written to %s", *outDir)
}

func printPlans(p *message.Printer, vp pyramid.Viewport, xr float32) {
	chain := pyramid.CalculatePyramidSize(vp.Size(), xr)
	lods := pyramid.PyramidLodCount(vp.Width, vp.Height)
	p.Printf("viewport %s, chain %s, %d levels\n", vp.Size(), chain, lods)

	var dispatches, texels int
	for i := range lods {
		src := pyramid.Size{Width: vp.Width >> i, Height: vp.Height >> i}
		dst := pyramid.Size{Width: src.Width >> 1, Height: src.Height >> 1}
		depth := pyramid.PlanDepthLevel(src.Rect())
		col := pyramid.PlanColorLevel(dst.Rect())

		p.Printf("\nlevel %d: %s -> %s\n", i+1, src, dst)
		p.Printf("  depth  %d dispatches, %d source texels\n", depth.Len(), depth.Area())
		for _, d := range depth.All() {
			p.Printf("    %-22s groups %v\n", d.String(), d.DepthGroups())
		}
		p.Printf("  colour %d dispatches, %d destination texels\n", col.Len(), col.Area())
		for _, d := range col.All() {
			p.Printf("    %-22s groups %v\n", d.String(), d.ColorGroups())
		}
		dispatches += depth.Len() + col.Len()
		texels += int(depth.Area() + col.Area())
	}
	p.Printf("\ntotal %d dispatches over %d texels\n", dispatches, texels)
}

func runPasses(dev *software.Device, vp pyramid.Viewport, r pyramid.DepthReduction, xr float32, outDir string) error {
	bp, err := pyramid.NewBufferPyramid(dev, pyramid.WithDepthReduction(r), pyramid.WithXRScale(xr))
	if err != nil {
		return err
	}
	defer bp.Close()
	if err := bp.CreateBuffers(); err != nil {
		return err
	}

	depth, err := upload(dev, vp, gpucore.TextureFormatR32Float, func(x, y int) [4]float32 {
		v := 0.5 + 0.5*math.Sin(float64(x)/17)*math.Cos(float64(y)/11)
		return [4]float32{float32(v), 0, 0, 1}
	})
	if err != nil {
		return err
	}
	defer dev.DestroyTexture(depth)
	colour, err := upload(dev, vp, gpucore.TextureFormatRGBA16Float, func(x, y int) [4]float32 {
		check := float32((x/32+y/32)%2) * 0.25
		return [4]float32{float32(x) / float32(vp.Width), float32(y) / float32(vp.Height), 0.5 + check, 1}
	})
	if err != nil {
		return err
	}
	defer dev.DestroyTexture(colour)

	enc, err := dev.CreateCommandEncoder("pyramidplan")
	if err != nil {
		return err
	}
	if err := bp.ClearBuffers(enc); err != nil {
		return err
	}
	if err := bp.RenderDepthPyramid(enc, vp, depth); err != nil {
		return err
	}
	if err := bp.RenderColorPyramid(enc, vp, colour); err != nil {
		return err
	}
	if err := dev.Submit(enc); err != nil {
		return err
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	for name, info := range map[string]pyramid.PyramidInfo{"depth": bp.DepthInfo(), "color": bp.ColorInfo()} {
		for m := range info.LodCount + 1 {
			img, err := dev.ReadTexture(gpucore.TextureBinding{Texture: info.Texture, Mip: m})
			if err != nil {
				return err
			}
			path := filepath.Join(outDir, fmt.Sprintf("%s_%02d.png", name, m))
			if err := writeLevel(path, img, vp.Width>>m, vp.Height>>m, 1<<m); err != nil {
				return err
			}
		}
	}
	st := dev.Stats()
	log.Printf("Device: %d dispatches, %d copies, %d blits, %d textures created", st.Dispatches, st.Copies, st.Blits, st.TexturesCreated)
	return nil
}

func upload(dev *software.Device, vp pyramid.Viewport, f gpucore.TextureFormat, fn func(x, y int) [4]float32) (gpucore.TextureID, error) {
	id, err := dev.CreateTexture(&gpucore.TextureDesc{
		Label:  "input",
		Width:  vp.Width,
		Height: vp.Height,
		Format: f,
		Usage:  gpucore.TextureUsageAll,
	})
	if err != nil {
		return gpucore.InvalidID, err
	}
	img := software.NewImage(vp.Width, vp.Height, f.Channels())
	for y := range vp.Height {
		for x := range vp.Width {
			img.SetTexel(x, y, fn(x, y))
		}
	}
	return id, dev.WriteTexture(gpucore.TextureBinding{Texture: id}, img)
}

// writeLevel writes the valid w x h region of a level, flipped so that row
// 0 is at the bottom, and upscaled by scale.
func writeLevel(path string, lvl *software.Image, w, h, scale int) error {
	w, h = min(w, lvl.Width), min(h, lvl.Height)
	src := image.NewRGBA64(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			t := lvl.Texel(x, y)
			if lvl.Channels == 1 {
				t = [4]float32{t[0], t[0], t[0], 1}
			}
			src.SetRGBA64(x, h-1-y, color.RGBA64{R: unit16(t[0]), G: unit16(t[1]), B: unit16(t[2]), A: unit16(t[3])})
		}
	}

	dst := image.NewRGBA64(image.Rect(0, 0, w*scale, h*scale))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, dst); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func unit16(v float32) uint16 {
	return uint16(math.Round(float64(min(max(v, 0), 1)) * 0xffff))
}
