package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	imagegrounding "github.com/menta2k/image-grounding"
	"github.com/menta2k/image-grounding/internal/config"
	"github.com/menta2k/image-grounding/internal/utils"
	"github.com/menta2k/image-grounding/pkg/annotate"
	"github.com/menta2k/image-grounding/pkg/client"
	"github.com/menta2k/image-grounding/pkg/detection"
	"github.com/menta2k/image-grounding/pkg/gemini"
	"github.com/menta2k/image-grounding/pkg/llamacpp"
	"github.com/menta2k/image-grounding/pkg/ollama"
	"github.com/menta2k/image-grounding/pkg/processing"
	"github.com/menta2k/image-grounding/pkg/tiling"
)

func usage(w io.Writer) {
	name := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "usage: %s <command> [flags] <args>\n\n", name)
	fmt.Fprintln(w, "commands:")
	fmt.Fprintln(w, "  crop <image|dir>                 crop image into overlapping squares")
	fmt.Fprintln(w, "  detect <image_file> [-o output]  detect the target and draw its box")
}

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "crop":
		err = runCrop(os.Args[2:])
	case "detect":
		err = runDetect(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
		return
	default:
		usage(os.Stderr)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("error: %v", err)
	}
}

// parseArgs parses flags that may appear before or after positional arguments
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		if fs.NArg() == 0 {
			return positional, nil
		}
		positional = append(positional, fs.Arg(0))
		args = fs.Args()[1:]
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	cfg.ApplyEnv()
	return cfg, nil
}

func newGrounder(cfg *config.Config, outDir string, det *detection.Detector) (*imagegrounding.Grounder, error) {
	col, err := annotate.ParseColor(cfg.Annotation.Color)
	if err != nil {
		return nil, err
	}
	return imagegrounding.NewWithOptions(imagegrounding.Options{
		OutputDir:   outDir,
		TileFormat:  cfg.Output.TileFormat,
		Processing:  processingOptions(cfg),
		Color:       col,
		StrokeWidth: cfg.Annotation.StrokeWidth,
		ShowLabel:   cfg.Annotation.ShowLabel,
	}, det), nil
}

func processingOptions(cfg *config.Config) processing.Options {
	return processing.Options{
		Quality:     cfg.Output.Quality,
		Lossless:    cfg.Output.Lossless,
		SendFormat:  cfg.Detection.SendFormat,
		SendSize:    cfg.Detection.SendSize,
		SendQuality: cfg.Detection.SendQuality,
	}
}

func runCrop(args []string) error {
	fs := flag.NewFlagSet("crop", flag.ExitOnError)
	var cfgPath, outDir, format string
	fs.StringVar(&cfgPath, "config", "", "config file (json or yaml)")
	fs.StringVar(&outDir, "out", "", "output directory (default from config)")
	fs.StringVar(&format, "ext", "", "tile format: png|jpg|webp (default from config)")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: crop [-out dir] [-ext png|jpg|webp] <image|dir>")
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if outDir != "" {
		cfg.Output.OutputDir = outDir
	}
	if format != "" {
		cfg.Output.TileFormat = strings.TrimPrefix(format, ".")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := utils.EnsureDir(cfg.Output.OutputDir); err != nil {
		return err
	}

	g, err := newGrounder(cfg, cfg.Output.OutputDir, nil)
	if err != nil {
		return err
	}

	inputs := positional
	if utils.DirExists(positional[0]) {
		if inputs, err = utils.ListImageFiles(positional[0]); err != nil {
			return err
		}
	}

	for _, in := range inputs {
		n, err := g.CropFile(in)
		if err != nil {
			return fmt.Errorf("%s: %w", in, err)
		}
		log.Printf("Created %d crops of size %dx%d from %s", n, tiling.TileSize, tiling.TileSize, in)
	}
	return nil
}

func newVisionClient(ctx context.Context, cfg *config.Config) (client.VisionClient, error) {
	switch cfg.Detection.Backend {
	case "gemini":
		c, err := gemini.NewClient(ctx, cfg.Detection.APIKey)
		if err != nil {
			return nil, err
		}
		c.SetTimeout(cfg.Detection.Timeout)
		c.SetThinkingBudget(cfg.Detection.ThinkingBudget)
		return c, nil
	case "ollama":
		c, err := ollama.NewClient(cfg.BackendURL())
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		c.SetTimeout(cfg.Detection.Timeout)
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.BackendURL())
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		c.SetTimeout(cfg.Detection.Timeout)
		return c, nil
	}
	return nil, fmt.Errorf("unknown backend: %s (use gemini, ollama or llamacpp)", cfg.Detection.Backend)
}

func runDetect(args []string) error {
	fs := flag.NewFlagSet("detect", flag.ExitOnError)
	var cfgPath, output, backend, model, url, target, jsonOut string
	var label bool
	fs.StringVar(&cfgPath, "config", "", "config file (json or yaml)")
	fs.StringVar(&output, "o", "", "output path for annotated image (default: adds '_anno' to input filename)")
	fs.StringVar(&output, "output", "", "output path for annotated image (default: adds '_anno' to input filename)")
	fs.StringVar(&backend, "backend", "", "backend: gemini|ollama|llamacpp (default from config)")
	fs.StringVar(&model, "model", "", "model name (default from config)")
	fs.StringVar(&url, "url", "", "server URL for ollama/llamacpp")
	fs.StringVar(&target, "target", "", "object to detect (default from config)")
	fs.StringVar(&jsonOut, "json", "", "also write the grounding result as JSON to this path")
	fs.BoolVar(&label, "label", false, "draw the detection label above the box")

	positional, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(positional) != 1 {
		return fmt.Errorf("usage: detect [-o output] <image_file>")
	}
	in := positional[0]

	if err := config.LoadEnv(); err != nil {
		return err
	}
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	if backend != "" {
		cfg.Detection.Backend = backend
		if model == "" && backend != "gemini" && cfg.Detection.Model == gemini.DefaultModel {
			return fmt.Errorf("-model is required for the %s backend", backend)
		}
	}
	if model != "" {
		cfg.Detection.Model = model
	}
	if url != "" {
		cfg.Detection.URL = url
	}
	if target != "" {
		cfg.Detection.Target = target
	}
	if label {
		cfg.Annotation.ShowLabel = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	if output == "" {
		output = utils.AnnotatedPath(in, cfg.Output.AnnotationTag)
	}

	ctx := context.Background()
	vc, err := newVisionClient(ctx, cfg)
	if err != nil {
		return err
	}

	det := detection.NewDetector(vc, processing.NewProcessorWithOptions(processingOptions(cfg)), cfg.Detection.Model)
	det.SetPrompt(detection.PromptFor(cfg.Detection.Target))
	if cfg.Detection.Echo {
		det.SetEcho(os.Stdout)
	}

	g, err := newGrounder(cfg, cfg.Output.OutputDir, det)
	if err != nil {
		return err
	}

	gr, err := g.DetectFile(ctx, in, output)
	if cfg.Detection.Echo {
		fmt.Println()
	}
	if err != nil {
		return err
	}

	b := gr.Detection.Box
	log.Printf("box_2d: [%d, %d, %d, %d]", b.YMin, b.XMin, b.YMax, b.XMax)
	log.Printf("Real box_2d: [%d, %d, %d, %d]", gr.Pixel.YMin, gr.Pixel.XMin, gr.Pixel.YMax, gr.Pixel.XMax)
	log.Printf("Annotated image saved to: %s", gr.Output)

	if jsonOut != "" {
		js, err := json.MarshalIndent(gr, "", "  ")
		if err != nil {
			return err
		}
		if err := os.WriteFile(jsonOut, js, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", jsonOut, err)
		}
		log.Printf("wrote %s", jsonOut)
	}
	return nil
}
