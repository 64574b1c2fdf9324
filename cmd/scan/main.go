// scan - one-shot road scene analysis. Reads a single image, runs it
// through the vision model, and prints the verdict as text or JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/roadwatch/roadwatch/internal/config"
	"github.com/roadwatch/roadwatch/internal/log"
	"github.com/roadwatch/roadwatch/pkg/analysis"
	"github.com/roadwatch/roadwatch/pkg/capture"
	"github.com/roadwatch/roadwatch/pkg/speech"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	asJSON := flag.Bool("json", false, "Print the raw result as JSON")
	speak := flag.Bool("speak", false, "Read the verdict out loud")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: scan [flags] <image>\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}
	log.Init(cfg.LogLevel)

	res, err := analyzeImage(context.Background(), cfg, flag.Arg(0))
	if err != nil {
		fatal(err)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			fatal(err)
		}
	} else {
		printResult(res)
	}

	if *speak {
		if err := speech.Say(context.Background(), res.Spoken(), cfg.Voice.Voice, speech.AplayPlayer{}); err != nil {
			fmt.Fprintf(os.Stderr, "scan: narration failed: %v\n", err)
		}
	}
}

func analyzeImage(ctx context.Context, cfg *config.Config, path string) (*analysis.Result, error) {
	client, err := analysis.NewClient(
		analysis.WithAPIKey(cfg.Analysis.APIKey),
		analysis.WithBaseURL(cfg.Analysis.BaseURL),
		analysis.WithModel(cfg.Analysis.Model),
		analysis.WithTimeout(cfg.Analysis.Timeout),
		analysis.WithLogger(log.L()),
	)
	if err != nil {
		return nil, err
	}
	defer client.Close()

	src, err := capture.OpenImage(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	frame, err := src.Frame()
	if err != nil {
		return nil, err
	}
	return client.Analyze(ctx, frame)
}

func printResult(res *analysis.Result) {
	fmt.Printf("Safety: %s\n", res.SafetyLevel)
	if res.Recommendation != "" {
		fmt.Printf("Advice: %s\n", res.Recommendation)
	}
	if len(res.Hazards) > 0 {
		fmt.Println("Hazards:")
		for _, h := range res.Hazards {
			fmt.Printf("  [%s] %s: %s\n", h.Severity, h.Type, h.Description)
		}
	}
	if len(res.Signs) > 0 {
		fmt.Println("Road signs:")
		for _, s := range res.Signs {
			line := fmt.Sprintf("  %s: %s", s.Type, s.Meaning)
			if s.Location != "" {
				line += " (" + s.Location + ")"
			}
			fmt.Println(line)
		}
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "scan: %v\n", err)
	os.Exit(1)
}
