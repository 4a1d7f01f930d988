// Command sidewing embeds a payload into one carrier record or a whole
// dataset directory of them, writing one output record per post.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fxamacker/cbor/v2"
	flag "github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	sidewing "github.com/NasoohOlabi/stego-side-wing"
	"github.com/NasoohOlabi/stego-side-wing/finder"
	"github.com/NasoohOlabi/stego-side-wing/thread"
)

type settings struct {
	Post           string  `json:"post"`
	Payload        string  `json:"payload"`
	PayloadFile    string  `json:"payload_file"`
	Angles         int     `json:"angles"`
	Out            string  `json:"out"`
	Format         string  `json:"format"`
	FinderURL      string  `json:"finder_url"`
	FinderMinScore float64 `json:"finder_min_score"`
	Dataset        string  `json:"dataset"`
	OutDir         string  `json:"out_dir"`
	Limit          int     `json:"limit"`
	MaxLiteralLen  int     `json:"max_literal_len"`
	MinMatch       int     `json:"min_match"`
}

func main() {
	var cfgPath string
	var s settings

	flag.StringVar(&cfgPath, "config", "", "optional JSONC settings file; flags override it")
	flag.StringVar(&s.Post, "post", "", "carrier record JSON file")
	flag.StringVar(&s.Payload, "payload", "", "payload text (or {payload: ...} JSON)")
	flag.StringVar(&s.PayloadFile, "payload-file", "", "read the payload from a file instead")
	flag.IntVar(&s.Angles, "angles", 0, "target angle count (0 fills the pool)")
	flag.StringVar(&s.Out, "out", "", "output file (default stdout)")
	flag.StringVar(&s.Format, "format", "json", "output format: json or cbor")
	flag.StringVar(&s.FinderURL, "finder-url", "", "quote finder endpoint (optional)")
	flag.Float64Var(&s.FinderMinScore, "finder-min-score", 0, "reject finder matches below this score")
	flag.StringVar(&s.Dataset, "dataset", "", "process every *.json post in this directory")
	flag.StringVar(&s.OutDir, "out-dir", "", "output directory for dataset mode")
	flag.IntVar(&s.Limit, "limit", 0, "stop after this many dataset files (0 = all)")
	flag.IntVar(&s.MaxLiteralLen, "max-literal-len", 0, "compressor literal run bound")
	flag.IntVar(&s.MinMatch, "min-match", 0, "compressor minimum-savings threshold")
	flag.Parse()

	if cfgPath != "" {
		if err := mergeConfigFile(cfgPath, &s); err != nil {
			fatal(err)
		}
	}
	if err := run(&s); err != nil {
		fatal(err)
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "sidewing:", err)
	os.Exit(1)
}

// mergeConfigFile fills in settings the command line left at their zero
// value; explicitly passed flags always win.
func mergeConfigFile(path string, s *settings) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	var fromFile settings
	if err := json.Unmarshal(jsonc.ToJSON(data), &fromFile); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	changed := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { changed[f.Name] = true })
	if !changed["post"] && s.Post == "" {
		s.Post = fromFile.Post
	}
	if !changed["payload"] && s.Payload == "" {
		s.Payload = fromFile.Payload
	}
	if !changed["payload-file"] && s.PayloadFile == "" {
		s.PayloadFile = fromFile.PayloadFile
	}
	if !changed["angles"] && s.Angles == 0 {
		s.Angles = fromFile.Angles
	}
	if !changed["out"] && s.Out == "" {
		s.Out = fromFile.Out
	}
	if !changed["format"] && fromFile.Format != "" {
		s.Format = fromFile.Format
	}
	if !changed["finder-url"] && s.FinderURL == "" {
		s.FinderURL = fromFile.FinderURL
	}
	if !changed["finder-min-score"] && s.FinderMinScore == 0 {
		s.FinderMinScore = fromFile.FinderMinScore
	}
	if !changed["dataset"] && s.Dataset == "" {
		s.Dataset = fromFile.Dataset
	}
	if !changed["out-dir"] && s.OutDir == "" {
		s.OutDir = fromFile.OutDir
	}
	if !changed["limit"] && s.Limit == 0 {
		s.Limit = fromFile.Limit
	}
	if !changed["max-literal-len"] && s.MaxLiteralLen == 0 {
		s.MaxLiteralLen = fromFile.MaxLiteralLen
	}
	if !changed["min-match"] && s.MinMatch == 0 {
		s.MinMatch = fromFile.MinMatch
	}
	return nil
}

func buildEncoder(s *settings) *sidewing.Encoder {
	opts := []sidewing.Option{
		sidewing.WithTargetAngles(s.Angles),
	}
	if s.MaxLiteralLen > 0 {
		opts = append(opts, sidewing.WithMaxLiteralLen(s.MaxLiteralLen))
	}
	if s.MinMatch > 0 {
		opts = append(opts, sidewing.WithMinMatch(s.MinMatch))
	}
	if s.FinderURL != "" {
		opts = append(opts, sidewing.WithFinder(
			finder.New(s.FinderURL, finder.WithMinScore(s.FinderMinScore))))
	}
	return sidewing.NewEncoder(opts...)
}

func loadPayload(s *settings) (string, error) {
	if s.PayloadFile != "" {
		data, err := os.ReadFile(s.PayloadFile)
		if err != nil {
			return "", fmt.Errorf("reading payload: %w", err)
		}
		return thread.DecodePayload(data), nil
	}
	return thread.DecodePayload([]byte(s.Payload)), nil
}

func run(s *settings) error {
	payload, err := loadPayload(s)
	if err != nil {
		return err
	}
	enc := buildEncoder(s)
	if s.Dataset != "" {
		return runDataset(s, enc, payload)
	}
	if s.Post == "" {
		return fmt.Errorf("either --post or --dataset is required")
	}
	record, err := loadRecord(s.Post)
	if err != nil {
		return err
	}
	out, err := encodeOne(enc, record, payload, s.Format)
	if err != nil {
		return err
	}
	return writeOut(s.Out, out)
}

// runDataset mirrors the upstream batch driver: every *.json post in
// the dataset directory is processed once, files with an existing
// output are skipped, and each result lands next to its input name.
func runDataset(s *settings, enc *sidewing.Encoder, payload string) error {
	outDir := s.OutDir
	if outDir == "" {
		return fmt.Errorf("--out-dir is required with --dataset")
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(s.Dataset)
	if err != nil {
		return fmt.Errorf("reading dataset: %w", err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	processed := 0
	for _, name := range names {
		if s.Limit > 0 && processed >= s.Limit {
			break
		}
		outPath := filepath.Join(outDir, outputName(name, s.Format))
		if _, err := os.Stat(outPath); err == nil {
			continue // already processed
		}
		record, err := loadRecord(filepath.Join(s.Dataset, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "sidewing: skipping %s: %v\n", name, err)
			continue
		}
		out, err := encodeOne(enc, record, payload, s.Format)
		if err != nil {
			fmt.Fprintf(os.Stderr, "sidewing: skipping %s: %v\n", name, err)
			continue
		}
		if err := os.WriteFile(outPath, out, 0o644); err != nil {
			return err
		}
		processed++
	}
	fmt.Fprintf(os.Stderr, "sidewing: processed %d of %d files\n", processed, len(names))
	return nil
}

func outputName(inputName, format string) string {
	base := strings.TrimSuffix(inputName, ".json")
	if format == "cbor" {
		return base + ".cbor"
	}
	return base + ".json"
}

func loadRecord(path string) (*thread.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading carrier: %w", err)
	}
	return thread.DecodeRecord(data)
}

// encodeOne runs the pipeline and serializes either the output record
// or, for aborted encodes, the {error, warnings} form.
func encodeOne(enc *sidewing.Encoder, record *thread.Record, payload, format string) ([]byte, error) {
	res, err := enc.Encode(context.Background(), record, payload)
	if err != nil {
		if errors.Is(err, sidewing.ErrEmptyPayload) {
			return marshal(map[string]any{
				"error":    err.Error(),
				"warnings": []string{},
			}, format)
		}
		return nil, err
	}
	return marshal(res, format)
}

func marshal(v any, format string) ([]byte, error) {
	switch format {
	case "cbor":
		return cbor.Marshal(v)
	case "json", "":
		return json.MarshalIndent(v, "", "  ")
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func writeOut(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
