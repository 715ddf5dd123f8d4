package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nmeylan/json-parser-flat-format"
	"github.com/spf13/cobra"
)

// Root-level persistent flags, shared by every subcommand that parses input.
var (
	maxDepth          uint8
	startAt           string
	parseArray        bool
	keepObjectRawData bool
	expandTo          uint8
	batchConcurrency  int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "flatjson",
	Short: "Parse JSON into a flattened, pointer-addressed representation",
	Long: `flatjson turns JSON documents into a flat list of RFC 6901 pointer
addressed entries instead of a conventional tree, optionally bounding how
deep it descends before falling back to raw capture.`,
}

var parseCmd = &cobra.Command{
	Use:   "parse <file>",
	Short: "Parse a JSON document and print its flattened entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var expandCmd = &cobra.Command{
	Use:   "expand <file>",
	Short: "Parse shallow, then depth-expand, and print all resulting entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runExpand,
}

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Parse, serialize, and print pretty JSON (round-trip check)",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var jsonlCmd = &cobra.Command{
	Use:   "jsonl <file>",
	Short: "Parse JSON-Lines input and print its row and entry counts",
	Args:  cobra.ExactArgs(1),
	RunE:  runJSONL,
}

var batchCmd = &cobra.Command{
	Use:   "batch <dir>",
	Short: "Parse every *.json/*.jsonl file in a directory concurrently",
	Args:  cobra.ExactArgs(1),
	RunE:  runBatch,
}

func init() {
	rootCmd.PersistentFlags().Uint8Var(&maxDepth, "max-depth", 255, "stop descending and capture raw past this depth")
	rootCmd.PersistentFlags().StringVar(&startAt, "start-at", "", "restrict output to entries under this JSON Pointer")
	rootCmd.PersistentFlags().BoolVar(&parseArray, "parse-array", true, "parse array elements instead of capturing arrays raw")
	rootCmd.PersistentFlags().BoolVar(&keepObjectRawData, "keep-raw", false, "retain raw text on expanded object entries too")

	expandCmd.Flags().Uint8Var(&expandTo, "to-depth", 255, "max depth to expand to")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 4, "number of files to parse in parallel")

	rootCmd.AddCommand(parseCmd, expandCmd, renderCmd, jsonlCmd, batchCmd)
}

func buildOptions() []flatjson.Option {
	opts := []flatjson.Option{
		flatjson.WithMaxDepth(maxDepth),
		flatjson.WithParseArray(parseArray),
		flatjson.WithKeepObjectRawData(keepObjectRawData),
	}
	if startAt != "" {
		opts = append(opts, flatjson.WithStartParseAt(startAt))
	}
	return opts
}

func runParse(cmd *cobra.Command, args []string) error {
	buf, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	result, err := flatjson.Parse(buf, buildOptions()...)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	for _, e := range result.Entries {
		if e.HasValue {
			fmt.Printf("%-32s %-16s %s\n", e.Key.Pointer, e.Key.ValueType, e.Value.String())
		} else {
			fmt.Printf("%-32s %-16s\n", e.Key.Pointer, e.Key.ValueType)
		}
	}
	return nil
}

func runExpand(cmd *cobra.Command, args []string) error {
	buf, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	result, err := flatjson.Parse(buf, buildOptions()...)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	if err := flatjson.ChangeDepth(result, expandTo); err != nil {
		return fmt.Errorf("expanding %s: %w", args[0], err)
	}
	for _, e := range result.Entries {
		fmt.Printf("%-32s %-16s\n", e.Key.Pointer, e.Key.ValueType)
	}
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	buf, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	result, err := flatjson.Parse(buf, buildOptions()...)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	out, err := flatjson.ToJSON(result)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", args[0], err)
	}
	fmt.Println(string(out))
	return nil
}

func runJSONL(cmd *cobra.Command, args []string) error {
	buf, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	result, err := flatjson.ParseJSONL(buf, buildOptions()...)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", args[0], err)
	}
	fmt.Printf("%d row(s), %d total entries\n", result.Entries[0].Key.ValueType.Len, len(result.Entries))
	return nil
}

// runBatch walks dir for *.json/*.jsonl files and parses them through a
// bounded worker pool, logging each file's correlation ID so a caller
// can trace a single file's run back through shared log output.
func runBatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var paths []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".json", ".jsonl":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking %s: %w", dir, err)
	}

	sem := make(chan struct{}, batchConcurrency)
	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, path := range paths {
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()

			buf, err := os.ReadFile(path)
			if err != nil {
				logger.Error("read failed", "path", path, "error", err)
				return
			}

			var entries int
			var correlationID string
			if filepath.Ext(path) == ".jsonl" || flatjson.IsJSONL(buf) {
				result, err := flatjson.ParseJSONL(buf, buildOptions()...)
				if err != nil {
					logger.Error("parse failed", "path", path, "error", err)
					return
				}
				entries, correlationID = len(result.Entries), result.CorrelationID
			} else {
				result, err := flatjson.Parse(buf, buildOptions()...)
				if err != nil {
					logger.Error("parse failed", "path", path, "error", err)
					return
				}
				entries, correlationID = len(result.Entries), result.CorrelationID
			}

			mu.Lock()
			fmt.Printf("%s: %d entries (correlation_id=%s)\n", path, entries, correlationID)
			mu.Unlock()
		}(path)
	}
	wg.Wait()
	return nil
}
