// Command vecsegctl is a demonstration harness for pkg/segment: it
// builds a single in-process segment, optionally loads vectors from a
// JSON file, and runs queries against it. It never persists anything -
// the segment is rebuilt from scratch on every invocation. This is a
// convenience for exercising the library interactively, not part of
// its core contract.
package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/liliang-cn/vecseg/pkg/filter"
	"github.com/liliang-cn/vecseg/pkg/metric"
	"github.com/liliang-cn/vecseg/pkg/payload"
	"github.com/liliang-cn/vecseg/pkg/segment"
)

var (
	dim        int
	metricName string
	dataFile   string
)

var rootCmd = &cobra.Command{
	Use:   "vecsegctl",
	Short: "demo CLI for the vecseg filter-aware HNSW segment",
	Long:  "A command-line demonstration of pkg/segment: create, insert, and search points against an in-process segment.",
}

type point struct {
	Vector  []float32         `json:"vector"`
	Payload map[string]string `json:"payload,omitempty"`
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "construct a segment (optionally seeded from --data) and report its configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSegment()
		if err != nil {
			return err
		}
		fmt.Printf("segment %s created: dim=%d metric=%s live=%d\n", s.ID(), dim, metricByName(metricName), s.Len())
		return nil
	},
}

var insertCmd = &cobra.Command{
	Use:   "insert",
	Short: "load points from --data (if given), insert one more point, and report its id",
	RunE: func(cmd *cobra.Command, args []string) error {
		vectorStr, _ := cmd.Flags().GetString("vector")
		payloadStr, _ := cmd.Flags().GetString("payload")

		vec, err := parseVector(vectorStr)
		if err != nil {
			return err
		}
		rec, err := parsePayload(payloadStr)
		if err != nil {
			return err
		}

		s, err := buildSegment()
		if err != nil {
			return err
		}

		id, err := s.Insert(vec, rec)
		if err != nil {
			return fmt.Errorf("insert failed: %w", err)
		}
		fmt.Printf("inserted id=%d live=%d\n", id, s.Len())
		return nil
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "load points from --data and run a top-K search",
	RunE: func(cmd *cobra.Command, args []string) error {
		vectorStr, _ := cmd.Flags().GetString("vector")
		topK, _ := cmd.Flags().GetInt("top-k")
		filterStr, _ := cmd.Flags().GetString("filter")

		query, err := parseVector(vectorStr)
		if err != nil {
			return err
		}

		s, err := buildSegment()
		if err != nil {
			return err
		}

		var results []segment.Result
		if filterStr != "" {
			f, parseErr := parseEqualityFilter(filterStr)
			if parseErr != nil {
				return parseErr
			}
			results, err = s.SearchWithFilter(query, topK, f)
		} else {
			results, err = s.Search(query, topK)
		}
		if err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		for i, r := range results {
			fmt.Printf("%d. id=%d score=%.4f payload=%v\n", i+1, r.ID, r.Score, r.Payload)
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "load points from --data and print segment statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := buildSegment()
		if err != nil {
			return err
		}
		fmt.Printf("segment %s: %d live points, dim=%d, metric=%s\n", s.ID(), s.Len(), dim, metricByName(metricName))
		return nil
	},
}

// buildSegment constructs a segment from --data if given, otherwise an
// empty one at --dim. --dim is required in the empty case since there
// is no first point to infer it from.
func buildSegment() (*segment.Segment, error) {
	if dataFile == "" {
		if dim == 0 {
			return nil, fmt.Errorf("--dim is required when --data is not given")
		}
		cfg := segment.DefaultConfig(dim, metricByName(metricName))
		return segment.New(cfg)
	}

	raw, err := os.ReadFile(dataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read data file: %w", err)
	}

	var points []point
	if err := json.Unmarshal(raw, &points); err != nil {
		return nil, fmt.Errorf("failed to parse data file: %w", err)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("data file has no points")
	}
	if dim == 0 {
		dim = len(points[0].Vector)
	}

	cfg := segment.DefaultConfig(dim, metricByName(metricName))
	s, err := segment.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to construct segment: %w", err)
	}

	for _, p := range points {
		rec := payload.Record{}
		for k, v := range p.Payload {
			rec[k] = payload.Str(v)
		}
		if len(rec) == 0 {
			rec = nil
		}
		if _, err := s.Insert(p.Vector, rec); err != nil {
			return nil, fmt.Errorf("insert failed: %w", err)
		}
	}
	return s, nil
}

func metricByName(name string) metric.Kind {
	switch strings.ToLower(name) {
	case "cosine":
		return metric.Cosine
	case "dot":
		return metric.Dot
	default:
		return metric.Euclidean
	}
}

func parseVector(s string) ([]float32, error) {
	parts := strings.Split(s, ",")
	out := make([]float32, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vector component %q: %w", part, err)
		}
		out = append(out, float32(v))
	}
	return out, nil
}

// parsePayload turns a comma-separated "field=value,field2=value2"
// string into a string-valued payload.Record. An empty string yields a
// nil record (no payload attached).
func parsePayload(s string) (payload.Record, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	rec := payload.Record{}
	for _, kv := range strings.Split(s, ",") {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("payload entry must be field=value, got %q", kv)
		}
		rec[strings.TrimSpace(parts[0])] = payload.Str(strings.TrimSpace(parts[1]))
	}
	return rec, nil
}

// parseEqualityFilter turns a "field=value" string into a Match filter
// over a string payload value; this demo only supports that one shape.
func parseEqualityFilter(s string) (filter.Filter, error) {
	kv := strings.SplitN(s, "=", 2)
	if len(kv) != 2 {
		return filter.Filter{}, fmt.Errorf("filter must be field=value, got %q", s)
	}
	return filter.Match(strings.TrimSpace(kv[0]), payload.Str(strings.TrimSpace(kv[1]))), nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataFile, "data", "", "JSON file of points to load")
	rootCmd.PersistentFlags().IntVar(&dim, "dim", 0, "vector dimension (0 = infer from first point in --data)")
	rootCmd.PersistentFlags().StringVar(&metricName, "metric", "euclidean", "distance metric (euclidean|cosine|dot)")

	insertCmd.Flags().String("vector", "", "vector to insert (comma-separated)")
	insertCmd.Flags().String("payload", "", "optional comma-separated field=value payload")
	insertCmd.MarkFlagRequired("vector")

	searchCmd.Flags().String("vector", "", "query vector (comma-separated)")
	searchCmd.Flags().Int("top-k", 10, "number of results")
	searchCmd.Flags().String("filter", "", "optional field=value equality filter")
	searchCmd.MarkFlagRequired("vector")

	rootCmd.AddCommand(createCmd, insertCmd, searchCmd, statsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
