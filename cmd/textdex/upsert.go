package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/textdex"
)

// maxLineSize bounds one JSONL record.
const maxLineSize = 4 << 20

type jsonlDocument struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

func newUpsertCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "upsert <file.jsonl>",
		Short: "Bulk load documents from a JSON Lines file",
		Long: `Reads one {"id": ..., "fields": {...}} object per line and upserts them
in batches of index.max_batch_size. Use "-" to read from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				in = f
			}

			c, cfg, err := root.openClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			n, err := loadJSONL(cmd, c, in, cfg.Index.MaxBatchSize)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "upserted %d documents (generation %d)\n", n, c.Generation())
			return nil
		},
	}
}

// loadJSONL upserts every record of r in batches of batchSize.
// Records before a failed batch stay committed.
func loadJSONL(cmd *cobra.Command, c *textdex.Client, r io.Reader, batchSize int) (int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineSize)

	var (
		batch []textdex.Document
		total int
		line  int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := c.Upsert(cmd.Context(), batch); err != nil {
			return fmt.Errorf("batch ending at line %d: %w", line, err)
		}
		total += len(batch)
		batch = batch[:0]
		return nil
	}

	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		doc, err := parseJSONLine(sc.Bytes())
		if err != nil {
			return total, fmt.Errorf("line %d: %w", line, err)
		}
		batch = append(batch, doc)
		if len(batch) >= batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := sc.Err(); err != nil {
		return total, fmt.Errorf("read line %d: %w", line+1, err)
	}
	return total, flush()
}

func parseJSONLine(b []byte) (textdex.Document, error) {
	var rec jsonlDocument
	if err := json.Unmarshal(b, &rec); err != nil {
		return textdex.Document{}, err
	}
	fields := make(map[string][]any, len(rec.Fields))
	for name, v := range rec.Fields {
		if list, ok := v.([]any); ok {
			fields[name] = list
			continue
		}
		fields[name] = []any{v}
	}
	return textdex.NewDocument(rec.ID, fields)
}
