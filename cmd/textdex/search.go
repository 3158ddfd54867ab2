package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/textdex"
	"github.com/kailas-cloud/textdex/internal/version"
)

type filterFlags struct {
	title    string
	statuses []string
	start    int64
	end      int64
	query    string
}

func (f *filterFlags) register(cmd *cobra.Command) {
	all := textdex.AllTime()
	cmd.Flags().StringVarP(&f.title, "title", "t", "", "Query-string query matched against the title")
	cmd.Flags().StringSliceVarP(&f.statuses, "status", "s", nil, "Allowed status values (repeat or comma-separate)")
	cmd.Flags().Int64Var(&f.start, "start", all.Start(), "Inclusive lower time bound (epoch ms)")
	cmd.Flags().Int64Var(&f.end, "end", all.End(), "Inclusive upper time bound (epoch ms)")
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Raw query-string query; ignores the filter flags")
}

func (f *filterFlags) filter() (textdex.Filter, error) {
	return textdex.NewFilter(f.title, f.statuses, f.start, f.end)
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var (
		ff     filterFlags
		offset int
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Search the index",
		Long: `Search the index with a structured filter or a raw query string.

Examples:
  textdex search --title lucene --status published,draft
  textdex search --start 1627849200000 --end 1627935600000 --limit 50
  textdex search -q '+lucene -advanced' --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := root.openClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			var res textdex.Results
			if ff.query != "" {
				res, err = c.SearchTextPage(cmd.Context(), ff.query, offset, limit)
			} else {
				f, ferr := ff.filter()
				if ferr != nil {
					return ferr
				}
				res, err = c.SearchPage(cmd.Context(), f, offset, limit)
			}
			if err != nil {
				return err
			}
			if asJSON {
				return writeResultsJSON(cmd.OutOrStdout(), res)
			}
			writeResultsText(cmd.OutOrStdout(), res)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of leading matches to skip")
	cmd.Flags().IntVarP(&limit, "limit", "l", textdex.DefaultLimit, "Maximum number of results")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}

func newCountCmd(root *rootOptions) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count matching documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := root.openClient()
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			var n int64
			if ff.query != "" {
				n, err = c.CountText(cmd.Context(), ff.query)
			} else {
				f, ferr := ff.filter()
				if ferr != nil {
					return ferr
				}
				n, err = c.Count(cmd.Context(), f)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}

type jsonHit struct {
	ID     string           `json:"id"`
	Score  float64          `json:"score"`
	Fields map[string][]any `json:"fields"`
}

type jsonResults struct {
	Documents  []jsonHit `json:"documents"`
	Total      uint64    `json:"total"`
	Generation uint64    `json:"generation"`
}

func writeResultsJSON(w io.Writer, res textdex.Results) error {
	out := jsonResults{Documents: make([]jsonHit, 0, len(res.Hits())), Total: res.Total(), Generation: res.Generation()}
	for _, h := range res.Hits() {
		d := h.Document()
		out.Documents = append(out.Documents, jsonHit{ID: d.ID(), Score: h.Score(), Fields: d.Fields()})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeResultsText(w io.Writer, res textdex.Results) {
	for _, h := range res.Hits() {
		d := h.Document()
		var extra []string
		if s := d.Status(); s != "" {
			extra = append(extra, "status="+s)
		}
		if ts, ok := d.Time(); ok {
			extra = append(extra, fmt.Sprintf("time=%d", ts))
		}
		fmt.Fprintf(w, "%-20s %6.3f  %s  %s\n", d.ID(), h.Score(), d.Title(), strings.Join(extra, " "))
	}
	fmt.Fprintf(w, "%d of %d matches\n", len(res.Hits()), res.Total())
}
