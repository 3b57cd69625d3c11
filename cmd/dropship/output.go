package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/bft-labs/dropship/internal/domain"
)

func printReport(w io.Writer, r domain.Report) {
	elapsed := r.FinishedAt.Sub(r.Run.StartedAt).Round(time.Millisecond)
	fmt.Fprintf(w, "run %s ended %s after %s\n", r.Run.ID, r.EndState, elapsed)
	fmt.Fprintf(w, "chunks: %d  succeeded: %d  failed: %d  skipped: %d\n",
		len(r.Records), len(r.Summary.Succeeded), len(r.Summary.Failed), len(r.Summary.Skipped))
	if r.Duplicates > 0 {
		fmt.Fprintf(w, "duplicates removed: %d\n", r.Duplicates)
	}

	var rows [][]string
	for _, rec := range r.Records {
		if rec.Status == domain.StatusSucceeded {
			continue
		}
		reason := string(rec.RejectReason)
		if rec.Status == domain.StatusSkipped {
			reason = string(rec.SkipReason)
		}
		rows = append(rows, []string{
			strconv.Itoa(rec.ChunkIndex),
			string(rec.Status),
			reason,
			strconv.Itoa(len(rec.Recipients)),
			rec.Error,
		})
	}
	if len(rows) > 0 {
		table := tablewriter.NewWriter(w)
		table.SetHeader([]string{"Chunk", "Status", "Reason", "Recipients", "Error"})
		table.SetAutoWrapText(false)
		table.AppendBulk(rows)
		table.Render()
	}
	printRejected(w, r.Rejected)
}

func printRejected(w io.Writer, rejected []domain.DecodeError) {
	if len(rejected) == 0 {
		return
	}
	fmt.Fprintf(w, "rejected lines: %d\n", len(rejected))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Line", "Content", "Error"})
	table.SetAutoWrapText(false)
	for _, rej := range rejected {
		table.Append([]string{strconv.Itoa(rej.Line), rej.Content, errText(rej.Err)})
	}
	table.Render()
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.RFC3339)
}
