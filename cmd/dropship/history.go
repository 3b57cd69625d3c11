package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/bft-labs/dropship/internal/adapters/sqlite"
	"github.com/bft-labs/dropship/internal/cliconfig"
	"github.com/bft-labs/dropship/internal/domain"
)

func newHistoryCommand(cfg *cliconfig.Config) *cobra.Command {
	var (
		limit int
		runID string
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List runs recorded in the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Journal == "" {
				return fmt.Errorf("%w: --journal is required", domain.ErrInvalidConfig)
			}
			if !cliconfig.FileExists(cfg.Journal) {
				return fmt.Errorf("journal %s: %w", cfg.Journal, os.ErrNotExist)
			}
			j, err := sqlite.Open(cmd.Context(), cfg.Journal)
			if err != nil {
				return err
			}
			defer j.Close()

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoWrapText(false)

			if runID != "" {
				recs, err := j.Outcomes(cmd.Context(), runID)
				if err != nil {
					return err
				}
				table.SetHeader([]string{"Chunk", "Status", "Reason", "Recipients", "Signature"})
				for _, rec := range recs {
					reason := string(rec.RejectReason)
					if rec.Status == domain.StatusSkipped {
						reason = string(rec.SkipReason)
					}
					table.Append([]string{
						strconv.Itoa(rec.ChunkIndex),
						string(rec.Status),
						reason,
						strconv.Itoa(len(rec.Recipients)),
						rec.Signature,
					})
				}
				table.Render()
				return nil
			}

			runs, err := j.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			table.SetHeader([]string{"Run", "Started", "Finished", "End state", "Recipients", "Succeeded", "Failed", "Skipped"})
			for _, r := range runs {
				table.Append([]string{
					r.ID,
					formatTime(r.StartedAt),
					formatTime(r.FinishedAt),
					r.EndState,
					strconv.Itoa(r.TotalRecipients),
					strconv.Itoa(r.Succeeded),
					strconv.Itoa(r.Failed),
					strconv.Itoa(r.Skipped),
				})
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of runs to list")
	cmd.Flags().StringVar(&runID, "run", "", "print the outcome records of this run")
	return cmd
}
