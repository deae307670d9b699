package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kursadbilgin/donor-dispatch/internal/domain"
)

// tabWriter wraps tabwriter with error tracking.
type tabWriter struct {
	*tabwriter.Writer
	err error
}

func newTabWriter(w io.Writer) *tabWriter {
	return &tabWriter{Writer: tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)}
}

func (tw *tabWriter) writef(format string, args ...any) {
	if tw.err != nil {
		return
	}
	_, tw.err = fmt.Fprintf(tw.Writer, format, args...)
}

func (tw *tabWriter) finish() error {
	if tw.err != nil {
		return tw.err
	}
	return tw.Flush()
}

func printCandidatesTable(w io.Writer, candidates []domain.MatchCandidate) error {
	tw := newTabWriter(w)
	tw.writef("ID\tNAME\tGROUP\tPHONE\tPRIORITY\tDISTANCE\tSCORE\n")
	for i := range candidates {
		d := candidates[i].Donor
		distance := "-"
		if candidates[i].DistanceKm != nil {
			distance = fmt.Sprintf("%.1fkm", *candidates[i].DistanceKm)
		}
		tw.writef("%d\t%s\t%s\t%s\t%d\t%s\t%.1f\n",
			d.ID,
			d.FullName,
			d.BloodGroup.Display(),
			d.PhoneNumber,
			d.PriorityScore,
			distance,
			candidates[i].MatchScore,
		)
	}
	return tw.finish()
}

func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
