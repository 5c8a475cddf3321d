package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/glorpus-work/reposweep/pkg/orchestrator"
)

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer func() { _ = enc.Close() }()
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported structured format: %s", format)
	}
}

// printRun writes the outcome of a run. details adds one line per
// component selected for deletion.
func printRun(w io.Writer, format string, run *orchestrator.Run, details bool) error {
	if format != OutputText {
		return writeStructured(w, format, run)
	}

	mode := "live"
	if run.DryRun {
		mode = "dry run"
	}
	_, _ = fmt.Fprintf(w, "Run %s (%s, %s)\n\n", run.ID, mode, run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))

	tw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "REPOSITORY\tFORMAT\tKEPT\tSELECTED\tVETOED\tSKIPPED\tDELETED\tGONE\tFAILED\tSTATUS")
	for _, res := range run.Results {
		kept, selected, skipped := 0, 0, 0
		if res.Evaluation != nil {
			kept = len(res.Evaluation.Kept)
			selected = len(res.Evaluation.Deleted)
			skipped = len(res.Evaluation.Skipped)
		}
		status := "ok"
		if res.Error != "" {
			status = "error: " + truncate(res.Error, MaxReasonLength)
		} else if res.Failed() {
			status = "partial"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			res.Repository, res.Format, kept, selected, res.Vetoed, skipped,
			res.Count(orchestrator.StatusDeleted), res.Count(orchestrator.StatusGone),
			res.Count(orchestrator.StatusFailed), status)
	}
	_ = tw.Flush()

	if !details {
		return nil
	}
	for _, res := range run.Results {
		if len(res.Deletions) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w, "\n%s:\n", res.Repository)
		dw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
		_, _ = fmt.Fprintln(dw, "  NAME\tVERSION\tSTATUS\tERROR")
		for _, d := range res.Deletions {
			_, _ = fmt.Fprintf(dw, "  %s\t%s\t%s\t%s\n", d.Name, d.Version, d.Status, truncate(d.Error, MaxReasonLength))
		}
		_ = dw.Flush()
	}
	return nil
}

// printEvaluation writes every verdict of an evaluation, kept first.
func printEvaluation(w io.Writer, format string, result *model.EvaluationResult) error {
	if format != OutputText {
		return writeStructured(w, format, result)
	}

	tw := tabwriter.NewWriter(w, 0, 0, TabWidth, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tVERSION\tVERDICT\tPATTERN\tPOSITION\tREASON")
	for _, v := range result.All() {
		verdict := "keep"
		if v.WillDelete {
			verdict = "delete"
		}
		position := "-"
		if v.GroupSize > 0 {
			position = fmt.Sprintf("%d/%d", v.Position+1, v.GroupSize)
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Component.Name, v.Component.Version, verdict, v.MatchedPattern, position,
			truncate(v.Reason, MaxReasonLength))
	}
	for _, s := range result.Skipped {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			s.Component.Name, s.Component.Version, "skip", "-", "-", truncate(s.Reason, MaxReasonLength))
	}
	_ = tw.Flush()

	_, _ = fmt.Fprintf(w, "\n%d kept, %d to delete, %d skipped\n",
		len(result.Kept), len(result.Deleted), len(result.Skipped))
	return nil
}
