package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/lucky89144/DataHawk/internal/database"
	"github.com/lucky89144/DataHawk/internal/model"
)

// MarkdownWriter outputs run reports in Markdown format.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *RunReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writePatterns(md, report)
	w.writeSources(md, report)
	w.writeSample(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *RunReport) {
	md.H1("DataHawk Run Report")
	md.PlainText("")

	seeds := make([]string, len(report.Seeds))
	for i, s := range report.Seeds {
		seeds[i] = "`" + s + "`"
	}

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + report.RunID + "`"},
			{"Seeds", strings.Join(seeds, "<br>")},
			{"Query", "`" + report.Query + "`"},
			{"Output", report.Format + " in `" + report.OutputDir + "`"},
			{"Started", formatTime(report.StartedAt)},
			{"Finished", formatTime(report.FinishedAt)},
			{"Status", statusText(report.Status)},
		},
	})
	md.PlainText("")
}

func statusText(status string) string {
	switch status {
	case database.RunStatusCompleted:
		return "✅ Completed"
	case database.RunStatusCancelled:
		return "⚠️ Cancelled (resumable)"
	case database.RunStatusRunning:
		return "⏳ Running or interrupted (resumable)"
	default:
		return status
	}
}

// writeSummary writes crawl counters and URL states.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *RunReport) {
	md.H2("Summary")
	md.PlainText("")

	s := report.Summary
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Pages fetched", strconv.FormatInt(s.PagesFetched, 10)},
			{"Findings written", strconv.FormatInt(s.FindingsWritten, 10)},
			{"Distinct findings", strconv.Itoa(report.TotalFindings())},
			{"Errors", strconv.FormatInt(s.ErrorsEncountered, 10)},
			{"URLs fetched", strconv.Itoa(report.URLStates[model.TaskFetched])},
			{"URLs failed", strconv.Itoa(report.URLStates[model.TaskFailed])},
			{"URLs pending", strconv.Itoa(report.URLStates[model.TaskQueued])},
		},
	})
	md.PlainText("")

	switch {
	case s.ErrorsEncountered > 0:
		md.Warningf("%d error(s) occurred during the crawl. Run with -v for details.", s.ErrorsEncountered)
	case !report.HasFindings():
		md.Note("The crawl finished without matching any data.")
	default:
		md.Tip("The crawl finished without errors.")
	}
	md.PlainText("")

	if pending := report.URLStates[model.TaskQueued]; pending > 0 && report.Status != database.RunStatusCompleted {
		md.Importantf("%d URL(s) are still pending. Continue with `datahawk crawl --resume %s`.", pending, report.RunID)
		md.PlainText("")
	}
}

// writePatterns writes the per-pattern counts and their distribution.
func (w *MarkdownWriter) writePatterns(md *markdown.Markdown, report *RunReport) {
	md.H2("Findings by Pattern")
	md.PlainText("")

	if !report.HasFindings() {
		md.PlainText("No findings stored for this run.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Patterns))
	for i, p := range report.Patterns {
		rows[i] = []string{patternTitle(p.Pattern), strconv.Itoa(p.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Pattern", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(report.Patterns) > 1 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Findings by Pattern"),
			piechart.WithShowData(true),
		)
		for _, p := range report.Patterns {
			chart.LabelAndIntValue(patternTitle(p.Pattern), uint64(p.Count))
		}
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writeSources writes the pages with the most findings.
func (w *MarkdownWriter) writeSources(md *markdown.Markdown, report *RunReport) {
	if len(report.TopSources) == 0 {
		return
	}

	md.H2("Top Source Pages")
	md.PlainText("")

	rows := make([][]string, len(report.TopSources))
	for i, s := range report.TopSources {
		rows[i] = []string{truncateString(s.SourceURL, 80), strconv.Itoa(s.Count)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Findings"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeSample writes the first findings of the run.
func (w *MarkdownWriter) writeSample(md *markdown.Markdown, report *RunReport) {
	if len(report.Sample) == 0 {
		return
	}

	md.H2("Sample Findings")
	md.PlainText("")

	rows := make([][]string, len(report.Sample))
	for i, f := range report.Sample {
		rows[i] = []string{
			"`" + truncateString(f.Data, 60) + "`",
			patternTitle(f.PatternName),
			truncateString(f.SourceURL, 60),
			f.Timestamp(),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Data", "Pattern", "Source", "Scraped At"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [DataHawk](https://github.com/lucky89144/DataHawk)*")
}

// patternTitle turns a pattern name into a table label.
func patternTitle(name string) string {
	if name == "" {
		return "-"
	}
	return cases.Title(language.English).String(name)
}
