package report

import (
	"strings"

	"deal_underwriting/pkg/core/utils"
)

// Markdown renders d as GitHub-flavoured Markdown.
func Markdown(d *Document) string {
	var sb strings.Builder
	r := d.Result

	sb.WriteString("# " + escapeText(d.Title()) + "\n\n")
	if d.Property.Address != "" {
		sb.WriteString(escapeText(d.Property.Address) + "\n\n")
	}

	sb.WriteString("## Returns\n\n")
	lines := summaryLines(r)
	summary := make([][]string, len(lines))
	for i, l := range lines {
		summary[i] = []string{l.Label, l.Value}
	}
	writeTable(&sb, []string{"Metric", "Value"}, summary)

	sb.WriteString("\n## Annual Projection\n\n")
	if len(r.Rows) == 0 {
		sb.WriteString("_No projection years._\n")
	} else {
		writeTable(&sb, projectionHeader, projectionCells(r))
	}

	if len(r.Amortization) > 0 {
		sb.WriteString("\n## Loan Amortization\n\n")
		writeTable(&sb, amortizationHeader, amortizationCells(r))
	}

	if d.Grid != nil && len(d.Grid.Cells) > 0 {
		sb.WriteString("\n## Sensitivity: Levered IRR\n\n")
		header, rows := gridCells(d.Grid)
		writeTable(&sb, header, rows)
	}

	if len(d.Violations) > 0 {
		sb.WriteString("\n## Advisory Notes\n\n")
		for _, v := range d.Violations {
			sb.WriteString("- " + escapeText(v.Message) + "\n")
		}
	}

	return sb.String()
}

// HTML renders d as a standalone HTML page.
func HTML(d *Document) (string, error) {
	return utils.RenderHTMLPage(d.Title(), Markdown(d))
}

func writeTable(sb *strings.Builder, header []string, rows [][]string) {
	head := make([]string, len(header))
	for i, h := range header {
		head[i] = escapeCell(h)
	}
	sb.WriteString("| " + strings.Join(head, " | ") + " |\n")
	sep := make([]string, len(header))
	for i := range sep {
		if i == 0 {
			sep[i] = "---"
		} else {
			sep[i] = "---:"
		}
	}
	sb.WriteString("| " + strings.Join(sep, " | ") + " |\n")
	for _, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = escapeCell(c)
		}
		sb.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
}

// markdownEscaper backslash-escapes the characters that would let free text
// open HTML, links, code spans, emphasis or table cells.
var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"`", "\\`",
	"*", `\*`,
	"<", `\<`,
	">", `\>`,
	"[", `\[`,
	"]", `\]`,
	"|", `\|`,
	"\r", " ",
	"\n", " ",
)

// escapeText makes user-supplied text safe to interpolate into one
// Markdown line.
func escapeText(s string) string {
	s = markdownEscaper.Replace(s)
	if s != "" && strings.ContainsRune("#-+=", rune(s[0])) {
		s = `\` + s
	}
	return s
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
