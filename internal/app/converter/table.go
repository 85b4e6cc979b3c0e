package converter

import (
	"bytes"
	"fmt"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
)

// renderTableDocument emits the whole batch as one pipe-delimited table:
// a title heading, summary lines, a header row of Title + every non-title
// declared property + Created + Updated, a dash separator row, and one row
// per record. Cell values are truncated and escaped by escapeTableCell.
func renderTableDocument(db notiondomain.Database, pages []notiondomain.Page) string {
	columns := nonTitleProperties(db)

	var buf bytes.Buffer
	buf.WriteString("# " + db.Title + "\n\n")
	fmt.Fprintf(&buf, "%d records exported from %s.\n\n", len(pages), db.Title)

	header := make([]string, 0, len(columns)+3)
	header = append(header, "Title")
	header = append(header, columns...)
	header = append(header, "Created", "Updated")
	writeTableRow(&buf, header)

	separator := make([]string, len(header))
	for i := range separator {
		separator[i] = "---"
	}
	writeTableRow(&buf, separator)

	for _, page := range pages {
		row := make([]string, 0, len(header))
		row = append(row, PageTitle(page))
		for _, name := range columns {
			value, ok := page.Property(name)
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, notiondomain.DisplayString(value))
		}
		row = append(row, page.CreatedTime, page.LastEditedTime)
		writeTableRow(&buf, row)
	}
	return buf.String()
}

func writeTableRow(buf *bytes.Buffer, cells []string) {
	buf.WriteString("|")
	for _, cell := range cells {
		buf.WriteString(" " + escapeTableCell(cell) + " |")
	}
	buf.WriteString("\n")
}

// nonTitleProperties returns the declared property names minus the title
// column, in schema order.
func nonTitleProperties(db notiondomain.Database) []string {
	out := make([]string, 0, len(db.Properties))
	for _, prop := range db.Properties {
		if prop.Kind == notiondomain.PropertyTitle {
			continue
		}
		out = append(out, prop.Name)
	}
	return out
}
