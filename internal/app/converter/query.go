package converter

import (
	"bytes"
	"strings"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
)

const queryFileName = "Query.md"

// renderQueryDocument synthesizes a live-query definition over the exported
// folder: a fenced dataview block listing every non-title declared property
// as a column, scoped to the folder, filtered to documents that carry the
// notion_id header, sorted by filename ascending. The file holds no data
// itself; the consuming viewer evaluates it.
func renderQueryDocument(db notiondomain.Database, folder string) string {
	columns := nonTitleProperties(db)

	var buf bytes.Buffer
	buf.WriteString("# " + db.Title + " query\n\n")
	buf.WriteString("```dataview\n")
	if len(columns) > 0 {
		buf.WriteString("TABLE " + strings.Join(columns, ", ") + "\n")
	} else {
		buf.WriteString("TABLE file.name\n")
	}
	buf.WriteString("FROM \"" + folder + "\"\n")
	buf.WriteString("WHERE notion_id\n")
	buf.WriteString("SORT file.name ASC\n")
	buf.WriteString("```\n")
	return buf.String()
}
