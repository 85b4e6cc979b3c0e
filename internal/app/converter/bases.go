package converter

import (
	"bytes"
	"strconv"
	"strings"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
)

const baseViewLimit = 100
const baseTableColumnCap = 8

// renderBaseDocument synthesizes a declarative view definition over the
// exported documents: a properties section mapping every actually-used
// property (plus the two file-metadata properties) to a display name, and a
// views section with one table view and one cards view. A property counts as
// used when at least one record in the batch extracted a non-empty value for
// it; property order follows first observation while scanning records, not
// the declared schema.
func renderBaseDocument(pages []notiondomain.Page) string {
	used := usedProperties(pages)

	var buf bytes.Buffer
	buf.WriteString("properties:\n")
	for _, name := range used {
		writeBaseProperty(&buf, name, name)
	}
	writeBaseProperty(&buf, "file.ctime", "Created")
	writeBaseProperty(&buf, "file.mtime", "Modified")

	columns := used
	if len(columns) > baseTableColumnCap {
		columns = columns[:baseTableColumnCap]
	}

	buf.WriteString("views:\n")
	buf.WriteString("  - type: table\n")
	buf.WriteString("    name: ")
	writeYAMLString(&buf, "Table")
	buf.WriteString("\n")
	buf.WriteString("    limit: " + strconv.Itoa(baseViewLimit) + "\n")
	buf.WriteString("    order:\n")
	for _, column := range append(append([]string{"file.name"}, columns...), "file.ctime", "file.mtime") {
		buf.WriteString("      - ")
		writeYAMLString(&buf, column)
		buf.WriteString("\n")
	}
	buf.WriteString("  - type: cards\n")
	buf.WriteString("    name: ")
	writeYAMLString(&buf, "Cards")
	buf.WriteString("\n")
	buf.WriteString("    limit: " + strconv.Itoa(baseViewLimit) + "\n")

	buf.WriteString("\n")
	buf.WriteString("# This file defines views over the exported documents.\n")
	buf.WriteString("# Open it in Obsidian 1.9 or newer to browse the records as a table or as cards.\n")
	buf.WriteString("# Columns map to the header fields embedded in each exported document.\n")
	return buf.String()
}

func writeBaseProperty(buf *bytes.Buffer, key string, displayName string) {
	buf.WriteString("  " + sanitizeYAMLKey(key) + ":\n")
	buf.WriteString("    displayName: ")
	writeYAMLString(buf, displayName)
	buf.WriteString("\n")
}

// usedProperties scans the whole batch and returns every non-title property
// name that carried a non-empty value at least once, ordered by first
// observation.
func usedProperties(pages []notiondomain.Page) []string {
	order := make([]string, 0)
	seen := map[string]struct{}{}
	used := map[string]struct{}{}
	for _, page := range pages {
		for _, prop := range page.Properties {
			if prop.Value.Kind == notiondomain.PropertyTitle {
				continue
			}
			if _, ok := seen[prop.Name]; !ok {
				seen[prop.Name] = struct{}{}
				order = append(order, prop.Name)
			}
			if _, ok := used[prop.Name]; ok {
				continue
			}
			if !notiondomain.IsEmptyValue(notiondomain.ExtractValue(prop.Value)) {
				used[prop.Name] = struct{}{}
			}
		}
	}

	out := make([]string, 0, len(used))
	for _, name := range order {
		if _, ok := used[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func writeYAMLString(buf *bytes.Buffer, s string) {
	escaped := strings.ReplaceAll(s, "\\", "\\\\")
	escaped = strings.ReplaceAll(escaped, "\"", "\\\"")
	escaped = strings.ReplaceAll(escaped, "\n", "\\n")
	buf.WriteString("\"")
	buf.WriteString(escaped)
	buf.WriteString("\"")
}

func sanitizeYAMLKey(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "field"
	}
	if strings.ContainsAny(s, ":#\"\n") {
		var quoted bytes.Buffer
		writeYAMLString(&quoted, s)
		return quoted.String()
	}
	return s
}
