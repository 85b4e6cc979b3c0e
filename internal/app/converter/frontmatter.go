package converter

import (
	"bytes"
	"strconv"
	"strings"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
)

// RenderPage produces one complete markdown document for a page: a header
// block delimited by --- lines, a # title line, then the rendered body.
// Timestamps are ISO strings from the API and go out unescaped; every other
// property value passes through EscapeHeaderValue. The title property is
// carried by the # line, not the header.
func RenderPage(page notiondomain.Page) string {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.WriteString("notion_id: " + page.ID + "\n")
	buf.WriteString("created: " + page.CreatedTime + "\n")
	buf.WriteString("updated: " + page.LastEditedTime + "\n")
	for _, prop := range page.Properties {
		if prop.Value.Kind == notiondomain.PropertyTitle {
			continue
		}
		extracted := notiondomain.ExtractValue(prop.Value)
		if notiondomain.IsEmptyValue(extracted) {
			continue
		}
		buf.WriteString(prop.Name + ": " + EscapeHeaderValue(extracted) + "\n")
	}
	buf.WriteString("---\n\n")
	buf.WriteString("# " + PageTitle(page) + "\n\n")
	buf.WriteString(RenderBlocks(page.Blocks))
	return buf.String()
}

// PageTitle returns the page's title from its title-kind property, or a
// fallback synthesized from the page id when the title is missing or blank.
func PageTitle(page notiondomain.Page) string {
	if _, value, ok := page.TitleProperty(); ok {
		if title := strings.TrimSpace(notiondomain.JoinRuns(value.Runs)); title != "" {
			return title
		}
	}
	return fallbackTitle(page.ID)
}

func fallbackTitle(id string) string {
	id = strings.ReplaceAll(strings.TrimSpace(id), "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	if id == "" {
		return "untitled"
	}
	return "untitled-" + id
}

// nameAllocator hands out batch-unique filenames. Two records sharing a
// sanitized title get -2, -3, ... suffixes instead of overwriting each other.
type nameAllocator struct {
	used map[string]int
}

func newNameAllocator() *nameAllocator {
	return &nameAllocator{used: map[string]int{}}
}

func (a *nameAllocator) allocate(title string, ext string) string {
	base := SanitizeFilename(title)
	if base == "" {
		base = "untitled"
	}
	n := a.used[base]
	a.used[base] = n + 1
	if n > 0 {
		base = base + "-" + strconv.Itoa(n+1)
	}
	return base + ext
}
