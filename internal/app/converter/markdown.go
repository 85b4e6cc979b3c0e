package converter

import (
	"bytes"

	notiondomain "github.com/spullara/notiontoobsidian/internal/domain/notion"
)

// RenderBlocks converts a page's content blocks to markdown, strictly in
// input order. Each block contributes a self-terminated chunk: list items end
// with a single newline so consecutive items stay adjacent, everything else
// ends with a blank line.
func RenderBlocks(blocks []notiondomain.Block) string {
	var buf bytes.Buffer
	for _, block := range blocks {
		renderBlock(&buf, block)
	}
	return buf.String()
}

func renderBlock(buf *bytes.Buffer, block notiondomain.Block) {
	text := notiondomain.JoinRuns(block.Runs)
	switch block.Kind {
	case notiondomain.BlockParagraph:
		buf.WriteString(text + "\n\n")
	case notiondomain.BlockHeading1:
		buf.WriteString("# " + text + "\n\n")
	case notiondomain.BlockHeading2:
		buf.WriteString("## " + text + "\n\n")
	case notiondomain.BlockHeading3:
		buf.WriteString("### " + text + "\n\n")
	case notiondomain.BlockBulleted:
		buf.WriteString("- " + text + "\n")
	case notiondomain.BlockNumbered:
		// The source does not expose ordinal position; markdown renumbers.
		buf.WriteString("1. " + text + "\n")
	case notiondomain.BlockCode:
		buf.WriteString("```" + block.Language + "\n" + text + "\n```\n\n")
	case notiondomain.BlockQuote:
		buf.WriteString("> " + text + "\n\n")
	case notiondomain.BlockUnknown:
		if text != "" {
			buf.WriteString(text + "\n\n")
		}
	}
}
