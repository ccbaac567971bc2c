package ingest

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// ChunkMarkdown splits a markdown document into chunks along its
// heading structure: each h1/h2 opens a section, paragraphs and
// fenced code blocks fill it. Small sections are merged and oversized
// ones re-split so chunks stay near chunkSize.
func ChunkMarkdown(source []byte, sourcePath string, chunkSize int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	md := goldmark.New()
	reader := text.NewReader(source)
	doc := md.Parser().Parse(reader)

	var sections []Chunk
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sections = append(sections, Chunk{Text: s, Source: sourcePath})
		}
		current.Reset()
	}

	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch n.Kind() {
		case ast.KindHeading:
			heading := n.(*ast.Heading)
			if heading.Level == 1 || heading.Level == 2 {
				flush()
			}
			current.WriteString(string(heading.Text(source)))
			current.WriteString("\n")
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph, ast.KindCodeBlock, ast.KindFencedCodeBlock:
			current.WriteString(segmentText(n, source))
			current.WriteString("\n\n")
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	flush()

	merged := CompressChunks(sections, chunkSize)

	// A single section can still be far over budget; re-split those.
	var chunks []Chunk
	for _, chunk := range merged {
		if len(chunk.Text) > 2*chunkSize {
			chunks = append(chunks, SplitText(chunk.Text, chunk.Source, chunkSize, DefaultChunkOverlap)...)
		} else {
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}

// segmentText collects the raw source lines backing a block node.
func segmentText(n ast.Node, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return strings.TrimRight(sb.String(), "\n")
}
