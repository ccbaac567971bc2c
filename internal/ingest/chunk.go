package ingest

import "strings"

const (
	// DefaultChunkSize and DefaultChunkOverlap match the collection
	// the server queries; changing them requires re-ingesting.
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunk is one passage destined for the vector store.
type Chunk struct {
	Text   string
	Source string
}

// SplitText splits plain text into chunks by accumulating paragraphs
// up to chunkSize characters, carrying a tail overlap into the next
// chunk so sentences cut at a boundary stay findable.
func SplitText(text, source string, chunkSize, chunkOverlap int) []Chunk {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = DefaultChunkOverlap
	}

	paragraphs := strings.Split(text, "\n\n")

	var chunks []Chunk
	current := ""
	for _, para := range paragraphs {
		if len(current)+len(para) < chunkSize {
			current += para + "\n\n"
			continue
		}

		if strings.TrimSpace(current) != "" {
			chunks = append(chunks, Chunk{Text: strings.TrimSpace(current), Source: source})
		}

		// Start the next chunk with a tail of the previous one.
		if len(current) > chunkOverlap {
			current = current[len(current)-chunkOverlap:] + para + "\n\n"
		} else {
			current = para + "\n\n"
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, Chunk{Text: strings.TrimSpace(current), Source: source})
	}

	return chunks
}

// CompressChunks merges consecutive small chunks until each combined
// chunk exceeds size, so tiny sections do not become their own points.
func CompressChunks(chunks []Chunk, size int) []Chunk {
	if len(chunks) == 0 {
		return chunks
	}

	var result []Chunk
	combined := ""
	source := chunks[0].Source
	for i, chunk := range chunks {
		if combined == "" {
			combined = chunk.Text
			source = chunk.Source
		} else {
			combined = combined + "\n" + chunk.Text
		}

		if len(combined) > size || i == len(chunks)-1 {
			result = append(result, Chunk{Text: combined, Source: source})
			combined = ""
		}
	}

	return result
}
