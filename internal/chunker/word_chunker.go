package chunker

import (
	"fmt"
	"strings"
)

// DefaultWordsPerChunk matches the upload pipeline's chunking policy.
const DefaultWordsPerChunk = 300

// WordChunker splits text into fixed-size word windows.
type WordChunker struct {
	wordsPerChunk int
}

// NewWordChunker returns a chunker producing segments of wordsPerChunk words.
// A non-positive size is a configuration error.
func NewWordChunker(wordsPerChunk int) (*WordChunker, error) {
	if wordsPerChunk <= 0 {
		return nil, fmt.Errorf("chunker: words per chunk must be positive, got %d", wordsPerChunk)
	}
	return &WordChunker{wordsPerChunk: wordsPerChunk}, nil
}

// Chunk splits text on whitespace and groups consecutive words into segments
// of exactly wordsPerChunk words; the final segment may be shorter. Each
// segment is normalized: control characters removed, whitespace collapsed,
// ends trimmed. Empty or whitespace-only input yields no chunks.
func (c *WordChunker) Chunk(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	var chunks []string
	for i := 0; i < len(words); i += c.wordsPerChunk {
		end := i + c.wordsPerChunk
		if end > len(words) {
			end = len(words)
		}
		segment := normalize(strings.Join(words[i:end], " "))
		if segment == "" {
			continue
		}
		chunks = append(chunks, segment)
	}
	return chunks
}

// normalize drops C0/C1 control characters and collapses whitespace runs.
func normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 0x20 || (r >= 0x7F && r <= 0x9F) {
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
