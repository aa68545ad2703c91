package chunker

import (
	"fmt"
	"strings"
	"testing"
)

func TestNewWordChunker_RejectsNonPositiveSize(t *testing.T) {
	for _, size := range []int{0, -1, -300} {
		if _, err := NewWordChunker(size); err == nil {
			t.Errorf("expected error for size %d", size)
		}
	}
}

func TestChunk_EmptyInput(t *testing.T) {
	c, err := NewWordChunker(300)
	if err != nil {
		t.Fatal(err)
	}
	for _, input := range []string{"", "   ", "\n\t  \n"} {
		if got := c.Chunk(input); len(got) != 0 {
			t.Errorf("expected 0 chunks for %q, got %d", input, len(got))
		}
	}
}

func TestChunk_SplitsIntoWordWindows(t *testing.T) {
	c, err := NewWordChunker(3)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk("one two three four five six seven")
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if chunks[0] != "one two three" {
		t.Errorf("unexpected first chunk: %q", chunks[0])
	}
	if chunks[2] != "seven" {
		t.Errorf("expected short final chunk, got %q", chunks[2])
	}
}

func TestChunk_ReconstructsWordSequence(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 900; i++ {
		fmt.Fprintf(&b, "word%d ", i)
	}
	text := b.String()

	for _, size := range []int{1, 7, 300, 1000} {
		c, err := NewWordChunker(size)
		if err != nil {
			t.Fatal(err)
		}
		chunks := c.Chunk(text)
		joined := strings.Join(chunks, " ")
		if want := strings.Join(strings.Fields(text), " "); joined != want {
			t.Errorf("size %d: concatenated chunks do not reconstruct input", size)
		}
	}
}

func TestChunk_ThreeHundredWordPolicy(t *testing.T) {
	words := make([]string, 900)
	for i := range words {
		words[i] = "w"
	}
	c, err := NewWordChunker(300)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk(strings.Join(words, " "))
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks for 900 words, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if n := len(strings.Fields(ch)); n != 300 {
			t.Errorf("chunk %d: expected 300 words, got %d", i, n)
		}
	}
}

func TestChunk_NormalizesControlCharsAndWhitespace(t *testing.T) {
	c, err := NewWordChunker(10)
	if err != nil {
		t.Fatal(err)
	}
	chunks := c.Chunk("helloworld  foobar\tbaz")
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "helloworld foobar baz" {
		t.Errorf("unexpected normalization: %q", chunks[0])
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := NewWordChunker(4)
	if err != nil {
		t.Fatal(err)
	}
	text := "the quick brown fox jumps over the lazy dog again and again"
	a := c.Chunk(text)
	b := c.Chunk(text)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}
