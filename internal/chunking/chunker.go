package chunking

import (
	"strings"

	"github.com/povarna/generative-ai-agents/book-agent/internal/errs"
)

const (
	DefaultChunkSize    = 512
	DefaultChunkOverlap = 50
)

type Chunker struct {
	ChunkSize    int
	ChunkOverlap int
	tokenizer    *Tokenizer
}

// Chunk is a token window of a document. Start is the byte offset of the
// window's first token in the source text.
type Chunk struct {
	Index   int
	Start   int
	Content string
}

func NewChunker(tokenizer *Tokenizer, chunkSize, overlap int) (*Chunker, error) {
	if err := validate(chunkSize, overlap); err != nil {
		return nil, err
	}

	return &Chunker{
		ChunkSize:    chunkSize,
		ChunkOverlap: overlap,
		tokenizer:    tokenizer,
	}, nil
}

// Split cuts text into overlapping token windows and returns their decoded text.
func (c *Chunker) Split(text string) ([]string, error) {
	chunks, err := c.ChunkText(text)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(chunks))
	for i, chunk := range chunks {
		out[i] = chunk.Content
	}
	return out, nil
}

// ChunkText returns the windows of text with their source offsets. Text that
// fits in a single window is returned unchanged.
func (c *Chunker) ChunkText(text string) ([]Chunk, error) {
	if err := validate(c.ChunkSize, c.ChunkOverlap); err != nil {
		return nil, err
	}

	if strings.TrimSpace(text) == "" {
		return []Chunk{}, nil
	}

	tokens := c.tokenizer.Encode(text)
	if len(tokens) <= c.ChunkSize {
		return []Chunk{{Index: 0, Start: 0, Content: text}}, nil
	}

	spans := windows(len(tokens), c.ChunkSize, c.ChunkOverlap)
	results := make([]Chunk, 0, len(spans))

	offset, consumed := 0, 0
	for i, span := range spans {
		// decoded byte lengths are additive across token runs
		offset += c.tokenizer.decodedLen(tokens[consumed:span.start])
		consumed = span.start

		results = append(results, Chunk{
			Index:   i,
			Start:   offset,
			Content: c.tokenizer.Decode(tokens[span.start:span.end]),
		})
	}

	return results, nil
}

type span struct {
	start int
	end   int
}

// windows lays out [start, end) token ranges of size chunkSize advancing by
// chunkSize-overlap. The last window ends at n and may be shorter.
func windows(n, chunkSize, overlap int) []span {
	step := chunkSize - overlap
	var spans []span
	for start := 0; ; start += step {
		end := min(start+chunkSize, n)
		spans = append(spans, span{start: start, end: end})
		if end == n {
			break
		}
	}
	return spans
}

func validate(chunkSize, overlap int) error {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return errs.ErrInvalidChunkParams
	}
	return nil
}
