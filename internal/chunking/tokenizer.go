package chunking

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

const EncodingName = "cl100k_base"

var loaderOnce sync.Once

// Tokenizer wraps the cl100k_base BPE encoding. BPE ranks are embedded in the
// binary so encoding never reaches the network.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenizer() (*Tokenizer, error) {
	loaderOnce.Do(func() {
		tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
	})

	encoding, err := tiktoken.GetEncoding(EncodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", EncodingName, err)
	}

	return &Tokenizer{encoding: encoding}, nil
}

func (t *Tokenizer) Encode(text string) []int {
	return t.encoding.Encode(text, nil, nil)
}

// Decode returns the text of tokens. A run that starts or ends inside a
// multi-token character has the partial bytes replaced with U+FFFD.
func (t *Tokenizer) Decode(tokens []int) string {
	return strings.ToValidUTF8(t.encoding.Decode(tokens), "\uFFFD")
}

// decodedLen is the raw byte length of tokens in the source text.
func (t *Tokenizer) decodedLen(tokens []int) int {
	return len(t.encoding.Decode(tokens))
}

// Count returns the number of cl100k_base tokens in text.
func (t *Tokenizer) Count(text string) int {
	return len(t.Encode(text))
}
