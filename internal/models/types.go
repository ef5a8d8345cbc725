package models

import "time"

type Mode string

const (
	ModeRAG          Mode = "rag"
	ModeSelectedText Mode = "selected_text"
	ModeAgent        Mode = "agent"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders confidence levels: low < medium < high.
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 2
	case ConfidenceMedium:
		return 1
	default:
		return 0
	}
}

type SourceDocument struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Chunk is an immutable slice of a source document stored in the vector index.
type Chunk struct {
	ID        string
	Text      string
	Embedding []float32
	Source    SourceDocument
	Section   string
	Position  int
}

type RetrievalResult struct {
	Chunk Chunk
	Score float64
}

type SourceCitation struct {
	Text           string  `json:"text" description:"Chunk text"`
	Chapter        string  `json:"chapter" description:"Chapter title"`
	Section        string  `json:"section,omitempty" description:"Section heading"`
	Source         string  `json:"source" description:"Source file path"`
	RelevanceScore float64 `json:"relevance_score" description:"Similarity score (0-1)"`
}

func CitationFromResult(r RetrievalResult) SourceCitation {
	return SourceCitation{
		Text:           r.Chunk.Text,
		Chapter:        r.Chunk.Source.Title,
		Section:        r.Chunk.Section,
		Source:         r.Chunk.Source.Path,
		RelevanceScore: r.Score,
	}
}

type ReasoningStep struct {
	Sequence  int    `json:"sequence" description:"Position of the step in the run"`
	Action    string `json:"action" description:"Action taken, e.g. retrieve_context"`
	Query     string `json:"query,omitempty" description:"Search query used"`
	NumChunks int    `json:"num_chunks" description:"Number of chunks retrieved"`
	Details   string `json:"details,omitempty" description:"Additional details"`
}

type ResponseMetadata struct {
	TotalTokens      int    `json:"total_tokens"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	ToolCallsCount   int    `json:"tool_calls_count"`
	Iterations       int    `json:"iterations"`
	FinishReason     string `json:"finish_reason"`
}

type AgentResponse struct {
	Answer         string           `json:"answer"`
	Sources        []SourceCitation `json:"sources"`
	ReasoningSteps []ReasoningStep  `json:"reasoning_steps"`
	Confidence     Confidence       `json:"confidence"`
	Metadata       ResponseMetadata `json:"metadata"`
}

type ConversationMessage struct {
	Role    string `json:"role" description:"Message role: user or assistant"`
	Content string `json:"content" description:"Message content"`
}

// DocumentRecord tracks what has been indexed for a source file.
type DocumentRecord struct {
	Path          string    `json:"file_path"`
	Title         string    `json:"title"`
	ContentHash   string    `json:"content_hash"`
	ChunkCount    int       `json:"chunk_count"`
	LastIndexedAt time.Time `json:"last_indexed_at"`
}

// IngestJob asks a worker to index files. Paths and Directory may both be set.
type IngestJob struct {
	ID          string    `json:"id"`
	Paths       []string  `json:"paths,omitempty"`
	Directory   string    `json:"directory,omitempty"`
	RequestedAt time.Time `json:"requested_at"`
}
