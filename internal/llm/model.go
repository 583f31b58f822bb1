package llm

import "time"

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// Response is the unified completion result across providers.
type Response struct {
	Text       string    // generated text
	TokenCount int       // total tokens consumed
	ModelName  string    // model that produced the answer
	FinishTime time.Time // completion time
}

// Passage is one retrieved chunk handed to the answer prompt. The page
// number travels with the text so the model can cite it.
type Passage struct {
	DocumentID string
	PageNumber int
	ChunkIndex int
	Text       string
}

// RAGResponse is a grounded answer. Answer may embed citation markers
// of the form [cite:<page>:<preview>]; stripping them and collecting
// structured citations is the citation package's job.
type RAGResponse struct {
	Answer  string
	Sources []Passage
}

// Common model names.
const (
	ModelGPT4oMini = "gpt-4o-mini"
	ModelGPT4o     = "gpt-4o"
	ModelGPT4Turbo = "gpt-4-turbo"
)
