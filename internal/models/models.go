package models

import "time"

// Report and evaluation statuses assigned by the evaluation stage.
const (
	StatusUsed         = "used"
	StatusDiscarded    = "discarded"
	StatusUsedFallback = "used_fallback"
	StatusError        = "error"
)

type Corpus struct {
	CorpusID  string    `json:"corpus_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Document struct {
	Fingerprint string    `json:"fingerprint"`
	CorpusID    string    `json:"corpus_id"`
	Filename    string    `json:"filename"`
	Status      string    `json:"status"`
	FailReason  string    `json:"fail_reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Chunk is the unit of retrieval and citation. (Fingerprint, ChunkIndex) is
// its identity: rebuilding the corpus from unchanged documents with the same
// chunk parameters reproduces the same pairs, so citation keys stay valid.
type Chunk struct {
	Fingerprint      string    `json:"fingerprint"`
	ChunkIndex       int       `json:"chunk_index"`
	CorpusID         string    `json:"corpus_id"`
	Filename         string    `json:"filename"`
	Text             string    `json:"text"`
	EmbeddingVersion string    `json:"embedding_version"`
	CreatedAt        time.Time `json:"created_at"`
}

// ChunkHit is one ranked retrieval result handed back to the search agent.
type ChunkHit struct {
	CitationKey string  `json:"citation_key"`
	Fingerprint string  `json:"fingerprint"`
	ChunkIndex  int     `json:"chunk_index"`
	Filename    string  `json:"filename"`
	Snippet     string  `json:"snippet"`
	Text        string  `json:"text"`
	Score       float64 `json:"score"`
}

type SearchPlan struct {
	ID               string   `json:"id"`
	Objective        string   `json:"objective"`
	SubObjectives    []string `json:"sub_objectives"`
	SuggestedQueries []string `json:"suggested_queries"`
	// Raw keeps the full serialized plan text as stored on disk; the agent
	// prompt uses it verbatim so human edits survive round-trips.
	Raw string `json:"raw"`
}

// ToolCallRecord captures one search_documents invocation made during an
// agent run. Records are append-only and ordered by issuance.
type ToolCallRecord struct {
	Index     int    `json:"index"`
	Function  string `json:"function"`
	Arguments string `json:"arguments"`
	Result    string `json:"result"`
}

type Report struct {
	PlanID      string           `json:"plan_id"`
	RunID       string           `json:"run_id,omitempty"`
	Filename    string           `json:"filename,omitempty"`
	MainContent string           `json:"main_content"`
	DebugLog    []ToolCallRecord `json:"debug_log,omitempty"`
	Status      string           `json:"status,omitempty"`
	CreatedAt   time.Time        `json:"created_at,omitempty"`
}

type Evaluation struct {
	ReportFilename string `json:"report_filename"`
	PlanID         string `json:"plan_id"`
	RunID          string `json:"run_id,omitempty"`
	IsRelevant     bool   `json:"is_relevant"`
	IsThorough     bool   `json:"is_thorough"`
	Reason         string `json:"reason"`
	Status         string `json:"status"`
}

type ResearchRun struct {
	RunID     string    `json:"run_id"`
	CorpusID  string    `json:"corpus_id"`
	Question  string    `json:"question"`
	Status    string    `json:"status"`
	OutPath   string    `json:"out_path,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
