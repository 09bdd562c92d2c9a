package activities

import "docscout/internal/models"

type ListPDFsInput struct {
	InputDir string `json:"input_dir"`
}

type ListPDFsOutput struct {
	Paths []string `json:"paths"`
}

type ExtractTextInput struct {
	DocumentPath string `json:"document_path"`
}

type ExtractTextOutput struct {
	Text        string `json:"text"`
	Fingerprint string `json:"fingerprint"`
}

type ChunkDocumentInput struct {
	Fingerprint  string `json:"fingerprint"`
	CorpusID     string `json:"corpus_id"`
	Filename     string `json:"filename"`
	Text         string `json:"text"`
	ChunkSize    int    `json:"chunk_size"`
	ChunkOverlap int    `json:"chunk_overlap"`
}

type ChunkItem struct {
	Fingerprint string `json:"fingerprint"`
	ChunkIndex  int    `json:"chunk_index"`
	CorpusID    string `json:"corpus_id"`
	Filename    string `json:"filename"`
	Text        string `json:"text"`
}

type ChunkDocumentOutput struct {
	Chunks []ChunkItem `json:"chunks"`
}

type EmbedChunksInput struct {
	Operation     string      `json:"operation"`
	CorpusID      string      `json:"corpus_id"`
	Fingerprint   string      `json:"fingerprint"`
	ProviderIndex int         `json:"provider_index"`
	Input         []ChunkItem `json:"input"`
}

type EmbedChunksOutput struct {
	Vectors      [][]float32 `json:"vectors"`
	ProviderName string      `json:"provider_name"`
	Model        string      `json:"model"`
}

type UpsertChunksInput struct {
	Chunks           []ChunkItem `json:"chunks"`
	Vectors          [][]float32 `json:"vectors,omitempty"`
	EmbeddingVersion string      `json:"embedding_version"`
}

type UpdateDocumentStatusInput struct {
	Fingerprint string `json:"fingerprint"`
	CorpusID    string `json:"corpus_id"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason"`
}

type WriteDocumentArtifactsInput struct {
	CorpusID      string         `json:"corpus_id"`
	Fingerprint   string         `json:"fingerprint"`
	Metadata      map[string]any `json:"metadata"`
	Chunks        []ChunkItem    `json:"chunks"`
	ProcessingLog map[string]any `json:"processing_log"`
}

type ListDocumentsInput struct {
	CorpusID string `json:"corpus_id"`
}

type CorpusDocument struct {
	Fingerprint string `json:"fingerprint"`
	Filename    string `json:"filename"`
	Status      string `json:"status"`
	FailReason  string `json:"fail_reason,omitempty"`
}

type ListDocumentsOutput struct {
	Documents []CorpusDocument `json:"documents"`
}

type ListFailedDocumentsInput struct {
	CorpusID string `json:"corpus_id"`
}

type ListFailedDocumentsOutput struct {
	Documents []CorpusDocument `json:"documents"`
}

type WriteCorpusSummaryInput struct {
	CorpusID string         `json:"corpus_id"`
	Summary  map[string]any `json:"summary"`
}

type SampleCorpusInput struct {
	CorpusID     string `json:"corpus_id"`
	TokensPerDoc int    `json:"tokens_per_doc"`
	TokenBudget  int    `json:"token_budget"`
}

type DocumentSample struct {
	Filename string `json:"filename"`
	Excerpt  string `json:"excerpt"`
}

type SampleCorpusOutput struct {
	Samples []DocumentSample `json:"samples"`
}

type CompressCorpusInput struct {
	RunID         string           `json:"run_id"`
	CorpusID      string           `json:"corpus_id"`
	ProviderIndex int              `json:"provider_index"`
	Samples       []DocumentSample `json:"samples"`
}

type CompressCorpusOutput struct {
	Report       string `json:"report"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
}

type GeneratePlansInput struct {
	RunID         string `json:"run_id"`
	CorpusID      string `json:"corpus_id"`
	Question      string `json:"question"`
	CorpusReport  string `json:"corpus_report"`
	ProviderIndex int    `json:"provider_index"`
}

type GeneratePlansOutput struct {
	Plans        []models.SearchPlan `json:"plans"`
	ProviderName string              `json:"provider_name"`
	Model        string              `json:"model"`
}

type ExecuteSearchPlanInput struct {
	RunID               string            `json:"run_id"`
	CorpusID            string            `json:"corpus_id"`
	Plan                models.SearchPlan `json:"plan"`
	ProviderIndex       int               `json:"provider_index"`
	EmbedProviderIndex  int               `json:"embed_provider_index"`
	EmbeddingVersion    string            `json:"embedding_version"`
	TopK                int               `json:"top_k"`
	MaxIterations       int               `json:"max_iterations"`
	MaxToolCallsPerTurn int               `json:"max_tool_calls_per_turn"`
	EvalMaxRetries      int               `json:"eval_max_retries"`
}

type ExecuteSearchPlanOutput struct {
	PlanID         string `json:"plan_id"`
	Status         string `json:"status"`
	ReportFilename string `json:"report_filename"`
	MainContent    string `json:"main_content"`
	ToolCalls      int    `json:"tool_calls"`
	Evaluations    int    `json:"evaluations"`
	ErrorMessage   string `json:"error_message,omitempty"`
}

type SynthesizeInput struct {
	RunID         string   `json:"run_id"`
	Question      string   `json:"question"`
	ProviderIndex int      `json:"provider_index"`
	Reports       []string `json:"reports"`
}

type SynthesizeOutput struct {
	FinalReport  string `json:"final_report"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
}

type WriteFinalReportInput struct {
	CorpusID string `json:"corpus_id"`
	RunID    string `json:"run_id"`
	Report   string `json:"report"`
}

type WriteFinalReportOutput struct {
	OutPath string `json:"out_path"`
}

type UpdateResearchRunInput struct {
	RunID   string `json:"run_id"`
	Status  string `json:"status"`
	OutPath string `json:"out_path"`
}

type WriteRunManifestInput struct {
	CorpusID string         `json:"corpus_id"`
	RunID    string         `json:"run_id"`
	Manifest map[string]any `json:"manifest"`
}

type WriteRunManifestOutput struct {
	Path string `json:"path"`
}

type LogLLMCallInput struct {
	CallID       string `json:"call_id"`
	Operation    string `json:"operation"`
	CorpusID     string `json:"corpus_id"`
	RunID        string `json:"run_id"`
	PlanID       string `json:"plan_id"`
	ProviderName string `json:"provider_name"`
	Model        string `json:"model"`
	RequestID    string `json:"request_id"`
	Status       string `json:"status"`
	ErrorType    string `json:"error_type"`
}
