package workflows

type CorpusIngestInput struct {
	CorpusID              string `json:"corpus_id"`
	InputDir              string `json:"input_dir"`
	MaxConcurrentChildren int    `json:"max_concurrent_children"`
	EmbedProviders        int    `json:"embed_providers"`
	CooldownSeconds       int    `json:"cooldown_seconds"`
	ChunkSize             int    `json:"chunk_size"`
	ChunkOverlap          int    `json:"chunk_overlap"`
	EmbedVersion          string `json:"embed_version"`
}

type CorpusIngestProgress struct {
	CorpusID      string            `json:"corpus_id"`
	Total         int               `json:"total"`
	Done          int               `json:"done"`
	Failed        int               `json:"failed"`
	PerDocument   map[string]string `json:"per_document"`
	ChildWorkflow map[string]string `json:"child_workflow"`
}

type DocumentProcessInput struct {
	CorpusID        string `json:"corpus_id"`
	DocumentPath    string `json:"document_path"`
	ChunkSize       int    `json:"chunk_size"`
	ChunkOverlap    int    `json:"chunk_overlap"`
	EmbedVersion    string `json:"embed_version"`
	EmbedProviders  int    `json:"embed_providers"`
	CooldownSeconds int    `json:"cooldown_seconds"`
}

type DocumentStatus struct {
	DocumentPath string            `json:"document_path"`
	Fingerprint  string            `json:"fingerprint"`
	CurrentStep  string            `json:"current_step"`
	Status       string            `json:"status"`
	FailReason   string            `json:"fail_reason,omitempty"`
	Steps        map[string]string `json:"steps"`
	RetryCounts  map[string]int    `json:"retry_counts"`
	Providers    []string          `json:"providers,omitempty"`
}

type ResearchInput struct {
	RunID               string `json:"run_id"`
	CorpusID            string `json:"corpus_id"`
	Question            string `json:"question"`
	LLMProviders        int    `json:"llm_providers"`
	EmbedProviders      int    `json:"embed_providers"`
	CooldownSeconds     int    `json:"cooldown_seconds"`
	EmbedVersion        string `json:"embed_version"`
	TopK                int    `json:"top_k"`
	MaxIterations       int    `json:"max_iterations"`
	MaxCallsPerTurn     int    `json:"max_calls_per_turn"`
	EvalMaxRetries      int    `json:"eval_max_retries"`
	SampleTokensPerDoc  int    `json:"sample_tokens_per_doc"`
	SampleTokenBudget   int    `json:"sample_token_budget"`
}

type ResearchProgress struct {
	RunID      string            `json:"run_id"`
	CorpusID   string            `json:"corpus_id"`
	Stage      string            `json:"stage"`
	TotalPlans int               `json:"total_plans"`
	DonePlans  int               `json:"done_plans"`
	PlanStatus map[string]string `json:"plan_status"`
	OutPath    string            `json:"out_path,omitempty"`
}
