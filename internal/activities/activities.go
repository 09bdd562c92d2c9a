// Package activities implements the Temporal activity layer: PDF ingest,
// corpus sampling and compression, plan generation and execution, synthesis,
// and the persistence around all of them.
package activities

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"docscout/internal/agent"
	"docscout/internal/config"
	"docscout/internal/evaluate"
	"docscout/internal/models"
	"docscout/internal/plan"
	"docscout/internal/providers"
	"docscout/internal/research"
	"docscout/internal/storage"
	"docscout/internal/synthesize"
	"docscout/internal/util"
	"docscout/internal/vector"

	"github.com/ledongthuc/pdf"
)

type Activities struct {
	cfg            config.Config
	documentRepo   *storage.DocumentRepo
	chunkRepo      *storage.ChunkRepo
	runRepo        *storage.RunRepo
	reportRepo     *storage.ReportRepo
	evaluationRepo *storage.EvaluationRepo
	llmAuditRepo   *storage.LLMAuditRepo
	searcher       *vector.Searcher
	providers      *providers.Manager
}

func New(cfg config.Config, db *storage.DB) (*Activities, error) {
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		return nil, err
	}
	return &Activities{
		cfg:            cfg,
		documentRepo:   storage.NewDocumentRepo(db),
		chunkRepo:      storage.NewChunkRepo(db),
		runRepo:        storage.NewRunRepo(db),
		reportRepo:     storage.NewReportRepo(db),
		evaluationRepo: storage.NewEvaluationRepo(db),
		llmAuditRepo:   storage.NewLLMAuditRepo(db),
		searcher:       vector.NewSearcher(db.Pool),
		providers:      pm,
	}, nil
}

func (a *Activities) ListPDFsActivity(ctx context.Context, in ListPDFsInput) (ListPDFsOutput, error) {
	_ = ctx
	entries, err := os.ReadDir(in.InputDir)
	if err != nil {
		return ListPDFsOutput{}, fmt.Errorf("read input dir: %w", err)
	}
	paths := make([]string, 0)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(strings.ToLower(e.Name()), ".pdf") {
			paths = append(paths, filepath.Join(in.InputDir, e.Name()))
		}
	}
	sort.Strings(paths)
	return ListPDFsOutput{Paths: paths}, nil
}

func (a *Activities) ExtractTextActivity(ctx context.Context, in ExtractTextInput) (ExtractTextOutput, error) {
	_ = ctx
	f, r, err := pdf.Open(in.DocumentPath)
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return ExtractTextOutput{}, fmt.Errorf("extract pdf text: %w", err)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, reader); err != nil {
		return ExtractTextOutput{}, fmt.Errorf("read extracted text: %w", err)
	}
	text := util.SanitizeText(strings.TrimSpace(buf.String()))
	if text == "" {
		return ExtractTextOutput{}, util.ErrNoExtractableText
	}
	return ExtractTextOutput{Text: text, Fingerprint: util.Fingerprint(text)}, nil
}

func (a *Activities) ChunkDocumentActivity(ctx context.Context, in ChunkDocumentInput) (ChunkDocumentOutput, error) {
	_ = ctx
	if in.ChunkSize <= 0 {
		in.ChunkSize = a.cfg.ChunkSize
	}
	if in.ChunkOverlap < 0 || in.ChunkOverlap >= in.ChunkSize {
		in.ChunkOverlap = a.cfg.ChunkOverlap
	}

	rawChunks := util.ChunkText(in.Text, in.ChunkSize, in.ChunkOverlap)
	chunks := make([]ChunkItem, 0, len(rawChunks))
	for idx, part := range rawChunks {
		part = util.SanitizeText(part)
		if part == "" {
			continue
		}
		chunks = append(chunks, ChunkItem{
			Fingerprint: in.Fingerprint,
			ChunkIndex:  idx,
			CorpusID:    in.CorpusID,
			Filename:    in.Filename,
			Text:        part,
		})
	}
	return ChunkDocumentOutput{Chunks: chunks}, nil
}

func (a *Activities) EmbedChunksActivity(ctx context.Context, in EmbedChunksInput) (EmbedChunksOutput, error) {
	inputs := make([]string, 0, len(in.Input))
	for _, c := range in.Input {
		inputs = append(inputs, c.Text)
	}
	provider, _ := a.providers.EmbedProviderByIndex(in.ProviderIndex)
	vectors, info, err := provider.Embed(ctx, providers.EmbedRequest{
		Operation: in.Operation,
		Inputs:    inputs,
		Dimension: a.cfg.EmbedDim,
	})
	if err != nil {
		return EmbedChunksOutput{}, err
	}
	return EmbedChunksOutput{Vectors: vectors, ProviderName: info.Name, Model: info.Model}, nil
}

func (a *Activities) UpsertChunksActivity(ctx context.Context, in UpsertChunksInput) error {
	records := make([]storage.ChunkRecord, 0, len(in.Chunks))
	for i, c := range in.Chunks {
		var embedding *string
		if i < len(in.Vectors) && len(in.Vectors[i]) > 0 {
			lit := vector.ToLiteral(in.Vectors[i])
			embedding = &lit
		}
		records = append(records, storage.ChunkRecord{
			Fingerprint:      c.Fingerprint,
			ChunkIndex:       c.ChunkIndex,
			CorpusID:         c.CorpusID,
			Filename:         c.Filename,
			Text:             util.SanitizeText(c.Text),
			EmbeddingVersion: in.EmbeddingVersion,
			EmbeddingVector:  embedding,
		})
	}
	return a.chunkRepo.UpsertChunks(ctx, records)
}

func (a *Activities) UpdateDocumentStatusActivity(ctx context.Context, in UpdateDocumentStatusInput) error {
	return a.documentRepo.UpsertDocument(ctx, models.Document{
		Fingerprint: in.Fingerprint,
		CorpusID:    in.CorpusID,
		Filename:    in.Filename,
		Status:      in.Status,
		FailReason:  in.FailReason,
	})
}

func (a *Activities) WriteDocumentArtifactsActivity(ctx context.Context, in WriteDocumentArtifactsInput) error {
	_ = ctx
	base := filepath.Join(a.cfg.DataOutRoot, in.CorpusID, "documents", in.Fingerprint)
	if err := util.EnsureDir(base); err != nil {
		return err
	}
	if err := util.WriteJSONAtomic(filepath.Join(base, "metadata.json"), in.Metadata); err != nil {
		return err
	}
	rows := make([]any, 0, len(in.Chunks))
	for _, c := range in.Chunks {
		rows = append(rows, c)
	}
	if err := util.WriteJSONLinesAtomic(filepath.Join(base, "chunks.jsonl"), rows); err != nil {
		return err
	}
	return util.WriteJSONAtomic(filepath.Join(base, "processing_log.json"), in.ProcessingLog)
}

func (a *Activities) ListDocumentsActivity(ctx context.Context, in ListDocumentsInput) (ListDocumentsOutput, error) {
	docs, err := a.documentRepo.ListDocumentsByCorpus(ctx, in.CorpusID)
	if err != nil {
		return ListDocumentsOutput{}, err
	}
	out := ListDocumentsOutput{Documents: make([]CorpusDocument, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, CorpusDocument{
			Fingerprint: d.Fingerprint,
			Filename:    d.Filename,
			Status:      d.Status,
			FailReason:  d.FailReason,
		})
	}
	return out, nil
}

func (a *Activities) ListFailedDocumentsActivity(ctx context.Context, in ListFailedDocumentsInput) (ListFailedDocumentsOutput, error) {
	docs, err := a.documentRepo.ListFailedDocuments(ctx, in.CorpusID)
	if err != nil {
		return ListFailedDocumentsOutput{}, err
	}
	out := ListFailedDocumentsOutput{Documents: make([]CorpusDocument, 0, len(docs))}
	for _, d := range docs {
		out.Documents = append(out.Documents, CorpusDocument{Fingerprint: d.Fingerprint, Filename: d.Filename, Status: d.Status, FailReason: d.FailReason})
	}
	return out, nil
}

func (a *Activities) WriteCorpusSummaryActivity(ctx context.Context, in WriteCorpusSummaryInput) error {
	_ = ctx
	outPath := filepath.Join(a.cfg.DataOutRoot, in.CorpusID, "corpus_summary.json")
	return util.WriteJSONAtomic(outPath, in.Summary)
}

// SampleCorpusActivity takes the opening tokens of every processed document,
// bounded per document and in total, as raw material for the corpus report.
func (a *Activities) SampleCorpusActivity(ctx context.Context, in SampleCorpusInput) (SampleCorpusOutput, error) {
	if in.TokensPerDoc <= 0 {
		in.TokensPerDoc = a.cfg.SampleTokensPerDoc
	}
	if in.TokenBudget <= 0 {
		in.TokenBudget = a.cfg.SampleTokenBudget
	}
	docs, err := a.documentRepo.ListDocumentsByCorpus(ctx, in.CorpusID)
	if err != nil {
		return SampleCorpusOutput{}, err
	}

	out := SampleCorpusOutput{Samples: make([]DocumentSample, 0, len(docs))}
	used := 0
	for _, d := range docs {
		if d.Status != "processed" {
			continue
		}
		if used >= in.TokenBudget {
			break
		}
		chunks, err := a.chunkRepo.ListChunksByDocument(ctx, in.CorpusID, d.Fingerprint)
		if err != nil {
			return SampleCorpusOutput{}, err
		}
		if len(chunks) == 0 {
			continue
		}
		limit := in.TokensPerDoc
		if remaining := in.TokenBudget - used; remaining < limit {
			limit = remaining
		}
		excerpt, n := takeTokens(chunks[0].Text, limit)
		if excerpt == "" {
			continue
		}
		used += n
		out.Samples = append(out.Samples, DocumentSample{Filename: d.Filename, Excerpt: excerpt})
	}
	if len(out.Samples) == 0 {
		return SampleCorpusOutput{}, fmt.Errorf("corpus %s has no processed documents to sample", in.CorpusID)
	}
	return out, nil
}

func takeTokens(text string, n int) (string, int) {
	fields := strings.Fields(text)
	if len(fields) > n {
		fields = fields[:n]
	}
	return strings.Join(fields, " "), len(fields)
}

// CompressCorpusActivity turns the document samples into the corpus report
// the planner consumes, and persists it beside the run's other artifacts.
func (a *Activities) CompressCorpusActivity(ctx context.Context, in CompressCorpusInput) (CompressCorpusOutput, error) {
	b := strings.Builder{}
	for _, s := range in.Samples {
		fmt.Fprintf(&b, "=== %s ===\n%s\n\n", s.Filename, s.Excerpt)
	}

	provider, ref := a.providers.ChatProviderByIndex(in.ProviderIndex)
	resp, info, err := provider.Chat(ctx, providers.ChatRequest{
		Operation: "compress_corpus",
		Messages: []providers.Message{
			{Role: "system", Content: plan.CompressSystemPrompt},
			{Role: "user", Content: b.String()},
		},
	})
	if err != nil {
		return CompressCorpusOutput{}, fmt.Errorf("compress corpus via %s: %w", ref.Raw, err)
	}
	if strings.TrimSpace(resp.Text) == "" {
		return CompressCorpusOutput{}, fmt.Errorf("compress corpus: model returned empty report")
	}
	outPath := filepath.Join(a.runDir(in.CorpusID, in.RunID), "doc_report.txt")
	if err := util.WriteTextAtomic(outPath, resp.Text); err != nil {
		return CompressCorpusOutput{}, err
	}
	return CompressCorpusOutput{Report: resp.Text, ProviderName: info.Name, Model: info.Model}, nil
}

func (a *Activities) GeneratePlansActivity(ctx context.Context, in GeneratePlansInput) (GeneratePlansOutput, error) {
	provider, ref := a.providers.ChatProviderByIndex(in.ProviderIndex)
	resp, info, err := provider.Chat(ctx, providers.ChatRequest{
		Operation: "generate_search_plans",
		Messages: []providers.Message{
			{Role: "system", Content: plan.PlannerSystemPrompt},
			{Role: "user", Content: plan.BuildPlannerInput(in.CorpusReport, in.Question)},
		},
	})
	if err != nil {
		return GeneratePlansOutput{}, fmt.Errorf("generate search plans via %s: %w", ref.Raw, err)
	}
	plans, err := plan.ParsePlansJSON(resp.Text)
	if err != nil {
		return GeneratePlansOutput{}, err
	}
	for _, p := range plans {
		path := filepath.Join(a.runDir(in.CorpusID, in.RunID), p.ID+".txt")
		if err := util.WriteTextAtomic(path, p.Raw); err != nil {
			return GeneratePlansOutput{}, err
		}
	}
	return GeneratePlansOutput{Plans: plans, ProviderName: info.Name, Model: info.Model}, nil
}

// ExecuteSearchPlanActivity runs one plan end to end: agent loop, evaluation,
// feedback retries, then persistence of the surviving report, its evaluations,
// and the on-disk report file. A plan that kept any report returns normally
// with its terminal status; only a reportless hard failure is an activity
// error.
func (a *Activities) ExecuteSearchPlanActivity(ctx context.Context, in ExecuteSearchPlanInput) (ExecuteSearchPlanOutput, error) {
	llm, _ := a.providers.ChatProviderByIndex(in.ProviderIndex)
	embed, _ := a.providers.EmbedProviderByIndex(in.EmbedProviderIndex)

	search := vector.NewChunkSearch(embed, a.searcher, in.CorpusID, in.EmbeddingVersion, a.cfg.EmbedDim)
	searchAgent := agent.NewSearchAgent(llm, &topKSearcher{search: search, topK: in.TopK}, agent.Config{
		MaxIterations:       in.MaxIterations,
		MaxToolCallsPerTurn: in.MaxToolCallsPerTurn,
		CompletionTimeout:   a.cfg.CompletionTimeout(),
		ToolTimeout:         a.cfg.ToolTimeout(),
		CompletionRetries:   a.cfg.CompletionRetries,
	})
	evaluator := evaluate.NewEvaluator(llm, a.cfg.CompletionRetries)
	runner := research.NewRunner(searchAgent, evaluator, in.EvalMaxRetries)

	outcome := runner.RunPlan(ctx, in.Plan)
	out := ExecuteSearchPlanOutput{PlanID: in.Plan.ID}
	if outcome.Err != nil {
		out.ErrorMessage = outcome.Err.Error()
	}
	if outcome.Report.MainContent == "" && outcome.Err != nil {
		return out, outcome.Err
	}

	report := outcome.Report
	report.RunID = in.RunID
	if err := a.reportRepo.UpsertReport(ctx, report); err != nil {
		return out, err
	}
	for _, e := range outcome.Evaluations {
		e.RunID = in.RunID
		if err := a.evaluationRepo.InsertEvaluation(ctx, e); err != nil {
			return out, err
		}
	}
	if len(outcome.Evaluations) > 0 {
		evalPath := filepath.Join(a.runDir(in.CorpusID, in.RunID), in.Plan.ID+"_evaluations.json")
		if err := util.WriteJSONAtomic(evalPath, outcome.Evaluations); err != nil {
			return out, err
		}
	}
	reportPath := filepath.Join(a.runDir(in.CorpusID, in.RunID), report.Filename)
	if err := util.WriteTextAtomic(reportPath, agent.ComposeReportFile(report)); err != nil {
		return out, err
	}

	out.Status = report.Status
	out.ReportFilename = report.Filename
	out.MainContent = report.MainContent
	out.ToolCalls = len(report.DebugLog)
	out.Evaluations = len(outcome.Evaluations)
	return out, nil
}

// topKSearcher pins the per-run default result count while still honoring the
// model's per-call max_results.
type topKSearcher struct {
	search *vector.ChunkSearch
	topK   int
}

func (t *topKSearcher) SearchChunks(ctx context.Context, query string, topK int) ([]models.ChunkHit, error) {
	if topK <= 0 {
		topK = t.topK
	}
	return t.search.SearchChunks(ctx, query, topK)
}

func (a *Activities) SynthesizeActivity(ctx context.Context, in SynthesizeInput) (SynthesizeOutput, error) {
	llm, _ := a.providers.ChatProviderByIndex(in.ProviderIndex)
	combiner := synthesize.NewCombiner(llm, a.cfg.CompletionRetries)

	reports := make([]models.Report, 0, len(in.Reports))
	for i, content := range in.Reports {
		reports = append(reports, models.Report{PlanID: plan.IDFor(i + 1), MainContent: content})
	}
	final, err := combiner.Combine(ctx, in.Question, reports)
	if err != nil {
		return SynthesizeOutput{}, err
	}
	return SynthesizeOutput{FinalReport: final}, nil
}

func (a *Activities) WriteFinalReportActivity(ctx context.Context, in WriteFinalReportInput) (WriteFinalReportOutput, error) {
	_ = ctx
	outPath := filepath.Join(a.runDir(in.CorpusID, in.RunID), "final_report.md")
	if err := util.WriteTextAtomic(outPath, in.Report); err != nil {
		return WriteFinalReportOutput{}, err
	}
	return WriteFinalReportOutput{OutPath: outPath}, nil
}

func (a *Activities) UpdateResearchRunActivity(ctx context.Context, in UpdateResearchRunInput) error {
	return a.runRepo.UpdateRunStatus(ctx, in.RunID, in.Status, in.OutPath)
}

func (a *Activities) WriteRunManifestActivity(ctx context.Context, in WriteRunManifestInput) (WriteRunManifestOutput, error) {
	_ = ctx
	path := filepath.Join(a.runDir(in.CorpusID, in.RunID), "manifest.json")
	if err := util.WriteJSONAtomic(path, in.Manifest); err != nil {
		return WriteRunManifestOutput{}, err
	}
	return WriteRunManifestOutput{Path: path}, nil
}

func (a *Activities) LogLLMCallActivity(ctx context.Context, in LogLLMCallInput) error {
	return a.llmAuditRepo.Insert(ctx, storage.LLMCallRecord{
		CallID:       in.CallID,
		Operation:    in.Operation,
		CorpusID:     in.CorpusID,
		RunID:        in.RunID,
		PlanID:       in.PlanID,
		ProviderName: in.ProviderName,
		Model:        in.Model,
		RequestID:    in.RequestID,
		Status:       in.Status,
		ErrorType:    in.ErrorType,
	})
}

func (a *Activities) runDir(corpusID, runID string) string {
	return filepath.Join(a.cfg.DataOutRoot, corpusID, "runs", runID)
}
