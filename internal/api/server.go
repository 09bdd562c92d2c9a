package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docscout/internal/citation"
	"docscout/internal/config"
	"docscout/internal/models"
	"docscout/internal/providers"
	"docscout/internal/storage"
	"docscout/internal/util"
	"docscout/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg            config.Config
	db             *storage.DB
	corpusRepo     *storage.CorpusRepo
	documentRepo   *storage.DocumentRepo
	chunkRepo      *storage.ChunkRepo
	runRepo        *storage.RunRepo
	reportRepo     *storage.ReportRepo
	evaluationRepo *storage.EvaluationRepo
	citations      *citation.Registry
	providers      *providers.Manager
	temporal       tclient.Client
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	pm, err := providers.NewManager(cfg.LLMProviders, cfg.EmbedProviders, cfg.EmbedDim)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	chunkRepo := storage.NewChunkRepo(db)
	return &Server{
		cfg:            cfg,
		db:             db,
		corpusRepo:     storage.NewCorpusRepo(db),
		documentRepo:   storage.NewDocumentRepo(db),
		chunkRepo:      chunkRepo,
		runRepo:        storage.NewRunRepo(db),
		reportRepo:     storage.NewReportRepo(db),
		evaluationRepo: storage.NewEvaluationRepo(db),
		citations:      citation.NewRegistry(chunkRepo),
		providers:      pm,
		temporal:       tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/corpora", s.handleCorpora)
	mux.HandleFunc("/corpora/", s.handleCorporaScoped)
	mux.HandleFunc("/research", s.handleResearch)
	mux.HandleFunc("/research/", s.handleResearchScoped)
	mux.HandleFunc("/citations/", s.handleCitation)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCorpora(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		corpora, err := s.corpusRepo.ListCorpora(r.Context())
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"corpora": corpora})
	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeErr(w, http.StatusBadRequest, fmt.Errorf("name is required"))
			return
		}

		corpusID := uuid.NewString()
		if err := s.corpusRepo.CreateCorpus(r.Context(), models.Corpus{CorpusID: corpusID, Name: req.Name}); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if err := util.EnsureDir(filepath.Join(s.cfg.DataInRoot, corpusID)); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		if err := util.EnsureDir(filepath.Join(s.cfg.DataOutRoot, corpusID)); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}

		writeJSON(w, http.StatusCreated, map[string]any{"corpus_id": corpusID, "name": req.Name})
	default:
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
	}
}

func (s *Server) handleCorporaScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/corpora/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	corpusID := parts[0]

	if len(parts) == 2 && parts[1] == "upload" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		s.handleUpload(w, r, corpusID)
		return
	}

	if len(parts) == 2 && parts[1] == "documents" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		docs, err := s.documentRepo.ListDocumentsByCorpus(r.Context(), corpusID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
		return
	}

	if len(parts) == 2 && parts[1] == "ingest" {
		if r.Method != http.MethodPost {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		wfID := "ingest-" + corpusID
		we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
			ID:                                       wfID,
			TaskQueue:                                s.cfg.TemporalTaskQueue,
			WorkflowIDReusePolicy:                    enumspb.WORKFLOW_ID_REUSE_POLICY_ALLOW_DUPLICATE,
			WorkflowExecutionErrorWhenAlreadyStarted: true,
		}, workflows.CorpusIngestWorkflow, workflows.CorpusIngestInput{
			CorpusID:              corpusID,
			InputDir:              filepath.Join(s.cfg.DataInRoot, corpusID),
			MaxConcurrentChildren: s.cfg.IngestMaxChildren,
			EmbedProviders:        s.providers.EmbedCount(),
			CooldownSeconds:       s.cfg.ProviderCooldownSecs,
			ChunkSize:             s.cfg.ChunkSize,
			ChunkOverlap:          s.cfg.ChunkOverlap,
			EmbedVersion:          s.cfg.EmbedVersion,
		})
		if err != nil {
			writeErr(w, http.StatusConflict, err)
			return
		}
		writeJSON(w, http.StatusAccepted, map[string]any{"workflow_id": we.GetID(), "run_id": we.GetRunID()})
		return
	}

	if len(parts) == 2 && parts[1] == "progress" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		var prog workflows.CorpusIngestProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), "ingest-"+corpusID, "", workflows.QueryGetProgress)
		if err != nil {
			// No live workflow to query; derive progress from document rows.
			docs, dErr := s.documentRepo.ListDocumentsByCorpus(r.Context(), corpusID)
			if dErr != nil {
				writeErr(w, http.StatusInternalServerError, dErr)
				return
			}
			per := make(map[string]string, len(docs))
			done := 0
			failed := 0
			for _, d := range docs {
				per[d.Filename] = d.Status
				if d.Status == "processed" {
					done++
				}
				if d.Status == "failed" {
					failed++
				}
			}
			writeJSON(w, http.StatusOK, workflows.CorpusIngestProgress{
				CorpusID:    corpusID,
				Total:       len(docs),
				Done:        done,
				Failed:      failed,
				PerDocument: per,
			})
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
		return
	}

	if len(parts) == 2 && parts[1] == "runs" {
		if r.Method != http.MethodGet {
			writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
			return
		}
		runs, err := s.runRepo.ListRunsByCorpus(r.Context(), corpusID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
		return
	}

	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request, corpusID string) {
	if err := r.ParseMultipartForm(128 << 20); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("parse multipart: %w", err))
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		if single, ok := firstSingleFile(r.MultipartForm.File); ok {
			files = append(files, single)
		}
	}
	if len(files) == 0 {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("no files provided"))
		return
	}

	inDir := filepath.Join(s.cfg.DataInRoot, corpusID)
	if err := util.EnsureDir(inDir); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	type uploadResult struct {
		Filename    string `json:"filename"`
		ContentHash string `json:"content_hash"`
	}
	out := make([]uploadResult, 0, len(files))

	for _, fh := range files {
		if !strings.HasSuffix(strings.ToLower(fh.Filename), ".pdf") {
			continue
		}
		hash, savedPath, err := saveUploadedFile(inDir, fh)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		out = append(out, uploadResult{Filename: filepath.Base(savedPath), ContentHash: hash})
	}

	writeJSON(w, http.StatusOK, map[string]any{"uploaded": out})
}

func (s *Server) handleResearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		CorpusID string `json:"corpus_id"`
		Question string `json:"question"`
		TopK     int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.CorpusID = strings.TrimSpace(req.CorpusID)
	req.Question = strings.TrimSpace(req.Question)
	if req.CorpusID == "" || req.Question == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("corpus_id and question are required"))
		return
	}
	if req.TopK <= 0 {
		req.TopK = s.cfg.SearchTopK
	}

	runID := uuid.NewString()
	if err := s.runRepo.CreateRun(r.Context(), models.ResearchRun{
		RunID:    runID,
		CorpusID: req.CorpusID,
		Question: req.Question,
		Status:   "pending",
	}); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}

	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        "research-" + runID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.ResearchWorkflow, workflows.ResearchInput{
		RunID:              runID,
		CorpusID:           req.CorpusID,
		Question:           req.Question,
		LLMProviders:       s.providers.ChatCount(),
		EmbedProviders:     s.providers.EmbedCount(),
		CooldownSeconds:    s.cfg.ProviderCooldownSecs,
		EmbedVersion:       s.cfg.EmbedVersion,
		TopK:               req.TopK,
		MaxIterations:      s.cfg.AgentMaxIterations,
		MaxCallsPerTurn:    s.cfg.AgentMaxCallsPerTurn,
		EvalMaxRetries:     s.cfg.EvalMaxRetries,
		SampleTokensPerDoc: s.cfg.SampleTokensPerDoc,
		SampleTokenBudget:  s.cfg.SampleTokenBudget,
	})
	if err != nil {
		writeErr(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"research_run_id": runID, "workflow_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handleResearchScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/research/"), "/"), "/")
	if len(parts) < 2 {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	runID := parts[0]
	switch parts[1] {
	case "progress":
		var prog workflows.ResearchProgress
		resp, err := s.temporal.QueryWorkflow(r.Context(), "research-"+runID, "", workflows.QueryGetResearchProgress)
		if err != nil {
			// Workflow already gone; report the run row instead.
			run, rErr := s.runRepo.GetRun(r.Context(), runID)
			if rErr != nil {
				writeErr(w, http.StatusNotFound, rErr)
				return
			}
			writeJSON(w, http.StatusOK, workflows.ResearchProgress{
				RunID:    run.RunID,
				CorpusID: run.CorpusID,
				Stage:    run.Status,
				OutPath:  run.OutPath,
			})
			return
		}
		if err := resp.Get(&prog); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, prog)
	case "report":
		run, err := s.runRepo.GetRun(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if run.OutPath == "" {
			writeJSON(w, http.StatusOK, map[string]any{"status": run.Status, "report_markdown": ""})
			return
		}
		b, err := os.ReadFile(run.OutPath)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": run.Status, "report_markdown": string(b), "path": run.OutPath})
	case "reports":
		reports, err := s.reportRepo.ListReportsByRun(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"reports": reports})
	case "citations":
		// Every key cited by the final report, resolved back to its chunk.
		run, err := s.runRepo.GetRun(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		if run.OutPath == "" {
			writeJSON(w, http.StatusOK, map[string]any{"status": run.Status, "citations": []any{}})
			return
		}
		b, err := os.ReadFile(run.OutPath)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		type resolvedCitation struct {
			Key      string `json:"key"`
			Filename string `json:"filename,omitempty"`
			Snippet  string `json:"snippet,omitempty"`
			Found    bool   `json:"found"`
		}
		keys := citation.ExtractKeys(string(b))
		seen := make(map[string]struct{}, len(keys))
		out := make([]resolvedCitation, 0, len(keys))
		for _, k := range keys {
			if _, dup := seen[k.String()]; dup {
				continue
			}
			seen[k.String()] = struct{}{}
			rc := resolvedCitation{Key: k.String()}
			cc, err := s.citations.Resolve(r.Context(), k)
			if err == nil {
				rc.Found = true
				rc.Filename = cc.Filename
				rc.Snippet = util.DisplaySnippet(cc.Content, 420)
			} else if !errors.Is(err, citation.ErrNotFound) {
				writeErr(w, http.StatusInternalServerError, err)
				return
			}
			out = append(out, rc)
		}
		writeJSON(w, http.StatusOK, map[string]any{"status": run.Status, "citations": out})
	case "evaluations":
		evals, err := s.evaluationRepo.ListEvaluationsByRun(r.Context(), runID)
		if err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"evaluations": evals})
	default:
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
	}
}

// handleCitation resolves a citation key from a report back to the chunk it
// points at, with its neighbor chunks for context.
func (s *Server) handleCitation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	raw := strings.Trim(strings.TrimPrefix(r.URL.Path, "/citations/"), "/")
	key, err := citation.ParseKey(raw)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid citation key: %w", err))
		return
	}
	cc, err := s.citations.Resolve(r.Context(), key)
	if err != nil {
		if errors.Is(err, citation.ErrNotFound) {
			writeErr(w, http.StatusNotFound, err)
			return
		}
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, cc)
}

func saveUploadedFile(dstDir string, fh *multipart.FileHeader) (contentHash, path string, err error) {
	src, err := fh.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp(dstDir, "upload-*.pdf")
	if err != nil {
		return "", "", fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
	}()

	hash, err := util.SHA256HexFromReader(io.TeeReader(src, tmp))
	if err != nil {
		return "", "", fmt.Errorf("write upload: %w", err)
	}

	finalPath := util.SafeJoin(dstDir, fh.Filename)
	if err := tmp.Close(); err != nil {
		return "", "", err
	}
	if err := os.Rename(tmp.Name(), finalPath); err != nil {
		return "", "", fmt.Errorf("atomic move upload: %w", err)
	}
	return hash, finalPath, nil
}

func firstSingleFile(m map[string][]*multipart.FileHeader) (*multipart.FileHeader, bool) {
	for _, v := range m {
		if len(v) > 0 {
			return v[0], true
		}
	}
	return nil, false
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	msg := "request failed"
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, code, map[string]any{"error": map[string]any{"message": msg}})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
