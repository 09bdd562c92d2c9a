package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListPDFsActivity)
	w.RegisterActivity(a.ExtractTextActivity)
	w.RegisterActivity(a.ChunkDocumentActivity)
	w.RegisterActivity(a.EmbedChunksActivity)
	w.RegisterActivity(a.UpsertChunksActivity)
	w.RegisterActivity(a.UpdateDocumentStatusActivity)
	w.RegisterActivity(a.WriteDocumentArtifactsActivity)
	w.RegisterActivity(a.ListDocumentsActivity)
	w.RegisterActivity(a.ListFailedDocumentsActivity)
	w.RegisterActivity(a.WriteCorpusSummaryActivity)
	w.RegisterActivity(a.SampleCorpusActivity)
	w.RegisterActivity(a.CompressCorpusActivity)
	w.RegisterActivity(a.GeneratePlansActivity)
	w.RegisterActivity(a.ExecuteSearchPlanActivity)
	w.RegisterActivity(a.SynthesizeActivity)
	w.RegisterActivity(a.WriteFinalReportActivity)
	w.RegisterActivity(a.UpdateResearchRunActivity)
	w.RegisterActivity(a.WriteRunManifestActivity)
	w.RegisterActivity(a.LogLLMCallActivity)
}
