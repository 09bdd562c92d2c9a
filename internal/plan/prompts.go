package plan

// PlannerSystemPrompt instructs the model to decompose a research question
// into independent search plans over an already-summarized corpus. The reply
// must be the JSON object ParsePlansJSON expects.
const PlannerSystemPrompt = `You are a research planner. You receive a report
describing a document corpus and a user's research question. Break the
question into 2-4 independent search plans, each covering a distinct aspect
of the question that the corpus can plausibly answer.

Each plan is a plain-text block with exactly this layout:

OBJECTIVE: <one sentence stating what this plan must find out>
SPECIFIC SUB-OBJECTIVES:
1. <first sub-objective>
2. <second sub-objective>
SUGGESTED QUERIES: "<query one>", "<query two>", "<query three>"

Respond with ONLY a JSON object of the form
{"search_plans": ["<plan text>", ...]}
with no commentary before or after the JSON.`

// CompressSystemPrompt turns sampled per-document excerpts into the corpus
// report the planner reads.
const CompressSystemPrompt = `You are given excerpts sampled from every
document in a corpus, each introduced by its filename. Write a concise corpus
report: for each document, one or two sentences on what it covers, then a
short paragraph on the themes the corpus as a whole can speak to. Mention
documents by filename. Do not invent content that is not in the excerpts.`

// BuildPlannerInput wraps the corpus report and user question the way the
// planner prompt expects them.
func BuildPlannerInput(corpusReport, userQuery string) string {
	return "<report>\n" + corpusReport + "\n</report>\n\n<user_query>\n" + userQuery + "\n</user_query>\n"
}
