package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	mux.HandleFunc("GET /readyz", handler.Readyz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerDisclosureRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/filings", handler.ListFilings)
	mux.HandleFunc("GET /v1/filings/{docID}", handler.GetFiling)
	mux.HandleFunc("GET /v1/filings/{docID}/record", handler.GetFilingRecord)
	mux.HandleFunc("GET /v1/filings/{docID}/summaries", handler.ListFilingSummaries)
}

func registerInternalPipelineRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/pipeline/runs", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunPipeline)))
	mux.Handle("GET /v1/internal/pipeline/runs", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ListPipelineRuns)))
	mux.Handle("GET /v1/internal/pipeline/runs/{runID}", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.GetPipelineRun)))
}
