// Package backend is the HTTP client for the document intelligence service
// that ranks cross-document passages and generates insights and audio.
//
// Endpoints:
//   - POST /api/v1/search/semantic: relevance search (driven.RelevanceService)
//   - POST /api/v1/insights/generate: insight payload (driven.InsightGenerator)
//   - POST /api/v1/insights/podcast: narration script and audio (driven.AudioGenerator)
//
// Transport errors and non-2xx responses are returned with the status code
// and response text in the message so the core can classify them.
package backend
