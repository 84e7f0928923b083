// Package main hosts the event scraper service entrypoint.
//
// Architecture overview:
//   - HTTP API: internal/api.Server exposes health, metrics, a manual crawl
//     trigger (POST /v1/scraper/run) and a store status report
//     (GET /v1/scraper/status).
//   - Crawl pipeline: internal/orchestrator.Runner walks the configured
//     cities sequentially. Each listing page is fetched with a plain-HTTP
//     Colly probe first and promoted to a headless Chromedp render when the
//     probe returns a JavaScript shell without event tiles. Tiles are
//     extracted via a selector fallback chain, normalized (Czech dates,
//     category keywords, diacritic-free slugs) and written to MongoDB with
//     slug-based deduplication.
//   - Scheduling: a cron trigger (default 03:00 daily) fires the same
//     pipeline; a run in progress causes the trigger to be skipped rather
//     than queued.
//   - Configuration & plumbing: Viper populates config from env/files
//     (SCRAPER_ prefix); zap provides structured logging; Prometheus
//     metrics are exported on /metrics. One headless browser process is
//     shared per run and torn down when the run finishes.
//
// Run locally: go run ./cmd/scraperd -config config.yaml (or rely solely
// on env overrides).
package main
