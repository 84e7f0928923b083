// Package scraper defines the core types and interfaces for the event
// scraping pipeline: raw tiles extracted from listing pages, normalized
// scraped events, and the contracts between the orchestrator, the page
// fetchers and the persistence layer.
package scraper
