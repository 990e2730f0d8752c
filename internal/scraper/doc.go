// Package scraper implements the parallel about-page harvesting pipeline: work
// partitioning, per-worker browser sessions, consent handling, structured
// payload extraction, and result aggregation.
package scraper
