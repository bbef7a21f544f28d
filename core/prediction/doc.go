// Package prediction scores per-station arrival delays from cached model
// artifacts. Scoring never ingests or trains; callers that need a fresh
// model go through the pipeline orchestrator instead.
package prediction
