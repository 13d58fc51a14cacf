// Package observability provides logging and metrics support for the
// researcher discovery service.
//
// # Logging
//
// Create a logger from configuration:
//
//	logger := observability.NewLogger(observability.LoggingConfig{
//	    Level:  "info",
//	    Format: "json",
//	    Output: "stdout",
//	})
//
// Components derive child loggers with the context helpers:
//
//	logger = observability.WithSearchContext(logger, query, "translated")
//	logger = observability.WithResearcherContext(logger, name, institution)
//	logger = observability.WithTaskContext(logger, taskID)
//
// Request identifiers travel on the context and are attached with
// LoggerFromContext:
//
//	ctx = observability.WithRequestID(ctx, requestID)
//	log := observability.LoggerFromContext(ctx, logger)
//
// # Metrics
//
//	metrics := observability.NewMetrics("researcher_discovery")
//	metrics.RecordSearch("simplified", len(papers), elapsed.Seconds())
//
// A nil *Metrics is valid and records nothing.
//
// # Standard Fields
//
//   - request_id: API request identifier
//   - correlation_id: caller-supplied correlation identifier
//   - run_id: discovery pipeline run identifier
//   - query: user's free-text research query
//   - strategy: fallback ladder strategy name
//   - researcher: researcher name being processed
//   - task_id: browser automation task identifier
//   - component: emitting component
package observability
