// Package bus connects the engine to NATS: trigger messages start checks
// and completed runs are published as summaries.
//
// Subjects:
//
//	checkops.trigger        {"configurationId": "...", "systemId": "..."}
//	checkops.run.completed  RunSummary
//
// A trigger sent as a request receives the RunSummary as its reply.
package bus
