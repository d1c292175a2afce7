// Package threshold turns a history of run statuses into a verdict.
//
// Two modes are supported:
//
//   - consecutive: the leading streak of the most recent runs decides.
//     A failure streak reaching UnhealthyMinFailure is unhealthy, one
//     reaching DegradedMinFailure is degraded, a success streak reaching
//     HealthyMinSuccess is healthy. Otherwise the previous verdict stands,
//     which damps flapping.
//   - window: failures among the most recent Size runs are counted;
//     UnhealthyMinFailure wins over DegradedMinFailure. The window is
//     memoryless.
//
// A run counts as a failure when its status is degraded or unhealthy.
package threshold
