// Package status answers the read-side questions: how healthy is a system
// right now, what did a check look like over a time range, and what do the
// registered plugins accept and produce.
package status
