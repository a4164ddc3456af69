// Package triage holds the incident triage engine: nearby-similar detection,
// the urgency scorer and the dashboard filter evaluator. Every function here
// is pure; callers supply the full report snapshot.
package triage
