// Package grading holds the assessment rules: submission and attempt lifecycles,
// auto-scoring, late penalties and cohort statistics. Functions take current state and
// return new state; persistence is left to the caller.
package grading
