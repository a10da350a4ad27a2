// Package logging builds the slog loggers used across dashpress and supplies
// attribute aliases plus context scoping so every stage logs under a
// consistent job_id/stage field set.
package logging
