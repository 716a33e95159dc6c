/*
Package log provides structured logging for all ledger services.

The package wraps zerolog behind a small API: Init configures the global
logger once at process start (level, JSON vs console output), and the
With* helpers derive child loggers tagged with the fields used across
the platform (component, service, project_id, worker_id).

Services log JSON in production and human-readable console output in
development. The global logger is safe for concurrent use.
*/
package log
