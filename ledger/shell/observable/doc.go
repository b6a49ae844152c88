// Package observable decorates command and query handlers with metrics, tracing and logging.
//
// The handlers themselves only know about retries and business outcomes, the wrappers translate
// HandlerResult and the returned error into status labels, span states and log lines.
package observable
