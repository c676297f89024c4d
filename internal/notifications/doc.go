// Package notifications posts optional ntfy messages when a summary is
// ready or a run fails.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can notify unconditionally. Delivery failures are returned to the
// caller, which logs them; a failed notification never fails a run.
package notifications
