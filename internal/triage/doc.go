// Package triage provides the business boundary for logtriage's event triage
// path. It defines the Service (prompt construction, serialized access to
// the shared inference resource, timeout enforcement), the typed error
// taxonomy, and the request/result models.
package triage
