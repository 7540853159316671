// Package google loads Google API credentials for the calendar adapter.
//
// Credentials come from a JSON key file (a service account key, or an
// authorized user file written by gcloud) or, when no file is configured,
// from Application Default Credentials. The resulting HTTP client is pinned
// to HTTP/1.1.
package google
