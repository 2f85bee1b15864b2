// Package api exposes the ledger over HTTP. Handlers decode and validate
// requests, delegate to the service layer, and map service errors onto
// status codes; no business rules live here.
package api
