// Package service holds the application use cases. Each service
// covers one domain area (karma accounting, atonement, debt, lifecycle,
// audit) and coordinates domain objects with the repositories defined
// in internal/store.
//
// Services receive their dependencies through constructor injection and
// open transactional boundaries when an operation spans several
// repositories (for example a karma posting that writes balances,
// transactions, and audit entries together). They translate store and
// domain errors into the sentinel errors the API layer maps to HTTP
// status codes.
//
// The layer depends on domain entities and repository interfaces only,
// never on concrete infrastructure.
package service
