// Package postgres implements the internal/store interfaces on PostgreSQL.
// Each store maps one aggregate's tables; cross-store writes compose under
// a single transaction through the WithTx methods.
package postgres
