// Package store declares the persistence interfaces the services depend
// on: actors and balances, the transaction ledger, atonement plans, debts,
// death events, the advisor's value table, and the audit trail. Concrete
// implementations live under internal/platform.
package store
