// Package domain defines the core business entities of the karmic ledger:
// actors and their token balances, transactions, atonement plans, debt
// relationships, and lifecycle events. Entities carry their own validation;
// nothing in this package touches persistence or transport.
package domain
