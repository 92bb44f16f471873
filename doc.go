// Package kapytal is an in-memory personal finance ledger and valuation
// engine. It models cash and security accounts in a tree, multi-currency
// money with historical exchange rates, a tagged-variant transaction set
// (incomes, expenses, transfers, buys, sells, dividends, refunds) and the
// reports computed over them: net worth, cash flow, security performance and
// category/tag/payee breakdowns.
//
// The Ledger is the aggregate root. Every mutation is validated against all
// cross-entity invariants and commits all-or-nothing; on failure the ledger
// is untouched. Reports are pure functions over the ledger state and a
// Filter, so they may run concurrently as long as no mutation interleaves.
//
// Persistence, UI and market-data fetching are external collaborators: they
// exchange plain Bundle records with the core (LoadBundle, ToBundle) and push
// quotes through SetSecurityPrice and SetExchangeRate.
package kapytal
