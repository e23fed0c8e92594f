// Package finapp tracks a personal investment ledger fed by statement files.
//
// Brokerage fund statements (xlsx) and bank statements (xlsx or password
// protected pdf) are parsed, reconciled against the persisted ledger and
// committed atomically; only rows strictly newer than what the ledger already
// holds are staged. Funds are matched to a public catalog for price lookups,
// and the valuation engine replays the transaction history with average-cost
// accounting to report holdings, gains, money-weighted returns and a value
// history. Fixed-term deposits are tracked alongside with simple interest
// realized at closure.
//
// The package holds the domain types and pipeline; persistence lives in
// sqlstore, report formatting in renderer, and the CLI in cmd and fin.
package finapp
