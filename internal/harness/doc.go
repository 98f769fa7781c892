// Package harness runs YAML ledger scenarios against the real engine.
//
// # Scenario Format
//
//	name: transfer_flow
//	description: "A recipient accepts a transfer"
//	economy: Family
//	currencies:
//	  - { key: stars, name: Stars, symbol: S }
//	setup:
//	  - op: record_activity
//	    as: alice
//	    args: { currency: stars, points: "10", description: chores }
//	flow:
//	  - op: create_transfer
//	    as: alice
//	    args: { currency: stars, to: bob, amount: "4" }
//	    save: t1
//	  - op: accept_transfer
//	    as: bob
//	    args: { request: t1 }
//	    expect:
//	      result: { status: accepted }
//	assertions:
//	  - type: balance
//	    user: alice
//	    currency: stars
//	    equals: "6"
//
// Currency arguments name a key from the currencies list. Request and
// button arguments name an earlier step's save label. Unknown names are
// passed through verbatim, which is how scenarios exercise NOT_FOUND.
//
// # Assertion Types
//
//   - balance: a user's balance in one currency
//   - status: the status of a saved transfer or exchange request
//   - ledger_count: number of ledger entries, optionally for one user
//   - outcome_count: number of flow steps with a given op and outcome
//
// # Deterministic Testing
//
// Every scenario runs on a fresh in-memory database with a step clock and
// sequential ids, so the trace and ledger snapshot are byte-for-byte
// reproducible and can be compared against golden files.
package harness
