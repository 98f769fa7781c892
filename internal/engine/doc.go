// Package engine implements the point economy ledger and settlement engine.
//
// The engine sits between callers (CLI, HTTP) and the Ledger Store. It owns
// every rule the store cannot express on its own: amount validation, who may
// move a request to which state, and the balance check that must hold at the
// moment a debit is committed.
//
// ARCHITECTURE:
//
// Derived Balances:
// No balance counter is ever stored. A balance is the sum of a user's
// activity points in one currency. The Projector keeps a read-through LRU
// cache that is invalidated after every append touching a (economy, user,
// currency) triple.
//
// Settlement Transactions:
// Accepting a transfer and finalizing an exchange each run as one store
// transaction: read the request, check the payer's balance against the
// ledger inside the transaction, append the debit/credit pair, then
// compare-and-set the status. The store uses a single SQLite connection, so
// these transactions are serialized and a losing concurrent caller observes
// the terminal status and fails with INVALID_STATE.
//
// CRITICAL PATTERNS:
//
// Caller identity is always an explicit parameter. The engine never reads
// ambient session state.
//
// Ordering is created_at ASC, id ASC everywhere the ledger is replayed.
package engine
