// Package model provides the domain types for the point economy ledger.
//
// This package contains type definitions and small pure helpers only. All
// other internal packages import model; model imports nothing internal.
//
// Key design constraints:
//   - NO float types for points, amounts or rates - use decimal.Decimal
//   - Balances are never stored; see Activity
//   - All JSON tags use snake_case
//   - Timestamps are UTC; ordering ties are broken by id
package model
