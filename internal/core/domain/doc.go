// Package domain defines the values SnapWatch passes between its layers.
//
// It has no IO dependencies:
//
//   - ChangeSet: the new or changed entries found by one poll
//   - IDs: chg- and poll- prefixed ULIDs
//   - Errors: coded DomainError values shared by the API and the CLI
package domain
