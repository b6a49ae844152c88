// Package registerbook implements registering a book with its number of physical copies.
//
// Registering a book which is already in the catalog is an idempotent no-op.
package registerbook
