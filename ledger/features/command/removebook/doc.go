// Package removebook implements taking a book out of the catalog.
//
// A book can only be removed while none of its copies is lent and nobody waits for it.
// Rejections are recorded with a RemovingBookFailed event.
package removebook
