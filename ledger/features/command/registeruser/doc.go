// Package registeruser implements registering a user, who can then borrow and reserve books.
package registeruser
