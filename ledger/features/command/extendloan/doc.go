// Package extendloan implements pushing back the due date of a LOANED loan.
package extendloan
