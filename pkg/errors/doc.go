// Package errors defines sentinel errors shared across pwshare packages.
//
// Administrative operations surface these to the operator; the request path
// converts them into fail-closed boolean results instead.
package errors
