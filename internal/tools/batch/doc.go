// Package batch lets a tool accept one value or many and report per-item
// outcomes, e.g. checking several candidate instants in one
// availability_check call.
package batch
