// Package parallel provides a bounded worker pool.
//
// The concurrent warden uses it to run agent visits: each in-flight visit is
// one unit of work, and the pool bounds how many goroutines contend for the
// switch room at once. The pool can be cancelled by its parent context, by
// Cancel, or by the first error when fail-fast is enabled.
package parallel
