// Package errors provides the structured error type shared by the sleepy
// client, its transport and its tooling.
//
// Every error raised on the client side before a request leaves the
// process (bad arguments, unencodable options, invalid configuration) is
// an *AppError with a machine-readable code. Gateway replies that carry
// ok = 0 are not errors by themselves; callers turn them into a NOT_OK
// AppError with sleepy.Status.Err when they want to.
package errors
