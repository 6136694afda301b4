// Package version reports build information for sleepy binaries.
//
// Version and BuildTime are set with -ldflags:
//
//	go build -ldflags "-X github.com/kbukum/sleepy/version.Version=1.2.0" ./cmd/sleepy
//
// The commit is read from the module's VCS stamp when available.
package version
