// Package version reports the build of the nodeflow binary.
//
// Version, commit and build time are set at compile time:
//
//	go build -ldflags "-X github.com/kbukum/nodeflow/version.Version=1.2.0" ./cmd/nodeflow
package version
