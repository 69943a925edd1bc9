// Package buildinfo exposes the version SnapWatch binaries were built as.
//
// Version, Commit and BuildTime are injected with ldflags:
//
//	go build -ldflags "-X github.com/yndnr/snapwatch-go/internal/infra/buildinfo.Version=v0.3.0 \
//	    -X github.com/yndnr/snapwatch-go/internal/infra/buildinfo.Commit=$(git rev-parse --short HEAD)"
//
// When Commit was not injected, the VCS revision recorded by the Go
// toolchain is used instead.
package buildinfo
