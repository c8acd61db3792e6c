// Package buildinfo exposes build information injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/starledger/internal/infra/buildinfo.Version=v0.3.0"
package buildinfo
