package service

import "context"

// NpmService defines the interface for interacting with npm.
type NpmService interface {
	// Publish runs npm publish in pkgRoot; distTag may be empty for "latest".
	Publish(ctx context.Context, pkgRoot, distTag string) error
}
