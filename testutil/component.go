package testutil

import (
	"context"

	"github.com/kbukum/eureka-sidecar/component"
)

// TestComponent extends component.Component with a Reset used between test
// cases.
type TestComponent interface {
	component.Component

	// Reset restores the component to its initial state.
	Reset(ctx context.Context) error
}
