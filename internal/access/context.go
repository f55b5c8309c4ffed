// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StoryTable Contributors

package access

import "context"

type capabilitiesKey struct{}

// WithCapabilities returns a context carrying caps.
func WithCapabilities(ctx context.Context, caps Capabilities) context.Context {
	return context.WithValue(ctx, capabilitiesKey{}, caps)
}

// FromContext returns the capabilities attached to ctx. A context without
// capabilities yields the free role's, never more.
func FromContext(ctx context.Context) Capabilities {
	if caps, ok := ctx.Value(capabilitiesKey{}).(Capabilities); ok {
		return caps
	}
	return Resolve("")
}
