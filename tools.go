//go:build tools
// +build tools

// Package tools pins the code generators used by go generate (mockgen)
// so they are tracked in go.mod.
package chat_channel

import (
	_ "go.uber.org/mock/mockgen"
)
