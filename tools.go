//go:build tools

// Code generators used by go generate, kept in go.mod through this import.
package main

import (
	_ "go.uber.org/mock/mockgen"
)
