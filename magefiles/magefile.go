//go:build mage

// Package main provides build targets for the shelf project using Mage.
//
// Usage:
//
//	mage build          Compile the shelf binary to bin/
//	mage test:all       Run every test
//	mage test:unit      Run tests without the race detector or caching
//	mage test:cover     Write a coverage profile to bin/
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install shelf to GOPATH/bin
//	mage stats          Print Go LOC per package as JSON
package main
