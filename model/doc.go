// Package model defines the provider-agnostic abstractions for interacting
// with language models.
//
// Core goals:
//   - Unify streaming + non-streaming generation behind a single interface
//   - Normalize tool / function call representation (ToolDefinition, ToolCall)
//   - Keep request/response shapes minimal and transport independent
//   - Facilitate lightweight mocking for tests (MockModel)
//
// Providers (see the openai and anthropic subpackages) implement Model so
// capabilities stay decoupled from vendor SDKs.
package model
