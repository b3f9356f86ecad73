// Package mcpserver exposes docrag's retrieval engine as MCP tools over
// stdio, adapted from the teacher's internal/mcp tool-schema/error-mapping
// style (internal/mcp/server.go, internal/mcp/errors.go).
package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/coderag/docrag/internal/apperrors"
)

// JSON-RPC / MCP error codes used by docrag's tool surface.
const (
	ErrCodeStoreNotFound  = -32001
	ErrCodeEmbedderFailed = -32002
	ErrCodeTimeout        = -32003

	ErrCodeInvalidParams  = -32602
	ErrCodeMethodNotFound = -32601
	ErrCodeInternalError  = -32603
)

var (
	ErrStoreNotFound = errors.New("vector store not found")
	ErrToolNotFound  = errors.New("tool not found")
)

// MCPError is a JSON-RPC error with a code and human message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("mcp error %d: %s", e.Code, e.Message)
}

func newInvalidParamsError(msg string) *MCPError {
	return &MCPError{Code: ErrCodeInvalidParams, Message: msg}
}

func newMethodNotFoundError(name string) *MCPError {
	return &MCPError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("tool %q not found", name)}
}

// mapError converts an error from the retrieval engine into an MCPError,
// following the six error categories of spec.md §7.
func mapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var docragErr *apperrors.DocragError
	if errors.As(err, &docragErr) {
		return mapDocragError(docragErr)
	}

	switch {
	case errors.Is(err, ErrStoreNotFound):
		return &MCPError{Code: ErrCodeStoreNotFound, Message: "no vector store found for this project; run the ingest tool first"}
	case errors.Is(err, ErrToolNotFound):
		return &MCPError{Code: ErrCodeMethodNotFound, Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return &MCPError{Code: ErrCodeTimeout, Message: "request timed out"}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: err.Error()}
	}
}

func mapDocragError(e *apperrors.DocragError) *MCPError {
	message := e.Message
	if e.Suggestion != "" {
		message = fmt.Sprintf("%s %s", e.Message, e.Suggestion)
	}

	switch e.Category {
	case apperrors.CategoryInvalid:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case apperrors.CategoryTransientNetwork, apperrors.CategoryPersistentNetwork:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	case apperrors.CategoryEmbedderInit:
		return &MCPError{Code: ErrCodeEmbedderFailed, Message: message}
	case apperrors.CategoryStoreIO, apperrors.CategoryIndexInconsistency:
		return &MCPError{Code: ErrCodeStoreNotFound, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}
