package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/synapse-reader/internal/core/domain"
)

// readyPoll and readyTimeout bound waiting for the viewer after opening a
// document.
const (
	readyPoll    = 20 * time.Millisecond
	readyTimeout = 5 * time.Second
)

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct{}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []domain.Document `json:"documents"`
	Count     int               `json:"count"`
}

// ReadPageInput is the input schema for the read_page tool.
type ReadPageInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to read"`
	Page       int    `json:"page,omitempty" jsonschema:"1-based page number (default 1)"`
}

// ReadPageOutput is the output schema for the read_page tool.
type ReadPageOutput struct {
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	Text       string `json:"text"`
}

// FindConnectionsInput is the input schema for the find_connections tool.
type FindConnectionsInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document being read"`
	Page       int    `json:"page,omitempty" jsonschema:"1-based page number (default 1)"`
	Selection  string `json:"selection,omitempty" jsonschema:"a passage to search on instead of the whole page"`
}

// ConnectionOutput represents one connection.
type ConnectionOutput struct {
	Index          int     `json:"index"`
	DocumentID     string  `json:"document_id"`
	DocumentName   string  `json:"document_name,omitempty"`
	Page           int     `json:"page"`
	Snippet        string  `json:"snippet"`
	RelevanceScore float64 `json:"relevance_score"`
}

// FindConnectionsOutput is the output schema for the find_connections tool.
type FindConnectionsOutput struct {
	State       string             `json:"state"`
	Message     string             `json:"message,omitempty"`
	Connections []ConnectionOutput `json:"connections"`
	Count       int                `json:"count"`
}

// GenerateInsightsInput is the input schema for the generate_insights tool.
type GenerateInsightsInput struct {
	Replace bool `json:"replace,omitempty" jsonschema:"replace insights already generated for the same passage"`
}

// GenerateInsightsOutput is the output schema for the generate_insights tool.
type GenerateInsightsOutput struct {
	Insights domain.Insights `json:"insights"`
	Degraded bool            `json:"degraded,omitempty"`
	Existing bool            `json:"existing,omitempty"`
	Error    string          `json:"error,omitempty"`
	CanRetry bool            `json:"can_retry,omitempty"`
}

// FollowConnectionInput is the input schema for the follow_connection tool.
type FollowConnectionInput struct {
	Index int `json:"index" jsonschema:"index of a connection from the last find_connections call"`
}

// FollowConnectionOutput is the output schema for the follow_connection tool.
type FollowConnectionOutput struct {
	Moved      bool   `json:"moved"`
	DocumentID string `json:"document_id"`
	Page       int    `json:"page"`
	Text       string `json:"text,omitempty"`
}

// BreadcrumbsInput is the input schema for the breadcrumbs tool.
type BreadcrumbsInput struct{}

// BreadcrumbsOutput is the output schema for the breadcrumbs tool.
type BreadcrumbsOutput struct {
	Entries []domain.BreadcrumbEntry `json:"entries"`
	Count   int                      `json:"count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List the documents in the library",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "read_page",
		Description: "Read the text of one page of a document",
	}, s.handleReadPage)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_connections",
		Description: "Find passages in other documents related to a page or a selected passage",
	}, s.handleFindConnections)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_insights",
		Description: "Generate insights for the passage of the last find_connections call",
	}, s.handleGenerateInsights)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "follow_connection",
		Description: "Open a connection and record it in the breadcrumb trail",
	}, s.handleFollowConnection)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "breadcrumbs",
		Description: "List the breadcrumb trail of followed connections",
	}, s.handleBreadcrumbs)
}

func (s *Server) handleListDocuments(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs := s.ports.Catalog.Documents()
	return nil, ListDocumentsOutput{Documents: docs, Count: len(docs)}, nil
}

func (s *Server) handleReadPage(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ReadPageInput,
) (*mcp.CallToolResult, ReadPageOutput, error) {
	page := max(input.Page, 1)
	text, err := s.ports.Catalog.PageText(ctx, input.DocumentID, page)
	if err != nil {
		return nil, ReadPageOutput{}, err
	}
	return nil, ReadPageOutput{DocumentID: input.DocumentID, Page: page, Text: text}, nil
}

func (s *Server) handleFindConnections(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindConnectionsInput,
) (*mcp.CallToolResult, FindConnectionsOutput, error) {
	if input.DocumentID == "" {
		return nil, FindConnectionsOutput{}, fmt.Errorf("document_id: %w", domain.ErrInvalidInput)
	}
	page := max(input.Page, 1)
	if err := s.position(ctx, input.DocumentID, page); err != nil {
		return nil, FindConnectionsOutput{}, err
	}

	var (
		view domain.ConnectionsView
		err  error
	)
	if input.Selection != "" {
		view, err = s.ports.Workbench.ObserveSelection(ctx, domain.ContextSignal{
			Kind:       domain.SignalSelection,
			RawText:    input.Selection,
			DocumentID: input.DocumentID,
			PageNumber: page,
		})
	} else {
		var text string
		text, err = s.ports.Catalog.PageText(ctx, input.DocumentID, page)
		if err != nil {
			return nil, FindConnectionsOutput{}, err
		}
		view, err = s.ports.Workbench.ObserveReading(ctx, domain.ContextSignal{
			Kind:       domain.SignalReading,
			RawText:    text,
			DocumentID: input.DocumentID,
			PageNumber: page,
		})
	}
	if err != nil && !errors.Is(err, domain.ErrSearchInFlight) && view.State != domain.ConnectionFailed {
		return nil, FindConnectionsOutput{}, err
	}

	return nil, connectionsOutput(view), nil
}

// position moves the reader to a document page when a reader is wired.
func (s *Server) position(ctx context.Context, documentID string, page int) error {
	reader := s.ports.Reader
	if reader == nil {
		return nil
	}
	if reader.CurrentDocument() != documentID {
		if err := reader.OpenDocument(ctx, documentID); err != nil {
			return err
		}
	}
	if err := waitReady(ctx, reader.Ready); err != nil {
		return err
	}
	if _, err := reader.NavigateToPage(ctx, page); err != nil {
		return err
	}
	return nil
}

func waitReady(ctx context.Context, ready func() bool) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	ticker := time.NewTicker(readyPoll)
	defer ticker.Stop()
	for !ready() {
		select {
		case <-ctx.Done():
			return domain.ErrViewerNotReady
		case <-ticker.C:
		}
	}
	return nil
}

func connectionsOutput(view domain.ConnectionsView) FindConnectionsOutput {
	out := FindConnectionsOutput{
		State:       view.State.String(),
		Message:     view.Message,
		Connections: make([]ConnectionOutput, len(view.Results)),
		Count:       len(view.Results),
	}
	for i, r := range view.Results {
		out.Connections[i] = ConnectionOutput{
			Index:          i,
			DocumentID:     r.SourceDocumentID,
			DocumentName:   r.DocumentName,
			Page:           r.PageNumber,
			Snippet:        r.TextSnippet,
			RelevanceScore: r.RelevanceScore,
		}
	}
	return out
}

func (s *Server) handleGenerateInsights(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInsightsInput,
) (*mcp.CallToolResult, GenerateInsightsOutput, error) {
	ctx = domain.WithConfirmation(ctx, input.Replace)
	artifact, err := s.ports.Workbench.GenerateInsights(ctx)
	declined := errors.Is(err, domain.ErrRegenerationDeclined) && artifact != nil
	if err != nil && !declined {
		return nil, GenerateInsightsOutput{}, err
	}
	out := GenerateInsightsOutput{Insights: artifact.Insights, Degraded: artifact.Degraded, Existing: declined}
	if artifact.Failed() {
		out.Error = artifact.Err.Message
		out.CanRetry = artifact.Err.CanRetry
	}
	return nil, out, nil
}

func (s *Server) handleFollowConnection(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FollowConnectionInput,
) (*mcp.CallToolResult, FollowConnectionOutput, error) {
	results := s.ports.Workbench.Connections().Results
	if input.Index < 0 || input.Index >= len(results) {
		return nil, FollowConnectionOutput{}, fmt.Errorf("connection %d: %w", input.Index, domain.ErrNotFound)
	}
	target := results[input.Index]

	moved, err := s.ports.Workbench.OpenConnection(ctx, target)
	out := FollowConnectionOutput{Moved: moved, DocumentID: target.SourceDocumentID, Page: target.PageNumber}
	if !moved {
		return nil, out, err
	}
	if text, perr := s.ports.Catalog.PageText(ctx, target.SourceDocumentID, target.PageNumber); perr == nil {
		out.Text = text
	}
	return nil, out, nil
}

func (s *Server) handleBreadcrumbs(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ BreadcrumbsInput,
) (*mcp.CallToolResult, BreadcrumbsOutput, error) {
	entries := s.ports.Workbench.Breadcrumbs()
	return nil, BreadcrumbsOutput{Entries: entries, Count: len(entries)}, nil
}
