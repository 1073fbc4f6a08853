package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for synapse resources.
	uriScheme = "synapse://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Documents in the library",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "trail",
		Name:        "trail",
		Description: "Breadcrumb trail of followed connections",
		MIMEType:    "application/json",
	}, s.handleTrailResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}/pages/{page}",
		Name:        "document-page",
		Description: "Text of one page of a document",
		MIMEType:    "text/plain",
	}, s.handlePageResource)
}

// handleDocumentsResource lists the library.
func (s *Server) handleDocumentsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Catalog.Documents())
}

// handleTrailResource returns the breadcrumb trail.
func (s *Server) handleTrailResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	return jsonResource(req.Params.URI, s.ports.Workbench.Breadcrumbs())
}

// handlePageResource returns the text of one page.
func (s *Server) handlePageResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	docID, page, ok := parsePageURI(req.Params.URI)
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	text, err := s.ports.Catalog.PageText(ctx, docID, page)
	if err != nil {
		return nil, fmt.Errorf("getting page text: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "text/plain",
			Text:     text,
		}},
	}, nil
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling %s: %w", uri, err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// parsePageURI extracts the document ID and page from a URI like
// synapse://documents/{documentId}/pages/{page}.
func parsePageURI(uri string) (string, int, bool) {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return "", 0, false
	}
	rest := strings.TrimPrefix(uri, prefix)

	idx := strings.LastIndex(rest, "/pages/")
	if idx <= 0 {
		return "", 0, false
	}
	page, err := strconv.Atoi(rest[idx+len("/pages/"):])
	if err != nil || page < 1 {
		return "", 0, false
	}
	return rest[:idx], page, true
}
