package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/gitscope/internal/core/domain"
)

const (
	// uriScheme is the URI scheme for history resources.
	uriScheme = "history://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.mcp.AddResource(&mcp.Resource{
		URI:         uriScheme + "repositories",
		Name:        "repository-history",
		Description: "Recently viewed repositories, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.mcp.AddResource(&mcp.Resource{
		URI:         uriScheme + "users",
		Name:        "user-history",
		Description: "Recently viewed users, newest first",
		MIMEType:    "application/json",
	}, s.handleHistoryResource)

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "items/{id}",
		Name:        "history-item",
		Description: "One history entry by id, e.g. repo_1300192 or user_583231",
		MIMEType:    "application/json",
	}, s.handleHistoryItemResource)
}

// handleHistoryResource returns one of the two history lists.
func (s *Server) handleHistoryResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	items := []domain.HistoryItem{}
	if s.ports.History != nil {
		switch req.Params.URI {
		case uriScheme + "repositories":
			items = s.ports.History.RepositoryHistory()
		case uriScheme + "users":
			items = s.ports.History.UserHistory()
		default:
			return nil, mcp.ResourceNotFoundError(req.Params.URI)
		}
	}
	return jsonResource(req.Params.URI, items)
}

// handleHistoryItemResource returns a single history entry.
func (s *Server) handleHistoryItemResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	id := extractItemID(req.Params.URI)
	kind, ok := domain.HistoryTypeOf(id)
	if !ok || s.ports.History == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	list := s.ports.History.RepositoryHistory()
	if kind == domain.HistoryUser {
		list = s.ports.History.UserHistory()
	}
	for _, item := range list {
		if item.ID == id {
			return jsonResource(req.Params.URI, item)
		}
	}
	return nil, mcp.ResourceNotFoundError(req.Params.URI)
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

// extractItemID extracts the id from a URI like history://items/{id}.
func extractItemID(uri string) string {
	const prefix = uriScheme + "items/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
