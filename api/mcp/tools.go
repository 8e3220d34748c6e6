package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/quill/pkg/storage"
	"github.com/papercomputeco/quill/pkg/workspace"
)

var (
	listPagesToolName    = "list_pages"
	listPagesDescription = "List quill workspace pages. Without parent_id only root pages are returned; with it, the direct children of that page. Results are newest first."

	getPageToolName    = "get_page"
	getPageDescription = "Fetch a single quill workspace page, including its full content, by id."

	buildContextToolName    = "build_context"
	buildContextDescription = "Render workspace pages and tables into the context text quill attaches to a chat, along with the system prompt that context produces."
)

// ListPagesInput represents the input arguments for the list_pages tool.
type ListPagesInput struct {
	ParentID string `json:"parent_id,omitempty" jsonschema:"optional id of the parent page whose children to list"`
}

// PageSummary is a page without its content.
type PageSummary struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Icon      string `json:"icon,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

// ListPagesOutput represents the structured output of list_pages.
type ListPagesOutput struct {
	Pages []PageSummary `json:"pages"`
}

// GetPageInput represents the input arguments for the get_page tool.
type GetPageInput struct {
	ID string `json:"id" jsonschema:"the page id"`
}

// PageDetail is a full page with RFC 3339 timestamps.
type PageDetail struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	Icon      string `json:"icon,omitempty"`
	ParentID  string `json:"parent_id,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// GetPageOutput represents the structured output of get_page.
type GetPageOutput struct {
	Page PageDetail `json:"page"`
}

// BuildContextInput represents the input arguments for the build_context tool.
type BuildContextInput struct {
	PageIDs  []string `json:"page_ids,omitempty" jsonschema:"ids of pages to include"`
	TableIDs []string `json:"table_ids,omitempty" jsonschema:"ids of tables to include"`
}

// BuildContextOutput represents the structured output of build_context.
type BuildContextOutput struct {
	Context      string `json:"context"`
	SystemPrompt string `json:"system_prompt"`
}

func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// jsonResult mirrors output as the text content of a successful result.
func jsonResult(output any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, nil
}

func (s *Server) handleListPages(ctx context.Context, _ *mcp.CallToolRequest, input ListPagesInput) (*mcp.CallToolResult, ListPagesOutput, error) {
	var parent *string
	if input.ParentID != "" {
		parent = &input.ParentID
	}

	pages, err := s.config.Store.ListPages(ctx, parent)
	if err != nil {
		s.config.Logger.Error("mcp list_pages failed", "error", err)
		return errorResult("Failed to list pages: %v", err), ListPagesOutput{}, nil
	}

	output := ListPagesOutput{Pages: make([]PageSummary, 0, len(pages))}
	for _, p := range pages {
		output.Pages = append(output.Pages, PageSummary{
			ID:        p.ID,
			Title:     p.Title,
			Icon:      p.Icon,
			ParentID:  p.ParentID,
			UpdatedAt: p.UpdatedAt.Format(time.RFC3339),
		})
	}

	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), ListPagesOutput{}, nil
	}
	return result, output, nil
}

func (s *Server) handleGetPage(ctx context.Context, _ *mcp.CallToolRequest, input GetPageInput) (*mcp.CallToolResult, GetPageOutput, error) {
	if input.ID == "" {
		return errorResult("id is required"), GetPageOutput{}, nil
	}

	page, err := s.config.Store.GetPage(ctx, input.ID)
	if err != nil {
		if storage.IsNotFound(err) {
			return errorResult("Page not found: %s", input.ID), GetPageOutput{}, nil
		}
		s.config.Logger.Error("mcp get_page failed", "id", input.ID, "error", err)
		return errorResult("Failed to fetch page: %v", err), GetPageOutput{}, nil
	}

	output := GetPageOutput{Page: PageDetail{
		ID:        page.ID,
		Title:     page.Title,
		Content:   page.Content,
		Icon:      page.Icon,
		ParentID:  page.ParentID,
		CreatedAt: page.CreatedAt.Format(time.RFC3339),
		UpdatedAt: page.UpdatedAt.Format(time.RFC3339),
	}}
	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), GetPageOutput{}, nil
	}
	return result, output, nil
}

func (s *Server) handleBuildContext(ctx context.Context, _ *mcp.CallToolRequest, input BuildContextInput) (*mcp.CallToolResult, BuildContextOutput, error) {
	refs := make([]workspace.ContextRef, 0, len(input.PageIDs)+len(input.TableIDs))
	for _, id := range input.PageIDs {
		refs = append(refs, workspace.ContextRef{Type: workspace.RefPage, ID: id})
	}
	for _, id := range input.TableIDs {
		refs = append(refs, workspace.ContextRef{Type: workspace.RefTable, ID: id})
	}

	items, err := storage.LoadContext(ctx, s.config.Store, refs)
	if err != nil {
		if storage.IsNotFound(err) {
			return errorResult("%v", err), BuildContextOutput{}, nil
		}
		s.config.Logger.Error("mcp build_context failed", "error", err)
		return errorResult("Failed to build context: %v", err), BuildContextOutput{}, nil
	}

	text := workspace.RenderContext(items)
	output := BuildContextOutput{
		Context:      text,
		SystemPrompt: workspace.SystemPrompt(text),
	}

	result, err := jsonResult(output)
	if err != nil {
		return errorResult("Failed to serialize results: %v", err), BuildContextOutput{}, nil
	}
	return result, output, nil
}
