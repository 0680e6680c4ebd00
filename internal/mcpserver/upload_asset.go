package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

type uploadResult struct {
	URL        string `json:"url"`
	Name       string `json:"name"`
	Size       int    `json:"size"`
	ImageBlock string `json:"imageBlock"`
}

func (s *Server) uploadAsset(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawURL, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	filename := req.GetString("filename", "")

	a, err := s.svc.UploadAssetFrom(ctx, rawURL, filename)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(uploadResult{
		URL:        a.URL,
		Name:       a.Name,
		Size:       a.Size,
		ImageBlock: fmt.Sprintf(`{"type": "image", "content": {"url": %q, "alt": "", "caption": ""}}`, a.URL),
	})
}
