package procpipe

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ProcessInput is the input schema for the process tool.
type ProcessInput struct {
	Path string `json:"path" jsonschema:"absolute path of the document to process"`
}

// ProcessOutput is the output schema for the process tool.
type ProcessOutput struct {
	Success        bool           `json:"success"`
	Content        string         `json:"content,omitempty"`
	Error          string         `json:"error,omitempty"`
	ProcessingTime float64        `json:"processing_time"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// ClassifyInput is the input schema for the classify tool.
type ClassifyInput struct {
	Path string `json:"path" jsonschema:"absolute path of the PDF to classify"`
}

// ClassifyOutput is the output schema for the classify tool.
type ClassifyOutput struct {
	Classification string `json:"classification"`
}

// FormatsOutput lists the supported file types and extensions.
type FormatsOutput struct {
	Types map[string][]string `json:"types"`
}

// RegisterMCP registers the document tools on an MCP server.
func RegisterMCP(srv *mcp.Server, cfg Config, vc VisionClient) {
	cfg.defaults()

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docmill_process",
		Description: "Extract a local document (pdf, image, excel, html) as Markdown",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ProcessInput) (*mcp.CallToolResult, ProcessOutput, error) {
		fileType := TypeForFile(in.Path)
		if fileType == "" {
			return nil, ProcessOutput{}, fmt.Errorf("unsupported file type: %s", filepath.Ext(in.Path))
		}
		p, err := New(fileType, cfg, vc)
		if err != nil {
			return nil, ProcessOutput{}, err
		}
		res := Run(ctx, p, in.Path)
		return nil, ProcessOutput{
			Success:        res.Success,
			Content:        res.Content,
			Error:          res.Error,
			ProcessingTime: res.ProcessingTime,
			Metadata:       res.Metadata,
		}, nil
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docmill_classify",
		Description: "Classify a PDF as scanned, hybrid or text without extracting it",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, in ClassifyInput) (*mcp.CallToolResult, ClassifyOutput, error) {
		class, err := AnalyzePDF(in.Path, cfg.Heuristics)
		if err != nil {
			return nil, ClassifyOutput{}, err
		}
		return nil, ClassifyOutput{Classification: string(class)}, nil
	})

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docmill_formats",
		Description: "List supported file types and their extensions",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, FormatsOutput, error) {
		return nil, FormatsOutput{Types: SupportedTypes()}, nil
	})
}
