package tool

import (
	"context"
	"fmt"

	"pa-agent/internal/application/port/output"
	"pa-agent/internal/domain/entity"
)

// ActionTools exposes the file actions of a form-fill run to the model.
func ActionTools(actions output.FileActions) []output.ToolPort {
	return []output.ToolPort{
		&UploadFileTool{actions: actions},
		&DownloadFileTool{actions: actions},
	}
}

type UploadFileTool struct {
	actions output.FileActions
}

func (t *UploadFileTool) Name() entity.ToolName { return entity.ToolUploadFile }
func (t *UploadFileTool) Description() string {
	return "Uploads the case documents through the file chooser opened by the element at index. " +
		"category pdf sends every clinical PDF at once; image sends the configured image. " +
		"Each category can only be uploaded once per run."
}
func (t *UploadFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": indexParam,
			"category": map[string]any{
				"type":        "string",
				"enum":        []string{string(entity.FileCategoryPDF), string(entity.FileCategoryImage)},
				"description": "Which documents to upload (default pdf)",
			},
		},
		"required": []string{"index"},
	}
}

func (t *UploadFileTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Index    *int   `json:"index"`
		Category string `json:"category"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Index == nil {
		return "", errMissing("index")
	}

	res, err := t.actions.UploadFile(ctx, *input.Index, entity.ParseFileCategory(input.Category))
	if err != nil {
		return "", err
	}
	return res.Message, nil
}

type DownloadFileTool struct {
	actions output.FileActions
}

func (t *DownloadFileTool) Name() entity.ToolName { return entity.ToolDownloadFile }
func (t *DownloadFileTool) Description() string {
	return "Clicks the download link or button at index and waits for the file to be saved"
}
func (t *DownloadFileTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"index": indexParam,
		},
		"required": []string{"index"},
	}
}

func (t *DownloadFileTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Index *int `json:"index"`
	}
	if err := decode(args, &input); err != nil {
		return "", err
	}
	if input.Index == nil {
		return "", errMissing("index")
	}

	res, err := t.actions.DownloadFile(ctx, *input.Index)
	if err != nil {
		return "", err
	}
	if len(res.Files) > 0 {
		return fmt.Sprintf("%s: %s", res.Message, res.Files[0]), nil
	}
	return res.Message, nil
}
