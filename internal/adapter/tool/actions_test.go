package tool

import (
	"context"
	"testing"

	"pa-agent/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingActions struct {
	uploads   []entity.FileCategory
	downloads []int
	err       error
}

func (r *recordingActions) UploadFile(ctx context.Context, index int, category entity.FileCategory) (*entity.ActionResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.uploads = append(r.uploads, category)
	return &entity.ActionResult{Message: "Uploaded 2 pdf file(s)"}, nil
}

func (r *recordingActions) DownloadFile(ctx context.Context, index int) (*entity.ActionResult, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.downloads = append(r.downloads, index)
	return &entity.ActionResult{Message: "Downloaded file", Files: []string{"downloads/approval.pdf"}}, nil
}

func TestUploadFileTool(t *testing.T) {
	acts := &recordingActions{}
	tools := ActionTools(acts)
	require.Len(t, tools, 2)

	out, err := tools[0].Execute(context.Background(), `{"index":3}`)
	require.NoError(t, err)
	assert.Equal(t, "Uploaded 2 pdf file(s)", out)

	_, err = tools[0].Execute(context.Background(), `{"index":3,"category":"image"}`)
	require.NoError(t, err)

	assert.Equal(t, []entity.FileCategory{entity.FileCategoryPDF, entity.FileCategoryImage}, acts.uploads)
}

func TestUploadFileTool_ActionError(t *testing.T) {
	acts := &recordingActions{err: &entity.ActionError{Kind: entity.ActionUploadFailed, Index: 3, Reason: "no chooser"}}

	_, err := ActionTools(acts)[0].Execute(context.Background(), `{"index":3}`)

	var actionErr *entity.ActionError
	require.ErrorAs(t, err, &actionErr)
	assert.Equal(t, entity.ActionUploadFailed, actionErr.Kind)
}

func TestDownloadFileTool(t *testing.T) {
	acts := &recordingActions{}

	out, err := ActionTools(acts)[1].Execute(context.Background(), `{"index":5}`)
	require.NoError(t, err)

	assert.Equal(t, "Downloaded file: downloads/approval.pdf", out)
	assert.Equal(t, []int{5}, acts.downloads)

	_, err = ActionTools(acts)[1].Execute(context.Background(), `{}`)
	assert.Error(t, err)
}
