package output

import (
	"context"

	"pa-agent/internal/domain/entity"
)

// FileActions are the side-effecting capabilities injected into a form-fill
// run. Failures are *entity.ActionError and never end the run.
type FileActions interface {
	UploadFile(ctx context.Context, index int, category entity.FileCategory) (*entity.ActionResult, error)
	DownloadFile(ctx context.Context, index int) (*entity.ActionResult, error)
}
