package prompts

import (
	_ "embed"
)

//go:embed system.txt
var DefaultSystemPrompt string

//go:embed form_fill.txt
var FormFillTemplate string

//go:embed tracker.txt
var TrackerTemplate string
