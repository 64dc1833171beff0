package prompts

import (
	_ "embed"
)

const (
	// ModeSegment は本文をスライド単位のチャンクに分割させるプロンプトなのだ。
	ModeSegment = "segment"

	// DefaultMaxChunkChars は1スライドあたりの最大文字数です。
	DefaultMaxChunkChars = 280
)

// TemplateData はプロンプトテンプレートに渡すデータ構造です。
type TemplateData struct {
	InputText     string
	MaxChunkChars int
}

var (
	//go:embed segment.md
	SegmentPrompt string
)

// allTemplates はモードとテンプレート文字列を紐づけるマップなのだ。
var allTemplates = map[string]string{
	ModeSegment: SegmentPrompt,
}
