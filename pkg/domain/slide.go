package domain

// SlideKind はスライドの種類を表します。
type SlideKind string

const (
	// SlideKindCover はカルーセル先頭の表紙スライドです。
	SlideKindCover SlideKind = "cover"
	// SlideKindProse は本文チャンクを1つだけ表示するスライドです。
	SlideKindProse SlideKind = "prose"
)

// SlideContent はカルーセル内の1枚分のコンテンツです。
// Kind によって使われるフィールドが変わります（cover: ImageURL と Title、prose: Text）。
type SlideContent struct {
	Kind     SlideKind `json:"type"`
	ImageURL string    `json:"imageUrl,omitempty"`
	Title    string    `json:"title,omitempty"`
	Text     string    `json:"text,omitempty"`
}

// Slides はスライドの順序付きリストです。
type Slides []SlideContent

// Artifact はダウンロード対象として生成された成果物なのだ。
// 配信方法（HTTP レスポンス、ローカルファイル）はホスト側が決めます。
type Artifact struct {
	Name     string
	MimeType string
	Data     []byte
}
