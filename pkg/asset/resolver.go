package asset

import (
	"fmt"
	"regexp"

	"github.com/shouni/go-utils/urlpath"
)

const (
	// DefaultOutputDir は CLI が成果物を書き出すデフォルトのディレクトリです。
	DefaultOutputDir = "output"
	// ArchiveFileName は一括ダウンロード用アーカイブのファイル名です。
	ArchiveFileName = "carousel-slides.zip"
	// SlideFilePrefix は単体ダウンロード時のスライド画像ファイル名の接頭辞です。
	SlideFilePrefix = "carousel-slide"
	// ArchiveEntryPrefix はアーカイブ内のスライド画像ファイル名の接頭辞です。
	ArchiveEntryPrefix = "slide"
	// SlideExt はスライド画像の拡張子です。
	SlideExt = ".png"
)

var (
	// SlideFileRegex は単体ダウンロードのファイル名 (carousel-slide-1.png 等) に一致します
	SlideFileRegex = createIndexedRegex(SlideFilePrefix, SlideExt)
	// ArchiveEntryRegex はアーカイブ内のエントリ名 (slide-1.png 等) に一致します
	ArchiveEntryRegex = createIndexedRegex(ArchiveEntryPrefix, SlideExt)
)

// SlideFileName は 0 始まりの index から単体ダウンロード用のファイル名を返します。
// 例: 0 -> "carousel-slide-1.png"
func SlideFileName(index int) string {
	return fmt.Sprintf("%s-%d%s", SlideFilePrefix, index+1, SlideExt)
}

// ArchiveEntryName は 0 始まりの index からアーカイブ内のエントリ名を返します。
// 例: 0 -> "slide-1.png"
func ArchiveEntryName(index int) string {
	return fmt.Sprintf("%s-%d%s", ArchiveEntryPrefix, index+1, SlideExt)
}

// ResolveOutputPath は、ベースとなるディレクトリパスとファイル名から、
// GCS/ローカルを考慮した最終的な出力パスを生成します。
func ResolveOutputPath(baseDir, fileName string) (string, error) {
	return urlpath.ResolveOutputPath(baseDir, fileName)
}

// createIndexedRegex は、接頭辞と拡張子からインデックス付きファイル用の正規表現を生成します。
// 例: "slide", ".png" -> ^slide-\d+\.png$
func createIndexedRegex(prefix, ext string) *regexp.Regexp {
	pattern := fmt.Sprintf(`^%s-\d+%s$`, regexp.QuoteMeta(prefix), regexp.QuoteMeta(ext))
	return regexp.MustCompile(pattern)
}
