package domain

import (
	"errors"
	"fmt"
	"strings"
)

// NewCoverSlide は表紙スライドを生成します。
func NewCoverSlide(imageURL, title string) SlideContent {
	return SlideContent{Kind: SlideKindCover, ImageURL: imageURL, Title: title}
}

// NewProseSlide は本文スライドを生成します。
func NewProseSlide(text string) SlideContent {
	return SlideContent{Kind: SlideKindProse, Text: text}
}

// BuildSlides は表紙1枚と、チャンク順に並んだ本文スライドを組み立てるのだ。
func BuildSlides(imageURL, title string, chunks []string) Slides {
	slides := make(Slides, 0, len(chunks)+1)
	slides = append(slides, NewCoverSlide(imageURL, title))
	for _, chunk := range chunks {
		slides = append(slides, NewProseSlide(chunk))
	}
	return slides
}

// Validate はスライドリストが「表紙はちょうど1枚で必ず先頭」という形を満たしているか検証します。
func (s Slides) Validate() error {
	if len(s) == 0 {
		return errors.New("スライドが1枚もありません")
	}
	if s[0].Kind != SlideKindCover {
		return fmt.Errorf("先頭スライドは表紙である必要があります (実際: %q)", s[0].Kind)
	}
	if strings.TrimSpace(s[0].Title) == "" {
		return errors.New("表紙スライドのタイトルが空です")
	}
	for i, slide := range s[1:] {
		switch slide.Kind {
		case SlideKindProse:
		case SlideKindCover:
			return fmt.Errorf("表紙スライドが複数あります (index=%d)", i+1)
		default:
			return fmt.Errorf("不明なスライド種別です (index=%d, kind=%q)", i+1, slide.Kind)
		}
	}
	return nil
}

// Clone はスライドリストのコピーを返します。
func (s Slides) Clone() Slides {
	if s == nil {
		return nil
	}
	out := make(Slides, len(s))
	copy(out, s)
	return out
}

// ProseCount は本文スライドの枚数を返します。
func (s Slides) ProseCount() int {
	n := 0
	for _, slide := range s {
		if slide.Kind == SlideKindProse {
			n++
		}
	}
	return n
}
