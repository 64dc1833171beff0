package segmenter

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var jsonBlockRegex = regexp.MustCompile("(?s)```(?:json)?\\s*(.*\\S)\\s*```")

// ParseChunks は AI の応答から文字列の JSON 配列を取り出します。
// ```json フェンスで囲まれた応答も受け付けるけど、配列以外や文字列以外の要素はエラーなのだ。
func ParseChunks(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if matches := jsonBlockRegex.FindStringSubmatch(raw); len(matches) > 1 {
		raw = matches[1]
	}
	if raw == "" {
		return nil, errors.New("応答が空です")
	}

	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, fmt.Errorf("AIからの応答に含まれるJSONの解析に失敗しました: %w", err)
	}

	items, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("応答が配列ではありません (型: %T)", decoded)
	}

	chunks := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("配列の要素 %d が文字列ではありません (型: %T)", i, item)
		}
		chunks = append(chunks, s)
	}
	return chunks, nil
}
