// Package extract 從推論服務的回應中取出內嵌的 JSON 物件。
package extract

import (
	"errors"
	"regexp"
	"strings"

	"recipe-scanner/internal/pkg/common"

	"github.com/tidwall/gjson"
)

// Payload 解析後的 JSON 物件
type Payload map[string]any

// textPath 生成文字在回應封包中的位置
const textPath = "candidates.0.content.parts.0.text"

var (
	// ErrTextMissing 封包中沒有生成文字
	ErrTextMissing = errors.New("generated text missing from response")
	// ErrNoJSONObject 文字中找不到 { ... }
	ErrNoJSONObject = errors.New("no JSON object found in text")
	// ErrInvalidJSON 候選字串無法解析為 JSON 物件
	ErrInvalidJSON = errors.New("text is not a valid JSON object")
)

var fencedJSON = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// Text 取出封包中的生成文字
func Text(raw []byte) (string, error) {
	result := gjson.GetBytes(raw, textPath)
	if !result.Exists() || result.Type != gjson.String {
		return "", &common.MalformedResponseError{
			Reason: "text field absent",
			Raw:    string(raw),
			Err:    ErrTextMissing,
		}
	}
	return result.String(), nil
}

// JSON 從回應封包中取出 JSON 物件
func JSON(raw []byte) (Payload, error) {
	text, err := Text(raw)
	if err != nil {
		return nil, err
	}
	return FromText(text)
}

// FromText 從生成文字中取出 JSON 物件：優先使用 ```json 區塊，否則取第一個 { 到最後一個 }
func FromText(text string) (Payload, error) {
	candidate, ok := candidate(text)
	if !ok {
		return nil, &common.MalformedResponseError{
			Reason: "no JSON object in text",
			Raw:    text,
			Err:    ErrNoJSONObject,
		}
	}

	payload, err := parseObject(candidate)
	if err != nil {
		// 補上未加引號的鍵再試一次
		repaired := common.QuoteJSONKeys(candidate)
		if repaired == candidate {
			return nil, invalid(text, err)
		}
		if payload, err = parseObject(repaired); err != nil {
			return nil, invalid(text, err)
		}
	}
	return payload, nil
}

func candidate(text string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(text); m != nil && strings.TrimSpace(m[1]) != "" {
		return m[1], true
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end < start {
		return "", false
	}
	return text[start : end+1], true
}

func parseObject(s string) (Payload, error) {
	var v any
	if err := common.ParseJSON(s, &v); err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("top-level value is not an object")
	}
	return Payload(obj), nil
}

func invalid(text string, cause error) error {
	return &common.MalformedResponseError{
		Reason: cause.Error(),
		Raw:    text,
		Err:    ErrInvalidJSON,
	}
}
