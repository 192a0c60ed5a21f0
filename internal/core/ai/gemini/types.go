package gemini

import (
	"encoding/base64"

	"recipe-scanner/internal/core/ai/prompt"
)

// InlineData 內嵌圖片
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// Part 請求片段，Text 與 InlineData 擇一
type Part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// Content 一組片段
type Content struct {
	Parts []Part `json:"parts"`
}

// Request 推論請求本體
type Request struct {
	Contents []Content     `json:"contents"`
	Intent   prompt.Intent `json:"-"`
}

// RawResponse 推論服務回傳的原始 JSON 封包
type RawResponse []byte

// NewTextRequest 建立純文字請求
func NewTextRequest(intent prompt.Intent, text string) *Request {
	return &Request{
		Intent:   intent,
		Contents: []Content{{Parts: []Part{{Text: text}}}},
	}
}

// NewImageRequest 建立文字加圖片的請求
func NewImageRequest(intent prompt.Intent, text string, image []byte, mimeType string) *Request {
	return &Request{
		Intent: intent,
		Contents: []Content{{Parts: []Part{
			{Text: text},
			{InlineData: &InlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(image),
			}},
		}}},
	}
}

// Prompt 回傳請求中的文字內容
func (r *Request) Prompt() string {
	for _, c := range r.Contents {
		for _, p := range c.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}
	return ""
}

// ImageData 回傳第一個內嵌圖片的 base64，無圖片時為空字串
func (r *Request) ImageData() string {
	for _, c := range r.Contents {
		for _, p := range c.Parts {
			if p.InlineData != nil {
				return p.InlineData.Data
			}
		}
	}
	return ""
}
