package image

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	_ "image/gif" // 支援 GIF
	_ "image/png" // 支援 PNG

	_ "golang.org/x/image/webp" // 支援 WebP

	"recipe-scanner/internal/pkg/common"
)

// MimeJPEG 送往推論服務的圖片格式
const MimeJPEG = "image/jpeg"

// Image 已正規化的圖片
type Image struct {
	Data     []byte
	MimeType string
	Width    int
	Height   int
	Format   string // 原始格式
}

// Service 圖片處理服務
type Service struct {
	maxSizeBytes int64
	quality      int
}

// NewService 創建新的圖片處理服務
func NewService(maxSizeBytes int64, quality int) *Service {
	if quality <= 0 || quality > 100 {
		quality = jpeg.DefaultQuality
	}
	return &Service{
		maxSizeBytes: maxSizeBytes,
		quality:      quality,
	}
}

// Decode 解析 data URI 或純 base64 圖片，並重新編碼為 JPEG
func (s *Service) Decode(imageData string) (*Image, error) {
	imageData = strings.TrimSpace(imageData)
	if imageData == "" {
		return nil, common.NewError(common.ErrInvalidImageFormat.Code, "圖片資料為空", common.ErrInvalidImageFormat.Status, nil)
	}

	payload := imageData
	if strings.HasPrefix(imageData, "data:") {
		idx := strings.Index(imageData, ";base64,")
		if idx == -1 || !strings.HasPrefix(imageData, "data:image/") {
			return nil, common.NewError(common.ErrInvalidImageFormat.Code, common.ErrInvalidImageFormat.Message, common.ErrInvalidImageFormat.Status,
				fmt.Errorf("invalid data URI"))
		}
		payload = imageData[idx+len(";base64,"):]
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, common.NewError(common.ErrInvalidImageFormat.Code, common.ErrInvalidImageFormat.Message, common.ErrInvalidImageFormat.Status,
			fmt.Errorf("failed to decode base64 data: %w", err))
	}

	return s.DecodeBytes(decoded)
}

// DecodeBytes 檢查大小與格式，並轉為 JPEG
func (s *Service) DecodeBytes(data []byte) (*Image, error) {
	if s.maxSizeBytes > 0 && int64(len(data)) > s.maxSizeBytes {
		return nil, common.NewError(common.ErrInvalidImageSize.Code, common.ErrInvalidImageSize.Message, common.ErrInvalidImageSize.Status,
			fmt.Errorf("image size %d exceeds maximum limit of %d bytes", len(data), s.maxSizeBytes))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, common.NewError(common.ErrInvalidImageFormat.Code, common.ErrInvalidImageFormat.Message, common.ErrInvalidImageFormat.Status,
			fmt.Errorf("failed to decode image: %w", err))
	}
	if !isSupportedFormat(format) {
		return nil, common.NewError(common.ErrInvalidImageFormat.Code, common.ErrInvalidImageFormat.Message, common.ErrInvalidImageFormat.Status,
			fmt.Errorf("unsupported image format: %s", format))
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: s.quality}); err != nil {
		return nil, fmt.Errorf("failed to encode image as JPEG: %w", err)
	}

	bounds := img.Bounds()
	return &Image{
		Data:     buf.Bytes(),
		MimeType: MimeJPEG,
		Width:    bounds.Dx(),
		Height:   bounds.Dy(),
		Format:   format,
	}, nil
}

// isSupportedFormat 檢查圖片格式是否支援
func isSupportedFormat(format string) bool {
	switch format {
	case "jpeg", "png", "gif", "webp":
		return true
	}
	return false
}
