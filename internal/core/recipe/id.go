package recipe

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const maxSlugLength = 30

var (
	slugStrip  = regexp.MustCompile(`[^a-z0-9\s]`)
	slugSpaces = regexp.MustCompile(`\s+`)
)

// NewRecipeID 由名稱與毫秒時間戳產生 ID，例如 "bolo-de-cenoura-1700000000000"
func NewRecipeID(name string, now time.Time) string {
	slug := slugStrip.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "")
	slug = slugSpaces.ReplaceAllString(strings.TrimSpace(slug), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		slug = "receita"
	}
	return slug + "-" + strconv.FormatInt(now.UnixMilli(), 10)
}
