package recipe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"recipe-scanner/internal/infrastructure/store"
	"recipe-scanner/internal/pkg/common"

	"go.uber.org/zap"
)

// ErrInvalidFavorite 收藏缺少使用者或食譜
var ErrInvalidFavorite = errors.New("favorite requires a user id and a named recipe")

// FavoriteService 收藏與食譜持久化
type FavoriteService struct {
	store store.DocumentStore
	now   func() time.Time
}

// NewFavoriteService 創建收藏服務
func NewFavoriteService(s store.DocumentStore) *FavoriteService {
	return &FavoriteService{store: s, now: time.Now}
}

// Add 收藏食譜，同時寫入 full_recipe 與 banner_recipe；重複收藏不會產生第二筆
func (s *FavoriteService) Add(ctx context.Context, userID string, r *Recipe) (*Favorite, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" || r == nil || strings.TrimSpace(r.Name) == "" {
		return nil, ErrInvalidFavorite
	}
	if r.ID == "" {
		r.ID = NewRecipeID(r.Name, s.now())
	}

	if err := s.store.Set(ctx, store.CollectionFullRecipe, r.ID, r.ToMap()); err != nil {
		return nil, err
	}
	if err := s.store.Set(ctx, store.CollectionBannerRecipe, r.ID, r.Banner().ToMap()); err != nil {
		return nil, err
	}

	key := FavoriteKey(userID, r.ID)
	createdAt := s.now().UTC()
	if doc, err := s.store.Get(ctx, store.CollectionFavorites, key); err == nil {
		if existing := favoriteFrom(doc); !existing.CreatedAt.IsZero() {
			createdAt = existing.CreatedAt
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	fav := &Favorite{
		UserID:      userID,
		RecipeID:    r.ID,
		Name:        r.Name,
		Description: r.Description,
		ImageURL:    r.ImageURL,
		CreatedAt:   createdAt,
	}
	if err := s.store.Set(ctx, store.CollectionFavorites, key, favoriteDocument(fav)); err != nil {
		return nil, err
	}
	common.LogInfo("已加入收藏", zap.String("user_id", userID), zap.String("recipe_id", r.ID))
	return fav, nil
}

// Remove 取消收藏，完整食譜保留
func (s *FavoriteService) Remove(ctx context.Context, userID, recipeID string) error {
	if userID == "" || recipeID == "" {
		return ErrInvalidFavorite
	}
	return s.store.Delete(ctx, store.CollectionFavorites, FavoriteKey(userID, recipeID))
}

// Toggle 切換收藏狀態，回傳切換後是否為收藏；先讀後寫，非交易
func (s *FavoriteService) Toggle(ctx context.Context, userID string, r *Recipe) (bool, error) {
	if r == nil {
		return false, ErrInvalidFavorite
	}
	if r.ID != "" {
		fav, err := s.IsFavorite(ctx, userID, r.ID)
		if err != nil {
			return false, err
		}
		if fav {
			return false, s.Remove(ctx, userID, r.ID)
		}
	}
	if _, err := s.Add(ctx, userID, r); err != nil {
		return false, err
	}
	return true, nil
}

// IsFavorite 是否已收藏
func (s *FavoriteService) IsFavorite(ctx context.Context, userID, recipeID string) (bool, error) {
	_, err := s.store.Get(ctx, store.CollectionFavorites, FavoriteKey(userID, recipeID))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	}
	return false, err
}

// List 使用者的收藏，新的在前
func (s *FavoriteService) List(ctx context.Context, userID string) ([]Favorite, error) {
	docs, err := s.store.QueryByField(ctx, store.CollectionFavorites, "userId", userID)
	if err != nil {
		return nil, err
	}
	favorites := make([]Favorite, 0, len(docs))
	for _, doc := range docs {
		favorites = append(favorites, favoriteFrom(doc))
	}
	sort.SliceStable(favorites, func(i, j int) bool {
		return favorites[i].CreatedAt.After(favorites[j].CreatedAt)
	})
	return favorites, nil
}

// FullRecipe 讀取完整食譜，新舊欄位命名皆可
func (s *FavoriteService) FullRecipe(ctx context.Context, recipeID string) (*Recipe, error) {
	doc, err := s.store.Get(ctx, store.CollectionFullRecipe, recipeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("recipe %s: %w", recipeID, err)
		}
		return nil, err
	}
	r := Normalize(doc)
	if r.ID == "" {
		r.ID = recipeID
	}
	return r, nil
}

func favoriteDocument(f *Favorite) store.Document {
	doc := store.Document{
		"userId":      f.UserID,
		"recipeId":    f.RecipeID,
		"name":        f.Name,
		"description": f.Description,
		"createdAt":   f.CreatedAt.Format(time.RFC3339Nano),
	}
	if f.ImageURL != "" {
		doc["imageUrl"] = f.ImageURL
	}
	return doc
}

func favoriteFrom(doc store.Document) Favorite {
	f := Favorite{
		UserID:      scalarString(doc["userId"]),
		RecipeID:    scalarString(doc["recipeId"]),
		Name:        firstString(doc, keysName...),
		Description: firstString(doc, keysDescription...),
		ImageURL:    firstString(doc, keysImageURL...),
	}
	if s, ok := doc["createdAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			f.CreatedAt = t
		}
	}
	return f
}
