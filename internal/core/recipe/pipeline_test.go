package recipe

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"recipe-scanner/internal/core/ai/gemini"
	"recipe-scanner/internal/core/ai/prompt"
	"recipe-scanner/internal/core/image"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGenerator 依 intent 回傳預設的生成文字
type fakeGenerator struct {
	texts   map[prompt.Intent]string
	err     error
	calls   []*gemini.Request
	evicted []prompt.Intent
}

func (f *fakeGenerator) Generate(ctx context.Context, req *gemini.Request) (gemini.RawResponse, error) {
	f.calls = append(f.calls, req)
	if f.err != nil {
		return nil, f.err
	}
	data, _ := json.Marshal(map[string]any{
		"candidates": []any{
			map[string]any{"content": map[string]any{"parts": []any{map[string]any{"text": f.texts[req.Intent]}}}},
		},
	})
	return data, nil
}

func (f *fakeGenerator) Evict(ctx context.Context, req *gemini.Request) {
	f.evicted = append(f.evicted, req.Intent)
}

func testRecipeConfig() config.RecipeConfig {
	return config.RecipeConfig{MaxRecipes: 3, MaxIngredients: 10, MinIngredientLength: 2, MaxIngredientLength: 50}
}

var testImage = &image.Image{Data: []byte{0xff, 0xd8, 0xff}, MimeType: image.MimeJPEG}

func TestDetectIngredientsFromFencedResponse(t *testing.T) {
	gen := &fakeGenerator{texts: map[prompt.Intent]string{
		prompt.IntentIngredients: "Here you go:\n```json\n{\"ingredients\":[\"tomate\",\"queijo\"]}\n```",
	}}
	p := NewPipeline(gen, testRecipeConfig(), nil)

	names, err := p.DetectIngredients(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, []string{"tomate", "queijo"}, names)

	require.Len(t, gen.calls, 1)
	assert.NotEmpty(t, gen.calls[0].ImageData())
	assert.Empty(t, gen.evicted)
}

func TestDetectIngredientsDedupesAndCaps(t *testing.T) {
	gen := &fakeGenerator{texts: map[prompt.Intent]string{
		prompt.IntentIngredients: `{"ingredientes":["Ovo","ovo"," leite ","sal","arroz"]}`,
	}}
	cfg := testRecipeConfig()
	cfg.MaxIngredients = 3
	p := NewPipeline(gen, cfg, nil)

	names, err := p.DetectIngredients(context.Background(), testImage)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ovo", "leite", "sal"}, names)
}

func TestDetectIngredientsRequiresImage(t *testing.T) {
	p := NewPipeline(&fakeGenerator{}, testRecipeConfig(), nil)
	_, err := p.DetectIngredients(context.Background(), nil)
	assert.Error(t, err)
}

func TestDetectIngredientsMalformedEvictsCache(t *testing.T) {
	gen := &fakeGenerator{texts: map[prompt.Intent]string{
		prompt.IntentIngredients: "I could not find any food in this picture.",
	}}
	p := NewPipeline(gen, testRecipeConfig(), nil)

	_, err := p.DetectIngredients(context.Background(), testImage)
	var malformed *common.MalformedResponseError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, []prompt.Intent{prompt.IntentIngredients}, gen.evicted)
}

func TestDetectIngredientsInvalidShape(t *testing.T) {
	gen := &fakeGenerator{texts: map[prompt.Intent]string{
		prompt.IntentIngredients: `{"items":["tomate"]}`,
	}}
	p := NewPipeline(gen, testRecipeConfig(), nil)

	_, err := p.DetectIngredients(context.Background(), testImage)
	assert.True(t, common.IsValidationError(err))
	assert.Len(t, gen.evicted, 1)
}

func TestServiceErrorIsReturnedAsIs(t *testing.T) {
	svcErr := &common.ServiceError{StatusCode: 503, Message: "overloaded"}
	gen := &fakeGenerator{err: svcErr}
	p := NewPipeline(gen, testRecipeConfig(), nil)

	_, err := p.GenerateBanners(context.Background(), []string{"tomate"})
	assert.True(t, errors.Is(err, svcErr))
	assert.Empty(t, gen.evicted)
}

func TestGenerateBanners(t *testing.T) {
	gen := &fakeGenerator{texts: map[prompt.Intent]string{
		prompt.IntentBanners: `{"recipes":[
			{"name":"Bruschetta","description":"entrada","ingredients":["tomate","pão"],"difficulty":"fácil"},
			{"name":"Caprese","description":"salada","ingredients":["tomate","queijo"]},
			{"name":"Molho","description":"base","ingredients":["tomate"]},
			{"name":"Extra","description":"a mais","ingredients":["tomate"]}
		]}`,
	}}
	p := NewPipeline(gen, testRecipeConfig(), nil)

	banners, err := p.GenerateBanners(context.Background(), []string{"tomate", "queijo"})
	require.NoError(t, err)
	require.Len(t, banners, 3)
	assert.Equal(t, "Bruschetta", banners[0].Name)
	assert.Equal(t, DifficultyEasy, banners[0].Difficulty)
	assert.Contains(t, gen.calls[0].Prompt(), `"queijo"`)
}

func TestGenerateBannersNeedsIngredients(t *testing.T) {
	gen := &fakeGenerator{}
	p := NewPipeline(gen, testRecipeConfig(), nil)

	_, err := p.GenerateBanners(context.Background(), []string{" ", ""})
	assert.ErrorIs(t, err, ErrNoIngredients)
	assert.Empty(t, gen.calls)
}

func TestGenerateFullRecipe(t *testing.T) {
	gen := &fakeGenerator{texts: map[prompt.Intent]string{
		prompt.IntentFullRecipe: "```json\n" + `{"receita":{
			"nome":"Bruschetta",
			"descricao":"entrada italiana",
			"ingredientes":[{"nome":"tomate","quantidade":"2 unidades"},"pão"],
			"modoPreparo":["Corte","Monte"],
			"tempoPreparo":"15 min",
			"porcoes":4
		}}` + "\n```",
	}}
	p := NewPipeline(gen, testRecipeConfig(), nil)
	p.now = func() time.Time { return time.UnixMilli(1700000000000) }

	r, err := p.GenerateFullRecipe(context.Background(), "Bruschetta", []string{"tomate", "pão"})
	require.NoError(t, err)
	assert.Equal(t, "bruschetta-1700000000000", r.ID)
	assert.Equal(t, "entrada italiana", r.Description)
	assert.Equal(t, []string{"2 unidades de tomate", "pão"}, r.DisplayIngredients())
	assert.Equal(t, []string{"Corte", "Monte"}, r.Instructions)
	assert.Equal(t, "15 min", r.EstimatedTime)
	assert.Equal(t, "4", r.Servings)
}

func TestGenerateFullRecipeKeepsResponseID(t *testing.T) {
	gen := &fakeGenerator{texts: map[prompt.Intent]string{
		prompt.IntentFullRecipe: `{"receita":{"id":"abc","name":"Sopa","description":"quente","ingredients":["água"],"instructions":["Ferva"]}}`,
	}}
	p := NewPipeline(gen, testRecipeConfig(), nil)

	r, err := p.GenerateFullRecipe(context.Background(), "Sopa", []string{"água"})
	require.NoError(t, err)
	assert.Equal(t, "abc", r.ID)
}

func TestGenerateFullRecipeValidatesInput(t *testing.T) {
	p := NewPipeline(&fakeGenerator{}, testRecipeConfig(), nil)

	_, err := p.GenerateFullRecipe(context.Background(), " ", []string{"ovo"})
	assert.ErrorIs(t, err, ErrEmptyRecipeName)
	_, err = p.GenerateFullRecipe(context.Background(), "Omelete", nil)
	assert.ErrorIs(t, err, ErrNoIngredients)
}

func TestFailureKind(t *testing.T) {
	assert.Equal(t, "timeout", failureKind(&common.ServiceError{Timeout: true}))
	assert.Equal(t, "service", failureKind(&common.ServiceError{StatusCode: 500}))
	assert.Equal(t, "timeout", failureKind(context.DeadlineExceeded))
	assert.Equal(t, "canceled", failureKind(context.Canceled))
	assert.Equal(t, "unknown", failureKind(errors.New("boom")))
}
