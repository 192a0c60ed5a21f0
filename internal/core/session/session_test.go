package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"recipe-scanner/internal/core/image"
	"recipe-scanner/internal/core/recipe"
	"recipe-scanner/internal/infrastructure/config"
	"recipe-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRules = recipe.IngredientRules{MinLength: 2, MaxLength: 50, MaxItems: 10}

var testImage = &image.Image{Data: []byte{1, 2, 3}, MimeType: image.MimeJPEG}

type fakePipeline struct {
	ingredients []string
	banners     []recipe.Banner
	recipe      *recipe.Recipe
	errs        map[string]error
	block       chan struct{}
	calls       map[string]int
	mu          sync.Mutex
}

func newFakePipeline() *fakePipeline {
	return &fakePipeline{
		ingredients: []string{"tomate", "queijo"},
		banners: []recipe.Banner{
			{Name: "Caprese", Description: "salada", ImageURL: "c.png"},
			{Name: "Pizza", Description: "massa"},
		},
		recipe: &recipe.Recipe{ID: "caprese-1", Name: "Caprese", Description: "salada"},
		errs:   map[string]error{},
		calls:  map[string]int{},
	}
}

func (f *fakePipeline) step(name string) error {
	f.mu.Lock()
	f.calls[name]++
	err := f.errs[name]
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return err
}

func (f *fakePipeline) setErr(name string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[name] = err
}

func (f *fakePipeline) DetectIngredients(ctx context.Context, img *image.Image) ([]string, error) {
	if err := f.step("detect"); err != nil {
		return nil, err
	}
	return f.ingredients, nil
}

func (f *fakePipeline) GenerateBanners(ctx context.Context, ingredients []string) ([]recipe.Banner, error) {
	if err := f.step("banners"); err != nil {
		return nil, err
	}
	return f.banners, nil
}

func (f *fakePipeline) GenerateFullRecipe(ctx context.Context, name string, ingredients []string) (*recipe.Recipe, error) {
	if err := f.step("recipe"); err != nil {
		return nil, err
	}
	r := *f.recipe
	return &r, nil
}

func newWorkflow(t *testing.T, p Pipeline) *Workflow {
	m := NewManager(config.SessionConfig{TTL: time.Minute}, testRules)
	t.Cleanup(m.Close)
	return NewWorkflow(m, p)
}

func TestWorkflowHappyPath(t *testing.T) {
	p := newFakePipeline()
	w := newWorkflow(t, p)
	ctx := context.Background()
	s := w.Sessions().Create()
	assert.Equal(t, StateIdle, s.State())

	snap, err := w.Capture(s.ID, testImage)
	require.NoError(t, err)
	assert.Equal(t, StateImageCaptured, snap.State)
	assert.True(t, snap.HasImage)

	snap, err = w.Analyze(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateIngredientsEditable, snap.State)
	assert.Equal(t, []string{"tomate", "queijo"}, snap.Ingredients)

	snap, err = w.AddIngredient(s.ID, "manjericão")
	require.NoError(t, err)
	snap, err = w.RemoveIngredient(s.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"tomate", "manjericão"}, snap.Ingredients)

	snap, err = w.GenerateBanners(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBannersShown, snap.State)
	assert.Len(t, snap.Banners, 2)

	snap, err = w.SelectRecipe(ctx, s.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, StateRecipeShown, snap.State)
	require.NotNil(t, snap.Recipe)
	assert.Equal(t, "c.png", snap.Recipe.ImageURL)
	require.NotNil(t, snap.Selected)
	assert.Equal(t, 0, *snap.Selected)

	snap, err = w.Back(s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateBannersShown, snap.State)
	assert.Nil(t, snap.Recipe)

	snap, err = w.Back(s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateIngredientsEditable, snap.State)

	_, err = w.Back(s.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWorkflowErrorAndRetry(t *testing.T) {
	p := newFakePipeline()
	w := newWorkflow(t, p)
	ctx := context.Background()
	s := w.Sessions().Create()
	_, err := w.Capture(s.ID, testImage)
	require.NoError(t, err)

	svcErr := &common.ServiceError{StatusCode: 503, Message: "overloaded"}
	p.setErr("detect", svcErr)
	snap, err := w.Analyze(ctx, s.ID)
	assert.ErrorIs(t, err, svcErr)
	assert.Equal(t, StateError, snap.State)
	assert.Equal(t, StateAnalyzing, snap.FailedStage)
	assert.NotEmpty(t, snap.Error)
	assert.True(t, snap.Recoverable)

	p.setErr("detect", nil)
	snap, err = w.Retry(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateIngredientsEditable, snap.State)
	assert.Empty(t, snap.Error)
	assert.Equal(t, 2, p.calls["detect"])

	_, err = w.GenerateBanners(ctx, s.ID)
	require.NoError(t, err)

	p.setErr("recipe", &common.MalformedResponseError{Reason: "no JSON"})
	snap, err = w.SelectRecipe(ctx, s.ID, 1)
	require.Error(t, err)
	assert.Equal(t, StateError, snap.State)

	p.setErr("recipe", nil)
	snap, err = w.Retry(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateRecipeShown, snap.State)
	assert.Equal(t, 1, *snap.Selected)
}

func TestBackFromErrorReturnsToEditableState(t *testing.T) {
	p := newFakePipeline()
	w := newWorkflow(t, p)
	ctx := context.Background()
	s := w.Sessions().Create()
	_, _ = w.Capture(s.ID, testImage)
	_, err := w.Analyze(ctx, s.ID)
	require.NoError(t, err)

	p.setErr("banners", errors.New("boom"))
	_, err = w.GenerateBanners(ctx, s.ID)
	require.Error(t, err)

	snap, err := w.Back(s.ID)
	require.NoError(t, err)
	assert.Equal(t, StateIngredientsEditable, snap.State)
}

func TestInvalidTransitions(t *testing.T) {
	w := newWorkflow(t, newFakePipeline())
	ctx := context.Background()
	s := w.Sessions().Create()

	_, err := w.Analyze(ctx, s.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = w.GenerateBanners(ctx, s.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = w.AddIngredient(s.ID, "ovo")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = w.Retry(ctx, s.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, _ = w.Capture(s.ID, testImage)
	_, _ = w.Analyze(ctx, s.ID)
	_, _ = w.GenerateBanners(ctx, s.ID)
	_, err = w.SelectRecipe(ctx, s.ID, 5)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateBannersShown, s.State())
}

func TestGenerateBannersRequiresIngredients(t *testing.T) {
	p := newFakePipeline()
	p.ingredients = []string{"ovo"}
	w := newWorkflow(t, p)
	ctx := context.Background()
	s := w.Sessions().Create()
	_, _ = w.Capture(s.ID, testImage)
	_, err := w.Analyze(ctx, s.ID)
	require.NoError(t, err)
	_, err = w.RemoveIngredient(s.ID, 0)
	require.NoError(t, err)

	_, err = w.GenerateBanners(ctx, s.ID)
	assert.ErrorIs(t, err, recipe.ErrNoIngredients)
	assert.Equal(t, 0, p.calls["banners"])
}

func TestSingleInFlightCall(t *testing.T) {
	p := newFakePipeline()
	p.block = make(chan struct{})
	w := newWorkflow(t, p)
	ctx := context.Background()
	s := w.Sessions().Create()
	_, _ = w.Capture(s.ID, testImage)

	done := make(chan error, 1)
	go func() {
		_, err := w.Analyze(ctx, s.ID)
		done <- err
	}()
	require.Eventually(t, func() bool { return s.State() == StateAnalyzing }, time.Second, time.Millisecond)

	_, err := w.Analyze(ctx, s.ID)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = w.Capture(s.ID, testImage)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = w.Back(s.ID)
	assert.ErrorIs(t, err, ErrBusy)

	close(p.block)
	require.NoError(t, <-done)
	assert.Equal(t, StateIngredientsEditable, s.State())
	assert.Equal(t, 1, p.calls["detect"])
}

func TestCaptureResetsSession(t *testing.T) {
	w := newWorkflow(t, newFakePipeline())
	ctx := context.Background()
	s := w.Sessions().Create()
	_, _ = w.Capture(s.ID, testImage)
	_, _ = w.Analyze(ctx, s.ID)
	_, _ = w.GenerateBanners(ctx, s.ID)

	snap, err := w.Capture(s.ID, testImage)
	require.NoError(t, err)
	assert.Equal(t, StateImageCaptured, snap.State)
	assert.Empty(t, snap.Ingredients)
	assert.Empty(t, snap.Banners)
}

func TestManager(t *testing.T) {
	m := NewManager(config.SessionConfig{TTL: time.Minute}, testRules)
	defer m.Close()

	s := m.Create()
	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, m.Sweep(time.Now()))
	assert.Equal(t, 1, m.Sweep(time.Now().Add(2*time.Minute)))
	assert.Equal(t, 0, m.Len())

	s = m.Create()
	require.NoError(t, m.Delete(s.ID))
	assert.ErrorIs(t, m.Delete(s.ID), ErrNotFound)
}
