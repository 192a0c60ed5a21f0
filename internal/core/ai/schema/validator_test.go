package schema

import (
	"encoding/json"
	"testing"

	"recipe-scanner/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(s), &m))
	return m
}

func TestIngredientList(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		valid   bool
		errors  []string
	}{
		{"empty object", `{}`, false, []string{"missing required field: ingredients"}},
		{"portuguese key", `{"ingredientes":["tomate"]}`, true, nil},
		{"english key", `{"ingredients":["tomate","queijo"]}`, true, nil},
		{"empty list", `{"ingredients":[]}`, false, []string{"ingredients must contain at least 1 item(s)"}},
		{"wrong container type", `{"ingredients":"tomate"}`, false, []string{"invalid type at ingredients: expected array"}},
		{"wrong item type", `{"ingredientes":["tomate", 3]}`, false, []string{"invalid type at ingredientes[1]: expected string"}},
		{"null value counts as missing", `{"ingredients":null}`, false, []string{"missing required field: ingredients"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(decode(t, tc.payload), KindIngredients)
			assert.Equal(t, tc.valid, res.Valid)
			assert.Equal(t, tc.errors, res.Errors)
		})
	}
}

func TestRecipe(t *testing.T) {
	valid := `{"receita":{
		"name":"Bolo de cenoura",
		"description":"Fofinho",
		"ingredients":[{"name":"cenoura","quantity":"3 unidades"},"ovo"],
		"instructions":["Bata","Asse"],
		"difficulty":"Fácil",
		"servings":"8 porções",
		"preparationTime":"15 minutos"
	}}`
	res := Validate(decode(t, valid), KindRecipe)
	assert.True(t, res.Valid, res.Errors)
	assert.NoError(t, res.Err(KindRecipe))

	legacy := `{"receita":{"title":"Bolo","description":"x","ingredientes":[{"nome":"ovo","quantidade":"2"}],"modoPreparo":"Misture tudo","dificuldade":"médio"}}`
	res = Validate(decode(t, legacy), KindRecipe)
	assert.True(t, res.Valid, res.Errors)
}

func TestRecipeReportsEveryViolation(t *testing.T) {
	payload := `{"receita":{
		"name":"",
		"ingredients":[{"quantity":"2"}],
		"instructions":[],
		"difficulty":"impossível",
		"imageUrl":42
	}}`

	res := Validate(decode(t, payload), KindRecipe)
	require.False(t, res.Valid)
	assert.ElementsMatch(t, []string{
		"receita.name must be at least 1 character(s) long",
		"missing required field: receita.description",
		"missing required field: receita.ingredients[0].name",
		"receita.instructions must contain at least 1 item(s)",
		"invalid type at receita.imageUrl: expected string",
		"invalid value at receita.difficulty: must be one of fácil, médio, difícil",
	}, res.Errors)

	err := res.Err(KindRecipe)
	var ve *common.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "receita", ve.Shape)
	assert.Len(t, ve.Errors, 6)
}

func TestRecipeRequiresWrapper(t *testing.T) {
	res := Validate(decode(t, `{"name":"Bolo"}`), KindRecipe)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"missing required field: receita"}, res.Errors)
}

func TestEmptyFieldFallsBackToOtherConvention(t *testing.T) {
	payload := `{"receita":{
		"name":"",
		"title":"Bolo",
		"description":"Fofinho",
		"ingredients":[],
		"ingredientes":["farinha"],
		"modoPreparo":"Misture tudo"
	}}`
	res := Validate(decode(t, payload), KindRecipe)
	assert.True(t, res.Valid, res.Errors)

	res = Validate(decode(t, `{"ingredients":[],"ingredientes":["tomate"]}`), KindIngredients)
	assert.True(t, res.Valid, res.Errors)

	res = Validate(decode(t, `{"ingredients":[],"ingredientes":[]}`), KindIngredients)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"ingredients must contain at least 1 item(s)"}, res.Errors)
}

func TestRecipeList(t *testing.T) {
	payload := `{"recipes":[
		{"name":"Sopa","description":"Quente","ingredients":["tomate"],"difficulty":"fácil","servings":4},
		{"title":"Salada","descricao":"Fresca","image":"http://img"}
	]}`
	res := Validate(decode(t, payload), KindRecipeList)
	assert.True(t, res.Valid, res.Errors)

	res = Validate(decode(t, `{"receitas":[{"id":1,"title":"x"}]}`), KindRecipeList)
	assert.False(t, res.Valid)
	assert.Equal(t, []string{"missing required field: receitas[0].description"}, res.Errors)

	res = Validate(decode(t, `{"recipes":[]}`), KindRecipeList)
	assert.Equal(t, []string{"recipes must contain at least 1 item(s)"}, res.Errors)
}

func TestUser(t *testing.T) {
	res := Validate(decode(t, `{"uid":"abc","email":"ana@example.com","displayName":"Ana","extra":true}`), KindUser)
	assert.True(t, res.Valid, res.Errors)

	res = Validate(decode(t, `{"uid":"","email":"not-an-email","metadata":{"creationTime":1}}`), KindUser)
	assert.False(t, res.Valid)
	assert.ElementsMatch(t, []string{
		"uid must be at least 1 character(s) long",
		"invalid value at email: must be a valid email address",
		"invalid type at metadata.creationTime: expected string",
	}, res.Errors)
}

func TestUnknownKindAndNilPayload(t *testing.T) {
	res := Validate(map[string]any{}, Kind("pedido"))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)

	res = Validate(nil, KindIngredients)
	assert.False(t, res.Valid)
}
