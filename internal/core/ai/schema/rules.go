package schema

// Kind 驗證的資料形狀
type Kind string

const (
	KindIngredients Kind = "ingredientes" // 食材清單
	KindRecipe      Kind = "receita"      // 單一完整食譜
	KindRecipeList  Kind = "receitas"     // 食譜摘要清單
	KindUser        Kind = "usuario"      // 使用者資料
)

// Difficulties 難度允許值，比對時不分大小寫
var Difficulties = []string{"fácil", "médio", "difícil"}

// 兩種命名慣例的欄位名稱，第一個為標準名稱
var (
	namesName         = []string{"name", "title", "nome"}
	namesDescription  = []string{"description", "descricao"}
	namesIngredients  = []string{"ingredients", "ingredientes"}
	namesImageURL     = []string{"imageUrl", "image"}
	namesEstimated    = []string{"estimatedTime", "preparationTime", "tempoPreparo"}
	namesDifficulty   = []string{"difficulty", "dificuldade"}
	namesServings     = []string{"servings", "porcoes"}
	namesInstructions = []string{"instructions", "modoPreparo"}
	namesQuantity     = []string{"quantity", "quantidade"}
	namesRecipes      = []string{"recipes", "receitas"}
)

func optionalString(names ...string) field {
	return field{names: names, types: []valueType{typeString}}
}

var ingredientLine = field{
	types: []valueType{typeString, typeObject},
	fields: []field{
		{names: namesName, required: true, types: []valueType{typeString}, tag: "min=1"},
		optionalString(namesQuantity...),
	},
}

var difficulty = field{names: namesDifficulty, types: []valueType{typeString}, enum: Difficulties, fold: true}

var servings = field{names: namesServings, types: []valueType{typeString, typeNumber}}

var recipeID = field{names: []string{"id"}, types: []valueType{typeString, typeNumber}}

// shapes 在套件初始化時建立一次，之後只讀
var shapes = map[Kind]field{
	KindIngredients: {
		types: []valueType{typeObject},
		fields: []field{
			{
				names:    namesIngredients,
				required: true,
				types:    []valueType{typeArray},
				tag:      "min=1",
				items:    &field{types: []valueType{typeString}},
			},
		},
	},

	KindRecipe: {
		types: []valueType{typeObject},
		fields: []field{
			{
				names:    []string{"receita"},
				required: true,
				types:    []valueType{typeObject},
				fields: []field{
					recipeID,
					{names: namesName, required: true, types: []valueType{typeString}, tag: "min=1"},
					{names: namesDescription, required: true, types: []valueType{typeString}, tag: "min=1"},
					{names: namesIngredients, required: true, types: []valueType{typeArray}, tag: "min=1", items: &ingredientLine},
					{
						names:    namesInstructions,
						required: true,
						types:    []valueType{typeString, typeArray},
						tag:      "min=1",
						items:    &field{types: []valueType{typeString}},
					},
					optionalString(namesImageURL...),
					optionalString(namesEstimated...),
					optionalString("cookingTime"),
					optionalString("totalTime"),
					servings,
					difficulty,
				},
			},
		},
	},

	KindRecipeList: {
		types: []valueType{typeObject},
		fields: []field{
			{
				names:    namesRecipes,
				required: true,
				types:    []valueType{typeArray},
				tag:      "min=1",
				items: &field{
					types: []valueType{typeObject},
					fields: []field{
						recipeID,
						{names: namesName, required: true, types: []valueType{typeString}, tag: "min=1"},
						{names: namesDescription, required: true, types: []valueType{typeString}, tag: "min=1"},
						{names: namesIngredients, types: []valueType{typeArray}, items: &ingredientLine},
						optionalString(namesImageURL...),
						optionalString(namesEstimated...),
						servings,
						difficulty,
					},
				},
			},
		},
	},

	KindUser: {
		types: []valueType{typeObject},
		fields: []field{
			{names: []string{"uid"}, required: true, types: []valueType{typeString}, tag: "min=1"},
			{names: []string{"email"}, required: true, types: []valueType{typeString}, tag: "email"},
			optionalString("displayName"),
			optionalString("photoURL"),
			{
				names: []string{"metadata"},
				types: []valueType{typeObject},
				fields: []field{
					optionalString("creationTime"),
					optionalString("lastSignInTime"),
				},
			},
		},
	},
}
