package recipe

import (
	migration "Recipegram-Backend/cmd/database/migrate"
	"Recipegram-Backend/domain"
	"Recipegram-Backend/entities"
	"Recipegram-Backend/pkg/catalog"
	"Recipegram-Backend/pkg/user"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, migration.Migrate(db))
	return db
}

func newTestService(t *testing.T) (RecipeService, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	service := NewRecipeService(
		NewRecipeRepository(db),
		catalog.NewCatalogRepository(db),
		user.NewUserRepository(db),
	)
	return service, db
}

func seedUser(t *testing.T, db *gorm.DB, username string) *entities.User {
	t.Helper()
	u := &entities.User{
		ID:        uuid.New(),
		Email:     username + "@example.com",
		Username:  username,
		Password:  "hash",
		FirstName: "Test",
		LastName:  "Tester",
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedTag(t *testing.T, db *gorm.DB, name, slug string) *entities.Tag {
	t.Helper()
	color := "#49B64E"
	tag := &entities.Tag{ID: uuid.New(), Name: name, Slug: slug, Color: &color}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func seedIngredient(t *testing.T, db *gorm.DB, name, unit string) *entities.Ingredient {
	t.Helper()
	ingredient := &entities.Ingredient{ID: uuid.New(), Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func composeRequest(name string, tags []*entities.Tag, lines ...domain.RecipeIngredientRequest) domain.RecipeComposeRequest {
	tagIDs := make([]string, len(tags))
	for i, tag := range tags {
		tagIDs[i] = tag.ID.String()
	}
	return domain.RecipeComposeRequest{
		Name:        name,
		Text:        "Mix everything and bake.",
		CookingTime: 30,
		Image:       "data:image/png;base64,aW1n",
		Tags:        tagIDs,
		Ingredients: lines,
	}
}

func TestCreateRecipeRoundTrip(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	dinner := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")
	sugar := seedIngredient(t, db, "sugar", "g")

	req := composeRequest("Pancakes", []*entities.Tag{breakfast, dinner},
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200},
		domain.RecipeIngredientRequest{ID: sugar.ID.String(), Amount: 50},
	)

	created, err := service.CreateRecipe(ctx, req, author.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Pancakes", created.Name)
	assert.Equal(t, 30, created.CookingTime)
	assert.Equal(t, author.ID.String(), created.Author.ID)

	tagSlugs := make([]string, len(created.Tags))
	for i, tag := range created.Tags {
		tagSlugs[i] = tag.Slug
	}
	assert.ElementsMatch(t, []string{"breakfast", "dinner"}, tagSlugs)

	type line struct {
		name   string
		amount int
	}
	lines := make([]line, len(created.Ingredients))
	for i, ingredient := range created.Ingredients {
		lines[i] = line{ingredient.Name, ingredient.Amount}
	}
	assert.ElementsMatch(t, []line{{"flour", 200}, {"sugar", 50}}, lines)

	// anonymous view keeps relation flags unset
	detail, err := service.GetRecipeDetail(ctx, created.ID, "")
	require.NoError(t, err)
	assert.False(t, detail.IsFavorited)
	assert.False(t, detail.IsInShoppingCart)
	assert.False(t, detail.Author.IsSubscribed)
}

func TestCreateRecipeValidation(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "bob")
	tag := seedTag(t, db, "Lunch", "lunch")
	flour := seedIngredient(t, db, "flour", "g")

	valid := func() domain.RecipeComposeRequest {
		return composeRequest("Bread", []*entities.Tag{tag},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100})
	}

	tests := []struct {
		name    string
		mutate  func(req *domain.RecipeComposeRequest)
		wantErr error
	}{
		{
			name:    "no tags",
			mutate:  func(req *domain.RecipeComposeRequest) { req.Tags = nil },
			wantErr: domain.ErrNoTags,
		},
		{
			name: "duplicate tags",
			mutate: func(req *domain.RecipeComposeRequest) {
				req.Tags = append(req.Tags, req.Tags[0])
			},
			wantErr: domain.ErrDuplicateTags,
		},
		{
			name: "unknown tag",
			mutate: func(req *domain.RecipeComposeRequest) {
				req.Tags = []string{uuid.NewString()}
			},
			wantErr: domain.ErrTagNotFound,
		},
		{
			name:    "no ingredients",
			mutate:  func(req *domain.RecipeComposeRequest) { req.Ingredients = nil },
			wantErr: domain.ErrNoIngredients,
		},
		{
			name: "duplicate ingredients",
			mutate: func(req *domain.RecipeComposeRequest) {
				req.Ingredients = append(req.Ingredients, req.Ingredients[0])
			},
			wantErr: domain.ErrDuplicateIngredients,
		},
		{
			name: "unknown ingredient",
			mutate: func(req *domain.RecipeComposeRequest) {
				req.Ingredients[0].ID = uuid.NewString()
			},
			wantErr: domain.ErrIngredientNotFound,
		},
		{
			name: "zero amount",
			mutate: func(req *domain.RecipeComposeRequest) {
				req.Ingredients[0].Amount = 0
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name:    "zero cooking time",
			mutate:  func(req *domain.RecipeComposeRequest) { req.CookingTime = 0 },
			wantErr: domain.ErrInvalidCookingTime,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := valid()
			tc.mutate(&req)

			_, err := service.CreateRecipe(ctx, req, author.ID.String())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}

	// none of the rejected requests may leave partial rows behind
	var count int64
	require.NoError(t, db.Model(&entities.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&entities.RecipeIngredient{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRecipeDuplicateName(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	req := composeRequest("Bread", []*entities.Tag{tag},
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100})

	_, err := service.CreateRecipe(ctx, req, alice.ID.String())
	require.NoError(t, err)

	_, err = service.CreateRecipe(ctx, req, alice.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeAlreadyExists)

	// the same name under a different author is fine
	_, err = service.CreateRecipe(ctx, req, bob.ID.String())
	assert.NoError(t, err)
}

func TestUpdateRecipeReplacesComposition(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	dinner := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")
	milk := seedIngredient(t, db, "milk", "ml")

	created, err := service.CreateRecipe(ctx,
		composeRequest("Pancakes", []*entities.Tag{breakfast},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200}),
		author.ID.String())
	require.NoError(t, err)

	update := composeRequest("Crepes", []*entities.Tag{dinner},
		domain.RecipeIngredientRequest{ID: milk.ID.String(), Amount: 300})
	updated, err := service.UpdateRecipe(ctx, created.ID, update, author.ID.String())
	require.NoError(t, err)

	assert.Equal(t, "Crepes", updated.Name)
	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "dinner", updated.Tags[0].Slug)
	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, "milk", updated.Ingredients[0].Name)
	assert.Equal(t, 300, updated.Ingredients[0].Amount)

	// the old ingredient line must be gone, not merely superseded
	var lineCount int64
	require.NoError(t, db.Model(&entities.RecipeIngredient{}).Count(&lineCount).Error)
	assert.EqualValues(t, 1, lineCount)
}

func TestUpdateRecipeRejectedLeavesStateUnchanged(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx,
		composeRequest("Bread", []*entities.Tag{tag},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100}),
		author.ID.String())
	require.NoError(t, err)

	bad := composeRequest("Buns", []*entities.Tag{tag},
		domain.RecipeIngredientRequest{ID: uuid.NewString(), Amount: 50})
	_, err = service.UpdateRecipe(ctx, created.ID, bad, author.ID.String())
	assert.ErrorIs(t, err, domain.ErrIngredientNotFound)

	detail, err := service.GetRecipeDetail(ctx, created.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "Bread", detail.Name)
	require.Len(t, detail.Ingredients, 1)
	assert.Equal(t, "flour", detail.Ingredients[0].Name)
	assert.Equal(t, 100, detail.Ingredients[0].Amount)
}

func TestUpdateRecipeOnlyAuthor(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	mallory := seedUser(t, db, "mallory")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	req := composeRequest("Bread", []*entities.Tag{tag},
		domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100})
	created, err := service.CreateRecipe(ctx, req, alice.ID.String())
	require.NoError(t, err)

	_, err = service.UpdateRecipe(ctx, created.ID, req, mallory.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)

	err = service.DeleteRecipe(ctx, created.ID, mallory.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotRecipeAuthor)
}

func TestDeleteRecipeCleansRelations(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx,
		composeRequest("Bread", []*entities.Tag{tag},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100}),
		author.ID.String())
	require.NoError(t, err)

	_, err = service.FavoriteRecipe(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)

	require.NoError(t, service.DeleteRecipe(ctx, created.ID, author.ID.String()))

	_, err = service.GetRecipeDetail(ctx, created.ID, "")
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)

	var count int64
	require.NoError(t, db.Model(&entities.Favorite{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&entities.ShoppingCartEntry{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, db.Model(&entities.RecipeIngredient{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestFavoriteToggle(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx,
		composeRequest("Bread", []*entities.Tag{tag},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100}),
		author.ID.String())
	require.NoError(t, err)

	short, err := service.FavoriteRecipe(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, short.ID)
	assert.Equal(t, "Bread", short.Name)

	_, err = service.FavoriteRecipe(ctx, created.ID, reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyFavorited)

	detail, err := service.GetRecipeDetail(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.IsFavorited)

	require.NoError(t, service.UnfavoriteRecipe(ctx, created.ID, reader.ID.String()))
	err = service.UnfavoriteRecipe(ctx, created.ID, reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFavorited)

	_, err = service.FavoriteRecipe(ctx, uuid.NewString(), reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrRecipeNotFound)
}

func TestShoppingCartToggle(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	reader := seedUser(t, db, "bob")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	created, err := service.CreateRecipe(ctx,
		composeRequest("Bread", []*entities.Tag{tag},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100}),
		author.ID.String())
	require.NoError(t, err)

	short, err := service.AddToShoppingCart(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, short.ID)

	_, err = service.AddToShoppingCart(ctx, created.ID, reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrAlreadyInCart)

	detail, err := service.GetRecipeDetail(ctx, created.ID, reader.ID.String())
	require.NoError(t, err)
	assert.True(t, detail.IsInShoppingCart)

	require.NoError(t, service.RemoveFromShoppingCart(ctx, created.ID, reader.ID.String()))
	err = service.RemoveFromShoppingCart(ctx, created.ID, reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotInCart)
}

func TestDownloadShoppingCartAggregates(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")
	milk := seedIngredient(t, db, "milk", "ml")

	bread, err := service.CreateRecipe(ctx,
		composeRequest("Bread", []*entities.Tag{tag},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 200}),
		author.ID.String())
	require.NoError(t, err)

	crepes, err := service.CreateRecipe(ctx,
		composeRequest("Crepes", []*entities.Tag{tag},
			domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100},
			domain.RecipeIngredientRequest{ID: milk.ID.String(), Amount: 500}),
		author.ID.String())
	require.NoError(t, err)

	_, err = service.AddToShoppingCart(ctx, bread.ID, author.ID.String())
	require.NoError(t, err)
	_, err = service.AddToShoppingCart(ctx, crepes.ID, author.ID.String())
	require.NoError(t, err)

	doc, err := service.DownloadShoppingCart(ctx, author.ID.String())
	require.NoError(t, err)

	// flour appears once with both amounts summed
	assert.Equal(t, 1, strings.Count(doc.Content, "* flour"))
	assert.Contains(t, doc.Content, "* flour - 300 g\n")
	assert.Contains(t, doc.Content, "* milk - 500 ml\n")
	assert.Less(t, strings.Index(doc.Content, "* flour"), strings.Index(doc.Content, "* milk"))
	assert.Equal(t, "alice_shopping_list.txt", doc.Filename)
}

func TestDownloadShoppingCartEmpty(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	reader := seedUser(t, db, "bob")

	_, err := service.DownloadShoppingCart(ctx, reader.ID.String())
	assert.ErrorIs(t, err, domain.ErrShoppingCartEmpty)
}

func TestGetRecipesFilters(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	alice := seedUser(t, db, "alice")
	bob := seedUser(t, db, "bob")
	breakfast := seedTag(t, db, "Breakfast", "breakfast")
	dinner := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")

	line := domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100}

	pancakes, err := service.CreateRecipe(ctx,
		composeRequest("Pancakes", []*entities.Tag{breakfast}, line), alice.ID.String())
	require.NoError(t, err)
	_, err = service.CreateRecipe(ctx,
		composeRequest("Stew", []*entities.Tag{dinner}, line), bob.ID.String())
	require.NoError(t, err)

	names := func(recipes []domain.RecipeResponse) []string {
		out := make([]string, len(recipes))
		for i, r := range recipes {
			out[i] = r.Name
		}
		return out
	}

	// author filter
	recipes, count, err := service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{AuthorID: alice.ID.String()},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.ElementsMatch(t, []string{"Pancakes"}, names(recipes))

	// a single tag slug narrows the result
	recipes, _, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{TagSlugs: []string{"dinner"}},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Stew"}, names(recipes))

	// multiple slugs are a union, not an intersection
	recipes, count, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{TagSlugs: []string{"breakfast", "dinner"}},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.ElementsMatch(t, []string{"Pancakes", "Stew"}, names(recipes))

	// favorited filter for an authenticated viewer
	_, err = service.FavoriteRecipe(ctx, pancakes.ID, bob.ID.String())
	require.NoError(t, err)

	favorited := true
	recipes, _, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{Favorited: &favorited, ViewerID: bob.ID.String()},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Pancakes"}, names(recipes))

	notFavorited := false
	recipes, _, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{Favorited: &notFavorited, ViewerID: bob.ID.String()},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Stew"}, names(recipes))

	// shopping cart filter behaves the same way against the cart relation
	_, err = service.AddToShoppingCart(ctx, pancakes.ID, bob.ID.String())
	require.NoError(t, err)

	inCart := true
	recipes, _, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{InShoppingCart: &inCart, ViewerID: bob.ID.String()},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Pancakes"}, names(recipes))

	notInCart := false
	recipes, _, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{InShoppingCart: &notInCart, ViewerID: bob.ID.String()},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Stew"}, names(recipes))

	// for anonymous requesters the relation filters are no-ops
	recipes, count, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{Favorited: &favorited},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.ElementsMatch(t, []string{"Pancakes", "Stew"}, names(recipes))

	recipes, count, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{InShoppingCart: &inCart},
		Page:   1, Limit: 20,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
	assert.ElementsMatch(t, []string{"Pancakes", "Stew"}, names(recipes))
}

func TestGetRecipesPagination(t *testing.T) {
	service, db := newTestService(t)
	ctx := context.Background()

	author := seedUser(t, db, "alice")
	tag := seedTag(t, db, "Dinner", "dinner")
	flour := seedIngredient(t, db, "flour", "g")
	line := domain.RecipeIngredientRequest{ID: flour.ID.String(), Amount: 100}

	for _, name := range []string{"Bread", "Buns", "Crepes"} {
		_, err := service.CreateRecipe(ctx,
			composeRequest(name, []*entities.Tag{tag}, line), author.ID.String())
		require.NoError(t, err)
	}

	recipes, count, err := service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{},
		Page:   1, Limit: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, recipes, 2)

	recipes, count, err = service.GetRecipes(ctx, domain.RecipeListRequest{
		Filter: domain.RecipeFilter{},
		Page:   2, Limit: 2,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
	assert.Len(t, recipes, 1)
}
