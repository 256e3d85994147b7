package domain

import (
	"errors"
	"time"
)

var (
	MessageSuccessGetRecipes       = "success get recipes"
	MessageSuccessGetRecipeDetail  = "success get recipe detail"
	MessageSuccessSaveRecipe       = "recipe saved successfully"
	MessageSuccessDeleteRecipe     = "recipe deleted successfully"
	MessageSuccessFavorite         = "recipe added to favorites"
	MessageSuccessUnfavorite       = "recipe removed from favorites"
	MessageSuccessAddToCart        = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart   = "recipe removed from shopping cart"
	MessageSuccessDownloadShopping = "success download shopping list"

	MessageFailedGetRecipes       = "failed to get recipes"
	MessageFailedGetRecipeDetail  = "failed to get recipe detail"
	MessageFailedSaveRecipe       = "failed to save recipe"
	MessageFailedDeleteRecipe     = "failed to delete recipe"
	MessageFailedFavorite         = "failed to add recipe to favorites"
	MessageFailedUnfavorite       = "failed to remove recipe from favorites"
	MessageFailedAddToCart        = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart   = "failed to remove recipe from shopping cart"
	MessageFailedDownloadShopping = "failed to download shopping list"

	ErrRecipeNotFound       = errors.New("recipe not found")
	ErrRecipeAlreadyExists  = errors.New("recipe with this name already exists for this author")
	ErrNotRecipeAuthor      = errors.New("only the recipe author can modify it")
	ErrNoTags               = errors.New("recipe needs at least one tag")
	ErrDuplicateTags        = errors.New("recipe tags must be unique")
	ErrNoIngredients        = errors.New("recipe needs at least one ingredient")
	ErrDuplicateIngredients = errors.New("recipe ingredients must be unique")
	ErrInvalidAmount        = errors.New("ingredient amount must be at least 1")
	ErrInvalidCookingTime   = errors.New("cooking time must be at least 1")
	ErrAlreadyFavorited     = errors.New("recipe already in favorites")
	ErrNotFavorited         = errors.New("recipe is not in favorites")
	ErrAlreadyInCart        = errors.New("recipe already in shopping cart")
	ErrNotInCart            = errors.New("recipe is not in shopping cart")
	ErrShoppingCartEmpty    = errors.New("shopping cart is empty")
)

type (
	RecipeIngredientRequest struct {
		ID     string `json:"id" validate:"required,uuid"`
		Amount int    `json:"amount" validate:"required,min=1"`
	}

	RecipeComposeRequest struct {
		Name        string                    `json:"name" validate:"required,max=200"`
		Text        string                    `json:"text" validate:"required"`
		CookingTime int                       `json:"cooking_time" validate:"required,min=1"`
		Image       string                    `json:"image" validate:"required"`
		Tags        []string                  `json:"tags" validate:"required,min=1,dive,uuid"`
		Ingredients []RecipeIngredientRequest `json:"ingredients" validate:"required,min=1,dive"`
	}

	// RecipeFilter is the store predicate composed from list query params.
	// FavoritedBy and InCartOf are ignored when ViewerID is empty.
	RecipeFilter struct {
		AuthorID       string
		TagSlugs       []string
		Favorited      *bool
		InShoppingCart *bool
		ViewerID       string
	}

	RecipeListRequest struct {
		Filter RecipeFilter
		Page   int
		Limit  int
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Tags             []TagResponse              `json:"tags"`
		Author           UserResponse               `json:"author"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
		Name             string                     `json:"name"`
		Image            string                     `json:"image"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		CreatedAt        time.Time                  `json:"created_at"`
	}

	RecipeShortResponse struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		Image       string `json:"image"`
		CookingTime int    `json:"cooking_time"`
	}

	RecipeListResponse struct {
		Recipes []RecipeResponse `json:"recipes"`
		Total   int64            `json:"total"`
	}

	// ShoppingListItem is one aggregated group of the shopping list:
	// quantities summed over every cart recipe per (name, unit) pair.
	ShoppingListItem struct {
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	ShoppingListDocument struct {
		Content  string `json:"content"`
		Filename string `json:"filename"`
	}
)
