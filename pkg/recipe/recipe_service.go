package recipe

import (
	"Recipegram-Backend/domain"
	"Recipegram-Backend/entities"
	"Recipegram-Backend/pkg/catalog"
	"Recipegram-Backend/pkg/user"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		CreateRecipe(ctx context.Context, req domain.RecipeComposeRequest, authorID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeComposeRequest, requesterID string) (domain.RecipeResponse, error)
		GetRecipes(ctx context.Context, req domain.RecipeListRequest) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error)
		DeleteRecipe(ctx context.Context, recipeID string, requesterID string) error

		FavoriteRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipeShortResponse, error)
		UnfavoriteRecipe(ctx context.Context, recipeID string, userID string) error
		AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeShortResponse, error)
		RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error

		DownloadShoppingCart(ctx context.Context, userID string) (domain.ShoppingListDocument, error)
	}

	recipeService struct {
		recipeRepository  RecipeRepository
		catalogRepository catalog.CatalogRepository
		userRepository    user.UserRepository
	}
)

func NewRecipeService(recipeRepository RecipeRepository, catalogRepository catalog.CatalogRepository, userRepository user.UserRepository) RecipeService {
	return &recipeService{
		recipeRepository:  recipeRepository,
		catalogRepository: catalogRepository,
		userRepository:    userRepository,
	}
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.RecipeComposeRequest, authorID string) (domain.RecipeResponse, error) {
	authorUUID, err := uuid.Parse(authorID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	tags, lines, err := s.resolveComposition(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	taken, err := s.recipeRepository.RecipeNameTaken(ctx, authorUUID, req.Name, "")
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if taken {
		return domain.RecipeResponse{}, domain.ErrRecipeAlreadyExists
	}

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    authorUUID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
		Tags:        tags,
	}
	if err := s.recipeRepository.CreateRecipe(ctx, recipe, lines); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipe.ID.String(), authorID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.RecipeComposeRequest, requesterID string) (domain.RecipeResponse, error) {
	existing, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if existing.AuthorID.String() != requesterID {
		return domain.RecipeResponse{}, domain.ErrNotRecipeAuthor
	}

	tags, lines, err := s.resolveComposition(ctx, req)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	taken, err := s.recipeRepository.RecipeNameTaken(ctx, existing.AuthorID, req.Name, recipeID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	if taken {
		return domain.RecipeResponse{}, domain.ErrRecipeAlreadyExists
	}

	recipe := &entities.Recipe{
		ID:          existing.ID,
		AuthorID:    existing.AuthorID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
		Image:       req.Image,
	}
	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, tags, lines); err != nil {
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID, requesterID)
}

func (s *recipeService) GetRecipes(ctx context.Context, req domain.RecipeListRequest) ([]domain.RecipeResponse, int64, error) {
	filter := req.Filter
	if filter.ViewerID == "" {
		// Anonymous requesters cannot be matched against relation rows, so
		// the favorited and cart filters degrade to no-ops.
		filter.Favorited = nil
		filter.InShoppingCart = nil
	}

	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, req.Page, req.Limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeResponse, len(recipes))
	for i, recipe := range recipes {
		response, err := s.recipeToResponse(ctx, recipe, filter.ViewerID)
		if err != nil {
			return nil, 0, err
		}
		res[i] = response
	}
	return res, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}
	return s.recipeToResponse(ctx, recipe, viewerID)
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, requesterID string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}
	if recipe.AuthorID.String() != requesterID {
		return domain.ErrNotRecipeAuthor
	}
	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

func (s *recipeService) FavoriteRecipe(ctx context.Context, recipeID string, userID string) (domain.RecipeShortResponse, error) {
	recipe, userUUID, err := s.resolveRelationTarget(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if err := s.recipeRepository.AddFavorite(ctx, userUUID, recipe.ID); err != nil {
		return domain.RecipeShortResponse{}, err
	}
	return recipeToShortResponse(recipe), nil
}

func (s *recipeService) UnfavoriteRecipe(ctx context.Context, recipeID string, userID string) error {
	if _, _, err := s.resolveRelationTarget(ctx, recipeID, userID); err != nil {
		return err
	}
	return s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
}

func (s *recipeService) AddToShoppingCart(ctx context.Context, recipeID string, userID string) (domain.RecipeShortResponse, error) {
	recipe, userUUID, err := s.resolveRelationTarget(ctx, recipeID, userID)
	if err != nil {
		return domain.RecipeShortResponse{}, err
	}
	if err := s.recipeRepository.AddCartEntry(ctx, userUUID, recipe.ID); err != nil {
		return domain.RecipeShortResponse{}, err
	}
	return recipeToShortResponse(recipe), nil
}

func (s *recipeService) RemoveFromShoppingCart(ctx context.Context, recipeID string, userID string) error {
	if _, _, err := s.resolveRelationTarget(ctx, recipeID, userID); err != nil {
		return err
	}
	return s.recipeRepository.RemoveCartEntry(ctx, userID, recipeID)
}

func (s *recipeService) DownloadShoppingCart(ctx context.Context, userID string) (domain.ShoppingListDocument, error) {
	cartUser, err := s.userRepository.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ShoppingListDocument{}, domain.ErrUserNotFound
		}
		return domain.ShoppingListDocument{}, err
	}

	items, err := s.recipeRepository.GetShoppingList(ctx, userID)
	if err != nil {
		return domain.ShoppingListDocument{}, err
	}
	if len(items) == 0 {
		return domain.ShoppingListDocument{}, domain.ErrShoppingCartEmpty
	}

	today := time.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "Shopping list for %s %s on %s\n\n",
		cartUser.FirstName, cartUser.LastName, today.Format("2006-01-02"))
	for _, item := range items {
		fmt.Fprintf(&b, "* %s - %d %s\n", item.Name, item.Amount, item.MeasurementUnit)
	}
	fmt.Fprintf(&b, "\nRecipegram (%d)\n", today.Year())

	return domain.ShoppingListDocument{
		Content:  b.String(),
		Filename: fmt.Sprintf("%s_shopping_list.txt", cartUser.Username),
	}, nil
}

// resolveComposition validates the request and resolves every tag and
// ingredient reference. All of this happens before any write.
func (s *recipeService) resolveComposition(ctx context.Context, req domain.RecipeComposeRequest) ([]entities.Tag, []entities.RecipeIngredient, error) {
	if req.CookingTime < 1 {
		return nil, nil, domain.ErrInvalidCookingTime
	}

	if len(req.Tags) == 0 {
		return nil, nil, domain.ErrNoTags
	}
	seenTags := make(map[string]bool, len(req.Tags))
	for _, id := range req.Tags {
		if _, err := uuid.Parse(id); err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		if seenTags[id] {
			return nil, nil, domain.ErrDuplicateTags
		}
		seenTags[id] = true
	}
	resolvedTags, err := s.catalogRepository.GetTagsByIDs(ctx, req.Tags)
	if err != nil {
		return nil, nil, err
	}
	if len(resolvedTags) != len(req.Tags) {
		return nil, nil, domain.ErrTagNotFound
	}
	tags := make([]entities.Tag, len(resolvedTags))
	for i, tag := range resolvedTags {
		tags[i] = *tag
	}

	if len(req.Ingredients) == 0 {
		return nil, nil, domain.ErrNoIngredients
	}
	ingredientIDs := make([]string, 0, len(req.Ingredients))
	seenIngredients := make(map[string]bool, len(req.Ingredients))
	for _, line := range req.Ingredients {
		if _, err := uuid.Parse(line.ID); err != nil {
			return nil, nil, domain.ErrParseUUID
		}
		if line.Amount < 1 {
			return nil, nil, domain.ErrInvalidAmount
		}
		if seenIngredients[line.ID] {
			return nil, nil, domain.ErrDuplicateIngredients
		}
		seenIngredients[line.ID] = true
		ingredientIDs = append(ingredientIDs, line.ID)
	}
	resolvedIngredients, err := s.catalogRepository.GetIngredientsByIDs(ctx, ingredientIDs)
	if err != nil {
		return nil, nil, err
	}
	if len(resolvedIngredients) != len(req.Ingredients) {
		return nil, nil, domain.ErrIngredientNotFound
	}

	lines := make([]entities.RecipeIngredient, len(req.Ingredients))
	for i, line := range req.Ingredients {
		lines[i] = entities.RecipeIngredient{
			ID:           uuid.New(),
			IngredientID: uuid.MustParse(line.ID),
			Amount:       line.Amount,
		}
	}
	return tags, lines, nil
}

func (s *recipeService) resolveRelationTarget(ctx context.Context, recipeID string, userID string) (*entities.Recipe, uuid.UUID, error) {
	userUUID, err := uuid.Parse(userID)
	if err != nil {
		return nil, uuid.Nil, domain.ErrParseUUID
	}

	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, uuid.Nil, domain.ErrRecipeNotFound
		}
		return nil, uuid.Nil, err
	}
	return recipe, userUUID, nil
}

func (s *recipeService) recipeToResponse(ctx context.Context, recipe *entities.Recipe, viewerID string) (domain.RecipeResponse, error) {
	tags := make([]domain.TagResponse, len(recipe.Tags))
	for i := range recipe.Tags {
		tags[i] = catalog.TagToResponse(&recipe.Tags[i])
	}

	ingredients := make([]domain.RecipeIngredientResponse, len(recipe.RecipeIngredients))
	for i, line := range recipe.RecipeIngredients {
		ingredients[i] = domain.RecipeIngredientResponse{
			ID:     line.IngredientID.String(),
			Amount: line.Amount,
		}
		if line.Ingredient != nil {
			ingredients[i].Name = line.Ingredient.Name
			ingredients[i].MeasurementUnit = line.Ingredient.MeasurementUnit
		}
	}

	var author domain.UserResponse
	if recipe.Author != nil {
		isSubscribed := false
		if viewerID != "" && viewerID != recipe.AuthorID.String() {
			var err error
			isSubscribed, err = s.userRepository.IsSubscribed(ctx, viewerID, recipe.AuthorID.String())
			if err != nil {
				return domain.RecipeResponse{}, err
			}
		}
		author = user.UserToResponse(recipe.Author, isSubscribed)
	}

	isFavorited := false
	isInCart := false
	if viewerID != "" {
		var err error
		isFavorited, err = s.recipeRepository.IsFavorited(ctx, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
		isInCart, err = s.recipeRepository.IsInCart(ctx, viewerID, recipe.ID.String())
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	return domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Tags:             tags,
		Author:           author,
		Ingredients:      ingredients,
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
		Name:             recipe.Name,
		Image:            recipe.Image,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		CreatedAt:        recipe.CreatedAt,
	}, nil
}

func recipeToShortResponse(recipe *entities.Recipe) domain.RecipeShortResponse {
	return domain.RecipeShortResponse{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		Image:       recipe.Image,
		CookingTime: recipe.CookingTime,
	}
}
