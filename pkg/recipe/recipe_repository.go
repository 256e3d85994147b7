package recipe

import (
	"Recipegram-Backend/domain"
	"Recipegram-Backend/entities"
	"context"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeRepository interface {
		CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []entities.RecipeIngredient) error
		UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.Tag, lines []entities.RecipeIngredient) error
		GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error)
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error)
		DeleteRecipe(ctx context.Context, id string) error
		RecipeNameTaken(ctx context.Context, authorID uuid.UUID, name string, excludeID string) (bool, error)

		AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveFavorite(ctx context.Context, userID, recipeID string) error
		IsFavorited(ctx context.Context, userID, recipeID string) (bool, error)
		AddCartEntry(ctx context.Context, userID, recipeID uuid.UUID) error
		RemoveCartEntry(ctx context.Context, userID, recipeID string) error
		IsInCart(ctx context.Context, userID, recipeID string) (bool, error)

		GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error)
	}

	recipeRepository struct {
		db *gorm.DB
	}
)

func NewRecipeRepository(db *gorm.DB) RecipeRepository {
	return &recipeRepository{db: db}
}

// CreateRecipe persists the recipe row, its tag associations and its
// ingredient lines in one transaction. recipe.Tags must hold resolved tags.
func (r *recipeRepository) CreateRecipe(ctx context.Context, recipe *entities.Recipe, lines []entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(recipe).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrRecipeAlreadyExists
			}
			return err
		}

		for i := range lines {
			lines[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		return nil
	})
}

// UpdateRecipe is a full replace: recipe fields are updated, the tag set is
// replaced, and every existing ingredient line is dropped before the new set
// is inserted. Nothing is committed if any step fails.
func (r *recipeRepository) UpdateRecipe(ctx context.Context, recipe *entities.Recipe, tags []entities.Tag, lines []entities.RecipeIngredient) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"name":         recipe.Name,
			"text":         recipe.Text,
			"cooking_time": recipe.CookingTime,
			"image":        recipe.Image,
		}
		if err := tx.Model(&entities.Recipe{}).Where("id = ?", recipe.ID).Updates(updates).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrRecipeAlreadyExists
			}
			return err
		}

		if err := tx.Model(recipe).Association("Tags").Replace(tags); err != nil {
			return err
		}

		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		return nil
	})
}

func (r *recipeRepository) GetRecipeByID(ctx context.Context, id string) (*entities.Recipe, error) {
	var recipe entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("RecipeIngredients.Ingredient").
		Where("id = ?", id).
		First(&recipe).Error; err != nil {
		return nil, err
	}
	return &recipe, nil
}

// GetRecipes selects matching recipe ids with a raw join query, then loads
// the page of full rows. Tag slugs are OR semantics; the favorited and cart
// predicates are EXISTS checks against the viewer's relation rows.
func (r *recipeRepository) GetRecipes(ctx context.Context, filter domain.RecipeFilter, page, limit int) ([]*entities.Recipe, int64, error) {
	builder := squirrel.
		Select("r.id").From("recipes r").
		GroupBy("r.id")

	if filter.AuthorID != "" {
		builder = builder.Where(squirrel.Eq{"r.author_id": filter.AuthorID})
	}
	if len(filter.TagSlugs) != 0 {
		builder = builder.
			Join("recipe_tags rt ON rt.recipe_id = r.id").
			Join("tags t ON t.id = rt.tag_id").
			Where(squirrel.Eq{"t.slug": filter.TagSlugs})
	}
	if filter.ViewerID != "" && filter.Favorited != nil {
		exists := "EXISTS (SELECT 1 FROM favorites f WHERE f.recipe_id = r.id AND f.user_id = ?)"
		if !*filter.Favorited {
			exists = "NOT " + exists
		}
		builder = builder.Where(exists, filter.ViewerID)
	}
	if filter.ViewerID != "" && filter.InShoppingCart != nil {
		exists := "EXISTS (SELECT 1 FROM shopping_cart_entries s WHERE s.recipe_id = r.id AND s.user_id = ?)"
		if !*filter.InShoppingCart {
			exists = "NOT " + exists
		}
		builder = builder.Where(exists, filter.ViewerID)
	}

	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, 0, err
	}

	var ids []string
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&ids).Error; err != nil {
		return nil, 0, err
	}
	count := int64(len(ids))
	if count == 0 {
		return []*entities.Recipe{}, 0, nil
	}

	offset := (page - 1) * limit
	var recipes []*entities.Recipe
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("RecipeIngredients.Ingredient").
		Where("id IN ?", ids).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&recipes).Error; err != nil {
		return nil, 0, err
	}

	return recipes, count, nil
}

// DeleteRecipe removes the recipe together with everything it owns or is
// referenced by: ingredient lines, tag associations, favorites and cart
// entries go in the same transaction.
func (r *recipeRepository) DeleteRecipe(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.RecipeIngredient{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&entities.ShoppingCartEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM recipe_tags WHERE recipe_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&entities.Recipe{}).Error
	})
}

func (r *recipeRepository) RecipeNameTaken(ctx context.Context, authorID uuid.UUID, name string, excludeID string) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).
		Model(&entities.Recipe{}).
		Where("author_id = ? AND name = ?", authorID, name)
	if excludeID != "" {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AddFavorite checks existence inside the insert transaction so concurrent
// requests cannot produce duplicate rows; the unique index is the backstop.
func (r *recipeRepository) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.Favorite{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadyFavorited
		}

		favorite := entities.Favorite{
			ID:        uuid.New(),
			UserID:    userID,
			RecipeID:  recipeID,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&favorite).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyFavorited
			}
			return err
		}
		return nil
	})
}

func (r *recipeRepository) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFavorited
	}
	return nil
}

func (r *recipeRepository) IsFavorited(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.Favorite{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *recipeRepository) AddCartEntry(ctx context.Context, userID, recipeID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&entities.ShoppingCartEntry{}).
			Where("user_id = ? AND recipe_id = ?", userID, recipeID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrAlreadyInCart
		}

		entry := entities.ShoppingCartEntry{
			ID:        uuid.New(),
			UserID:    userID,
			RecipeID:  recipeID,
			CreatedAt: time.Now(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return domain.ErrAlreadyInCart
			}
			return err
		}
		return nil
	})
}

func (r *recipeRepository) RemoveCartEntry(ctx context.Context, userID, recipeID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&entities.ShoppingCartEntry{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotInCart
	}
	return nil
}

func (r *recipeRepository) IsInCart(ctx context.Context, userID, recipeID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&entities.ShoppingCartEntry{}).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetShoppingList aggregates the ingredient lines of every recipe in the
// user's cart, summing amounts per (name, measurement unit) group. Ordered
// by ingredient name so the rendered document is deterministic.
func (r *recipeRepository) GetShoppingList(ctx context.Context, userID string) ([]domain.ShoppingListItem, error) {
	sql, args, err := squirrel.
		Select(
			"i.name AS name",
			"i.measurement_unit AS measurement_unit",
			"SUM(ri.amount) AS amount",
		).
		From("recipe_ingredients ri").
		Join("ingredients i ON i.id = ri.ingredient_id").
		Join("shopping_cart_entries s ON s.recipe_id = ri.recipe_id").
		Where(squirrel.Eq{"s.user_id": userID}).
		GroupBy("i.name", "i.measurement_unit").
		OrderBy("i.name").
		ToSql()
	if err != nil {
		return nil, err
	}

	items := make([]domain.ShoppingListItem, 0)
	if err := r.db.WithContext(ctx).Raw(sql, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
