package repositories

import (
	"errors"
	"fmt"

	"resep/internal/models"

	"gorm.io/gorm"
)

// GORMRecipeRepository is a GORM implementation of RecipeRepository.
type GORMRecipeRepository struct {
	db *gorm.DB
}

// NewGORMRecipeRepository creates a new instance of GORMRecipeRepository.
func NewGORMRecipeRepository(db *gorm.DB) *GORMRecipeRepository {
	return &GORMRecipeRepository{
		db: db,
	}
}

// joined builds the recipes query joined with the owning user's username.
func (r *GORMRecipeRepository) joined() *gorm.DB {
	return r.db.Model(&models.Recipe{}).
		Select("recipes.*, users.username").
		Joins("JOIN users ON users.id = recipes.added_by")
}

// Create inserts a new recipe.
func (r *GORMRecipeRepository) Create(recipe *models.Recipe) error {
	if err := r.db.Create(recipe).Error; err != nil {
		return fmt.Errorf("failed to create recipe: %w", err)
	}
	return nil
}

// GetByID retrieves a single recipe by its ID, joined with its author.
func (r *GORMRecipeRepository) GetByID(id uint) (*models.RecipeWithAuthor, error) {
	var recipe models.RecipeWithAuthor
	if err := r.joined().Where("recipes.id = ?", id).First(&recipe).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// GetByIDOwned retrieves a recipe only if it belongs to ownerID.
func (r *GORMRecipeRepository) GetByIDOwned(id, ownerID uint) (*models.Recipe, error) {
	var recipe models.Recipe
	err := r.db.First(&recipe, "id = ? AND added_by = ?", id, ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe %d: %w", id, err)
	}
	return &recipe, nil
}

// GetByOwner retrieves the owner's recipes, newest first.
func (r *GORMRecipeRepository) GetByOwner(ownerID uint) ([]models.Recipe, error) {
	var recipes []models.Recipe
	err := r.db.Where("added_by = ?", ownerID).Order("id DESC").Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes for user %d: %w", ownerID, err)
	}
	return recipes, nil
}

// GetAll retrieves all recipes joined with their authors, newest first.
func (r *GORMRecipeRepository) GetAll() ([]models.RecipeWithAuthor, error) {
	var recipes []models.RecipeWithAuthor
	if err := r.joined().Order("recipes.id DESC").Find(&recipes).Error; err != nil {
		return nil, fmt.Errorf("failed to get all recipes: %w", err)
	}
	return recipes, nil
}

// GetAllExcludingOwner retrieves everyone else's recipes, newest first.
func (r *GORMRecipeRepository) GetAllExcludingOwner(ownerID uint) ([]models.RecipeWithAuthor, error) {
	var recipes []models.RecipeWithAuthor
	err := r.joined().
		Where("recipes.added_by != ?", ownerID).
		Order("recipes.id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes excluding user %d: %w", ownerID, err)
	}
	return recipes, nil
}

// GetByCategory retrieves recipes in a category, newest first. The caller is
// expected to pass the category already normalized.
func (r *GORMRecipeRepository) GetByCategory(category string) ([]models.RecipeWithAuthor, error) {
	var recipes []models.RecipeWithAuthor
	err := r.joined().
		Where("recipes.category = ?", category).
		Order("recipes.id DESC").
		Find(&recipes).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get recipes in category %s: %w", category, err)
	}
	return recipes, nil
}

// Update applies fields to a recipe only if it belongs to ownerID.
func (r *GORMRecipeRepository) Update(id, ownerID uint, fields map[string]interface{}) error {
	res := r.db.Model(&models.Recipe{}).
		Where("id = ? AND added_by = ?", id, ownerID).
		Updates(fields)
	if res.Error != nil {
		return fmt.Errorf("failed to update recipe %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a recipe only if it belongs to ownerID.
func (r *GORMRecipeRepository) Delete(id, ownerID uint) error {
	res := r.db.Where("added_by = ?", ownerID).Delete(&models.Recipe{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete recipe %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
