package repositories

import "resep/internal/models"

// RecipeRepository defines the interface for recipe data access.
// Every mutation is gated on the owning user; a missing row and a row owned
// by someone else are both reported as ErrNotFound.
type RecipeRepository interface {
	Create(recipe *models.Recipe) error
	GetByID(id uint) (*models.RecipeWithAuthor, error)
	GetByIDOwned(id, ownerID uint) (*models.Recipe, error)
	GetByOwner(ownerID uint) ([]models.Recipe, error)
	GetAll() ([]models.RecipeWithAuthor, error)
	GetAllExcludingOwner(ownerID uint) ([]models.RecipeWithAuthor, error)
	GetByCategory(category string) ([]models.RecipeWithAuthor, error)
	Update(id, ownerID uint, fields map[string]interface{}) error
	Delete(id, ownerID uint) error
}
