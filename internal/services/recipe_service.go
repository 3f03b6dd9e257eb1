package services

import (
	"fmt"
	"io"
	"log"
	"strings"
	"unicode"

	"resep/internal/models"
	"resep/internal/repositories"
	"resep/pkg/imagestore"
	"resep/pkg/rabbitmq"
)

// RecipeService handles business logic related to recipes.
type RecipeService struct {
	recipeRepo repositories.RecipeRepository
	images     *imagestore.Store
	mqClient   *rabbitmq.Client
}

// NewRecipeService creates a new RecipeService. mqClient may be nil, in which
// case recipe events are not published.
func NewRecipeService(recipeRepo repositories.RecipeRepository, images *imagestore.Store, mqClient *rabbitmq.Client) *RecipeService {
	return &RecipeService{
		recipeRepo: recipeRepo,
		images:     images,
		mqClient:   mqClient,
	}
}

// NormalizeCategory capitalizes the first rune and lowercases the rest, so
// "dessert", "DESSERT" and "Dessert" all group together in the store.
func NormalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if category == "" {
		return ""
	}
	runes := []rune(strings.ToLower(category))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// AddRecipe stores the image, normalizes the category and inserts the recipe
// with ownerID as its owner. A valid image is required for new recipes.
func (s *RecipeService) AddRecipe(ownerID uint, recipe *models.Recipe, imageName string, image io.Reader) (*models.Recipe, error) {
	stored, err := s.images.Save(imageName, image)
	if err != nil {
		return nil, err
	}

	recipe.Category = NormalizeCategory(recipe.Category)
	recipe.Image = &stored
	recipe.AddedBy = ownerID
	if err := s.recipeRepo.Create(recipe); err != nil {
		return nil, fmt.Errorf("failed to add recipe: %w", err)
	}

	s.publishEvent("recipe.created", recipe.ID, ownerID)
	return recipe, nil
}

// Dashboard returns the user's own recipes and everyone else's.
func (s *RecipeService) Dashboard(ownerID uint) ([]models.Recipe, []models.RecipeWithAuthor, error) {
	mine, err := s.recipeRepo.GetByOwner(ownerID)
	if err != nil {
		return nil, nil, err
	}
	others, err := s.recipeRepo.GetAllExcludingOwner(ownerID)
	if err != nil {
		return nil, nil, err
	}
	return mine, others, nil
}

// BrowseAll returns all recipes joined with their authors, newest first.
func (s *RecipeService) BrowseAll() ([]models.RecipeWithAuthor, error) {
	return s.recipeRepo.GetAll()
}

// MyRecipes returns the user's recipes, newest first.
func (s *RecipeService) MyRecipes(ownerID uint) ([]models.Recipe, error) {
	return s.recipeRepo.GetByOwner(ownerID)
}

// ByCategory normalizes the category name and returns its recipes along with
// the normalized name.
func (s *RecipeService) ByCategory(name string) (string, []models.RecipeWithAuthor, error) {
	category := NormalizeCategory(name)
	recipes, err := s.recipeRepo.GetByCategory(category)
	if err != nil {
		return category, nil, err
	}
	return category, recipes, nil
}

// GetRecipe returns a recipe joined with its author.
func (s *RecipeService) GetRecipe(id uint) (*models.RecipeWithAuthor, error) {
	return s.recipeRepo.GetByID(id)
}

// GetOwnedRecipe returns a recipe only if ownerID owns it.
func (s *RecipeService) GetOwnedRecipe(id, ownerID uint) (*models.Recipe, error) {
	return s.recipeRepo.GetByIDOwned(id, ownerID)
}

// UpdateRecipe updates the text fields of an owned recipe. When image is
// non-nil a new file is stored and replaces the old reference; otherwise the
// prior image is kept. The ownership gate lives in the repository.
func (s *RecipeService) UpdateRecipe(id, ownerID uint, title, ingredients, instructions, imageName string, image io.Reader) error {
	fields := map[string]interface{}{
		"title":        title,
		"ingredients":  ingredients,
		"instructions": instructions,
	}
	if image != nil {
		stored, err := s.images.Save(imageName, image)
		if err != nil {
			return err
		}
		fields["image"] = stored
	}

	if err := s.recipeRepo.Update(id, ownerID, fields); err != nil {
		return err
	}

	s.publishEvent("recipe.updated", id, ownerID)
	return nil
}

// DeleteRecipe removes an owned recipe.
func (s *RecipeService) DeleteRecipe(id, ownerID uint) error {
	if err := s.recipeRepo.Delete(id, ownerID); err != nil {
		return err
	}

	s.publishEvent("recipe.deleted", id, ownerID)
	return nil
}

// publishEvent publishes a recipe lifecycle event. Publishing is best-effort:
// failures are logged and never fail the request.
func (s *RecipeService) publishEvent(event string, recipeID, userID uint) {
	if s.mqClient == nil {
		return
	}
	err := s.mqClient.PublishEvent(event, map[string]interface{}{
		"recipe_id": recipeID,
		"user_id":   userID,
	})
	if err != nil {
		log.Printf("Warning: Failed to publish %s event for recipe %d: %v", event, recipeID, err)
	}
}
