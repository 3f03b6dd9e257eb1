package handlers

import (
	"errors"
	"io"
	"log"
	"mime/multipart"

	"resep/internal/models"
	"resep/internal/repositories"
	"resep/internal/services"
	"resep/pkg/imagestore"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// RecipeHandler handles HTTP requests for recipes. All its routes require a
// logged-in session.
type RecipeHandler struct {
	recipeService *services.RecipeService
	authService   *services.AuthService
	sessions      *session.Store
	validate      *validator.Validate
}

// NewRecipeHandler creates a new RecipeHandler.
func NewRecipeHandler(recipeService *services.RecipeService, authService *services.AuthService, sessions *session.Store) *RecipeHandler {
	return &RecipeHandler{
		recipeService: recipeService,
		authService:   authService,
		sessions:      sessions,
		validate:      validator.New(),
	}
}

// RegisterRoutes registers the recipe routes with the Fiber app.
func (h *RecipeHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/dashboard", h.HandleDashboard)
	router.Get("/add_recipe", h.HandleAddRecipeForm)
	router.Post("/add_recipe", h.HandleAddRecipe)
	router.Get("/browse", h.HandleBrowse)
	router.Get("/recipe/:id", h.HandleViewRecipe)
	router.Get("/my_recipe", h.HandleMyRecipes)
	router.Get("/edit_recipe/:id", h.HandleEditRecipeForm)
	router.Post("/edit_recipe/:id", h.HandleEditRecipe)
	router.Get("/category/:name", h.HandleCategory)
	router.Post("/delete_recipe/:id", h.HandleDeleteRecipe)
}

// HandleDashboard shows the user's own recipes and everyone else's.
func (h *RecipeHandler) HandleDashboard(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	mine, others, err := h.recipeService.Dashboard(user.ID)
	if err != nil {
		log.Printf("Error loading dashboard for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load dashboard",
		})
	}

	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
		},
		"my_recipes":    mine,
		"other_recipes": others,
		"notice":        notice,
		"notice_kind":   kind,
	})
}

// HandleAddRecipeForm renders the recipe submission form.
func (h *RecipeHandler) HandleAddRecipeForm(c *fiber.Ctx) error {
	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"page":        "add_recipe",
		"notice":      notice,
		"notice_kind": kind,
	})
}

// RecipeRequest represents the recipe form payload. Category is only part of
// the submission form, not the edit form.
type RecipeRequest struct {
	Title        string `form:"title" validate:"required"`
	Ingredients  string `form:"ingredients" validate:"required"`
	Instructions string `form:"instructions" validate:"required"`
	Category     string `form:"category" validate:"required"`
}

// HandleAddRecipe validates the form, stores the image and inserts the
// recipe owned by the session user. A valid image is required.
func (h *RecipeHandler) HandleAddRecipe(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	var req RecipeRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing recipe form: %v", err)
		return redirectWithNotice(h.sessions, c, "/add_recipe", "error", "Please fill out all fields.")
	}
	if err := h.validate.Struct(req); err != nil {
		return redirectWithNotice(h.sessions, c, "/add_recipe", "error", "Please fill out all fields.")
	}

	file, imageName, err := formImage(c)
	if err != nil || file == nil {
		return redirectWithNotice(h.sessions, c, "/add_recipe", "error", "Invalid image format. Allowed types: png, jpg, jpeg, gif.")
	}
	defer file.Close()

	recipe := &models.Recipe{
		Title:        req.Title,
		Ingredients:  req.Ingredients,
		Instructions: req.Instructions,
		Category:     req.Category,
	}
	if _, err := h.recipeService.AddRecipe(user.ID, recipe, imageName, file); err != nil {
		if errors.Is(err, imagestore.ErrUnsupportedFormat) || errors.Is(err, imagestore.ErrContentMismatch) {
			return redirectWithNotice(h.sessions, c, "/add_recipe", "error", "Invalid image format. Allowed types: png, jpg, jpeg, gif.")
		}
		log.Printf("Error adding recipe for user %d: %v", user.ID, err)
		return redirectWithNotice(h.sessions, c, "/add_recipe", "error", "Could not add recipe, please try again.")
	}

	return redirectWithNotice(h.sessions, c, "/dashboard", "success", "Recipe added successfully!")
}

// HandleBrowse lists all recipes with their authors, newest first.
func (h *RecipeHandler) HandleBrowse(c *fiber.Ctx) error {
	recipes, err := h.recipeService.BrowseAll()
	if err != nil {
		log.Printf("Error browsing recipes: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load recipes",
		})
	}

	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"recipes":     recipes,
		"notice":      notice,
		"notice_kind": kind,
	})
}

// HandleViewRecipe shows a single recipe with its author.
func (h *RecipeHandler) HandleViewRecipe(c *fiber.Ctx) error {
	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return redirectWithNotice(h.sessions, c, "/browse", "error", "Recipe not found.")
	}

	recipe, err := h.recipeService.GetRecipe(uint(id))
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Error viewing recipe %d: %v", id, err)
		}
		return redirectWithNotice(h.sessions, c, "/browse", "error", "Recipe not found.")
	}

	return c.JSON(recipe)
}

// HandleMyRecipes lists only the session user's recipes.
func (h *RecipeHandler) HandleMyRecipes(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	recipes, err := h.recipeService.MyRecipes(user.ID)
	if err != nil {
		log.Printf("Error loading recipes for user %d: %v", user.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load your recipes",
		})
	}

	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"recipes":     recipes,
		"notice":      notice,
		"notice_kind": kind,
	})
}

// HandleEditRecipeForm renders the edit form prefilled with the recipe, after
// enforcing ownership.
func (h *RecipeHandler) HandleEditRecipeForm(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return redirectWithNotice(h.sessions, c, "/my_recipe", "error", "Recipe not found or you don't have permission to edit.")
	}

	recipe, err := h.recipeService.GetOwnedRecipe(uint(id), user.ID)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Error loading recipe %d for edit: %v", id, err)
		}
		return redirectWithNotice(h.sessions, c, "/my_recipe", "error", "Recipe not found or you don't have permission to edit.")
	}

	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"recipe":      recipe,
		"notice":      notice,
		"notice_kind": kind,
	})
}

// EditRecipeRequest represents the edit form payload.
type EditRecipeRequest struct {
	Title        string `form:"title" validate:"required"`
	Ingredients  string `form:"ingredients" validate:"required"`
	Instructions string `form:"instructions" validate:"required"`
}

// HandleEditRecipe updates the text fields of an owned recipe. The image is
// replaced only when a new valid file arrives; a file with a bad extension or
// content rejects the whole edit.
func (h *RecipeHandler) HandleEditRecipe(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return redirectWithNotice(h.sessions, c, "/my_recipe", "error", "Recipe not found or you don't have permission to edit.")
	}
	editPath := "/edit_recipe/" + c.Params("id")

	var req EditRecipeRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing edit form: %v", err)
		return redirectWithNotice(h.sessions, c, editPath, "error", "All fields except image are required.")
	}
	if err := h.validate.Struct(req); err != nil {
		return redirectWithNotice(h.sessions, c, editPath, "error", "All fields except image are required.")
	}

	var image io.Reader
	var imageName string
	if file, name, err := formImage(c); err == nil && file != nil {
		defer file.Close()
		image = file
		imageName = name
	}

	err = h.recipeService.UpdateRecipe(uint(id), user.ID, req.Title, req.Ingredients, req.Instructions, imageName, image)
	if err != nil {
		switch {
		case errors.Is(err, imagestore.ErrUnsupportedFormat), errors.Is(err, imagestore.ErrContentMismatch):
			return redirectWithNotice(h.sessions, c, editPath, "error", "Invalid image format.")
		case errors.Is(err, repositories.ErrNotFound):
			return redirectWithNotice(h.sessions, c, "/my_recipe", "error", "Recipe not found or you don't have permission to edit.")
		default:
			log.Printf("Error updating recipe %d: %v", id, err)
			return redirectWithNotice(h.sessions, c, editPath, "error", "Could not update recipe, please try again.")
		}
	}

	return redirectWithNotice(h.sessions, c, "/my_recipe", "success", "Recipe updated successfully.")
}

// HandleCategory lists the recipes in a category. The name is normalized the
// same way it is normalized at submission time, so lookups are
// case-insensitive end-to-end.
func (h *RecipeHandler) HandleCategory(c *fiber.Ctx) error {
	category, recipes, err := h.recipeService.ByCategory(c.Params("name"))
	if err != nil {
		log.Printf("Error loading category %s: %v", category, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not load category",
		})
	}

	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"category":    category,
		"recipes":     recipes,
		"notice":      notice,
		"notice_kind": kind,
	})
}

// HandleDeleteRecipe removes an owned recipe and redirects to the user's
// recipe list either way.
func (h *RecipeHandler) HandleDeleteRecipe(c *fiber.Ctx) error {
	user, err := h.currentUser(c)
	if err != nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	id, err := c.ParamsInt("id")
	if err != nil || id < 1 {
		return redirectWithNotice(h.sessions, c, "/my_recipe", "error", "Recipe not found or you don't have permission to delete.")
	}

	if err := h.recipeService.DeleteRecipe(uint(id), user.ID); err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			log.Printf("Error deleting recipe %d: %v", id, err)
		}
		return redirectWithNotice(h.sessions, c, "/my_recipe", "error", "Recipe not found or you don't have permission to delete.")
	}

	return redirectWithNotice(h.sessions, c, "/my_recipe", "success", "Recipe deleted successfully.")
}

// currentUser resolves the session claim against the user store. A stale
// claim (the account was deleted) destroys the session so the next request
// starts clean.
func (h *RecipeHandler) currentUser(c *fiber.Ctx) (*models.User, error) {
	username, _ := c.Locals("username").(string)
	user, err := h.authService.UserByUsername(username)
	if err != nil {
		if sess, serr := h.sessions.Get(c); serr == nil {
			if derr := sess.Destroy(); derr != nil {
				log.Printf("Failed to destroy session: %v", derr)
			}
		}
		return nil, err
	}
	return user, nil
}

// formImage returns the uploaded image file, or (nil, "", nil) when the form
// carries no file.
func formImage(c *fiber.Ctx) (multipart.File, string, error) {
	header, err := c.FormFile("image")
	if err != nil || header == nil || header.Filename == "" {
		return nil, "", nil
	}
	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	return file, header.Filename, nil
}
