package handlers

import (
	"errors"
	"log"

	"resep/internal/repositories"
	"resep/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
)

// AuthHandler handles registration, login, logout and account removal.
type AuthHandler struct {
	authService *services.AuthService
	sessions    *session.Store
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, sessions *session.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		sessions:    sessions,
		validate:    validator.New(),
	}
}

// RegisterRoutes registers the public routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/", h.HandleHome)
	router.Get("/register", h.HandleRegisterForm)
	router.Post("/register", h.HandleRegister)
	router.Get("/login", h.HandleLoginForm)
	router.Post("/login", h.HandleLogin)
	router.Get("/logout", h.HandleLogout)
}

// RegisterProtectedRoutes registers the routes that require a session.
func (h *AuthHandler) RegisterProtectedRoutes(router fiber.Router) {
	router.Post("/delete_account", h.HandleDeleteAccount)
}

// HandleHome renders the home page.
func (h *AuthHandler) HandleHome(c *fiber.Ctx) error {
	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"page":        "home",
		"notice":      notice,
		"notice_kind": kind,
	})
}

// HandleRegisterForm renders the registration form.
func (h *AuthHandler) HandleRegisterForm(c *fiber.Ctx) error {
	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"page":        "register",
		"notice":      notice,
		"notice_kind": kind,
	})
}

// RegisterRequest represents the registration form payload.
type RegisterRequest struct {
	Username string `form:"username" validate:"required,min=3,max=100"`
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing register form: %v", err)
		return redirectWithNotice(h.sessions, c, "/register", "error", "Invalid registration form.")
	}

	if err := h.validate.Struct(req); err != nil {
		return redirectWithNotice(h.sessions, c, "/register", "error", "Please fill out all fields correctly.")
	}

	if _, err := h.authService.Register(req.Username, req.Email, req.Password); err != nil {
		if errors.Is(err, repositories.ErrDuplicateEmail) {
			return redirectWithNotice(h.sessions, c, "/register", "error", "Email already exists, please login!")
		}
		log.Printf("Error registering user %s: %v", req.Username, err)
		return redirectWithNotice(h.sessions, c, "/register", "error", "Could not register, please try again.")
	}

	return redirectWithNotice(h.sessions, c, "/", "success", "Registration successful! Please login.")
}

// HandleLoginForm renders the login form.
func (h *AuthHandler) HandleLoginForm(c *fiber.Ctx) error {
	kind, notice := pendingNotice(h.sessions, c)
	return c.JSON(fiber.Map{
		"page":        "login",
		"notice":      notice,
		"notice_kind": kind,
	})
}

// LoginRequest represents the login form payload.
type LoginRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

// HandleLogin verifies the credentials and binds the session to the user.
// One generic failure notice covers both unknown usernames and wrong
// passwords.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		log.Printf("Error parsing login form: %v", err)
		return redirectWithNotice(h.sessions, c, "/login", "error", "Invalid login form.")
	}

	if err := h.validate.Struct(req); err != nil {
		return redirectWithNotice(h.sessions, c, "/login", "error", "Username and password are required.")
	}

	user, err := h.authService.Login(req.Username, req.Password)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			log.Printf("Error during login for user %s: %v", req.Username, err)
		}
		return redirectWithNotice(h.sessions, c, "/login", "error", "Invalid username or password.")
	}

	sess, err := h.sessions.Get(c)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not start session",
		})
	}
	sess.Set("username", user.Username)
	setFlash(sess, "success", "Login successful!")
	if err := sess.Save(); err != nil {
		log.Printf("Failed to save session: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not start session",
		})
	}

	return c.Redirect("/dashboard", fiber.StatusSeeOther)
}

// HandleLogout clears the session binding.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if sess, err := h.sessions.Get(c); err == nil {
		if err := sess.Destroy(); err != nil {
			log.Printf("Failed to destroy session: %v", err)
		}
	}
	return redirectWithNotice(h.sessions, c, "/login", "success", "You have been logged out.")
}

// HandleDeleteAccount removes the logged-in user and all their recipes, then
// clears the session.
func (h *AuthHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	sess, err := h.sessions.Get(c)
	if err != nil {
		log.Printf("Failed to load session: %v", err)
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	username, _ := c.Locals("username").(string)
	user, err := h.authService.UserByUsername(username)
	if err != nil {
		// Stale session: the account behind it no longer exists.
		if err := sess.Destroy(); err != nil {
			log.Printf("Failed to destroy session: %v", err)
		}
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if err := h.authService.DeleteAccount(user.ID); err != nil {
		log.Printf("Error deleting account %d: %v", user.ID, err)
		return redirectWithNotice(h.sessions, c, "/my_recipe", "error", "Could not delete your account, please try again.")
	}

	if err := sess.Destroy(); err != nil {
		log.Printf("Failed to destroy session: %v", err)
	}
	return redirectWithNotice(h.sessions, c, "/", "success", "Your account and all associated recipes have been deleted.")
}
