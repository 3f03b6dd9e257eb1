package models

import "time"

// Recipe represents a recipe submitted by a user.
type Recipe struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Title        string    `json:"title" gorm:"type:varchar(255)" validate:"required"`
	Ingredients  string    `json:"ingredients" gorm:"type:text" validate:"required"`
	Instructions string    `json:"instructions" gorm:"type:text" validate:"required"`
	Image        *string   `json:"image" gorm:"type:varchar(255)"` // stored filename, nil when no image
	Category     string    `json:"category" gorm:"type:varchar(100);index" validate:"required"`
	AddedBy      uint      `json:"added_by" gorm:"not null;index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecipeWithAuthor is a Recipe joined with its owner's username.
type RecipeWithAuthor struct {
	Recipe
	Username string `json:"username"`
}
