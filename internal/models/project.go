package models

import "time"

// Project is a named, colored container. Tasks reference it by id; projects
// never embed tasks.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Color       string    `json:"color,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Key returns the persistence key for the project.
func (p *Project) Key() string { return p.ID }

// Category is a lightweight label tasks can carry any number of.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Color     string    `json:"color,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key returns the persistence key for the category.
func (c *Category) Key() string { return c.ID }
