package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ColorVariant is one purchasable color option of a product, embedded in the
// product document together with its representative image on the media store.
type ColorVariant struct {
	Name         string `bson:"name" json:"name"`
	HexCode      string `bson:"hexCode" json:"hexCode"`
	ImageURL     string `bson:"imageUrl" json:"imageUrl"`
	CloudinaryID string `bson:"cloudinaryId" json:"cloudinaryId"`
}

// Product represents a product in the catalog. Colors are ordered; the index
// correlates with DefaultImageIndex and with the image submission order.
type Product struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name              string             `bson:"name" json:"name" validate:"required"`
	Category          string             `bson:"category" json:"category" validate:"required"`
	Price             float64            `bson:"price" json:"price" validate:"required"`
	Description       string             `bson:"description,omitempty" json:"description,omitempty"`
	Sizes             []string           `bson:"sizes" json:"sizes"`
	Colors            []ColorVariant     `bson:"colors" json:"colors"`
	DefaultImageIndex int                `bson:"defaultImageIndex" json:"defaultImageIndex"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}
