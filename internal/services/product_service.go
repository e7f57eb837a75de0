package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"butik/internal/models"
	"butik/internal/repositories"
	"butik/pkg/cloudinary"
)

// MediaStore is the remote image store used for product variant images.
type MediaStore interface {
	Upload(ctx context.Context, localPath string) (*cloudinary.UploadResult, error)
	Destroy(ctx context.Context, publicID string) error
}

// EventPublisher publishes catalog lifecycle events. Publishing is
// best-effort; failures never fail the request.
type EventPublisher interface {
	PublishProductEvent(event string, payload map[string]interface{}) error
}

// ColorDescriptor is one submitted color variant, before its image exists.
type ColorDescriptor struct {
	Name    string `json:"name"`
	HexCode string `json:"hexCode"`
}

// CreateProductInput carries the raw creation submission. Scalar fields come
// in as form strings; Sizes and Colors are JSON payloads. ImagePaths are the
// staged local copies of the uploaded files, in submission order: the file at
// index i belongs to the color descriptor at index i.
type CreateProductInput struct {
	Name              string `validate:"required"`
	Category          string `validate:"required"`
	Price             string `validate:"required"`
	Description       string
	Sizes             string
	Colors            string
	DefaultImageIndex string
	ImagePaths        []string
}

// ProductService handles business logic related to catalog products.
type ProductService struct {
	repo      repositories.ProductRepository
	media     MediaStore
	publisher EventPublisher
	validate  *validator.Validate
}

// NewProductService creates a new ProductService. publisher may be nil to
// disable event publishing.
func NewProductService(repo repositories.ProductRepository, media MediaStore, publisher EventPublisher) *ProductService {
	return &ProductService{
		repo:      repo,
		media:     media,
		publisher: publisher,
		validate:  validator.New(),
	}
}

// GetProducts retrieves products newest-first, optionally filtered by category.
func (s *ProductService) GetProducts(ctx context.Context, category string) ([]models.Product, error) {
	return s.repo.GetAll(ctx, category)
}

// CreateProduct runs the product creation transaction: validate the
// submission, upload every image concurrently, pair each color descriptor
// with its upload by index, and persist the assembled product in one write.
// If anything fails after an upload succeeded, the already-uploaded assets
// are destroyed before the error is returned, so a failed request leaves
// neither an orphaned remote image nor a partial record.
func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	if err := s.validate.Struct(&input); err != nil {
		return nil, &ValidationError{Message: "missing required fields"}
	}
	if len(input.ImagePaths) == 0 {
		return nil, &ValidationError{Message: "no images uploaded"}
	}

	var sizes []string
	if input.Sizes != "" {
		if err := json.Unmarshal([]byte(input.Sizes), &sizes); err != nil {
			return nil, &ValidationError{Message: "invalid sizes payload"}
		}
	}
	var descriptors []ColorDescriptor
	if err := json.Unmarshal([]byte(input.Colors), &descriptors); err != nil {
		return nil, &ValidationError{Message: "invalid colors payload"}
	}

	// Positional correlation is the only link between a descriptor and its
	// file, so the counts must match exactly before anything is uploaded.
	if len(descriptors) != len(input.ImagePaths) {
		return nil, &ValidationError{Message: "colors count and images count must match"}
	}

	price, err := strconv.ParseFloat(input.Price, 64)
	if err != nil {
		return nil, &ValidationError{Message: "price must be a number"}
	}
	defaultImageIndex := 0
	if input.DefaultImageIndex != "" {
		defaultImageIndex, err = strconv.Atoi(input.DefaultImageIndex)
		if err != nil {
			return nil, &ValidationError{Message: "defaultImageIndex must be an integer"}
		}
	}

	// Upload all images concurrently. Results land at the submission index so
	// completion order cannot scramble the descriptor/image pairing, and every
	// success is recorded even when a sibling fails, which is what the cleanup
	// pass iterates over. g.Wait returns the first error only after all
	// uploads have finished.
	uploads := make([]cloudinary.UploadResult, len(input.ImagePaths))
	var g errgroup.Group
	for i, path := range input.ImagePaths {
		i, path := i, path
		g.Go(func() error {
			result, err := s.media.Upload(ctx, path)
			if err != nil {
				return fmt.Errorf("image %d: %w", i, err)
			}
			uploads[i] = *result
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				log.Printf("Warning: could not remove staged file %s: %v", path, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.destroyUploaded(uploads)
		return nil, &UploadError{Err: err}
	}

	colors := make([]models.ColorVariant, len(descriptors))
	for i, d := range descriptors {
		colors[i] = models.ColorVariant{
			Name:         d.Name,
			HexCode:      d.HexCode,
			ImageURL:     uploads[i].SecureURL,
			CloudinaryID: uploads[i].PublicID,
		}
	}

	product := &models.Product{
		Name:              input.Name,
		Category:          input.Category,
		Price:             price,
		Description:       input.Description,
		Sizes:             sizes,
		Colors:            colors,
		DefaultImageIndex: defaultImageIndex,
	}
	if err := s.repo.Create(ctx, product); err != nil {
		s.destroyUploaded(uploads)
		return nil, &PersistenceError{Err: err}
	}

	s.publishEvent("product.created", map[string]interface{}{
		"productID": product.ID.Hex(),
		"name":      product.Name,
		"category":  product.Category,
	})

	return product, nil
}

// DeleteProduct removes every variant image from the media store, then the
// product record. Returns repositories.ErrProductNotFound for an unknown id.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	for _, color := range product.Colors {
		if color.CloudinaryID == "" {
			continue
		}
		if err := s.media.Destroy(ctx, color.CloudinaryID); err != nil {
			log.Printf("Warning: failed to delete image %s of product %s: %v", color.CloudinaryID, id, err)
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent("product.deleted", map[string]interface{}{
		"productID": id,
	})
	return nil
}

// destroyUploaded removes every asset that made it to the media store during
// a failed creation. Failures are logged and swallowed so they never mask the
// error that triggered the cleanup. A fresh context is used because the
// request context may already be done.
func (s *ProductService) destroyUploaded(uploads []cloudinary.UploadResult) {
	for _, u := range uploads {
		if u.PublicID == "" {
			continue
		}
		if err := s.media.Destroy(context.Background(), u.PublicID); err != nil {
			log.Printf("Warning: failed to remove orphaned image %s: %v", u.PublicID, err)
		}
	}
}

func (s *ProductService) publishEvent(event string, payload map[string]interface{}) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishProductEvent(event, payload); err != nil {
		log.Printf("Warning: failed to publish %s event: %v", event, err)
	}
}
