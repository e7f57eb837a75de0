package handlers

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"butik/internal/repositories"
	"butik/internal/services"
)

const (
	imageFieldName = "productImages"
	maxImageCount  = 10
	maxImageSize   = 2 * 1024 * 1024 // 2MB per image
)

// ProductHandler handles HTTP requests for catalog products.
type ProductHandler struct {
	service   *services.ProductService
	uploadDir string
}

// NewProductHandler creates a new ProductHandler. Uploaded images are staged
// under uploadDir until they reach the media store.
func NewProductHandler(service *services.ProductService, uploadDir string) *ProductHandler {
	return &ProductHandler{
		service:   service,
		uploadDir: uploadDir,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Get("/", h.HandleGetProducts)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleCreateProduct accepts a multipart submission with the product fields,
// the serialized sizes/colors payloads and one image file per color variant,
// stages the files locally and runs the creation transaction.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid multipart form",
			"error":   err.Error(),
		})
	}

	files := form.File[imageFieldName]
	if len(files) > maxImageCount {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": fmt.Sprintf("At most %d images are allowed", maxImageCount),
		})
	}
	for _, file := range files {
		if file.Size > maxImageSize {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": fmt.Sprintf("Image %s exceeds the %dMB limit", file.Filename, maxImageSize/(1024*1024)),
			})
		}
	}

	// Stage the uploads to disk in submission order. Files that reach the
	// media store are removed by the transaction; this sweep covers the rest.
	stagedPaths := make([]string, 0, len(files))
	defer func() {
		for _, path := range stagedPaths {
			os.Remove(path)
		}
	}()
	for _, file := range files {
		path := filepath.Join(h.uploadDir, uuid.New().String()+filepath.Ext(file.Filename))
		if err := c.SaveFile(file, path); err != nil {
			log.Printf("Error staging uploaded file: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"message": "Failed to store uploaded image",
				"error":   err.Error(),
			})
		}
		stagedPaths = append(stagedPaths, path)
	}

	input := services.CreateProductInput{
		Name:              c.FormValue("name"),
		Category:          c.FormValue("category"),
		Price:             c.FormValue("price"),
		Description:       c.FormValue("description"),
		Sizes:             c.FormValue("sizes"),
		Colors:            c.FormValue("colors"),
		DefaultImageIndex: c.FormValue("defaultImageIndex"),
		ImagePaths:        stagedPaths,
	}

	product, err := h.service.CreateProduct(c.UserContext(), input)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": validationErr.Message,
			})
		}
		log.Printf("Error creating product: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to create product",
			"error":   err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": product,
	})
}

// HandleGetProducts lists products newest-first, optionally filtered by the
// category query parameter.
func (h *ProductHandler) HandleGetProducts(c *fiber.Ctx) error {
	products, err := h.service.GetProducts(c.UserContext(), c.Query("category"))
	if err != nil {
		log.Printf("Error fetching products: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to fetch products",
		})
	}
	return c.JSON(products)
}

// HandleDeleteProduct removes a product and its remote images.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.service.DeleteProduct(c.UserContext(), id); err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": "Product not found",
			})
		}
		log.Printf("Error deleting product %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Failed to delete product",
			"error":   err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted successfully",
	})
}
