package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"butik/internal/handlers"
	"butik/internal/models"
	"butik/internal/repositories"
	"butik/internal/services"
	"butik/pkg/cloudinary"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeMediaStore derives the public id and URL from the staged file's
// content, so tests can tell which submitted image ended up on which variant.
type fakeMediaStore struct {
	mu       sync.Mutex
	uploads  int
	destroys []string
}

func (f *fakeMediaStore) Upload(_ context.Context, localPath string) (*cloudinary.UploadResult, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploads++
	f.mu.Unlock()
	return &cloudinary.UploadResult{
		PublicID:  "products/" + string(data),
		SecureURL: fmt.Sprintf("https://res.example.com/%s.jpg", data),
	}, nil
}

func (f *fakeMediaStore) Destroy(_ context.Context, publicID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroys = append(f.destroys, publicID)
	return nil
}

func (f *fakeMediaStore) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.uploads
}

// setupApp wires a Fiber app with the product handler over the in-memory
// repository and the fake media store.
func setupApp(t *testing.T) (*fiber.App, *repositories.MockProductRepository, *fakeMediaStore) {
	t.Helper()

	repo := repositories.NewMockProductRepository()
	media := &fakeMediaStore{}
	service := services.NewProductService(repo, media, nil)
	handler := handlers.NewProductHandler(service, t.TempDir())

	app := fiber.New()
	api := app.Group("/api")
	handler.RegisterRoutes(api)
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("API is running")
	})
	return app, repo, media
}

// newCreateRequest builds a multipart POST /api/products request. Each entry
// of images becomes one file part, in order, with the entry as its content.
func newCreateRequest(t *testing.T, fields map[string]string, images []string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		assert.NoError(t, writer.WriteField(key, value))
	}
	for i, content := range images {
		part, err := writer.CreateFormFile("productImages", fmt.Sprintf("image-%d.jpg", i))
		assert.NoError(t, err)
		_, err = part.Write([]byte(content))
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func shirtFields() map[string]string {
	return map[string]string{
		"name":              "Shirt",
		"category":          "Apparel",
		"price":             "20",
		"description":       "A plain shirt",
		"sizes":             `["S","M","L"]`,
		"colors":            `[{"name":"Red","hexCode":"#FF0000"},{"name":"Blue","hexCode":"#0000FF"}]`,
		"defaultImageIndex": "0",
	}
}

func TestCreateProductEndpoint(t *testing.T) {
	app, repo, media := setupApp(t)

	req := newCreateRequest(t, shirtFields(), []string{"red", "blue"})
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var result struct {
		Message string         `json:"message"`
		Product models.Product `json:"product"`
	}
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "Product created successfully", result.Message)
	assert.False(t, result.Product.ID.IsZero())
	assert.Len(t, result.Product.Colors, 2)
	assert.Equal(t, "Red", result.Product.Colors[0].Name)
	assert.Equal(t, "https://res.example.com/red.jpg", result.Product.Colors[0].ImageURL)
	assert.Equal(t, "Blue", result.Product.Colors[1].Name)
	assert.Equal(t, "https://res.example.com/blue.jpg", result.Product.Colors[1].ImageURL)
	assert.Equal(t, 2, media.uploadCount())

	stored, err := repo.GetByID(context.Background(), result.Product.ID.Hex())
	assert.NoError(t, err)
	assert.Equal(t, result.Product.Colors, stored.Colors)
}

func TestCreateProductEndpoint_CountMismatch(t *testing.T) {
	app, repo, media := setupApp(t)

	// Two color descriptors but only one attached file.
	req := newCreateRequest(t, shirtFields(), []string{"red"})
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, media.uploadCount())

	products, err := repo.GetAll(context.Background(), "")
	assert.NoError(t, err)
	assert.Empty(t, products)
}

func TestCreateProductEndpoint_MissingFields(t *testing.T) {
	app, _, media := setupApp(t)

	fields := shirtFields()
	delete(fields, "price")
	req := newCreateRequest(t, fields, []string{"red", "blue"})
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, media.uploadCount())
}

func TestCreateProductEndpoint_NoImages(t *testing.T) {
	app, _, media := setupApp(t)

	req := newCreateRequest(t, shirtFields(), nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, media.uploadCount())
}

func TestListProductsEndpoint(t *testing.T) {
	app, repo, _ := setupApp(t)

	now := time.Now().UTC()
	seed := []models.Product{
		{Name: "Old Shirt", Category: "Apparel", Price: 10, CreatedAt: now.Add(-2 * time.Hour)},
		{Name: "New Shirt", Category: "Apparel", Price: 20, CreatedAt: now.Add(-1 * time.Hour)},
		{Name: "Mug", Category: "Kitchen", Price: 5, CreatedAt: now},
	}
	for i := range seed {
		assert.NoError(t, repo.Create(context.Background(), &seed[i]))
	}

	// No filter: everything, newest first.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/products", nil), -1)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var products []models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, 3)
	assert.Equal(t, "Mug", products[0].Name)
	assert.Equal(t, "New Shirt", products[1].Name)
	assert.Equal(t, "Old Shirt", products[2].Name)

	// Category filter: only matching products, still newest first.
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/products?category=Apparel", nil), -1)
	assert.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	products = nil
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&products))
	assert.Len(t, products, 2)
	assert.Equal(t, "New Shirt", products[0].Name)
	assert.Equal(t, "Old Shirt", products[1].Name)
}

func TestDeleteProductEndpoint(t *testing.T) {
	app, repo, media := setupApp(t)

	product := models.Product{
		Name:     "Shirt",
		Category: "Apparel",
		Price:    20,
		Colors: []models.ColorVariant{
			{Name: "Red", CloudinaryID: "products/red"},
			{Name: "Blue", CloudinaryID: "products/blue"},
		},
	}
	assert.NoError(t, repo.Create(context.Background(), &product))

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/products/"+product.ID.Hex(), nil), -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"products/red", "products/blue"}, media.destroys)

	_, err = repo.GetByID(context.Background(), product.ID.Hex())
	assert.ErrorIs(t, err, repositories.ErrProductNotFound)
}

func TestDeleteProductEndpoint_NotFound(t *testing.T) {
	app, _, media := setupApp(t)

	missing := primitive.NewObjectID().Hex()
	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/products/"+missing, nil), -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, media.destroys)
}

func TestLivenessEndpoint(t *testing.T) {
	app, _, _ := setupApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil), -1)
	assert.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.Equal(t, "API is running", string(body))
}
