package cloudinary

import (
	"context"
	"fmt"
	"time"

	sdk "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

const (
	// uploadFolder groups all product images on the remote store.
	uploadFolder = "products"

	// transformation bounds the longest dimension at 1200px, preserving
	// aspect ratio, and lets Cloudinary pick the quality.
	transformation = "c_limit,w_1200,h_1200/q_auto"

	// uploadTimeout is generous to tolerate large files.
	uploadTimeout = 2 * time.Minute
)

// Config holds Cloudinary account credentials.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

// UploadResult identifies one uploaded asset.
type UploadResult struct {
	PublicID  string
	SecureURL string
}

// Client is a thin wrapper around the Cloudinary SDK. It keeps no state
// between calls.
type Client struct {
	cld *sdk.Cloudinary
}

// NewClient creates a new Cloudinary client from account credentials.
func NewClient(cfg Config) (*Client, error) {
	cld, err := sdk.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true
	return &Client{cld: cld}, nil
}

// Upload sends one local file to the remote store, applying the size and
// quality transformation, and returns its public id and URL.
func (c *Client) Upload(ctx context.Context, localPath string) (*UploadResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	res, err := c.cld.Upload.Upload(ctx, localPath, uploader.UploadParams{
		PublicID:       uuid.New().String(),
		Folder:         uploadFolder,
		ResourceType:   "image",
		Transformation: transformation,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload %s: %w", localPath, err)
	}
	if res.Error.Message != "" {
		return nil, fmt.Errorf("failed to upload %s: %s", localPath, res.Error.Message)
	}
	return &UploadResult{
		PublicID:  res.PublicID,
		SecureURL: res.SecureURL,
	}, nil
}

// Destroy removes an uploaded asset by its public id. A missing asset is not
// an error, so cleanup callers can retry safely.
func (c *Client) Destroy(ctx context.Context, publicID string) error {
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("failed to destroy %s: %w", publicID, err)
	}
	if res.Result != "ok" && res.Result != "not found" {
		return fmt.Errorf("failed to destroy %s: %s", publicID, res.Result)
	}
	return nil
}
