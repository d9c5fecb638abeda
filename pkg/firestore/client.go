package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/theescape/bookings-backend/pkg/config"
	"github.com/theescape/bookings-backend/pkg/logger"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client wraps the Firestore SDK for the operational document mirror.
type Client struct {
	client    *firestore.Client
	projectID string
	cfg       config.FirestoreConfig
}

var (
	errProjectIDRequired    = errors.New("gcp project id is required")
	errClientNotInitialized = errors.New("firestore client not initialized")
	errCollectionRequired   = errors.New("firestore collection name is required")
	errDocumentIDRequired   = errors.New("firestore document id is required")
)

type Pinger interface {
	Ping(context.Context) error
}

// NewClient creates a Firestore client bound to the configured database.
func NewClient(ctx context.Context, gcp config.GCPConfig, cfg config.FirestoreConfig, logg *logger.Logger) (*Client, error) {
	projectID := strings.TrimSpace(gcp.ProjectID)
	if projectID == "" {
		return nil, errProjectIDRequired
	}

	databaseID := strings.TrimSpace(cfg.DatabaseID)
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	fsClient, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "firestore client initialized")
	}

	return &Client{
		client:    fsClient,
		projectID: projectID,
		cfg:       cfg,
	}, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	var opts []option.ClientOption
	switch {
	case strings.TrimSpace(gcp.CredentialsJSON) != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case strings.TrimSpace(gcp.ApplicationCredentials) != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	return opts
}

// Set writes the document at collection/docID, replacing any existing content.
func (c *Client) Set(ctx context.Context, collection, docID string, data map[string]any) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(collection) == "" {
		return errCollectionRequired
	}
	if strings.TrimSpace(docID) == "" {
		return errDocumentIDRequired
	}
	_, err := c.client.Collection(collection).Doc(docID).Set(ctx, data)
	return err
}

// Add appends a document with an auto-generated id to the collection.
func (c *Client) Add(ctx context.Context, collection string, data map[string]any) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	if strings.TrimSpace(collection) == "" {
		return errCollectionRequired
	}
	_, _, err := c.client.Collection(collection).Add(ctx, data)
	return err
}

// Ping verifies the database is reachable by listing collections.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return errClientNotInitialized
	}
	_, err := c.client.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("listing collections: %w", err)
	}
	return nil
}

// Close releases the Firestore client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}
