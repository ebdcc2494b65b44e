// Package firebase initializes the Firebase Admin SDK clients the service uses.
package firebase

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/assessly-billing/internal/config"
)

// Clients holds the initialized Firebase clients.
type Clients struct {
	App       *firebase.App
	Firestore *firestore.Client
	Auth      *auth.Client
}

// Close releases the Firestore connection.
func (c *Clients) Close() error {
	if c.Firestore == nil {
		return nil
	}
	return c.Firestore.Close()
}

// Init initializes the Firebase app with the credentials from cfg and opens
// the Firestore and Auth clients.
func Init(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Clients, error) {
	if cfg == nil {
		return nil, errors.New("firebase: config cannot be nil")
	}
	opts, err := credentialOptions(cfg, logger)
	if err != nil {
		return nil, err
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	fs, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firestore client: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		fs.Close()
		return nil, fmt.Errorf("error initializing Firebase Auth client: %w", err)
	}

	logger.Info("Firebase initialized", zap.String("projectId", cfg.FirebaseProjectID))
	return &Clients{App: app, Firestore: fs, Auth: authClient}, nil
}

func credentialOptions(cfg *config.Config, logger *zap.Logger) ([]option.ClientOption, error) {
	switch {
	case cfg.GoogleApplicationCredentials != "":
		logger.Info("Initializing Firebase with credentials file", zap.String("path", cfg.GoogleApplicationCredentials))
		return []option.ClientOption{option.WithCredentialsFile(cfg.GoogleApplicationCredentials)}, nil
	case cfg.FirebaseServiceAccountJSONBase64 != "":
		logger.Info("Initializing Firebase with Base64 encoded service account JSON")
		jsonKey, err := base64.StdEncoding.DecodeString(cfg.FirebaseServiceAccountJSONBase64)
		if err != nil {
			return nil, errors.New("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is not a valid base64 string")
		}
		return []option.ClientOption{option.WithCredentialsJSON(jsonKey)}, nil
	default:
		logger.Info("Initializing Firebase using Application Default Credentials")
		return nil, nil
	}
}
