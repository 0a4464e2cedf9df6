package gcp

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// credentialsEnv optionally points at a service-account JSON for local work;
// in GCP the ambient default credentials are used instead.
const credentialsEnv = "FIREBASE_CREDENTIALS_FILE"

// NewApp creates a Firebase App instance, using the credentials file when one
// is configured.
func NewApp(ctx context.Context) (*firebase.App, error) {
	if path := os.Getenv(credentialsEnv); path != "" {
		return firebase.NewApp(ctx, nil, option.WithCredentialsFile(path))
	}
	return firebase.NewApp(ctx, nil)
}

// InitFirebaseAuth initializes the Firebase App and returns an Auth client for
// ID token verification.
func InitFirebaseAuth(ctx context.Context) (*firebase.App, *firebaseauth.Client, error) {
	firebaseApp, err := NewApp(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing firebase app [%w]", err)
	}

	fbAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing firebase auth [%w]", err)
	}

	return firebaseApp, fbAuth, nil
}
