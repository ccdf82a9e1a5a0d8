package services

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DanielPPerez/API-Estancia2/internal/models"
	"github.com/DanielPPerez/API-Estancia2/internal/repository"
	"github.com/DanielPPerez/API-Estancia2/internal/storage"
	"github.com/DanielPPerez/API-Estancia2/internal/testutil"
	"github.com/DanielPPerez/API-Estancia2/internal/types"
	"gorm.io/gorm"
)

type fixture struct {
	db       *gorm.DB
	repos    *repository.Repositories
	resolver *RoleResolver
	store    *storage.LocalStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.New(db, 5*time.Second)
	store, err := storage.NewLocalStore(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Failed to create local store: %v", err)
	}
	return &fixture{
		db:       db,
		repos:    repos,
		resolver: NewRoleResolver(repos.Users, nil),
		store:    store,
	}
}

func num(v float64) types.FlexFloat {
	return types.FlexFloat{Value: v, Present: true, Valid: true}
}

func str(s string) *string { return &s }

func pdf(kind models.DocumentKind, body string) Upload {
	return Upload{
		Kind:        kind,
		Filename:    string(kind) + ".pdf",
		Size:        int64(len(body)),
		ContentType: "application/pdf",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(body)), nil
		},
	}
}

// expectKind fails unless err wraps kind, and checks the message when one is given
func expectKind(t *testing.T, err error, kind error, message string) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("Expected %v, got %v", kind, err)
	}
	if message == "" {
		return
	}
	ce, ok := types.AsCustomError(err)
	if !ok {
		t.Fatalf("Expected a CustomError, got %T", err)
	}
	if ce.Message != message {
		t.Errorf("Expected message %q, got %q", message, ce.Message)
	}
}
