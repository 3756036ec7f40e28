package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speeditsch-ui/invoice-frontend/internal/models"
)

func TestSupplierRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewSupplierRepository(db)
	ctx := context.Background()

	globex := models.SupplierByEmail{SupplierName: " Globex ", Email: "billing@globex.example"}
	require.NoError(t, repo.Create(ctx, &globex))
	assert.NotZero(t, globex.ID)
	assert.Equal(t, "Globex", globex.SupplierName)

	acme := models.SupplierByEmail{SupplierName: "ACME", Email: "rechnung@acme.example"}
	require.NoError(t, repo.Create(ctx, &acme))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "ACME", list[0].SupplierName)
	assert.Equal(t, "Globex", list[1].SupplierName)

	require.NoError(t, repo.Delete(ctx, acme.ID))
	assert.ErrorIs(t, repo.Delete(ctx, acme.ID), ErrNotFound)

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, globex.ID, list[0].ID)
}

func TestSupplierRepository_CreateRequiresFields(t *testing.T) {
	repo := NewSupplierRepository(newTestDB(t))

	err := repo.Create(context.Background(), &models.SupplierByEmail{SupplierName: "ACME", Email: "  "})
	assert.ErrorIs(t, err, ErrInvalidValue)

	err = repo.Create(context.Background(), &models.SupplierByEmail{Email: "a@b.example"})
	assert.ErrorIs(t, err, ErrInvalidValue)
}
