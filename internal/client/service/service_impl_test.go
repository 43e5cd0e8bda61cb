package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/solobill/solobill/internal/client/domain"
	"github.com/solobill/solobill/internal/client/repository"
	"github.com/solobill/solobill/internal/ownerctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&domain.Client{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})
	return svc, db
}

func ownerContext(ownerID snowflake.ID) context.Context {
	return ownerctx.WithOwnerID(context.Background(), ownerID)
}

func TestCreateClient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := ownerContext(100)

	client, err := svc.Create(ctx, domain.CreateClientRequest{
		Name:    "  Acme Corp  ",
		Email:   "billing@acme.test",
		Company: "Acme",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", client.Name)
	assert.Equal(t, snowflake.ID(100), client.OwnerID)
	assert.NotZero(t, client.ID)

	_, err = svc.Create(ctx, domain.CreateClientRequest{Name: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateClientRequest{Name: "X", Email: "not-an-email"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(context.Background(), domain.CreateClientRequest{Name: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidOwner)
}

func TestUpdateClient(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := ownerContext(100)

	created, err := svc.Create(ctx, domain.CreateClientRequest{Name: "Acme"})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, domain.UpdateClientRequest{
		ID:    created.ID.String(),
		Name:  "Acme Ltd",
		Email: "hello@acme.test",
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", updated.Name)
	assert.Equal(t, "hello@acme.test", updated.Email)

	_, err = svc.Update(ctx, domain.UpdateClientRequest{ID: "999", Name: "X"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// A different owner must never see the row.
	_, err = svc.Update(ownerContext(200), domain.UpdateClientRequest{
		ID:   created.ID.String(),
		Name: "Hijack",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetClientByID(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := ownerContext(100)

	created, err := svc.Create(ctx, domain.CreateClientRequest{Name: "Acme"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ownerContext(200), created.ID.String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListClients(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := ownerContext(100)

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, domain.CreateClientRequest{
			Name: fmt.Sprintf("Client %d", i),
		})
		require.NoError(t, err)
	}

	resp, err := svc.List(ctx, domain.ListClientRequest{PageSize: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Clients, 3)
	assert.True(t, resp.HasMore)
	assert.NotEmpty(t, resp.NextPageToken)

	resp, err = svc.List(ctx, domain.ListClientRequest{Name: "Client 2"})
	require.NoError(t, err)
	require.Len(t, resp.Clients, 1)
	assert.Equal(t, "Client 2", resp.Clients[0].Name)

	resp, err = svc.List(ownerContext(200), domain.ListClientRequest{})
	require.NoError(t, err)
	assert.Empty(t, resp.Clients)
}
