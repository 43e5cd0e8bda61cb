package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	clientdomain "github.com/solobill/solobill/internal/client/domain"
	clientrepo "github.com/solobill/solobill/internal/client/repository"
	"github.com/solobill/solobill/internal/clock"
	"github.com/solobill/solobill/internal/ownerctx"
	"github.com/solobill/solobill/internal/proposal/domain"
	"github.com/solobill/solobill/internal/proposal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc    domain.Service
	db     *gorm.DB
	clock  *clock.FakeClock
	client clientdomain.Client
	ctx    context.Context
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&clientdomain.Client{},
		&domain.Proposal{},
		&domain.ProposalItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:         db,
		Log:        zap.NewNop(),
		GenID:      node,
		Clock:      fake,
		Repo:       repository.Provide(),
		ClientRepo: clientrepo.Provide(),
	})

	ctx := ownerctx.WithOwnerID(context.Background(), snowflake.ID(100))
	client := clientdomain.Client{
		ID:      node.Generate(),
		OwnerID: 100,
		Name:    "Acme Corp",
		Email:   "billing@acme.test",
	}
	require.NoError(t, db.Create(&client).Error)

	return &fixture{svc: svc, db: db, clock: fake, client: client, ctx: ctx}
}

func (f *fixture) createProposal(t *testing.T, req domain.CreateProposalRequest) domain.Proposal {
	t.Helper()
	if req.ClientID == "" {
		req.ClientID = f.client.ID.String()
	}
	if req.Title == "" {
		req.Title = "Mobile app build"
	}
	proposal, err := f.svc.Create(f.ctx, req)
	require.NoError(t, err)
	return proposal
}

func TestCreateProposalComputesTotal(t *testing.T) {
	f := newFixture(t)

	proposal := f.createProposal(t, domain.CreateProposalRequest{
		ScopeOfWork: "Design and build the app",
		Items: []domain.LineItemInput{
			{Title: "Discovery", Quantity: 1, Rate: "1000.00"},
			{Title: "Development", Quantity: 40, Rate: "120.00"},
		},
	})

	// No tax on proposals.
	assert.Equal(t, int64(580000), proposal.Total)
	assert.Equal(t, domain.ProposalStatusDraft, proposal.Status)

	detail, err := f.svc.GetByID(f.ctx, proposal.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "Discovery", detail.Items[0].Title)
	assert.Equal(t, int64(100000), detail.Items[0].Amount)
	require.NotNil(t, detail.Client)
}

func TestCreateProposalValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(f.ctx, domain.CreateProposalRequest{
		ClientID: "999", Title: "X",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidClient)

	_, err = f.svc.Create(f.ctx, domain.CreateProposalRequest{
		ClientID: f.client.ID.String(), Title: "",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTitle)

	_, err = f.svc.Create(f.ctx, domain.CreateProposalRequest{
		ClientID: f.client.ID.String(), Title: "X", ValidUntil: "soon",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidValidUntil)

	_, err = f.svc.Create(f.ctx, domain.CreateProposalRequest{
		ClientID: f.client.ID.String(),
		Title:    "X",
		Items:    []domain.LineItemInput{{Title: "", Quantity: 1, Rate: "10.00"}},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidItems)
}

func TestUpdateProposalReplacesItems(t *testing.T) {
	f := newFixture(t)

	proposal := f.createProposal(t, domain.CreateProposalRequest{
		Items: []domain.LineItemInput{
			{Title: "Discovery", Quantity: 1, Rate: "1000.00"},
		},
	})

	updated, err := f.svc.Update(f.ctx, domain.UpdateProposalRequest{
		ID:    proposal.ID.String(),
		Title: "Mobile app build v2",
		Items: []domain.LineItemInput{
			{Title: "Discovery", Quantity: 1, Rate: "1000.00"},
			{Title: "QA", Quantity: 10, Rate: "90.00"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(190000), updated.Total)

	detail, err := f.svc.GetByID(f.ctx, proposal.ID.String())
	require.NoError(t, err)
	require.Len(t, detail.Items, 2)
	assert.Equal(t, "QA", detail.Items[1].Title)
}

func TestProposalLifecycle(t *testing.T) {
	f := newFixture(t)

	proposal := f.createProposal(t, domain.CreateProposalRequest{})

	// Approve requires sent.
	_, err := f.svc.Approve(f.ctx, proposal.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	sent, err := f.svc.MarkSent(f.ctx, proposal.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusSent, sent.Status)

	_, err = f.svc.MarkSent(f.ctx, proposal.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	approved, err := f.svc.Approve(f.ctx, proposal.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusApproved, approved.Status)

	// Decided proposals reject edits and further transitions.
	_, err = f.svc.Reject(f.ctx, proposal.ID.String())
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.svc.Update(f.ctx, domain.UpdateProposalRequest{
		ID:    proposal.ID.String(),
		Title: "Tamper",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestRejectProposal(t *testing.T) {
	f := newFixture(t)

	proposal := f.createProposal(t, domain.CreateProposalRequest{})
	_, err := f.svc.MarkSent(f.ctx, proposal.ID.String())
	require.NoError(t, err)

	rejected, err := f.svc.Reject(f.ctx, proposal.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusRejected, rejected.Status)
}

func TestExpiredIsDerived(t *testing.T) {
	f := newFixture(t)

	proposal := f.createProposal(t, domain.CreateProposalRequest{
		ValidUntil: "2026-03-20",
	})
	_, err := f.svc.MarkSent(f.ctx, proposal.ID.String())
	require.NoError(t, err)

	detail, err := f.svc.GetByID(f.ctx, proposal.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusSent, detail.Proposal.Status)

	f.clock.Advance(30 * 24 * time.Hour)

	detail, err = f.svc.GetByID(f.ctx, proposal.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.ProposalStatusExpired, detail.Proposal.Status)

	// The stored row stays sent; expiry blocks decisions.
	var stored domain.Proposal
	require.NoError(t, f.db.First(&stored, "id = ?", proposal.ID).Error)
	assert.Equal(t, domain.ProposalStatusSent, stored.Status)

	_, err = f.svc.Approve(f.ctx, proposal.ID.String())
	assert.ErrorIs(t, err, domain.ErrProposalExpired)

	resp, err := f.svc.List(f.ctx, domain.ListProposalRequest{Status: "expired"})
	require.NoError(t, err)
	require.Len(t, resp.Proposals, 1)
	assert.Equal(t, domain.ProposalStatusExpired, resp.Proposals[0].Status)
}

func TestListProposalsByStatus(t *testing.T) {
	f := newFixture(t)

	first := f.createProposal(t, domain.CreateProposalRequest{})
	f.createProposal(t, domain.CreateProposalRequest{})

	_, err := f.svc.MarkSent(f.ctx, first.ID.String())
	require.NoError(t, err)

	resp, err := f.svc.List(f.ctx, domain.ListProposalRequest{Status: "draft"})
	require.NoError(t, err)
	assert.Len(t, resp.Proposals, 1)

	resp, err = f.svc.List(f.ctx, domain.ListProposalRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Proposals, 2)

	_, err = f.svc.List(f.ctx, domain.ListProposalRequest{Status: "bogus"})
	assert.Error(t, err)
}
