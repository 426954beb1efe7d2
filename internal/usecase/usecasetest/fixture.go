// Package usecasetest builds engagement fixtures directly on a repository.Store for usecase tests.
package usecasetest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/posting"
	"vahire/internal/domain/profile"
	"vahire/internal/domain/proposal"
	"vahire/internal/repository"
)

type Company struct {
	Actor   account.Actor
	Profile profile.CompanyProfile
}

type VA struct {
	Actor   account.Actor
	Profile profile.VAProfile
}

type Engagement struct {
	Company  Company
	VA       VA
	Posting  posting.Posting
	Proposal proposal.Proposal
	Contract contract.Contract
	Job      contract.Job
}

func Admin() account.Actor {
	return account.Actor{AccountID: uuid.New(), Role: account.RoleAdmin}
}

func newAccount(t testing.TB, store repository.Store, role account.Role) account.Account {
	t.Helper()
	now := time.Now().UTC()
	a := account.Account{
		ID:              uuid.New(),
		Email:           uuid.NewString() + "@example.com",
		PasswordHash:    "x",
		Role:            role,
		ProfileComplete: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := store.Accounts().Create(context.Background(), a); err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func NewCompany(t testing.TB, store repository.Store) Company {
	t.Helper()
	a := newAccount(t, store, account.RoleCompany)
	p := profile.CompanyProfile{ID: uuid.New(), AccountID: a.ID, Name: "Acme", CreatedAt: a.CreatedAt, UpdatedAt: a.CreatedAt}
	if err := store.Profiles().CreateCompany(context.Background(), p); err != nil {
		t.Fatalf("create company: %v", err)
	}
	return Company{Actor: account.Actor{AccountID: a.ID, Role: a.Role}, Profile: p}
}

func NewVA(t testing.TB, store repository.Store) VA {
	t.Helper()
	a := newAccount(t, store, account.RoleVA)
	p := profile.VAProfile{
		ID:         uuid.New(),
		AccountID:  a.ID,
		Headline:   "Executive assistant",
		HourlyRate: decimal.NewFromInt(20),
		Skills:     []string{"email management"},
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.CreatedAt,
	}
	if err := store.Profiles().CreateVA(context.Background(), p); err != nil {
		t.Fatalf("create va: %v", err)
	}
	return VA{Actor: account.Actor{AccountID: a.ID, Role: a.Role}, Profile: p}
}

func NewPosting(t testing.TB, store repository.Store, company Company, budget int64) posting.Posting {
	t.Helper()
	now := time.Now().UTC()
	p := posting.Posting{
		ID:               uuid.New(),
		CompanyProfileID: company.Profile.ID,
		Title:            "Inbox triage",
		Description:      "Daily inbox zero",
		Budget:           decimal.NewFromInt(budget),
		Status:           posting.StatusOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := store.Postings().Create(context.Background(), p); err != nil {
		t.Fatalf("create posting: %v", err)
	}
	return p
}

// NewEngagement stores an accepted fixed bid of amount with its active contract and job.
func NewEngagement(t testing.TB, store repository.Store, amount int64) Engagement {
	t.Helper()
	return Engage(t, store, NewVA(t, store), amount)
}

// Engage is NewEngagement for an existing VA and a fresh company.
func Engage(t testing.TB, store repository.Store, va VA, amount int64) Engagement {
	t.Helper()
	ctx := context.Background()
	e := Engagement{Company: NewCompany(t, store), VA: va}
	e.Posting = NewPosting(t, store, e.Company, amount)

	now := time.Now().UTC()
	e.Proposal = proposal.Proposal{
		ID:           uuid.New(),
		JobPostingID: e.Posting.ID,
		VAProfileID:  e.VA.Profile.ID,
		BidType:      proposal.BidFixed,
		BidAmount:    decimal.NewFromInt(amount),
		Status:       proposal.StatusAccepted,
		RespondedAt:  &now,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Proposals().Create(ctx, e.Proposal); err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	if err := store.Postings().IncrementProposalCount(ctx, e.Posting.ID); err != nil {
		t.Fatalf("count proposal: %v", err)
	}
	e.Posting.ProposalCount++

	c, err := contract.New(e.Proposal, e.Posting, "USD", now)
	if err != nil {
		t.Fatalf("new contract: %v", err)
	}
	if err := store.Contracts().Create(ctx, c); err != nil {
		t.Fatalf("create contract: %v", err)
	}
	e.Contract = c

	e.Job = contract.NewJob(c, e.Posting, now)
	if err := store.Jobs().Create(ctx, e.Job); err != nil {
		t.Fatalf("create job: %v", err)
	}
	return e
}
