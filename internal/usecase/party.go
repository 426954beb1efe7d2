package usecase

import (
	"context"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/domain/contract"
	"vahire/internal/domain/profile"
	"vahire/internal/repository"

	"github.com/google/uuid"
)

// Side is the role an actor plays on a contract.
type Side int

const (
	SideNone Side = iota
	SideCompany
	SideVA
	SideAdmin
)

func CompanyOf(ctx context.Context, store repository.Store, actor account.Actor) (profile.CompanyProfile, error) {
	if actor.Role != account.RoleCompany {
		return profile.CompanyProfile{}, domain.Forbidden("only company accounts may do this")
	}
	return store.Profiles().GetCompanyByAccountID(ctx, actor.AccountID)
}

func VAOf(ctx context.Context, store repository.Store, actor account.Actor) (profile.VAProfile, error) {
	if actor.Role != account.RoleVA {
		return profile.VAProfile{}, domain.Forbidden("only virtual assistant accounts may do this")
	}
	return store.Profiles().GetVAByAccountID(ctx, actor.AccountID)
}

// SideOf resolves which party of an engagement between the two profiles the actor is. Admins are SideAdmin;
// strangers get Forbidden.
func SideOf(ctx context.Context, store repository.Store, actor account.Actor, companyProfileID, vaProfileID uuid.UUID) (Side, error) {
	switch actor.Role {
	case account.RoleAdmin:
		return SideAdmin, nil
	case account.RoleCompany:
		cp, err := store.Profiles().GetCompanyByAccountID(ctx, actor.AccountID)
		if err == nil && cp.ID == companyProfileID {
			return SideCompany, nil
		}
	case account.RoleVA:
		vp, err := store.Profiles().GetVAByAccountID(ctx, actor.AccountID)
		if err == nil && vp.ID == vaProfileID {
			return SideVA, nil
		}
	}
	return SideNone, domain.Forbidden("not a party to this engagement")
}

func ContractSide(ctx context.Context, store repository.Store, actor account.Actor, c contract.Contract) (Side, error) {
	return SideOf(ctx, store, actor, c.CompanyProfileID, c.VAProfileID)
}

// PartyAccounts returns the company and VA account ids behind a contract, for notifications.
func PartyAccounts(ctx context.Context, store repository.Store, companyProfileID, vaProfileID uuid.UUID) (company, va uuid.UUID, err error) {
	cp, err := store.Profiles().GetCompanyByID(ctx, companyProfileID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	vp, err := store.Profiles().GetVAByID(ctx, vaProfileID)
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return cp.AccountID, vp.AccountID, nil
}
