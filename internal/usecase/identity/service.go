package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"vahire/internal/domain"
	"vahire/internal/domain/account"
	"vahire/internal/pkg/jwt"
	"vahire/internal/repository"
)

const minPasswordLength = 8

type RegisterInput struct {
	Email    string
	Password string
	Role     account.Role
}

type LoginInput struct {
	Email    string
	Password string
}

type Session struct {
	Account account.Account
	Tokens  jwt.Pair
}

type Service struct {
	store    repository.Store
	tokens   jwt.Service
	logger   *zap.Logger
	hashCost int
	now      func() time.Time
}

func NewService(store repository.Store, tokens jwt.Service, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, tokens: tokens, logger: logger, hashCost: bcrypt.DefaultCost, now: time.Now}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	if !in.Role.SelfAssignable() {
		return Session{}, domain.Validation(domain.CodeInvalidInput, "role must be company or va")
	}
	a, err := s.create(ctx, in.Email, in.Password, in.Role)
	if err != nil {
		return Session{}, err
	}
	return s.session(a)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	email := account.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return Session{}, domain.ErrInvalidCredential
	}

	a, err := s.store.Accounts().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Session{}, domain.Unauthorized(domain.CodeInvalidCredential, "invalid email or password")
		}
		return Session{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(in.Password)) != nil {
		return Session{}, domain.Unauthorized(domain.CodeInvalidCredential, "invalid email or password")
	}
	return s.session(a)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (jwt.Pair, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return jwt.Pair{}, domain.Unauthorized(domain.CodeInvalidCredential, "refresh token is required")
	}
	claims, err := s.tokens.ValidateRefreshToken(refreshToken)
	if err != nil {
		return jwt.Pair{}, tokenErr(err)
	}
	a, err := s.store.Accounts().GetByID(ctx, claims.AccountID)
	if err != nil {
		return jwt.Pair{}, err
	}
	pair, err := s.tokens.Issue(a.ID, a.Email)
	if err != nil {
		return jwt.Pair{}, err
	}
	return pair, nil
}

// Resolve turns a bearer credential into the acting account. The token only proves the email; the account row
// decides the role.
func (s *Service) Resolve(ctx context.Context, bearer string) (account.Actor, error) {
	claims, err := s.tokens.ValidateToken(bearer)
	if err != nil {
		return account.Actor{}, tokenErr(err)
	}
	a, err := s.store.Accounts().GetByEmail(ctx, account.NormalizeEmail(claims.Email))
	if err != nil {
		return account.Actor{}, err
	}
	return account.Actor{AccountID: a.ID, Role: a.Role}, nil
}

func (s *Service) GetAccount(ctx context.Context, id uuid.UUID) (account.Account, error) {
	return s.store.Accounts().GetByID(ctx, id)
}

func (s *Service) SetRole(ctx context.Context, actor account.Actor, accountID uuid.UUID, role account.Role) (account.Account, error) {
	if !actor.IsAdmin() {
		return account.Account{}, domain.Forbidden("only admins may change roles")
	}
	if !role.Valid() {
		return account.Account{}, domain.Validation(domain.CodeInvalidInput, "invalid role %q", role)
	}
	if err := s.store.Accounts().UpdateRole(ctx, accountID, role); err != nil {
		return account.Account{}, err
	}
	s.logger.Info("account role changed",
		zap.String("account_id", accountID.String()),
		zap.String("role", string(role)),
		zap.String("by", actor.AccountID.String()),
	)
	return s.store.Accounts().GetByID(ctx, accountID)
}

func (s *Service) MarkEmailVerified(ctx context.Context, actor account.Actor, accountID uuid.UUID) (account.Account, error) {
	if !actor.IsAdmin() {
		return account.Account{}, domain.Forbidden("only admins may verify emails")
	}
	if err := s.store.Accounts().MarkEmailVerified(ctx, accountID); err != nil {
		return account.Account{}, err
	}
	return s.store.Accounts().GetByID(ctx, accountID)
}

// EnsureAdmin creates the admin account unless one already exists for email.
func (s *Service) EnsureAdmin(ctx context.Context, email, password string) error {
	email = account.NormalizeEmail(email)
	if email == "" {
		return nil
	}
	_, err := s.store.Accounts().GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	if _, err := s.create(ctx, email, password, account.RoleAdmin); err != nil {
		if errors.Is(err, &domain.Error{Kind: domain.KindConflict, Code: domain.CodeEmailAlreadyRegistered}) {
			return nil
		}
		return err
	}
	s.logger.Info("admin account created", zap.String("email", email))
	return nil
}

func (s *Service) create(ctx context.Context, rawEmail, password string, role account.Role) (account.Account, error) {
	email := account.NormalizeEmail(rawEmail)
	if !account.ValidEmail(email) {
		return account.Account{}, domain.Validation(domain.CodeInvalidInput, "invalid email")
	}
	if len(password) < minPasswordLength {
		return account.Account{}, domain.Validation(domain.CodeInvalidInput, "password must be at least %d characters", minPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return account.Account{}, err
	}

	now := s.now().UTC()
	a := account.Account{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Accounts().Create(ctx, a); err != nil {
		return account.Account{}, err
	}
	return a, nil
}

func (s *Service) session(a account.Account) (Session, error) {
	pair, err := s.tokens.Issue(a.ID, a.Email)
	if err != nil {
		return Session{}, err
	}
	return Session{Account: a, Tokens: pair}, nil
}

func tokenErr(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return domain.Unauthorized(domain.CodeTokenExpired, "token expired")
	}
	return domain.Unauthorized(domain.CodeInvalidCredential, "invalid token")
}
