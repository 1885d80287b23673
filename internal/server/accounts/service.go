package accounts

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
)

// dummyPassword is hashed once so that logins for unknown identifiers still
// pay for a bcrypt comparison.
const dummyPassword = "gophauth-unknown-account"

// Service implements registration, login and identity resolution.
// Every call opens its own storage session through the Store.
type Service struct {
	store     Store
	hasher    PasswordHasher
	tokens    TokenIssuer
	logger    logging.Logger
	now       func() time.Time
	dummyHash string
}

// NewService constructs a Service. A nil logger discards output.
func NewService(store Store, hasher PasswordHasher, tokens TokenIssuer, logger logging.Logger) *Service {
	if logger == nil {
		logger = logging.Nop()
	}
	s := &Service{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		logger: logger.With("module", "accounts"),
		now:    time.Now,
	}
	h, err := hasher.Hash(dummyPassword)
	if err != nil {
		s.logger.Error(context.Background(), "dummy password hash failed; unknown-account logins will not be timing safe", "error", err)
	} else {
		s.dummyHash = h
	}
	return s
}

// Register validates in and creates a new active, unverified account. The
// uniqueness check and the insert share one transaction; a duplicate
// username or email yields common.ErrorAlreadyExists and leaves the
// directory unchanged.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Account, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *Account
	err := s.store.WithTx(ctx, func(ctx context.Context, dir Directory) error {
		exists, err := dir.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
		if err != nil {
			return fmt.Errorf("error checking account uniqueness: %w", err)
		}
		if exists {
			return common.ErrorAlreadyExists
		}

		account, err := NewAccountFromPlaintext(s.hasher, in.Profile(), in.Password)
		if err != nil {
			return fmt.Errorf("error hashing password: %w", err)
		}

		created, err = dir.Insert(ctx, account)
		if err != nil {
			return fmt.Errorf("error creating account: %w", err)
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorAlreadyExists):
			return nil, common.ErrorAlreadyExists
		case errors.Is(err, common.ErrorValidation):
			return nil, err
		}
		s.logger.Error(ctx, "registration failed", "username", in.Username, "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "account registered", "account_id", created.ID.String(), "username", created.Username)
	return created, nil
}

// Authenticate checks identifier (username or email) and password and
// issues an access token for the account id. Unknown identifiers and wrong
// passwords both yield common.ErrorUnauthorized. A successful login records
// LastLogin.
func (s *Service) Authenticate(ctx context.Context, identifier, password string) (*AuthResult, error) {
	var account *Account
	err := s.store.WithSession(ctx, func(ctx context.Context, dir Directory) error {
		found, err := dir.FindByUsernameOrEmail(ctx, identifier)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				s.hasher.Verify(password, s.dummyHash)
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error looking up account: %w", err)
		}

		if !found.VerifyPassword(s.hasher, password) {
			return common.ErrorUnauthorized
		}

		now := s.now().UTC()
		found.LastLogin = &now
		if err := dir.Update(ctx, found); err != nil {
			return fmt.Errorf("error recording login: %w", err)
		}
		account = found
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Info(ctx, "login rejected")
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "login failed", "error", err)
		return nil, common.ErrorInternal
	}

	token, err := s.tokens.Issue(auth.AccountIDSubject(account.ID))
	if err != nil {
		s.logger.Error(ctx, "token issue failed", "account_id", account.ID.String(), "error", err)
		return nil, common.ErrorInternal
	}

	s.logger.Info(ctx, "login succeeded", "account_id", account.ID.String())
	return &AuthResult{
		AccessToken: token,
		TokenType:   common.TokenTypeBearer,
		Account:     account.View(),
	}, nil
}

// RegisterAndLogin registers an account and immediately logs it in.
func (s *Service) RegisterAndLogin(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if _, err := s.Register(ctx, in); err != nil {
		return nil, err
	}

	res, err := s.Authenticate(ctx, in.Username, in.Password)
	if err != nil {
		s.logger.Error(ctx, "login after registration failed", "username", in.Username, "error", err)
		return nil, common.ErrorInternal
	}
	return res, nil
}

// CurrentAccount resolves token to the account it names, active or not.
// Any token or lookup failure yields common.ErrorUnauthorized.
func (s *Service) CurrentAccount(ctx context.Context, token string) (*Account, error) {
	subject, err := s.tokens.Verify(token)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", err.Error())
		return nil, common.ErrorUnauthorized
	}

	var account *Account
	err = s.store.WithSession(ctx, func(ctx context.Context, dir Directory) error {
		var err error
		switch subject.Kind() {
		case auth.SubjectAccountID:
			id, _ := subject.AccountID()
			account, err = dir.FindByID(ctx, id)
		case auth.SubjectUsername:
			name, _ := subject.Username()
			account, err = dir.FindByUsername(ctx, name)
		default:
			return common.ErrorUnauthorized
		}
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) || errors.Is(err, common.ErrorUnauthorized) {
			s.logger.Debug(ctx, "token subject not found", "subject", subject.String())
			return nil, common.ErrorUnauthorized
		}
		s.logger.Error(ctx, "identity lookup failed", "error", err)
		return nil, common.ErrorInternal
	}
	return account, nil
}

// ResolveIdentity is CurrentAccount restricted to active accounts; an
// inactive one yields common.ErrorInactiveAccount.
func (s *Service) ResolveIdentity(ctx context.Context, token string) (*Account, error) {
	account, err := s.CurrentAccount(ctx, token)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, common.ErrorInactiveAccount
	}
	return account, nil
}
