package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/audioscribe/internal/common"
	"github.com/dmitrijs2005/audioscribe/internal/logging"
	"github.com/dmitrijs2005/audioscribe/internal/server/models"
	"github.com/dmitrijs2005/audioscribe/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

const passwordHashCost = 10

// hashPassword is a seam for tests.
var hashPassword = func(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(password, passwordHashCost)
}

type RegisterInput struct {
	FirstName string
	LastName  string
	ContactNo string
	Email     string
	Password  string
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		logger:      logger,
	}
}

// Register creates an account. A missing email or password is a validation
// error, a taken email is common.ErrorAlreadyExists. The optional contact
// number is stored without whitespace and must then be ten digits.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer span.End()

	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, common.NewValidationError("Required fields missing")
	}
	if !common.IsEmail(email) {
		return nil, common.NewValidationError("Please enter a valid email address")
	}
	contactNo := common.NormalizeContactNo(in.ContactNo)
	if contactNo != "" && !common.IsContactNo(contactNo) {
		return nil, common.NewValidationError("Contact number must be 10 digits")
	}

	hash, err := hashPassword([]byte(in.Password))
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		ContactNo:    contactNo,
		Email:        email,
		PasswordHash: string(hash),
	}

	user, err = s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	return user, nil
}
