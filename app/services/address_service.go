package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/souq/app/models"
	"github.com/shashiranjanraj/souq/app/repositories"
	"github.com/shashiranjanraj/souq/pkg/database"
)

type AddressInput struct {
	Label      string
	FullName   string
	Phone      string
	Address    string
	City       string
	PostalCode string
	IsDefault  bool
}

// AddressService manages a user's saved addresses. At most one is the
// default; the flag is moved inside the same unit of work as the write.
type AddressService struct {
	db        *gorm.DB
	addresses *repositories.AddressRepository
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db, addresses: repositories.NewAddressRepository(db)}
}

func (s *AddressService) List(ctx context.Context, userID uint) ([]models.Address, error) {
	return s.addresses.ListForUser(ctx, userID)
}

// Create saves a new address. A user's first address becomes the default.
func (s *AddressService) Create(ctx context.Context, userID uint, in AddressInput) (*models.Address, error) {
	a := &models.Address{UserID: userID}
	fill(a, in)

	err := database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.addresses.WithTx(tx)
		existing, err := repo.ListForUser(ctx, userID)
		if err != nil {
			return err
		}
		if len(existing) == 0 {
			a.IsDefault = true
		}
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		if a.IsDefault {
			return repo.ClearDefault(ctx, userID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *AddressService) Update(ctx context.Context, userID, id uint, in AddressInput) (*models.Address, error) {
	var a *models.Address
	err := database.InTx(ctx, s.db, func(tx *gorm.DB) error {
		repo := s.addresses.WithTx(tx)
		var err error
		if a, err = repo.FindOwned(ctx, id, userID); err != nil {
			return err
		}
		fill(a, in)
		if err := repo.Update(ctx, a); err != nil {
			return err
		}
		if a.IsDefault {
			return repo.ClearDefault(ctx, userID, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, notFound(err, "Address not found")
	}
	return a, nil
}

func (s *AddressService) Delete(ctx context.Context, userID, id uint) error {
	return notFound(s.addresses.Delete(ctx, id, userID), "Address not found")
}

func fill(a *models.Address, in AddressInput) {
	a.Label = strings.TrimSpace(in.Label)
	a.FullName = strings.TrimSpace(in.FullName)
	a.Phone = strings.TrimSpace(in.Phone)
	a.Address = strings.TrimSpace(in.Address)
	a.City = strings.TrimSpace(in.City)
	a.PostalCode = strings.TrimSpace(in.PostalCode)
	a.IsDefault = in.IsDefault
}
