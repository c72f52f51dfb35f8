package usecase

import (
	"context"
	"encoding/base64"
	"errors"
	"log"
	"sorbo_shop/internal/domain/entities"
	"sorbo_shop/internal/usecase/interfaces"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidProductID    = errors.New("invalid product id")
	ErrInvalidProductInput = errors.New("invalid product input")
	ErrInvalidPicture      = errors.New("invalid product picture")
)

// IProductUseCase exposes catalog operations.
//
// Reads are public; writes are operator-gated at the routing layer. Stock is
// only mutated here through admin edits; the reconciliation engine owns the
// order-driven decrement.
type IProductUseCase interface {
	CreateProduct(ctx context.Context, p entities.Product) (entities.Product, error)
	GetByID(ctx context.Context, id string) (entities.Product, error)
	List(ctx context.Context) ([]entities.Product, error)
	UpdateProduct(ctx context.Context, id string, p entities.Product) (entities.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type ProductUseCase struct {
	repo interfaces.IProductRepository
}

var _ IProductUseCase = (*ProductUseCase)(nil)

func NewProductUseCase(repo interfaces.IProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

func (u *ProductUseCase) CreateProduct(ctx context.Context, p entities.Product) (entities.Product, error) {
	if err := validateProduct(p); err != nil {
		return entities.Product{}, err
	}

	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.Name = strings.TrimSpace(p.Name)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))
	p.CreatedAt = now
	p.UpdatedAt = now

	created, err := u.repo.Create(ctx, p)
	if err != nil {
		log.Printf("[product][usecase] create failed name=%q err=%v", p.Name, err)
		return entities.Product{}, err
	}
	log.Printf("[product][usecase] create success product_id=%s name=%q stock=%d", created.ID, created.Name, created.Stock)
	return created, nil
}

func (u *ProductUseCase) GetByID(ctx context.Context, id string) (entities.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Product{}, ErrInvalidProductID
	}

	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Product{}, err
	}
	if p.ID == "" {
		return entities.Product{}, ErrProductNotFound
	}
	return p, nil
}

func (u *ProductUseCase) List(ctx context.Context) ([]entities.Product, error) {
	return u.repo.List(ctx)
}

func (u *ProductUseCase) UpdateProduct(ctx context.Context, id string, p entities.Product) (entities.Product, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.Product{}, ErrInvalidProductID
	}
	if err := validateProduct(p); err != nil {
		return entities.Product{}, err
	}

	existing, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.Product{}, err
	}
	if existing.ID == "" {
		return entities.Product{}, ErrProductNotFound
	}

	p.ID = existing.ID
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	p.Name = strings.TrimSpace(p.Name)
	p.Currency = strings.ToUpper(strings.TrimSpace(p.Currency))

	updated, err := u.repo.Update(ctx, p)
	if err != nil {
		log.Printf("[product][usecase] update failed product_id=%s err=%v", id, err)
		return entities.Product{}, err
	}
	if updated.ID == "" {
		return entities.Product{}, ErrProductNotFound
	}
	log.Printf("[product][usecase] update success product_id=%s stock=%d", updated.ID, updated.Stock)
	return updated, nil
}

func (u *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidProductID
	}

	existing, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.ID == "" {
		return ErrProductNotFound
	}

	if err := u.repo.Delete(ctx, id); err != nil {
		log.Printf("[product][usecase] delete failed product_id=%s err=%v", id, err)
		return err
	}
	log.Printf("[product][usecase] delete success product_id=%s", id)
	return nil
}

func validateProduct(p entities.Product) error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.Currency) == "" {
		return ErrInvalidProductInput
	}
	if p.Price < 0 || p.Stock < 0 {
		return ErrInvalidProductInput
	}
	return validatePicture(p.Picture)
}

// validatePicture accepts an empty picture or a base64 data URI.
func validatePicture(picture string) error {
	picture = strings.TrimSpace(picture)
	if picture == "" {
		return nil
	}
	if !strings.HasPrefix(picture, "data:image/") {
		return ErrInvalidPicture
	}
	idx := strings.Index(picture, ",")
	if idx < 0 {
		return ErrInvalidPicture
	}
	if _, err := base64.StdEncoding.DecodeString(picture[idx+1:]); err != nil {
		return ErrInvalidPicture
	}
	return nil
}
