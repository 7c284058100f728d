package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/trustchain-backend/pkg/auth"
	"github.com/angelmondragon/trustchain-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/trustchain-backend/pkg/errors"
	"github.com/angelmondragon/trustchain-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service exposes the product catalogue and the admin review queue.
type Service interface {
	List(ctx context.Context, input ListInput) (pagination.Page[ProductDTO], error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	ListFlagged(ctx context.Context, params pagination.Params) (pagination.Page[FlaggedDTO], error)
}

// ListInput selects a page of the catalogue, optionally for one supplier.
type ListInput struct {
	SupplierID *uuid.UUID
	pagination.Params
}

type service struct {
	repo *Repository
}

func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) List(ctx context.Context, input ListInput) (pagination.Page[ProductDTO], error) {
	cursor, err := pagination.ParseCursor(input.Cursor)
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.List(ctx, ListFilter{SupplierID: input.SupplierID, Limit: input.Limit, Cursor: cursor})
	if err != nil {
		return pagination.Page[ProductDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list products")
	}
	dtos := make([]ProductDTO, len(rows))
	for i := range rows {
		dtos[i] = NewProductDTO(&rows[i])
	}
	return pagination.BuildPage(dtos, input.Limit, func(p ProductDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	}), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	product, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

// Delete lets the owning supplier or an admin remove a product.
func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if !auth.CanAny(actor.Role, auth.ActionDeleteOwnProduct, auth.ActionDeleteAnyProduct) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role cannot delete products")
	}
	product, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !actor.Can(auth.ActionDeleteAnyProduct) && product.SupplierID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "only the owning supplier can delete this product")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete product")
	}
	return nil
}

func (s *service) ListFlagged(ctx context.Context, params pagination.Params) (pagination.Page[FlaggedDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[FlaggedDTO]{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, err := s.repo.ListFlagged(ctx, params.Limit, cursor)
	if err != nil {
		return pagination.Page[FlaggedDTO]{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list flagged products")
	}
	dtos := make([]FlaggedDTO, len(rows))
	for i := range rows {
		dtos[i] = NewFlaggedDTO(&rows[i])
	}
	return pagination.BuildPage(dtos, params.Limit, func(f FlaggedDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: f.CreatedAt, ID: f.ID}
	}), nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load product")
	}
	return product, nil
}
