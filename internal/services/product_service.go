// internal/services/product_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/partnerlink/partnerlink-backend/internal/cache"
	"github.com/partnerlink/partnerlink-backend/internal/marketplace"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

type ProductService struct {
	db      *gorm.DB
	catalog *cache.CatalogCache
	log     logrus.FieldLogger
}

type CreateProductRequest struct {
	Title            string   `json:"title" validate:"required,min=3,max=255"`
	Description      string   `json:"description" validate:"required,min=10"`
	Category         string   `json:"category" validate:"required,max=100"`
	Tags             []string `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
	PartnershipTypes []string `json:"partnership_types" validate:"required,min=1,dive,partnership_type"`
	CommissionRate   float64  `json:"commission_rate" validate:"min=0,max=100"`
	Price            float64  `json:"price" validate:"min=0"`
	Images           []string `json:"images,omitempty" validate:"omitempty,dive,url"`
	Videos           []string `json:"videos,omitempty" validate:"omitempty,dive,url"`
	Requirements     string   `json:"requirements,omitempty"`
	Publish          bool     `json:"publish,omitempty"`
}

type UpdateProductRequest struct {
	Title            string               `json:"title,omitempty" validate:"omitempty,min=3,max=255"`
	Description      string               `json:"description,omitempty" validate:"omitempty,min=10"`
	Category         string               `json:"category,omitempty" validate:"omitempty,max=100"`
	Tags             []string             `json:"tags,omitempty" validate:"omitempty,dive,min=1,max=50"`
	PartnershipTypes []string             `json:"partnership_types,omitempty" validate:"omitempty,min=1,dive,partnership_type"`
	CommissionRate   *float64             `json:"commission_rate,omitempty" validate:"omitempty,min=0,max=100"`
	Price            *float64             `json:"price,omitempty" validate:"omitempty,min=0"`
	Images           []string             `json:"images,omitempty" validate:"omitempty,dive,url"`
	Videos           []string             `json:"videos,omitempty" validate:"omitempty,dive,url"`
	Requirements     *string              `json:"requirements,omitempty"`
	Status           models.ProductStatus `json:"status,omitempty" validate:"omitempty,oneof=draft active archived"`
}

type ProductSearchParams struct {
	utils.PaginationParams
	VendorID        *uuid.UUID            `json:"vendor_id,omitempty"`
	Status          *models.ProductStatus `json:"status,omitempty"`
	PartnershipType string                `json:"partnership_type,omitempty"`
	PriceMin        *float64              `json:"price_min,omitempty"`
	PriceMax        *float64              `json:"price_max,omitempty"`
}

// MarketplaceResult is one page of the faceted marketplace view. Facet
// counts are computed over the whole active catalog.
type MarketplaceResult struct {
	Products []models.Product        `json:"products"`
	Total    int                     `json:"total"`
	Facets   marketplace.FacetCounts `json:"facets"`
}

func NewProductService(db *gorm.DB, catalog *cache.CatalogCache) *ProductService {
	return &ProductService{
		db:      db,
		catalog: catalog,
		log:     logrus.WithField("component", "products"),
	}
}

func (s *ProductService) CreateProduct(ctx context.Context, vendorID uuid.UUID, req *CreateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	var vendor models.Account
	if err := s.db.WithContext(ctx).First(&vendor, "id = ?", vendorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("vendor account %s: %w", vendorID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	if !vendor.IsVendor() {
		return nil, fmt.Errorf("only vendors can list products: %w", ErrForbidden)
	}
	if vendor.Status != models.AccountStatusActive {
		return nil, fmt.Errorf("vendor account is not active: %w", ErrForbidden)
	}

	status := models.ProductStatusDraft
	if req.Publish {
		status = models.ProductStatusActive
	}

	product := &models.Product{
		VendorID:         vendorID,
		Title:            strings.TrimSpace(req.Title),
		Description:      req.Description,
		Category:         strings.ToLower(strings.TrimSpace(req.Category)),
		Tags:             models.StringArray(req.Tags),
		PartnershipTypes: models.StringArray(req.PartnershipTypes),
		CommissionRate:   req.CommissionRate,
		Price:            req.Price,
		Images:           models.StringArray(req.Images),
		Videos:           models.StringArray(req.Videos),
		Requirements:     req.Requirements,
		Status:           status,
	}

	if err := s.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	if status == models.ProductStatusActive {
		s.catalog.Invalidate(ctx)
	}
	return product, nil
}

// GetProduct returns a product. Products that are not active are only
// visible to their vendor and admins.
func (s *ProductService) GetProduct(ctx context.Context, id uuid.UUID, viewerID *uuid.UUID, isAdmin bool) (*models.Product, error) {
	product, err := s.find(ctx, s.db.WithContext(ctx).Preload("Vendor"), id)
	if err != nil {
		return nil, err
	}

	isOwner := viewerID != nil && *viewerID == product.VendorID
	if product.Status != models.ProductStatusActive && !isOwner && !isAdmin {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}

	if !isOwner {
		if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", id).
			UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error; err != nil {
			s.log.WithError(err).WithField("product_id", id).Warn("Failed to increment view count")
		}
	}

	return product, nil
}

// FindActive returns a product partners can apply to.
func (s *ProductService) FindActive(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	product, err := s.find(ctx, s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if product.Status != models.ProductStatusActive {
		return nil, fmt.Errorf("product %s is %s: %w", id, product.Status, ErrInvalidState)
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, id, vendorID uuid.UUID, req *UpdateProductRequest) (*models.Product, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	product, err := s.owned(ctx, id, vendorID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if req.Title != "" {
		updates["title"] = strings.TrimSpace(req.Title)
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.Category != "" {
		updates["category"] = strings.ToLower(strings.TrimSpace(req.Category))
	}
	if req.Tags != nil {
		updates["tags"] = models.StringArray(req.Tags)
	}
	if req.PartnershipTypes != nil {
		updates["partnership_types"] = models.StringArray(req.PartnershipTypes)
	}
	if req.CommissionRate != nil {
		updates["commission_rate"] = *req.CommissionRate
	}
	if req.Price != nil {
		updates["price"] = *req.Price
	}
	if req.Images != nil {
		updates["images"] = models.StringArray(req.Images)
	}
	if req.Videos != nil {
		updates["videos"] = models.StringArray(req.Videos)
	}
	if req.Requirements != nil {
		updates["requirements"] = *req.Requirements
	}
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := s.db.WithContext(ctx).Model(product).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}
	s.catalog.Invalidate(ctx)

	return s.find(ctx, s.db.WithContext(ctx), id)
}

// DeleteProduct soft-deletes a product that has no active partnerships.
func (s *ProductService) DeleteProduct(ctx context.Context, id, vendorID uuid.UUID) error {
	product, err := s.owned(ctx, id, vendorID)
	if err != nil {
		return err
	}

	var active int64
	if err := s.db.WithContext(ctx).Model(&models.Partnership{}).
		Where("product_id = ? AND status = ?", id, models.PartnershipStatusActive).
		Count(&active).Error; err != nil {
		return fmt.Errorf("failed to check partnerships: %w", err)
	}
	if active > 0 {
		return fmt.Errorf("product has %d active partnerships: %w", active, ErrConflict)
	}

	if err := s.db.WithContext(ctx).Delete(product).Error; err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	s.catalog.Invalidate(ctx)
	return nil
}

// AddMedia appends an uploaded image or video URL to a product.
func (s *ProductService) AddMedia(ctx context.Context, id, vendorID uuid.UUID, kind, url string) (*models.Product, error) {
	product, err := s.owned(ctx, id, vendorID)
	if err != nil {
		return nil, err
	}

	column, list := "images", product.Images
	if kind == MediaVideo {
		column, list = "videos", product.Videos
	}
	if contains(list, url) {
		return product, nil
	}
	list = append(append(models.StringArray{}, list...), url)

	if err := s.db.WithContext(ctx).Model(product).Update(column, list).Error; err != nil {
		return nil, fmt.Errorf("failed to attach media: %w", err)
	}
	if product.Status == models.ProductStatusActive {
		s.catalog.Invalidate(ctx)
	}
	return s.find(ctx, s.db.WithContext(ctx), id)
}

func (s *ProductService) SearchProducts(ctx context.Context, params ProductSearchParams) ([]models.Product, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Product{})

	if params.VendorID != nil {
		query = query.Where("vendor_id = ?", *params.VendorID)
	}

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	} else {
		query = query.Where("status = ?", models.ProductStatusActive)
	}

	if params.Category != "" {
		query = query.Where("category = ?", strings.ToLower(params.Category))
	}

	if params.Search != "" {
		searchTerm := "%" + strings.ToLower(params.Search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", searchTerm, searchTerm)
	}

	if params.PartnershipType != "" {
		// Array literal membership works on text[] and on the encoded text
		// column used by other dialects.
		query = query.Where("partnership_types LIKE ?", "%"+params.PartnershipType+"%")
	}

	if params.PriceMin != nil {
		query = query.Where("price >= ?", *params.PriceMin)
	}

	if params.PriceMax != nil {
		query = query.Where("price <= ?", *params.PriceMax)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	allowedSortFields := []string{"created_at", "updated_at", "title", "price", "commission_rate", "view_count", "application_count"}
	query = utils.ApplySort(query, params.PaginationParams, allowedSortFields)
	query = utils.ApplyPagination(query, params.PaginationParams)

	var products []models.Product
	if err := query.Preload("Vendor").Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch products: %w", err)
	}

	return products, total, nil
}

// Marketplace filters the cached active catalog by facets.
func (s *ProductService) Marketplace(ctx context.Context, facets marketplace.Facets, params utils.PaginationParams) (*MarketplaceResult, error) {
	catalog, err := s.catalog.Get(ctx, s.loadCatalog)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}

	matched := marketplace.Filter(catalog, facets)
	result := &MarketplaceResult{
		Total:  len(matched),
		Facets: marketplace.Counts(catalog),
	}

	start := (params.Page - 1) * params.Limit
	if start < 0 || params.Limit <= 0 {
		start = 0
	}
	end := len(matched)
	if params.Limit > 0 && start+params.Limit < end {
		end = start + params.Limit
	}
	if start < len(matched) {
		result.Products = matched[start:end]
	} else {
		result.Products = []models.Product{}
	}
	return result, nil
}

func (s *ProductService) loadCatalog(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := s.db.WithContext(ctx).
		Where("status = ?", models.ProductStatusActive).
		Order("created_at desc").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load active products: %w", err)
	}
	return products, nil
}

func (s *ProductService) find(ctx context.Context, query *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := query.First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &product, nil
}

func (s *ProductService) owned(ctx context.Context, id, vendorID uuid.UUID) (*models.Product, error) {
	product, err := s.find(ctx, s.db.WithContext(ctx), id)
	if err != nil {
		return nil, err
	}
	if product.VendorID != vendorID {
		return nil, fmt.Errorf("product %s belongs to another vendor: %w", id, ErrForbidden)
	}
	return product, nil
}
