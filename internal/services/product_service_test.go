// internal/services/product_service_test.go
package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/partnerlink/partnerlink-backend/internal/cache"
	"github.com/partnerlink/partnerlink-backend/internal/database"
	"github.com/partnerlink/partnerlink-backend/internal/marketplace"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

type ProductServiceTestSuite struct {
	suite.Suite
	env   *env
	ctx   context.Context
	redis *miniredis.Miniredis
}

func (s *ProductServiceTestSuite) SetupTest() {
	s.env = newEnv(s.T())
	s.ctx = context.Background()

	s.redis = miniredis.RunT(s.T())
	client := redis.NewClient(&redis.Options{Addr: s.redis.Addr()})
	s.T().Cleanup(func() { client.Close() })
	s.env.products = NewProductService(s.env.db, cache.NewCatalogCache(client, time.Minute))
}

func (s *ProductServiceTestSuite) createRequest() *CreateProductRequest {
	return &CreateProductRequest{
		Title:            "Acme Mail Relay",
		Description:      "Transactional email delivery with partner margins.",
		Category:         "Email",
		Tags:             []string{"saas", "email"},
		PartnershipTypes: []string{"referral", "integration"},
		CommissionRate:   15,
		Price:            29,
		Publish:          true,
	}
}

func (s *ProductServiceTestSuite) page() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: 20, Sort: "created_at", Order: "desc"}
}

func (s *ProductServiceTestSuite) TestCreateProductIsVendorOnly() {
	product, err := s.env.products.CreateProduct(s.ctx, database.SeedVendorID, s.createRequest())
	s.Require().NoError(err)
	s.Equal("email", product.Category)
	s.Equal(models.ProductStatusActive, product.Status)

	_, err = s.env.products.CreateProduct(s.ctx, database.SeedPartnerID, s.createRequest())
	s.ErrorIs(err, ErrForbidden)

	_, err = s.env.products.CreateProduct(s.ctx, uuid.New(), s.createRequest())
	s.ErrorIs(err, ErrNotFound)

	bad := s.createRequest()
	bad.PartnershipTypes = []string{"franchise"}
	_, err = s.env.products.CreateProduct(s.ctx, database.SeedVendorID, bad)
	s.Require().Error(err)
	s.NotEmpty(utils.GetValidationErrors(err))
}

func (s *ProductServiceTestSuite) TestMarketplaceFiltersAndCounts() {
	result, err := s.env.products.Marketplace(s.ctx, marketplace.Facets{
		PartnershipTypes: []string{"reseller"},
		Tags:             []string{"saas"},
	}, s.page())
	s.Require().NoError(err)

	s.Equal(1, result.Total)
	s.Equal("Acme CRM Cloud", result.Products[0].Title)
	s.Require().NotEmpty(result.Facets.Categories)
	s.Len(result.Facets.Categories, 3)
	s.True(s.redis.Exists("marketplace:catalog:v1"))
}

func (s *ProductServiceTestSuite) TestMarketplacePaginates() {
	result, err := s.env.products.Marketplace(s.ctx, marketplace.Facets{}, utils.PaginationParams{Page: 2, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, result.Total)
	s.Len(result.Products, 1)

	result, err = s.env.products.Marketplace(s.ctx, marketplace.Facets{}, utils.PaginationParams{Page: 5, Limit: 2})
	s.Require().NoError(err)
	s.Empty(result.Products)
}

func (s *ProductServiceTestSuite) TestWritesInvalidateCatalog() {
	_, err := s.env.products.Marketplace(s.ctx, marketplace.Facets{}, s.page())
	s.Require().NoError(err)
	s.True(s.redis.Exists("marketplace:catalog:v1"))

	_, err = s.env.products.CreateProduct(s.ctx, database.SeedVendorID, s.createRequest())
	s.Require().NoError(err)
	s.False(s.redis.Exists("marketplace:catalog:v1"))

	result, err := s.env.products.Marketplace(s.ctx, marketplace.Facets{Query: "mail relay"}, s.page())
	s.Require().NoError(err)
	s.Equal(1, result.Total)
}

func (s *ProductServiceTestSuite) TestUpdateAndOwnership() {
	product := s.env.product(s.T(), "Acme Field Kit")
	rate := 18.0

	updated, err := s.env.products.UpdateProduct(s.ctx, product.ID, database.SeedVendorID, &UpdateProductRequest{
		CommissionRate: &rate,
		Tags:           []string{"hardware"},
		Status:         models.ProductStatusArchived,
	})
	s.Require().NoError(err)
	s.Equal(18.0, updated.CommissionRate)
	s.Equal(models.StringArray{"hardware"}, updated.Tags)
	s.Equal(models.ProductStatusArchived, updated.Status)

	_, err = s.env.products.UpdateProduct(s.ctx, product.ID, database.SeedPartnerID, &UpdateProductRequest{Title: "Mine now"})
	s.ErrorIs(err, ErrForbidden)

	_, err = s.env.products.FindActive(s.ctx, product.ID)
	s.ErrorIs(err, ErrInvalidState)
}

func (s *ProductServiceTestSuite) TestGetProductHidesDraftsFromOthers() {
	req := s.createRequest()
	req.Publish = false
	draft, err := s.env.products.CreateProduct(s.ctx, database.SeedVendorID, req)
	s.Require().NoError(err)

	partner := database.SeedPartnerID
	_, err = s.env.products.GetProduct(s.ctx, draft.ID, &partner, false)
	s.ErrorIs(err, ErrNotFound)

	vendor := database.SeedVendorID
	got, err := s.env.products.GetProduct(s.ctx, draft.ID, &vendor, false)
	s.Require().NoError(err)
	s.Equal(draft.ID, got.ID)

	_, err = s.env.products.GetProduct(s.ctx, draft.ID, nil, true)
	s.NoError(err)
}

func (s *ProductServiceTestSuite) TestGetProductCountsViews() {
	product := s.env.product(s.T(), "Acme CRM Cloud")
	partner := database.SeedPartnerID
	vendor := database.SeedVendorID

	for i := 0; i < 2; i++ {
		_, err := s.env.products.GetProduct(s.ctx, product.ID, &partner, false)
		s.Require().NoError(err)
	}
	_, err := s.env.products.GetProduct(s.ctx, product.ID, &vendor, false)
	s.Require().NoError(err)

	s.Equal(int64(2), s.env.product(s.T(), "Acme CRM Cloud").ViewCount)
}

func (s *ProductServiceTestSuite) TestSearchProducts() {
	vendor := database.SeedVendorID
	products, total, err := s.env.products.SearchProducts(s.ctx, ProductSearchParams{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10, Sort: "price", Order: "asc", Search: "acme"},
		VendorID:         &vendor,
		PartnershipType:  "reseller",
	})
	s.Require().NoError(err)
	s.EqualValues(2, total)
	s.Equal("Acme CRM Cloud", products[0].Title)
	s.NotNil(products[0].Vendor)

	min := 100.0
	_, total, err = s.env.products.SearchProducts(s.ctx, ProductSearchParams{
		PaginationParams: s.page(),
		PriceMin:         &min,
	})
	s.Require().NoError(err)
	s.EqualValues(2, total)
}

func (s *ProductServiceTestSuite) TestDeleteBlockedByActivePartnership() {
	product := s.env.product(s.T(), "Acme CRM Cloud")
	appID := s.env.submitApplication(s.T(), product.ID, "reseller")
	_, _, err := s.env.applications.Approve(s.ctx, appID, vendorReviewer(), &ApproveApplicationRequest{})
	s.Require().NoError(err)

	err = s.env.products.DeleteProduct(s.ctx, product.ID, database.SeedVendorID)
	s.ErrorIs(err, ErrConflict)

	other := s.env.product(s.T(), "Acme Field Kit")
	s.Require().NoError(s.env.products.DeleteProduct(s.ctx, other.ID, database.SeedVendorID))
	_, err = s.env.products.FindActive(s.ctx, other.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *ProductServiceTestSuite) TestAddMediaIsIdempotent() {
	product := s.env.product(s.T(), "Acme CRM Cloud")

	for i := 0; i < 2; i++ {
		updated, err := s.env.products.AddMedia(s.ctx, product.ID, database.SeedVendorID, MediaImage, "/uploads/products/images/a.png")
		s.Require().NoError(err)
		s.Equal(models.StringArray{"/uploads/products/images/a.png"}, updated.Images)
	}

	updated, err := s.env.products.AddMedia(s.ctx, product.ID, database.SeedVendorID, MediaVideo, "/uploads/products/videos/b.mp4")
	s.Require().NoError(err)
	s.Equal(models.StringArray{"/uploads/products/videos/b.mp4"}, updated.Videos)
}

func TestProductServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ProductServiceTestSuite))
}
