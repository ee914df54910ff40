// internal/handlers/product.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/partnerlink/partnerlink-backend/internal/i18n"
	"github.com/partnerlink/partnerlink-backend/internal/marketplace"
	"github.com/partnerlink/partnerlink-backend/internal/models"
	"github.com/partnerlink/partnerlink-backend/internal/services"
	"github.com/partnerlink/partnerlink-backend/internal/utils"
)

// maxMediaFiles caps the files accepted by one upload request.
const maxMediaFiles = 10

type ProductHandler struct {
	productService *services.ProductService
	storageService *services.StorageService
}

func NewProductHandler(productService *services.ProductService, storageService *services.StorageService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		storageService: storageService,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.ProductSearchParams{
		PaginationParams: params,
		PartnershipType:  c.Query("partnership_type"),
	}

	if status := c.Query("status"); status != "" {
		productStatus := models.ProductStatus(status)
		searchParams.Status = &productStatus
	}

	if vendorIDStr := c.Query("vendor_id"); vendorIDStr != "" {
		if vendorID, err := uuid.Parse(vendorIDStr); err == nil {
			searchParams.VendorID = &vendorID
		}
	}

	if priceMinStr := c.Query("price_min"); priceMinStr != "" {
		if priceMin, err := strconv.ParseFloat(priceMinStr, 64); err == nil {
			searchParams.PriceMin = &priceMin
		}
	}

	if priceMaxStr := c.Query("price_max"); priceMaxStr != "" {
		if priceMax, err := strconv.ParseFloat(priceMaxStr, 64); err == nil {
			searchParams.PriceMax = &priceMax
		}
	}

	// Only vendors browsing their own listings see non-active products.
	if searchParams.Status != nil && *searchParams.Status != models.ProductStatusActive {
		accountID, _ := utils.GetUserIDFromContext(c)
		if !isAdmin(c) && (searchParams.VendorID == nil || searchParams.VendorID.String() != accountID) {
			active := models.ProductStatusActive
			searchParams.Status = &active
		}
	}

	products, total, err := h.productService.SearchProducts(c.Request.Context(), searchParams)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.PaginatedResponse(c, utils.CreatePaginationResult(products, total, params))
}

// GET /marketplace
func (h *ProductHandler) GetMarketplace(c *gin.Context) {
	var facets marketplace.Facets
	if err := c.ShouldBindQuery(&facets); err != nil {
		utils.BadRequestResponse(c, "", err.Error())
		return
	}
	params := utils.GetPaginationParams(c)

	result, err := h.productService.Marketplace(c.Request.Context(), facets, params)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.PaginatedResponse(c, utils.PaginationResult{
		Page:       params.Page,
		Limit:      params.Limit,
		Total:      int64(result.Total),
		TotalPages: params.PageCount(int64(result.Total)),
		Data: gin.H{
			"products": result.Products,
			"facets":   result.Facets,
		},
	})
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentAccount(c)
	if !ok {
		return
	}

	var req services.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), vendorID, &req)
	if err != nil {
		respondError(c, err, "account")
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductCreated),
		"product": product,
	})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var viewerID *uuid.UUID
	if userIDStr, exists := utils.GetUserIDFromContext(c); exists {
		if uid, err := uuid.Parse(userIDStr); err == nil {
			viewerID = &uid
		}
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id, viewerID, isAdmin(c))
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"product": product,
	})
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, vendorID, &req)
	if err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductUpdated),
		"product": product,
	})
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentAccount(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id, vendorID); err != nil {
		respondError(c, err, "product")
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyProductDeleted),
	})
}

// POST /products/upload-media
//
// Multipart form: product_id, kind (image or video) and one or more
// "files". Every stored file is attached to the product.
func (h *ProductHandler) UploadProductMedia(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	vendorID, ok := currentAccount(c)
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
		return
	}

	productID, err := uuid.Parse(c.PostForm("product_id"))
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "product_id"), nil)
		return
	}
	kind := c.DefaultPostForm("kind", services.MediaImage)
	if _, err := h.storageService.GetUploadOptions(kind); err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), err.Error())
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "files"), nil)
		return
	}
	if len(files) > maxMediaFiles {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileTooMany, maxMediaFiles), nil)
		return
	}

	// Ownership is checked before anything is stored.
	product, err := h.productService.GetProduct(c.Request.Context(), productID, &vendorID, false)
	if err != nil {
		respondError(c, err, "product")
		return
	}
	if product.VendorID != vendorID {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthForbidden))
		return
	}

	var uploads []*services.UploadResult
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileUploadFailed), err.Error())
			return
		}

		result, err := h.storageService.UploadProductMedia(c.Request.Context(), productID.String(), kind, file, header)
		file.Close()
		if err != nil {
			if errors.Is(err, services.ErrInvalidInput) {
				utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyFileInvalidType), err.Error())
				return
			}
			respondError(c, err, "product")
			return
		}

		if product, err = h.productService.AddMedia(c.Request.Context(), productID, vendorID, kind, result.URL); err != nil {
			respondError(c, err, "product")
			return
		}
		uploads = append(uploads, result)
	}

	utils.CreatedResponse(c, gin.H{
		"uploads": uploads,
		"product": product,
	})
}
