package handlers

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"produkku/internal/middleware"
	"produkku/internal/models"
	"produkku/internal/repositories"
	"produkku/internal/services"
)

// ProductHandler handles HTTP requests for products. All routes require an
// authenticated session; the caller's id scopes every operation.
type ProductHandler struct {
	service  *services.ProductService
	validate *validator.Validate
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(service *services.ProductService) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: validator.New(),
	}
}

// RegisterRoutes registers the product routes with the Fiber app. The
// reorder route is registered before the :id routes so it is not captured
// as a product id.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	products := router.Group("/products")
	products.Get("/", h.HandleList)
	products.Post("/", h.HandleCreate)
	products.Put("/reorder", h.HandleReorder)
	products.Get("/:id", h.HandleGetByID)
	products.Put("/:id", h.HandleUpdate)
	products.Delete("/:id", h.HandleDelete)
}

// HandleList returns one page of the caller's products, filtered and sorted
// according to the query parameters.
func (h *ProductHandler) HandleList(c *fiber.Ctx) error {
	params := services.ListParams{
		Search:       c.Query("search"),
		AmountFilter: c.Query("amountFilter"),
		DateFilter:   c.Query("dateFilter"),
		SortBy:       c.Query("sortBy"),
		SortOrder:    c.Query("sortOrder"),
		Page:         c.QueryInt("page", 1),
		Limit:        c.QueryInt("limit", services.DefaultPageSize),
	}

	products, pagination, err := h.service.List(middleware.CallerID(c), params)
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		return internalError(c)
	}
	if products == nil {
		products = []models.Product{}
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"products":   products,
		"pagination": pagination,
	})
}

// HandleGetByID returns a single product owned by the caller.
func (h *ProductHandler) HandleGetByID(c *fiber.Ctx) error {
	product, err := h.service.Get(middleware.CallerID(c), c.Params("id"))
	if err != nil {
		return productError(c, err, "failed to get product")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
	})
}

// HandleCreate creates a new product at the end of the caller's list.
func (h *ProductHandler) HandleCreate(c *fiber.Ctx) error {
	var req services.CreateProductInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	// Length limits apply to the trimmed values
	req.Name = strings.TrimSpace(req.Name)
	req.Comment = strings.TrimSpace(req.Comment)
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	product, err := h.service.Create(middleware.CallerID(c), req)
	if err != nil {
		log.Error().Err(err).Msg("failed to create product")
		return internalError(c)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"product": product,
		"message": "Product created successfully",
	})
}

// HandleUpdate applies a partial update to a product owned by the caller.
func (h *ProductHandler) HandleUpdate(c *fiber.Ctx) error {
	var req services.UpdateProductInput
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if trimmed == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Product name cannot be empty",
			})
		}
		req.Name = &trimmed
	}
	if err := h.validate.Struct(req); err != nil {
		return validationError(c, err)
	}

	product, err := h.service.Update(middleware.CallerID(c), c.Params("id"), req)
	if err != nil {
		if errors.Is(err, services.ErrEmptyUpdate) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "At least one field (name, amount, comment, or position) must be provided",
			})
		}
		return productError(c, err, "failed to update product")
	}

	return c.JSON(fiber.Map{
		"success": true,
		"product": product,
		"message": "Product updated successfully",
	})
}

// HandleDelete removes a product owned by the caller and returns it together
// with updated aggregate stats for the remaining list.
func (h *ProductHandler) HandleDelete(c *fiber.Ctx) error {
	product, stats, err := h.service.Delete(middleware.CallerID(c), c.Params("id"))
	if err != nil {
		return productError(c, err, "failed to delete product")
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"deletedProduct": product,
		"stats":          stats,
		"message":        "Product deleted successfully and positions reordered",
	})
}

// ReorderRequest represents the request body for a bulk reorder.
type ReorderRequest struct {
	ProductIDs []string `json:"productIds"`
}

// HandleReorder assigns new positions from the caller's desired order and
// returns the full list in that order.
func (h *ProductHandler) HandleReorder(c *fiber.Ctx) error {
	var req ReorderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.ProductIDs == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Product IDs array is required",
		})
	}

	products, err := h.service.Reorder(middleware.CallerID(c), req.ProductIDs)
	if err != nil {
		log.Error().Err(err).Msg("failed to reorder products")
		return internalError(c)
	}
	if products == nil {
		products = []models.Product{}
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"products": products,
		"message":  "Products reordered successfully",
	})
}

// productError maps service errors to API responses: unknown or foreign
// products are reported as 404 without revealing which of the two it was,
// anything else is a generic 500.
func productError(c *fiber.Ctx, err error, logMsg string) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}
	log.Error().Err(err).Msg(logMsg)
	return internalError(c)
}

// validationError reports the first failed validation rule.
func validationError(c *fiber.Ctx, err error) error {
	msg := "Validation failed"
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		e := validationErrors[0]
		msg = fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag())
	}
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
