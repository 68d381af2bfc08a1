package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/shared/models"
	"github.com/bluecodes/game-codes-store/store-service/service"
	"github.com/bluecodes/game-codes-store/store-service/store"
)

type Handler struct {
	auth     *service.AuthService
	catalog  *service.CatalogService
	codes    *service.InventoryService
	checkout *service.CheckoutService
	orders   *service.OrderService
	contact  *service.ContactService
	store    *store.Store
	siteName string
}

// creates a new Handler wiring every storefront service
func New(auth *service.AuthService, catalog *service.CatalogService, codes *service.InventoryService, checkout *service.CheckoutService, orders *service.OrderService, contact *service.ContactService, st *store.Store, siteName string) *Handler {
	return &Handler{
		auth:     auth,
		catalog:  catalog,
		codes:    codes,
		checkout: checkout,
		orders:   orders,
		contact:  contact,
		store:    st,
		siteName: siteName,
	}
}

// Router builds the gin engine with all storefront routes.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	r.GET("/", h.health)
	r.GET("/test", h.dbTest)

	api := r.Group("/api")
	{
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)

		api.GET("/products", h.listProducts)
		api.GET("/products/:id", h.getProduct)

		api.POST("/checkout/init", h.authOptional(), h.checkoutInit)
		api.POST("/checkout/confirm", h.checkoutConfirm)

		api.POST("/contact", h.submitContact)

		api.GET("/orders", h.authRequired(), h.listOrders)

		admin := api.Group("/admin", h.authRequired(), h.adminRequired())
		{
			admin.POST("/products", h.createProduct)
			admin.PATCH("/products/:id", h.updateProduct)
			admin.POST("/codes", h.addCodes)
		}
	}

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "service": "Game Codes Store API", "site": h.siteName})
}

func (h *Handler) dbTest(c *gin.Context) {
	dbOK := h.store.Ping(c.Request.Context()) == nil
	c.JSON(http.StatusOK, gin.H{"ok": true, "db": dbOK})
}

// --- auth ---

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	token, err := h.auth.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// --- catalog ---

type createProductRequest struct {
	Title       string   `json:"title" binding:"required"`
	Game        string   `json:"game" binding:"required"`
	RewardType  string   `json:"reward_type" binding:"required"`
	Description string   `json:"description"`
	Images      []string `json:"images"`
	PriceCents  int64    `json:"price_cents" binding:"min=0"`
	Currency    string   `json:"currency"`
	Active      *bool    `json:"active"`
	Tags        []string `json:"tags"`
}

func (h *Handler) createProduct(c *gin.Context) {
	var req createProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	id, err := h.catalog.CreateProduct(c.Request.Context(), service.CreateProductInput{
		Title:       req.Title,
		Game:        req.Game,
		RewardType:  req.RewardType,
		Description: req.Description,
		Images:      req.Images,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Active:      active,
		Tags:        req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

func (h *Handler) listProducts(c *gin.Context) {
	input := service.ListProductsInput{
		Game:       c.Query("game"),
		RewardType: c.Query("reward_type"),
	}
	if v := c.Query("min_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, apperr.BadRequest("min_price must be an integer"))
			return
		}
		input.MinPrice = &price
	}
	if v := c.Query("max_price"); v != "" {
		price, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			respondError(c, apperr.BadRequest("max_price must be an integer"))
			return
		}
		input.MaxPrice = &price
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) getProduct(c *gin.Context) {
	product, err := h.catalog.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

type updateProductRequest struct {
	Title       *string   `json:"title"`
	Game        *string   `json:"game"`
	RewardType  *string   `json:"reward_type"`
	Description *string   `json:"description"`
	Images      *[]string `json:"images"`
	PriceCents  *int64    `json:"price_cents"`
	Currency    *string   `json:"currency"`
	Active      *bool     `json:"active"`
	Tags        *[]string `json:"tags"`
}

func (h *Handler) updateProduct(c *gin.Context) {
	var req updateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	patch := store.ProductPatch{
		Title:       req.Title,
		Game:        req.Game,
		RewardType:  req.RewardType,
		Description: req.Description,
		Images:      req.Images,
		PriceCents:  req.PriceCents,
		Currency:    req.Currency,
		Active:      req.Active,
		Tags:        req.Tags,
	}

	if err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), patch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// --- codes ---

type addCodesRequest struct {
	ProductID string   `json:"product_id" binding:"required"`
	Codes     []string `json:"codes" binding:"required,min=1,dive,required"`
}

func (h *Handler) addCodes(c *gin.Context) {
	var req addCodesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	result, err := h.codes.AddCodes(c.Request.Context(), req.ProductID, req.Codes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- checkout ---

type cartItemRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,min=1,max=10"`
}

type checkoutInitRequest struct {
	Items []cartItemRequest `json:"items" binding:"required,min=1,dive"`
	Email string            `json:"email" binding:"required,email"`
	Name  string            `json:"name"`
}

func (h *Handler) checkoutInit(c *gin.Context) {
	var req checkoutInitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	items := make([]models.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, models.CartItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	input := service.InitCheckoutInput{
		Items: items,
		Email: req.Email,
		Name:  req.Name,
	}
	if identity := currentIdentity(c); identity != nil {
		input.UserID = identity.UserID
	}

	result, err := h.checkout.InitCheckout(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type checkoutConfirmRequest struct {
	OrderID  string `json:"order_id" binding:"required"`
	Provider string `json:"provider"`
}

func (h *Handler) checkoutConfirm(c *gin.Context) {
	var req checkoutConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	result, err := h.checkout.ConfirmCheckout(c.Request.Context(), req.OrderID, req.Provider)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// --- orders & contact ---

func (h *Handler) listOrders(c *gin.Context) {
	identity := currentIdentity(c)
	orders, err := h.orders.ListOrders(c.Request.Context(), identity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

type contactRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Subject string `json:"subject" binding:"required"`
	Message string `json:"message" binding:"required"`
}

func (h *Handler) submitContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	id, err := h.contact.Submit(c.Request.Context(), req.Email, req.Subject, req.Message)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}

// respondError maps a status-coded error to its response; anything else is
// an internal error and only logged in detail.
func respondError(c *gin.Context, err error) {
	var apiErr *apperr.Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}

	log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}
