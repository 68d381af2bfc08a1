package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/bluecodes/game-codes-store/shared/apperr"
	"github.com/bluecodes/game-codes-store/stats-service/service"
	"github.com/bluecodes/game-codes-store/stats-service/store"
)

type Handler struct {
	osrs      *service.OSRSService
	ffxiv     *service.FFXIVService
	favorites *service.FavoritesService
	store     *store.Store
}

// creates a new Handler wiring the stats helper services
func New(osrs *service.OSRSService, ffxiv *service.FFXIVService, favorites *service.FavoritesService, st *store.Store) *Handler {
	return &Handler{osrs: osrs, ffxiv: ffxiv, favorites: favorites, store: st}
}

// Router builds the gin engine with all stats helper routes.
func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), corsMiddleware())

	r.GET("/", h.health)
	r.GET("/test", h.dbTest)

	api := r.Group("/api")
	{
		api.POST("/osrs/stats", h.osrsStats)
		api.POST("/ffxiv/character", h.ffxivCharacter)
		api.POST("/favorites", h.addFavorite)
		api.GET("/favorites", h.listFavorites)
	}

	return r
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "MMORPG Helper API is running"})
}

func (h *Handler) dbTest(c *gin.Context) {
	resp := gin.H{"ok": true, "db": false, "collections": []string{}}

	if err := h.store.Ping(c.Request.Context()); err == nil {
		resp["db"] = true
		if names, err := h.store.CollectionNames(c.Request.Context(), 10); err == nil {
			resp["collections"] = names
		}
	}
	c.JSON(http.StatusOK, resp)
}

type osrsStatsRequest struct {
	Username string `json:"username" binding:"required"`
}

func (h *Handler) osrsStats(c *gin.Context) {
	var req osrsStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Username required"))
		return
	}

	stats, err := h.osrs.FetchStats(c.Request.Context(), req.Username)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type ffxivCharacterRequest struct {
	Name  string `json:"name" binding:"required"`
	World string `json:"world"`
}

func (h *Handler) ffxivCharacter(c *gin.Context) {
	var req ffxivCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Name required"))
		return
	}

	result, err := h.ffxiv.SearchCharacter(c.Request.Context(), req.Name, req.World)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type addFavoriteRequest struct {
	Game       string                 `json:"game" binding:"required"`
	Label      string                 `json:"label" binding:"required"`
	Identifier string                 `json:"identifier" binding:"required"`
	Payload    map[string]interface{} `json:"payload" binding:"required"`
}

func (h *Handler) addFavorite(c *gin.Context) {
	var req addFavoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperr.BadRequest("Invalid request body"))
		return
	}

	id, err := h.favorites.AddFavorite(c.Request.Context(), service.AddFavoriteInput{
		Game:       req.Game,
		Label:      req.Label,
		Identifier: req.Identifier,
		Payload:    req.Payload,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "id": id})
}

func (h *Handler) listFavorites(c *gin.Context) {
	limit := int64(0)
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil || parsed < 0 {
			respondError(c, apperr.BadRequest("limit must be a non-negative integer"))
			return
		}
		limit = parsed
	}

	favorites, err := h.favorites.ListFavorites(c.Request.Context(), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "items": favorites})
}

func respondError(c *gin.Context, err error) {
	var apiErr *apperr.Error
	if errors.As(err, &apiErr) {
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message})
		return
	}

	log.WithError(err).WithField("path", c.Request.URL.Path).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
