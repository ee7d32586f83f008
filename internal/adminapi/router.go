package adminapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/EnCirca/nomulus/internal/model"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase      = errors.New("database dependency required")
	errMissingTokenManager  = errors.New("token manager dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// Dependencies wires the listing API.
type Dependencies struct {
	Database     *gorm.DB
	TokenManager *TokenManager
	Clock        func() time.Time
	Logger       *zap.Logger
}

// NewHTTPHandler builds the admin router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.Database == nil {
		return nil, errMissingDatabase
	}
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		db:     deps.Database,
		tokens: deps.TokenManager,
		clock:  clock,
		logger: logger,
	}

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/registrars/:clientID/resources", handler.handleListResources)

	return router, nil
}

type httpHandler struct {
	db     *gorm.DB
	tokens *TokenManager
	clock  func() time.Time
	logger *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		h.logger.Warn("admin request without bearer token", zap.String("path", c.FullPath()))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidAuthorization.Error()})
		return
	}
	subject, err := h.tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		h.logger.Warn("admin token rejected", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.Set("admin_subject", subject)
	c.Next()
}

type listedResource struct {
	RepoID string `json:"roid"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
}

// handleListResources enumerates live resources sponsored by a registrar,
// optionally narrowed by kind and TLD. A thin query, not a flow.
func (h *httpHandler) handleListResources(c *gin.Context) {
	clientID := c.Param("clientID")
	now := h.clock().UTC().UnixMilli()

	query := h.db.Model(&model.Resource{}).
		Where("sponsor_client_id = ?", clientID).
		Where("created_at_ms <= ? AND (deleted_at_ms = 0 OR deleted_at_ms > ?)", now, now)

	if kind := c.Query("kind"); kind != "" {
		parsed, err := model.NewResourceKind(kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_kind"})
			return
		}
		query = query.Where("kind = ?", parsed)
	}
	if tld := c.Query("tld"); tld != "" {
		query = query.Where("tld = ?", strings.ToLower(tld))
	}

	var rows []model.Resource
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		h.logger.Error("resource listing failed", zap.String("client_id", clientID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query_failed"})
		return
	}

	listed := make([]listedResource, 0, len(rows))
	for _, row := range rows {
		listed = append(listed, listedResource{
			RepoID: row.RepoID,
			Name:   row.Name,
			Kind:   string(row.Kind),
		})
	}
	c.JSON(http.StatusOK, gin.H{"resources": listed})
}
