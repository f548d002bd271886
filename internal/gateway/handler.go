package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"estateflow_backend/platform/httpkit"
	"estateflow_backend/platform/logger"
	"estateflow_backend/platform/validator"
)

type Handler struct {
	repo *Repository
	val  *validator.Validator
	log  *logger.Logger
}

func NewHandler(repo *Repository, val *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{repo: repo, val: val, log: log}
}

type createKeyRequest struct {
	Name        string   `json:"name" validate:"required,min=1,max=100"`
	Permissions []string `json:"permissions" validate:"required,min=1,dive,oneof=score_single score_batch webhook"`
}

type keyResponse struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	KeyPrefix   string     `json:"key_prefix"`
	Permissions []string   `json:"permissions"`
	IsActive    bool       `json:"is_active"`
	CreatedAt   time.Time  `json:"created_at"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty"`
}

func toKeyResponse(key APIKey) keyResponse {
	return keyResponse{
		ID:          key.ID,
		Name:        key.Name,
		KeyPrefix:   key.KeyPrefix,
		Permissions: key.Permissions,
		IsActive:    key.IsActive,
		CreatedAt:   key.CreatedAt,
		LastUsedAt:  key.LastUsedAt,
	}
}

// CreateKey mints a new API key. The plaintext secret appears in this
// response and nowhere else, ever.
func (h *Handler) CreateKey(c *gin.Context) {
	var req createKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	companyID, ok := adminCompany(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "key management requires a tenant-scoped token", nil)
		return
	}

	plaintext, hash, prefix, err := GenerateAPIKey()
	if err != nil {
		httpkit.Error(c, http.StatusInternalServerError, "key generation failed", nil)
		return
	}

	key, err := h.repo.Create(c.Request.Context(), companyID, req.Name, hash, prefix, req.Permissions)
	if err != nil {
		h.log.DatabaseError("create_api_key", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not create key", nil)
		return
	}

	h.log.AuthEvent("api_key_created", prefix, true, "")
	httpkit.JSON(c, http.StatusCreated, gin.H{
		"key":     plaintext,
		"details": toKeyResponse(key),
	})
}

func (h *Handler) ListKeys(c *gin.Context) {
	companyID, ok := adminCompany(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "key management requires a tenant-scoped token", nil)
		return
	}

	keys, err := h.repo.ListByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.log.DatabaseError("list_api_keys", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not list keys", nil)
		return
	}

	out := make([]keyResponse, len(keys))
	for i, key := range keys {
		out[i] = toKeyResponse(key)
	}
	httpkit.OK(c, gin.H{"keys": out})
}

func (h *Handler) RevokeKey(c *gin.Context) {
	keyID, err := uuid.Parse(c.Param("keyID"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid key id", nil)
		return
	}
	companyID, ok := adminCompany(c)
	if !ok {
		httpkit.Error(c, http.StatusBadRequest, "key management requires a tenant-scoped token", nil)
		return
	}

	if err := h.repo.Revoke(c.Request.Context(), keyID, companyID); err != nil {
		if err == ErrAPIKeyNotFound {
			httpkit.Error(c, http.StatusNotFound, "key not found", nil)
			return
		}
		h.log.DatabaseError("revoke_api_key", err)
		httpkit.Error(c, http.StatusInternalServerError, "could not revoke key", nil)
		return
	}

	h.log.AuthEvent("api_key_revoked", "", true, keyID.String())
	c.Status(http.StatusNoContent)
}

func adminCompany(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(httpkit.ContextTenantIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}
