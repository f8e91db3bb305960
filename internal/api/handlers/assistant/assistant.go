package assistant

import (
	"net/http"

	"cart-assistant/internal/core/session"
	"cart-assistant/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageRequest 使用者回合請求
type MessageRequest struct {
	Text string `json:"text" binding:"required"` // 使用者的自然語言輸入
}

// Handler 會話處理程序
type Handler struct {
	registry *session.Registry
}

// NewHandler 創建會話處理程序
func NewHandler(registry *session.Registry) *Handler {
	return &Handler{registry: registry}
}

// getSession 取得使用者會話並統一處理錯誤回應
func (h *Handler) getSession(c *gin.Context) (*session.Session, bool) {
	userID := c.Param("user_id")

	s, err := h.registry.Get(c.Request.Context(), userID)
	if err != nil {
		if err == common.ErrUserNotFound {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "User not found",
				"code":  common.ErrUserNotFound.Code,
			})
			return nil, false
		}
		// 儲存後端不可用對會話是致命的，不可靜默吞掉
		common.LogError("Store backend unavailable",
			zap.Error(err),
			zap.String("user_id", userID),
		)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Store backend unavailable",
			"code":  common.ErrBackendUnavailable.Code,
		})
		return nil, false
	}

	return s, true
}

// HandleMessage 處理一個使用者回合
func (h *Handler) HandleMessage(c *gin.Context) {
	requestID := c.GetHeader("X-Request-ID")

	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.LogError("Invalid request format",
			zap.Error(err),
			zap.String("request_id", requestID))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
			"code":  common.ErrCodeInvalidRequest,
		})
		return
	}

	s, ok := h.getSession(c)
	if !ok {
		return
	}

	result, err := s.Process(c.Request.Context(), req.Text)
	if err != nil {
		common.LogError("Turn processing failed",
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.String("user_id", s.UserID))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Store backend unavailable",
			"code":  common.ErrBackendUnavailable.Code,
		})
		return
	}

	common.LogInfo("回合處理完成",
		zap.String("request_id", requestID),
		zap.String("user_id", s.UserID),
		zap.Int("actions", len(result.Actions)),
		zap.Int("rejected", len(result.Rejected)),
	)

	c.JSON(http.StatusOK, result)
}

// HandleViewCart 查看購物車
func (h *Handler) HandleViewCart(c *gin.Context) {
	s, ok := h.getSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.ViewCart())
}

// HandleCheckout 結帳
func (h *Handler) HandleCheckout(c *gin.Context) {
	s, ok := h.getSession(c)
	if !ok {
		return
	}

	summary, err := s.Checkout(c.Request.Context())
	if err != nil {
		common.LogError("Checkout failed",
			zap.Error(err),
			zap.String("user_id", s.UserID))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Store backend unavailable",
			"code":  common.ErrBackendUnavailable.Code,
		})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// HandleClear 清空購物車
func (h *Handler) HandleClear(c *gin.Context) {
	s, ok := h.getSession(c)
	if !ok {
		return
	}

	count := s.Clear()
	c.JSON(http.StatusOK, gin.H{
		"cleared": count,
	})
}

// HandleProfile 查看快取的使用者檔案
func (h *Handler) HandleProfile(c *gin.Context) {
	s, ok := h.getSession(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, s.Profile())
}
