package delivery

import (
	"net/http"

	"sendahandyman-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// DeviceHandler registers admin devices for push alerts
type DeviceHandler struct {
	authUsecase usecase.AuthUsecase
}

func NewDeviceHandler(authUsecase usecase.AuthUsecase) *DeviceHandler {
	return &DeviceHandler{authUsecase: authUsecase}
}

type RegisterDeviceRequest struct {
	Token      string `json:"token" binding:"required"`
	DeviceInfo string `json:"device_info"`
}

// RegisterDevice stores an FCM token for the calling admin
// POST /api/admin/devices
func (h *DeviceHandler) RegisterDevice(c *gin.Context) {
	admin := CurrentAdmin(c)
	if admin == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
		return
	}

	var req RegisterDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authUsecase.RegisterDevice(c.Request.Context(), admin.ID, req.Token, req.DeviceInfo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device registered"})
}

// UnregisterDevice removes an FCM token
// DELETE /api/admin/devices/:token
func (h *DeviceHandler) UnregisterDevice(c *gin.Context) {
	if err := h.authUsecase.UnregisterDevice(c.Request.Context(), c.Param("token")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to unregister device"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Device unregistered"})
}
