package gateway

import (
	"log"
	"net/http"
	"strings"

	"github.com/jacl-coder/TankStorm-Server/internal/auth"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	tokens *auth.TokenManager
}

// AuthData 认证响应数据
type AuthData struct {
	PlayerID string `json:"player_id"`
	Token    string `json:"token,omitempty"`
	Guest    bool   `json:"guest"`
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{tokens: tokens}
}

// RegisterHandlers 注册HTTP处理器
func (h *AuthHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/auth/guest", h.handleGuest)
	mux.HandleFunc("/auth/verify", h.handleVerify)
}

// handleGuest 签发游客令牌
func (h *AuthHandler) handleGuest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendError(w, "仅支持POST方法", http.StatusMethodNotAllowed)
		return
	}

	playerID, token, err := h.tokens.IssueGuest()
	if err != nil {
		log.Printf("签发游客令牌失败: %v", err)
		sendError(w, "服务器内部错误", http.StatusInternalServerError)
		return
	}

	log.Printf("游客登录: %s", playerID)
	sendSuccess(w, "登录成功", AuthData{PlayerID: playerID, Token: token, Guest: true})
}

// handleVerify 校验令牌
func (h *AuthHandler) handleVerify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		sendError(w, "缺少令牌", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokens.Verify(token)
	if err != nil {
		sendError(w, "令牌无效", http.StatusUnauthorized)
		return
	}
	sendSuccess(w, "令牌有效", AuthData{PlayerID: claims.PlayerID, Guest: claims.Guest})
}
