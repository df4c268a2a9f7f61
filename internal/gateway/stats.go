// stats.go

package gateway

import (
	"log"
	"net/http"
	"strconv"
	"strings"
)

const (
	defaultTopLimit = 10
	maxTopLimit     = 100
)

// StatsHandler 技能统计处理器
type StatsHandler struct {
	stats SkillStats
}

// NewStatsHandler 创建统计处理器，stats 为 nil 时接口返回 503
func NewStatsHandler(stats SkillStats) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// RegisterHandlers 注册HTTP处理器
func (h *StatsHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/stats/skills", h.handleTopSkills)
	mux.HandleFunc("/stats/players/", h.handlePlayerSkills)
}

// handleTopSkills 技能释放次数排行
func (h *StatsHandler) handleTopSkills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}
	if h.stats == nil {
		sendError(w, "统计服务未启用", http.StatusServiceUnavailable)
		return
	}

	limit := defaultTopLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			sendError(w, "无效的limit参数", http.StatusBadRequest)
			return
		}
		limit = min(n, maxTopLimit)
	}

	entries, err := h.stats.TopSkills(r.Context(), limit)
	if err != nil {
		log.Printf("查询技能排行失败: %v", err)
		sendError(w, "查询技能排行失败", http.StatusInternalServerError)
		return
	}
	sendSuccess(w, "查询成功", entries)
}

// handlePlayerSkills 玩家各技能释放次数，路径 /stats/players/{id}/skills
func (h *StatsHandler) handlePlayerSkills(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}
	if h.stats == nil {
		sendError(w, "统计服务未启用", http.StatusServiceUnavailable)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/stats/players/")
	playerID, ok := strings.CutSuffix(path, "/skills")
	if !ok || playerID == "" || strings.Contains(playerID, "/") {
		sendError(w, "无效的玩家ID", http.StatusBadRequest)
		return
	}

	counts, err := h.stats.PlayerSkills(r.Context(), playerID)
	if err != nil {
		log.Printf("查询玩家技能统计失败: %v", err)
		sendError(w, "查询玩家技能统计失败", http.StatusInternalServerError)
		return
	}
	sendSuccess(w, "查询成功", counts)
}
