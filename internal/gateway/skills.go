// skills.go

package gateway

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"google.golang.org/protobuf/proto"

	"github.com/jacl-coder/TankStorm-Server/internal/protocol"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
)

// SkillHandler 技能表查询
type SkillHandler struct {
	registry *skill.Registry
}

// NewSkillHandler 创建技能处理器
func NewSkillHandler(registry *skill.Registry) *SkillHandler {
	return &SkillHandler{registry: registry}
}

// RegisterHandlers 注册HTTP处理器
func (h *SkillHandler) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/skills", h.handleList)
	mux.HandleFunc("/skills/", h.handleGet)
}

// handleList 返回完整技能表
func (h *SkillHandler) handleList(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	msg, err := protocol.ConvertCatalogToProto(h.registry.All())
	if err != nil {
		log.Printf("转换技能表失败: %v", err)
		sendError(w, "技能表不可用", http.StatusInternalServerError)
		return
	}
	h.sendProtoData(w, msg)
}

// handleGet 按ID查询技能
func (h *SkillHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		sendError(w, "仅支持GET方法", http.StatusMethodNotAllowed)
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/skills/")
	if id == "" || strings.Contains(id, "/") {
		sendError(w, "无效的技能ID", http.StatusBadRequest)
		return
	}

	def, err := h.registry.Get(id)
	if err != nil {
		var notFound *skill.NotFoundError
		if errors.As(err, &notFound) {
			sendError(w, "技能不存在", http.StatusNotFound)
			return
		}
		sendError(w, "查询技能失败", http.StatusInternalServerError)
		return
	}

	msg, err := protocol.ConvertSkillToProto(&def)
	if err != nil {
		log.Printf("转换技能失败: %v", err)
		sendError(w, "查询技能失败", http.StatusInternalServerError)
		return
	}
	h.sendProtoData(w, msg)
}

// sendProtoData 以协议编码作为 data 字段
func (h *SkillHandler) sendProtoData(w http.ResponseWriter, msg proto.Message) {
	data, err := protocol.Marshal(msg)
	if err != nil {
		log.Printf("序列化技能失败: %v", err)
		sendError(w, "技能表不可用", http.StatusInternalServerError)
		return
	}
	sendSuccess(w, "查询成功", json.RawMessage(data))
}
