package protocol

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
	"github.com/jacl-coder/TankStorm-Server/internal/skill"
)

var marshalOptions = protojson.MarshalOptions{UseProtoNames: true}

// ConvertSkillToProto 将技能定义转换为协议消息
func ConvertSkillToProto(def *models.SkillDefinition) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"id":          def.ID,
		"name":        def.Name,
		"short_name":  def.ShortName,
		"description": def.Description,
		"kind":        string(def.Kind),
		"effect": map[string]interface{}{
			"type":  string(def.Effect.Type),
			"value": def.Effect.Value,
		},
		"cost":        def.Cost,
		"cooldown_ms": def.CooldownMs,
		"emoji":       def.Emoji,
	}
	if def.DurationMs > 0 {
		fields["duration_ms"] = def.DurationMs
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("转换技能 %s 失败: %w", def.ID, err)
	}
	return msg, nil
}

// ConvertCatalogToProto 将技能表转换为协议消息
func ConvertCatalogToProto(defs []models.SkillDefinition) (*structpb.ListValue, error) {
	list := &structpb.ListValue{Values: make([]*structpb.Value, 0, len(defs))}
	for i := range defs {
		msg, err := ConvertSkillToProto(&defs[i])
		if err != nil {
			return nil, err
		}
		list.Values = append(list.Values, structpb.NewStructValue(msg))
	}
	return list, nil
}

// ConvertSkillStateToProto 将技能状态转换为协议消息
func ConvertSkillStateToProto(owner string, snaps []models.ActiveSkillSnapshot) (*structpb.Struct, error) {
	active := make([]interface{}, 0, len(snaps))
	for _, s := range snaps {
		active = append(active, map[string]interface{}{
			"definition_id": s.DefinitionID,
			"remaining_ms":  s.RemainingMs,
		})
	}

	msg, err := structpb.NewStruct(map[string]interface{}{
		"owner":  owner,
		"active": active,
	})
	if err != nil {
		return nil, fmt.Errorf("转换技能状态失败: %w", err)
	}
	return msg, nil
}

// ConvertSkillEventToProto 将追踪器事件转换为协议消息
func ConvertSkillEventToProto(ev skill.Event) (*structpb.Struct, error) {
	fields := map[string]interface{}{
		"owner":        ev.Owner,
		"skill_id":     ev.SkillID,
		"kind":         string(ev.Kind),
		"remaining_ms": ev.RemainingMs,
		"cue":          cueForEvent(ev),
	}
	if ev.Reason != "" {
		fields["reason"] = string(ev.Reason)
	}

	msg, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("转换技能事件失败: %w", err)
	}
	return msg, nil
}

// Marshal 编码为JSON
func Marshal(m proto.Message) ([]byte, error) {
	return marshalOptions.Marshal(m)
}

// cueForEvent 客户端需要播放的音效ID
func cueForEvent(ev skill.Event) string {
	if ev.Kind == skill.EventEnd {
		return models.EndCueID(ev.SkillID)
	}
	return models.CastCueID(ev.SkillID)
}
