// registry.go

package skill

import (
	"fmt"

	"github.com/jacl-coder/TankStorm-Server/internal/models"
)

// Registry 只读技能注册表
//
// 启动时构建一次，之后不再修改，可并发读取
type Registry struct {
	order []string
	defs  map[string]models.SkillDefinition
}

// NewRegistry 从技能表构建注册表
func NewRegistry(catalog []models.SkillDefinition) (*Registry, error) {
	r := &Registry{
		order: make([]string, 0, len(catalog)),
		defs:  make(map[string]models.SkillDefinition, len(catalog)),
	}

	for _, def := range catalog {
		if def.ID == "" {
			return nil, fmt.Errorf("技能ID不能为空: %q", def.Name)
		}
		if _, exists := r.defs[def.ID]; exists {
			return nil, fmt.Errorf("技能ID重复: %s", def.ID)
		}
		if def.ShortName == "" {
			def.ShortName = def.Name
		}
		if def.Kind == "" {
			def.Kind = models.ActiveSkill
		}

		r.order = append(r.order, def.ID)
		r.defs[def.ID] = def
	}

	return r, nil
}

// NewDefaultRegistry 使用内置技能表构建注册表
func NewDefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultCatalog)
	if err != nil {
		// 内置表在测试中保证合法
		panic(err)
	}
	return r
}

// Get 获取技能定义
func (r *Registry) Get(id string) (models.SkillDefinition, error) {
	def, ok := r.defs[id]
	if !ok {
		return models.SkillDefinition{}, &NotFoundError{ID: id}
	}
	return def, nil
}

// Has 技能是否存在
func (r *Registry) Has(id string) bool {
	_, ok := r.defs[id]
	return ok
}

// All 按注册顺序返回全部技能
func (r *Registry) All() []models.SkillDefinition {
	defs := make([]models.SkillDefinition, 0, len(r.order))
	for _, id := range r.order {
		defs = append(defs, r.defs[id])
	}
	return defs
}

// Len 技能数量
func (r *Registry) Len() int {
	return len(r.order)
}
