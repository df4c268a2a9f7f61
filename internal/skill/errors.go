package skill

import "fmt"

// NotFoundError 技能ID不存在
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("技能不存在: %s", e.ID)
}

// UnknownSkillError 追踪器收到未注册的技能
type UnknownSkillError struct {
	ID  string
	Err error
}

func (e *UnknownSkillError) Error() string {
	return fmt.Sprintf("未知技能 %s: %v", e.ID, e.Err)
}

func (e *UnknownSkillError) Unwrap() error {
	return e.Err
}
