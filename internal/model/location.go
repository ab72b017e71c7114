package model

// 等候名单位置范围 [WaitlistPositionMin, WaitlistPositionMax)
const (
	WaitlistPositionMin = 20
	WaitlistPositionMax = 120
)

// LocationData 城市选择结果，选择后在流程内不再修改
type LocationData struct {
	City             string `json:"city"`
	Neighborhood     string `json:"neighborhood"`
	IsWaitlisted     bool   `json:"is_waitlisted"`
	WaitlistPosition *int   `json:"waitlist_position,omitempty"` // 仅排队时存在
}
