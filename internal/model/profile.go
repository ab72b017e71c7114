package model

const (
	MinProfilePhotos  = 3
	MaxProfilePhotos  = 6
	MaxNonNegotiables = 5
)

// 偏好默认值
const (
	DefaultAgeMin   = "25"
	DefaultAgeMax   = "40"
	DefaultDistance = "25"
)

// Basics 基础资料，均为自由文本
type Basics struct {
	Name   string `json:"name"`
	Age    string `json:"age"`
	Height string `json:"height"`
}

// Summary 根据 Life Map 生成的资料摘要。
// 第一次进入 profile-review 且全部字段为空时才会填充默认值。
type Summary struct {
	Headline          string `json:"headline"`
	RelationshipGoals string `json:"relationship_goals"`
	Values            string `json:"values"`
	Lifestyle         string `json:"lifestyle"`
}

func (s Summary) IsEmpty() bool {
	return s.Headline == "" && s.RelationshipGoals == "" && s.Values == "" && s.Lifestyle == ""
}

// Preferences 匹配偏好，沿用客户端的字符串输入
type Preferences struct {
	AgeMin   string `json:"age_min"`
	AgeMax   string `json:"age_max"`
	Distance string `json:"distance"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		AgeMin:   DefaultAgeMin,
		AgeMax:   DefaultAgeMax,
		Distance: DefaultDistance,
	}
}

// ProfileDraft 跨多个步骤累积的资料草稿
type ProfileDraft struct {
	Photos         []string    `json:"photos"`
	Basics         Basics      `json:"basics"`
	LifeMap        []string    `json:"life_map"` // 与 LifeMapPrompts 一一对应
	Summary        Summary     `json:"summary"`
	NonNegotiables []string    `json:"non_negotiables"`
	Preferences    Preferences `json:"preferences"`
}

func NewProfileDraft() ProfileDraft {
	return ProfileDraft{
		Photos:         []string{},
		LifeMap:        make([]string, len(LifeMapPrompts)),
		NonNegotiables: []string{},
		Preferences:    DefaultPreferences(),
	}
}

// Clone 深拷贝，流程状态按值传递时使用
func (p ProfileDraft) Clone() ProfileDraft {
	out := p
	out.Photos = CloneSlice(p.Photos)
	out.LifeMap = CloneSlice(p.LifeMap)
	out.NonNegotiables = CloneSlice(p.NonNegotiables)
	return out
}

// HasNonNegotiable 是否已选择
func (p ProfileDraft) HasNonNegotiable(label string) bool {
	for _, l := range p.NonNegotiables {
		if l == label {
			return true
		}
	}
	return false
}

// Settings 个人页设置
type Settings struct {
	Paused        bool `json:"paused"`
	Notifications bool `json:"notifications"`
}

// CloneSlice 复制切片，空切片也返回非 nil，JSON 输出保持为 []
func CloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}
