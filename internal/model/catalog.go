package model

// LifeMapPrompts Life Map 固定问题
var LifeMapPrompts = []string{
	"What does a great relationship look like to you?",
	"What are you building in your life right now?",
	"How do you spend a perfect weekend?",
	"What do your closest friends value most about you?",
	"Where do you see yourself in five years?",
}

// NonNegotiableOptions 可选的底线条件
var NonNegotiableOptions = []string{
	"Wants kids",
	"Doesn't want kids",
	"Non-smoker",
	"Shares my faith",
	"Open to relocating",
	"Active lifestyle",
	"Financially stable",
	"Emotionally available",
	"Loves pets",
	"Doesn't drink",
}

// DeclineReasons 拒绝推荐时可选的原因
var DeclineReasons = []string{
	"Not my type",
	"Too far away",
	"Different relationship goals",
	"Watch-outs are dealbreakers",
	"Something else",
}

// SubscriptionPlans soft paywall 可选的方案，空字符串表示跳过
var SubscriptionPlans = []string{
	"monthly",
	"quarterly",
	"annual",
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func IsNonNegotiableOption(label string) bool { return contains(NonNegotiableOptions, label) }

func IsDeclineReason(reason string) bool { return contains(DeclineReasons, reason) }

func IsSubscriptionPlan(plan string) bool { return contains(SubscriptionPlans, plan) }

// Catalog 客户端渲染需要的固定列表
type Catalog struct {
	LifeMapPrompts       []string `json:"life_map_prompts"`
	NonNegotiableOptions []string `json:"non_negotiable_options"`
	MaxNonNegotiables    int      `json:"max_non_negotiables"`
	DeclineReasons       []string `json:"decline_reasons"`
	SubscriptionPlans    []string `json:"subscription_plans"`
	MinProfilePhotos     int      `json:"min_profile_photos"`
	MaxProfilePhotos     int      `json:"max_profile_photos"`
}

func NewCatalog() Catalog {
	return Catalog{
		LifeMapPrompts:       LifeMapPrompts,
		NonNegotiableOptions: NonNegotiableOptions,
		MaxNonNegotiables:    MaxNonNegotiables,
		DeclineReasons:       DeclineReasons,
		SubscriptionPlans:    SubscriptionPlans,
		MinProfilePhotos:     MinProfilePhotos,
		MaxProfilePhotos:     MaxProfilePhotos,
	}
}
