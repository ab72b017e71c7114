package model

import "time"

// IntroCardData 推荐卡片，由推荐服务产出，只读
type IntroCardData struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	Name             string    `json:"name"`
	Age              int       `json:"age"`
	Photos           []string  `json:"photos"`
	LifeMapHighlight string    `json:"life_map_highlight"`
	MatchReasons     []string  `json:"match_reasons"`
	WatchOuts        []string  `json:"watch_outs"`
	TrustScore       int       `json:"trust_score"` // 0-100
	Verified         bool      `json:"verified"`
	ExpiresAt        time.Time `json:"expires_at"`
	Location         *string   `json:"location,omitempty"`
	Occupation       *string   `json:"occupation,omitempty"`
	Education        *string   `json:"education,omitempty"`
	Height           *string   `json:"height,omitempty"`
}

func (i IntroCardData) Expired(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && !now.Before(i.ExpiresAt)
}

// ChatMessage 聊天消息
type ChatMessage struct {
	ID     string    `json:"id"`
	FromMe bool      `json:"from_me"`
	Text   string    `json:"text"`
	SentAt time.Time `json:"sent_at"`
}

// Match 接受推荐后产生的匹配
type Match struct {
	ID        string        `json:"id"`
	Intro     IntroCardData `json:"intro"`
	MatchedAt time.Time     `json:"matched_at"`
	Messages  []ChatMessage `json:"messages"`
}

func (m Match) Clone() Match {
	out := m
	out.Messages = CloneSlice(m.Messages)
	return out
}
