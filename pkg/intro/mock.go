package intro

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"Kindred/internal/model"
)

type seedProfile struct {
	name       string
	age        int
	highlight  string
	reasons    []string
	watchOuts  []string
	trust      int
	verified   bool
	location   string
	occupation string
	education  string
	height     string
}

var seedProfiles = []seedProfile{
	{
		name:       "Maya",
		age:        31,
		highlight:  "Wants a partner to build a slow, intentional life with",
		reasons:    []string{"You both rank family as a top priority", "Similar weekend rhythm", "Both want kids in the next five years"},
		watchOuts:  []string{"Travels for work two weeks a month"},
		trust:      92,
		verified:   true,
		location:   "Hayes Valley",
		occupation: "Product designer",
		education:  "RISD",
		height:     "5'7\"",
	},
	{
		name:       "Jordan",
		age:        34,
		highlight:  "Building a small bakery and a big friend group",
		reasons:    []string{"Shared love of cooking", "Aligned on faith", "Close to your neighborhood"},
		watchOuts:  []string{"Early riser, 5am starts", "Not sure about relocating"},
		trust:      85,
		verified:   true,
		location:   "Mission",
		occupation: "Founder",
		height:     "5'11\"",
	},
	{
		name:       "Priya",
		age:        29,
		highlight:  "Looking for someone curious who loves long walks",
		reasons:    []string{"Both value emotional availability", "Active lifestyle"},
		watchOuts:  []string{"Finishing a residency this year"},
		trust:      78,
		verified:   false,
		location:   "Inner Sunset",
		occupation: "Physician",
		education:  "UCSF",
	},
	{
		name:      "Sam",
		age:       33,
		highlight: "Happiest on a trail or in a bookstore",
		reasons:   []string{"Same relationship goals", "Both non-smokers", "Love pets"},
		watchOuts: []string{"Has a very energetic dog"},
		trust:     88,
		verified:  true,
		location:  "Noe Valley",
	},
}

// MockClient 返回固定种子数据的推荐服务，带人为延迟
type MockClient struct {
	mu     sync.Mutex
	delay  time.Duration
	count  int
	offset int
	now    func() time.Time

	// FailNext 置为 true 时，下一次调用返回 mock 错误并自动复位
	FailNext bool
	Calls    int
}

func NewMockClient(delay time.Duration, count int) *MockClient {
	if count <= 0 {
		count = 3
	}
	return &MockClient{
		delay: delay,
		count: count,
		now:   time.Now,
	}
}

func (m *MockClient) FetchIntros(ctx context.Context) ([]model.IntroCardData, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	if m.FailNext {
		m.FailNext = false
		return nil, errors.New("mock intro fetch failure")
	}

	expiresAt := m.now().Add(72 * time.Hour)
	intros := make([]model.IntroCardData, 0, m.count)
	for i := 0; i < m.count; i++ {
		seed := seedProfiles[(m.offset+i)%len(seedProfiles)]
		intros = append(intros, seed.card(expiresAt))
	}
	m.offset = (m.offset + m.count) % len(seedProfiles)

	return intros, nil
}

func (p seedProfile) card(expiresAt time.Time) model.IntroCardData {
	id := uuid.NewString()
	card := model.IntroCardData{
		ID:               id,
		UserID:           uuid.NewString(),
		Name:             p.name,
		Age:              p.age,
		Photos:           []string{"https://cdn.kindred.app/mock/" + id + "/1.jpg", "https://cdn.kindred.app/mock/" + id + "/2.jpg"},
		LifeMapHighlight: p.highlight,
		MatchReasons:     model.CloneSlice(p.reasons),
		WatchOuts:        model.CloneSlice(p.watchOuts),
		TrustScore:       p.trust,
		Verified:         p.verified,
		ExpiresAt:        expiresAt,
	}
	card.Location = optional(p.location)
	card.Occupation = optional(p.occupation)
	card.Education = optional(p.education)
	card.Height = optional(p.height)
	return card
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
