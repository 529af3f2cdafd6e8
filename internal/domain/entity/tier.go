package entity

import "fmt"

// Tier 订阅等级
type Tier string

const (
	TierSupporter  Tier = "supporter"
	TierEnthusiast Tier = "enthusiast"
	TierPatron     Tier = "patron"
)

// tierRanks 等级排序，数值越大权益越多
var tierRanks = map[Tier]int{
	TierSupporter:  1,
	TierEnthusiast: 2,
	TierPatron:     3,
}

// Rank 返回等级序号，未知等级为 0
func (t Tier) Rank() int {
	return tierRanks[t]
}

// Valid 是否为已知等级
func (t Tier) Valid() bool {
	return t.Rank() > 0
}

// Satisfies 当前等级是否满足 required 的要求
// 未知等级既不能满足要求，也不能被满足
func (t Tier) Satisfies(required Tier) bool {
	if !t.Valid() || !required.Valid() {
		return false
	}
	return t.Rank() >= required.Rank()
}

// ParseTier 解析等级名称
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}
