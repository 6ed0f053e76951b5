package relay

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// JoinPolicy определяет, что происходит с предыдущей комнатой при повторном join_room.
type JoinPolicy string

const (
	// PolicyLeavePrevious: подключение состоит максимум в одной комнате.
	PolicyLeavePrevious JoinPolicy = "leave_previous"
	// PolicyAdditive: комнаты накапливаются до disconnect.
	PolicyAdditive JoinPolicy = "additive"
)

var policies = []JoinPolicy{PolicyLeavePrevious, PolicyAdditive}

func ParsePolicy(s string) (JoinPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return PolicyLeavePrevious, nil
	}
	p := JoinPolicy(s)
	if !lo.Contains(policies, p) {
		return "", fmt.Errorf("unknown join policy %q", s)
	}
	return p, nil
}
