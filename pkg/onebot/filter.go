package onebot

import (
	"strings"

	"github.com/zifox666/MoviePilot/pkg/config"
)

// Rejection notices pushed back to the offending sender.
const (
	noticeNotAdmin       = "只有管理员才有权限执行此命令"
	noticeNotWhitelisted = "你不在用户白名单中，无法使用此机器人"
)

// Verdict says what to do with an inbound message.
type Verdict int

const (
	// VerdictAllow passes the message to the pipeline.
	VerdictAllow Verdict = iota
	// VerdictRejectNotify drops the message and notifies the sender.
	VerdictRejectNotify
	// VerdictRejectSilent drops the message with no notice.
	VerdictRejectSilent
)

// Decision is the filter result. Notice is only set for VerdictRejectNotify.
type Decision struct {
	Verdict Verdict
	Notice  string
}

// Policy applies one source's whitelist configuration.
type Policy struct {
	admins []string
	users  []string
	groups []string
}

func NewPolicy(cfg config.OnebotConfig) Policy {
	return Policy{
		admins: cfg.AdminIDs(),
		users:  cfg.UserIDs(),
		groups: cfg.GroupIDs(),
	}
}

// Evaluate checks a sender against the policy. Command messages (leading
// "/") are gated by the admin list; plain messages check the user
// whitelist first (with notice on rejection) and only then the group
// whitelist (silent rejection).
func (p Policy) Evaluate(userID, groupID, text string) Decision {
	if strings.HasPrefix(text, "/") {
		if len(p.admins) > 0 && !contains(p.admins, userID) {
			return Decision{Verdict: VerdictRejectNotify, Notice: noticeNotAdmin}
		}
		return Decision{Verdict: VerdictAllow}
	}

	if len(p.users) > 0 && !contains(p.users, userID) {
		return Decision{Verdict: VerdictRejectNotify, Notice: noticeNotWhitelisted}
	}
	if len(p.groups) > 0 && !contains(p.groups, groupID) {
		return Decision{Verdict: VerdictRejectSilent}
	}
	return Decision{Verdict: VerdictAllow}
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
