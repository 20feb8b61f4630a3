package onebot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zifox666/MoviePilot/pkg/config"
	"github.com/zifox666/MoviePilot/pkg/schemas"
)

func newTestModule(sources map[string]config.OnebotConfig) (*Module, *fakeConn) {
	registry := NewRegistry()
	conn := &fakeConn{}
	registry.Register(conn)

	m := NewModule(registry, sources)
	m.delivery.delay = time.Millisecond
	return m, conn
}

func TestModule_ParseScenario(t *testing.T) {
	m, _ := newTestModule(map[string]config.OnebotConfig{"onebot11": {}})

	raw := `{"post_type":"message","message_type":"group","user_id":1,"group_id":9,"raw_message":"hi","sender":{"nickname":"bob"}}`
	msg, outcome := m.Parse(context.Background(), "onebot11", []byte(raw))

	require.Equal(t, OutcomeAccepted, outcome)
	require.NotNil(t, msg)
	assert.Equal(t, schemas.ChannelOnebot11, msg.Channel)
	assert.Equal(t, "onebot11", msg.Source)
	assert.Equal(t, "1", msg.UserID)
	assert.Equal(t, "bob", msg.Username)
	assert.Equal(t, "hi", msg.Text)
}

func TestModule_ParseUnknownSource(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{"onebot11": {}})

	raw := `{"post_type":"message","user_id":1,"raw_message":"hi"}`
	msg, outcome := m.Parse(context.Background(), "other", []byte(raw))

	assert.Nil(t, msg)
	assert.Equal(t, OutcomePolicyRejected, outcome)
	assert.Empty(t, conn.sent())
}

func TestModule_ParseCommandRejectionSendsNotice(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{
		"onebot11": {PermissionUsers: "100"},
	})

	raw := `{"post_type":"message","message_type":"private","user_id":200,"raw_message":"/download","sender":{"nickname":"mallory"}}`
	msg, outcome := m.Parse(context.Background(), "onebot11", []byte(raw))

	assert.Nil(t, msg)
	assert.Equal(t, OutcomePolicyRejected, outcome)

	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, actionSendPrivate, frames[0].Action)
	assert.Equal(t, "200", frames[0].Params.UserID)
	assert.Contains(t, frames[0].Params.Message, noticeNotAdmin)
}

func TestModule_ParseUserRejectionSkipsGroupCheck(t *testing.T) {
	// Group 9 is whitelisted but the user check must reject first and
	// notify; the group whitelist is not evaluated in this branch.
	m, conn := newTestModule(map[string]config.OnebotConfig{
		"onebot11": {Users: "100", Groups: "9"},
	})

	raw := `{"post_type":"message","message_type":"group","user_id":200,"group_id":9,"raw_message":"hi","sender":{"nickname":"eve"}}`
	msg, outcome := m.Parse(context.Background(), "onebot11", []byte(raw))

	assert.Nil(t, msg)
	assert.Equal(t, OutcomePolicyRejected, outcome)

	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0].Params.Message, noticeNotWhitelisted)
}

func TestModule_ParseGroupRejectionIsSilent(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{
		"onebot11": {Users: "100", Groups: "9"},
	})

	raw := `{"post_type":"message","message_type":"group","user_id":100,"group_id":10,"raw_message":"hi","sender":{"nickname":"alice"}}`
	msg, outcome := m.Parse(context.Background(), "onebot11", []byte(raw))

	assert.Nil(t, msg)
	assert.Equal(t, OutcomePolicyRejected, outcome)
	assert.Empty(t, conn.sent())
}

func TestModule_PostMessageNoConnection(t *testing.T) {
	m := NewModule(NewRegistry(), map[string]config.OnebotConfig{"onebot11": {Users: "1"}})
	m.delivery.delay = time.Millisecond

	err := m.PostMessage(context.Background(), &schemas.Notification{Title: "T"})
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestModule_PostMessageExplicitUser(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{
		"onebot11": {Users: "1,2", Groups: "9"},
	})

	err := m.PostMessage(context.Background(), &schemas.Notification{
		Title:  "T",
		UserID: "42",
	})
	require.NoError(t, err)

	// An explicit user target sends exactly one private frame; the
	// configured defaults are not used.
	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, actionSendPrivate, frames[0].Action)
	assert.Equal(t, "42", frames[0].Params.UserID)
	assert.Equal(t, "\nT", frames[0].Params.Message)
}

func TestModule_PostMessageDefaultRecipients(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{
		"onebot11": {Users: "1,2", Groups: "9"},
	})

	err := m.PostMessage(context.Background(), &schemas.Notification{Title: "T", Text: "B"})
	require.NoError(t, err)

	frames := conn.sent()
	require.Len(t, frames, 3)
	assert.Equal(t, actionSendPrivate, frames[0].Action)
	assert.Equal(t, actionSendPrivate, frames[1].Action)
	assert.Equal(t, actionSendGroup, frames[2].Action)
	assert.Equal(t, "9", frames[2].Params.UserID)
}

func TestModule_PostMessageTargetsOverride(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{"onebot11": {}})

	err := m.PostMessage(context.Background(), &schemas.Notification{
		Title:   "T",
		Targets: map[string]string{TargetUserIDKey: "77"},
	})
	require.NoError(t, err)

	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, "77", frames[0].Params.UserID)
}

func TestModule_PostMessageTargetsWithoutOverrideSkips(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{"onebot11": {Users: "1"}})

	err := m.PostMessage(context.Background(), &schemas.Notification{
		Title:   "T",
		Targets: map[string]string{"telegram_userid": "77"},
	})
	require.NoError(t, err)
	assert.Empty(t, conn.sent())
}

func TestModule_PostMessageEmptyContent(t *testing.T) {
	m, _ := newTestModule(map[string]config.OnebotConfig{"onebot11": {}})
	require.Error(t, m.PostMessage(context.Background(), &schemas.Notification{}))
}

func TestModule_PostMessageSourceFilter(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{
		"main":   {Users: "1"},
		"backup": {Users: "2"},
	})

	err := m.PostMessage(context.Background(), &schemas.Notification{
		Title:  "T",
		Source: "backup",
	})
	require.NoError(t, err)

	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Equal(t, "2", frames[0].Params.UserID)
}

func TestModule_PostTorrentsMessageEmptyList(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{"onebot11": {Users: "1"}})

	err := m.PostTorrentsMessage(context.Background(), &schemas.Notification{Title: "T"}, nil)
	require.ErrorIs(t, err, ErrNoTorrents)
	assert.Empty(t, conn.sent())
}

func TestModule_PostMediasMessage(t *testing.T) {
	m, conn := newTestModule(map[string]config.OnebotConfig{"onebot11": {Users: "1"}})

	err := m.PostMediasMessage(context.Background(), &schemas.Notification{Title: "结果"}, []schemas.MediaInfo{
		{Title: "沙丘", Year: "2024", Type: "电影", VoteAverage: 8.3},
	})
	require.NoError(t, err)

	frames := conn.sent()
	require.Len(t, frames, 1)
	assert.Contains(t, frames[0].Params.Message, "*结果*")
	assert.Contains(t, frames[0].Params.Message, "1.沙丘 (2024)")
}

func TestModule_StateAndStop(t *testing.T) {
	m, _ := newTestModule(map[string]config.OnebotConfig{"onebot11": {}})

	assert.True(t, m.State())
	m.Stop()
	assert.False(t, m.State())

	// Sends after shutdown fail fast.
	err := m.PostMessage(context.Background(), &schemas.Notification{Title: "T", UserID: "1"})
	require.ErrorIs(t, err, ErrNotConnected)
}
