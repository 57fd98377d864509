package moderation

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-guard-bot/internal/domain"
)

const (
	testGroupID  = int64(-100500)
	testAdminID  = int64(1)
	testMemberID = int64(2)
)

// newTestEngine собирает движок с моком платформы. Админом считается
// только testAdminID.
func newTestEngine(t *testing.T, api *mockChatAPI, scope *GroupScope, allowlist *Allowlist) (*Engine, *WarningLedger) {
	t.Helper()
	if api.getChatMemberRoleFunc == nil {
		api.getChatMemberRoleFunc = adminOnly(testAdminID)
	}
	if scope == nil {
		scope = NewGroupScope(0)
	}
	if allowlist == nil {
		allowlist = NewAllowlist()
	}
	ledger := NewWarningLedger(3)
	auth := NewAuthorizer(api, 999, discardLogger())
	return NewEngine(api, auth, scope, allowlist, ledger, 20, discardLogger()), ledger
}

func groupText(sender int64, text string) domain.ChatEvent {
	return domain.ChatEvent{
		ChatID:    testGroupID,
		ChatType:  domain.ChatGroup,
		SenderID:  sender,
		Kind:      domain.ContentText,
		Text:      text,
		MessageID: 10,
	}
}

func TestEngine_Evaluate_Order(t *testing.T) {
	ctx := context.Background()

	t.Run("scope filter wins over everything", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, NewGroupScope(testGroupID), nil)

		ev := groupText(testMemberID, strings.Repeat("spam ", 50))
		ev.ChatID = -200600 // чужая группа
		ev.Forwarded = true

		d := engine.Evaluate(ctx, ev)
		assert.Equal(t, domain.VerdictScopedOut, d.Verdict)
	})

	t.Run("admin exemption short-circuits every rule", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		// Форвард + длинный текст + ссылка: для админа всё равно exempt.
		ev := groupText(testAdminID, strings.Repeat("word ", 30)+" https://evil.io")
		ev.Forwarded = true

		d := engine.Evaluate(ctx, ev)
		assert.Equal(t, domain.VerdictExempt, d.Verdict)
	})

	t.Run("forward beats text checks", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		ev := groupText(testMemberID, "short and clean")
		ev.Forwarded = true

		d := engine.Evaluate(ctx, ev)
		require.Equal(t, domain.VerdictViolation, d.Verdict)
		assert.Equal(t, domain.ReasonForwarded, d.Reason)
	})
}

func TestEngine_Evaluate_TextRules(t *testing.T) {
	ctx := context.Background()

	t.Run("over word limit regardless of content", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		d := engine.Evaluate(ctx, groupText(testMemberID, strings.Repeat("a ", 21)))
		require.Equal(t, domain.VerdictViolation, d.Verdict)
		assert.Equal(t, domain.ReasonTooLong, d.Reason)
	})

	t.Run("exactly at word limit is clean", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		d := engine.Evaluate(ctx, groupText(testMemberID, strings.TrimSpace(strings.Repeat("a ", 20))))
		assert.Equal(t, domain.VerdictClean, d.Verdict)
	})

	t.Run("disallowed link", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		d := engine.Evaluate(ctx, groupText(testMemberID, "go to https://evil.io now"))
		require.Equal(t, domain.VerdictViolation, d.Verdict)
		assert.Equal(t, domain.ReasonDisallowedLink, d.Reason)
	})

	t.Run("allowlisted link is clean", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, ledger := newTestEngine(t, api, nil, NewAllowlist("example.com"))

		d := engine.Process(ctx, groupText(testMemberID, "go to https://example.com now"))
		assert.Equal(t, domain.VerdictClean, d.Verdict)
		// Ни удаления, ни записи в леджер.
		assert.Empty(t, api.deletedMessages)
		assert.Empty(t, ledger.Snapshot())
	})

	t.Run("t.me marker counts as link", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		d := engine.Evaluate(ctx, groupText(testMemberID, "join t.me/spamchannel"))
		require.Equal(t, domain.VerdictViolation, d.Verdict)
		assert.Equal(t, domain.ReasonDisallowedLink, d.Reason)
	})

	t.Run("plain short text is clean", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		d := engine.Evaluate(ctx, groupText(testMemberID, "hello everyone"))
		assert.Equal(t, domain.VerdictClean, d.Verdict)
	})
}

func TestEngine_Evaluate_Media(t *testing.T) {
	ctx := context.Background()

	for _, kind := range []domain.ContentKind{domain.ContentPhoto, domain.ContentVideo, domain.ContentDocument} {
		t.Run(string(kind), func(t *testing.T) {
			api := &mockChatAPI{}
			engine, _ := newTestEngine(t, api, nil, nil)

			d := engine.Evaluate(ctx, domain.ChatEvent{
				ChatID:   testGroupID,
				ChatType: domain.ChatGroup,
				SenderID: testMemberID,
				Kind:     kind,
			})
			require.Equal(t, domain.VerdictViolation, d.Verdict)
			assert.Equal(t, domain.ReasonMedia, d.Reason)
		})
	}

	t.Run("other content passes through", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, _ := newTestEngine(t, api, nil, nil)

		d := engine.Evaluate(ctx, domain.ChatEvent{
			ChatID:   testGroupID,
			ChatType: domain.ChatGroup,
			SenderID: testMemberID,
			Kind:     domain.ContentOther,
		})
		assert.Equal(t, domain.VerdictClean, d.Verdict)
	})
}

func TestEngine_Process_Effects(t *testing.T) {
	ctx := context.Background()

	t.Run("violation deletes message and warns once", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, ledger := newTestEngine(t, api, nil, nil)

		ev := groupText(testMemberID, "see https://evil.io")
		ev.MessageID = 77

		d := engine.Process(ctx, ev)
		require.Equal(t, domain.VerdictViolation, d.Verdict)
		assert.Equal(t, []int{77}, api.deletedMessages)
		require.Len(t, api.sentMessages, 1)
		assert.Equal(t, "⚠ Warning 1/3", api.sentMessages[0])
		assert.Equal(t, map[int64]int{testMemberID: 1}, ledger.Snapshot())
		assert.Empty(t, api.bannedUsers)
	})

	t.Run("third violation bans and resets", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, ledger := newTestEngine(t, api, nil, nil)

		ev := groupText(testMemberID, "https://evil.io")
		engine.Process(ctx, ev)
		engine.Process(ctx, ev)
		engine.Process(ctx, ev)

		assert.Equal(t, []int64{testMemberID}, api.bannedUsers)
		require.Len(t, api.sentMessages, 3)
		assert.Equal(t, "⚠ Warning 1/3", api.sentMessages[0])
		assert.Equal(t, "⚠ Warning 2/3", api.sentMessages[1])
		assert.Equal(t, "🚫 User has been banned for repeated violations.", api.sentMessages[2])
		assert.Empty(t, ledger.Snapshot(), "после эскалации счётчик обнулён")
	})

	t.Run("delete failure does not stop ledger update", func(t *testing.T) {
		api := &mockChatAPI{deleteErr: assert.AnError}
		engine, ledger := newTestEngine(t, api, nil, nil)

		engine.Process(ctx, groupText(testMemberID, "https://evil.io"))

		// Удаление провалилось, но предупреждение и леджер отработали.
		assert.Equal(t, map[int64]int{testMemberID: 1}, ledger.Snapshot())
		require.Len(t, api.sentMessages, 1)
	})

	t.Run("ban failure does not stop ban notice", func(t *testing.T) {
		api := &mockChatAPI{banErr: assert.AnError}
		engine, _ := newTestEngine(t, api, nil, nil)

		ev := groupText(testMemberID, "https://evil.io")
		engine.Process(ctx, ev)
		engine.Process(ctx, ev)
		engine.Process(ctx, ev)

		assert.Contains(t, api.sentMessages, "🚫 User has been banned for repeated violations.")
	})

	t.Run("scoped out event has no side effects", func(t *testing.T) {
		api := &mockChatAPI{}
		engine, ledger := newTestEngine(t, api, NewGroupScope(testGroupID), nil)

		ev := groupText(testMemberID, strings.Repeat("spam ", 30))
		ev.ChatID = -200600

		d := engine.Process(ctx, ev)
		assert.Equal(t, domain.VerdictScopedOut, d.Verdict)
		assert.Empty(t, api.deletedMessages)
		assert.Empty(t, api.sentMessages)
		assert.Empty(t, api.bannedUsers)
		assert.Empty(t, ledger.Snapshot())
	})
}
