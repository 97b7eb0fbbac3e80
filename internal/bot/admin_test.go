package bot

import (
	"context"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"pubbot/internal/storage/stubs"
)

const adminChatID = testAdminID

func adminCommand(text string) func(*Bot) {
	return func(b *Bot) {
		b.handleMessage(commandMessage(testAdminID, adminChatID, text))
	}
}

func TestAdmin_NonAdminRejected(t *testing.T) {
	store := stubs.NewMockStore()
	b, api := newTestBot(store, 0)

	b.handleMessage(commandMessage(testUserID, testChatID, "/approve 456"))

	if reply := api.lastReply(testChatID); reply != "无权限。" {
		t.Errorf("Expected no-permission reply, got %q", reply)
	}
	ok, err := store.IsWhitelisted(context.Background(), 456)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Expected whitelist unchanged after non-admin /approve")
	}
}

func TestAdmin_ApproveLifetime(t *testing.T) {
	store := stubs.NewMockStore()
	b, _ := newTestBot(store, 0)

	adminCommand("/approve 456")(b)

	ok, err := store.IsWhitelisted(context.Background(), 456)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Expected user whitelisted after /approve")
	}
}

func TestAdmin_ApproveWithDuration(t *testing.T) {
	store := stubs.NewMockStore()
	b, _ := newTestBot(store, 0)

	adminCommand("/approve 456 30")(b)

	ctx := context.Background()
	ok, err := store.IsWhitelisted(ctx, 456)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("Expected user whitelisted after timed /approve")
	}

	member, _, err := store.Member(ctx, 456, "")
	if err != nil {
		t.Fatal(err)
	}
	if member.ExpiresAt == nil {
		t.Fatal("Expected an expiry on a timed grant")
	}
	want := time.Now().AddDate(0, 0, 30)
	if diff := member.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected expiry near %v, got %v", want, *member.ExpiresAt)
	}
}

func TestAdmin_ApproveBadArguments(t *testing.T) {
	store := stubs.NewMockStore()
	b, api := newTestBot(store, 0)

	for _, cmd := range []string{"/approve", "/approve abc", "/approve 456 zero", "/approve 456 -3"} {
		adminCommand(cmd)(b)
		if reply := api.lastReply(adminChatID); !strings.Contains(reply, "用法") {
			t.Errorf("%s: expected usage reply, got %q", cmd, reply)
		}
	}
}

func TestAdmin_BanDestroysSession(t *testing.T) {
	store := stubs.NewMockStore()
	ctx := context.Background()
	if err := store.Grant(ctx, testUserID, 0); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBot(store, 0)

	b.handleMessage(commandMessage(testUserID, testChatID, "/publish"))
	if s, _ := b.sessions.Get(testUserID); s == nil {
		t.Fatal("Expected active session before ban")
	}

	adminCommand("/ban 123")(b)

	banned, err := store.IsBanned(ctx, testUserID)
	if err != nil {
		t.Fatal(err)
	}
	if !banned {
		t.Error("Expected user banned")
	}
	if ok, _ := store.IsWhitelisted(ctx, testUserID); ok {
		t.Error("Expected ban to revoke membership")
	}
	if s, _ := b.sessions.Get(testUserID); s != nil {
		t.Error("Expected running session destroyed on ban")
	}
}

func TestAdmin_UnbanDoesNotRestoreMembership(t *testing.T) {
	store := stubs.NewMockStore()
	ctx := context.Background()
	if err := store.Grant(ctx, testUserID, 0); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBot(store, 0)

	adminCommand("/ban 123")(b)
	adminCommand("/unban 123")(b)

	banned, err := store.IsBanned(ctx, testUserID)
	if err != nil {
		t.Fatal(err)
	}
	if banned {
		t.Error("Expected user unbanned")
	}
	if ok, _ := store.IsWhitelisted(ctx, testUserID); ok {
		t.Error("Expected membership to stay revoked; re-approval is explicit")
	}
}

func TestAdmin_SetTemplate(t *testing.T) {
	store := stubs.NewMockStore()
	b, api := newTestBot(store, 0)

	adminCommand("/settemplate 数量 {quantity} / 价格 {price}")(b)

	tpl, err := store.Template(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if tpl != "数量 {quantity} / 价格 {price}" {
		t.Errorf("Unexpected stored template %q", tpl)
	}
	if reply := api.lastReply(adminChatID); !strings.Contains(reply, "模板已更新") {
		t.Errorf("Expected template-updated reply, got %q", reply)
	}
}

// adminNotification returns the last message sent to the admin chat that
// carries an inline keyboard.
func adminNotification(api *fakeAPI) (tgbotapi.MessageConfig, bool) {
	api.mu.Lock()
	defer api.mu.Unlock()
	for i := len(api.sent) - 1; i >= 0; i-- {
		m, ok := api.sent[i].(tgbotapi.MessageConfig)
		if ok && m.ChatID == testAdminID && m.ReplyMarkup != nil {
			return m, true
		}
	}
	return tgbotapi.MessageConfig{}, false
}

func TestAdmin_StartRequestCarriesDecisionButtons(t *testing.T) {
	store := stubs.NewMockStore()
	b, api := newTestBot(store, 0)

	b.handleMessage(commandMessage(testUserID, testChatID, "/start"))

	notice, ok := adminNotification(api)
	if !ok {
		t.Fatal("Expected access-request notification with buttons in the admin chat")
	}
	markup, ok := notice.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok {
		t.Fatalf("Expected inline keyboard, got %T", notice.ReplyMarkup)
	}
	var data []string
	for _, row := range markup.InlineKeyboard {
		for _, btn := range row {
			data = append(data, *btn.CallbackData)
		}
	}
	want := []string{"grant:123", "reject:123"}
	if len(data) != 2 || data[0] != want[0] || data[1] != want[1] {
		t.Errorf("Expected decision callbacks %v, got %v", want, data)
	}
}

func TestAdmin_ApproveButtonGrantsDefaultDuration(t *testing.T) {
	store := stubs.NewMockStore()
	b, api := newTestBot(store, 0)

	b.handleCallbackQuery(callback(testAdminID, adminChatID, "grant:123"))

	ctx := context.Background()
	ok, err := store.IsWhitelisted(ctx, testUserID)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("Expected applicant whitelisted after 同意 press")
	}

	member, _, err := store.Member(ctx, testUserID, "")
	if err != nil {
		t.Fatal(err)
	}
	if member.ExpiresAt == nil {
		t.Fatal("Expected a timed grant from the decision button")
	}
	want := time.Now().AddDate(0, 0, 30)
	if diff := member.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected expiry near %v, got %v", want, *member.ExpiresAt)
	}
	if reply := api.lastReply(testChatID); !strings.Contains(reply, "已批准") {
		t.Errorf("Expected approval notice to applicant, got %q", reply)
	}
}

func TestAdmin_RejectButtonNotifiesApplicant(t *testing.T) {
	store := stubs.NewMockStore()
	b, api := newTestBot(store, 0)

	b.handleCallbackQuery(callback(testAdminID, adminChatID, "reject:123"))

	ok, err := store.IsWhitelisted(context.Background(), testUserID)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Expected applicant not whitelisted after 拒绝 press")
	}
	if reply := api.lastReply(testChatID); !strings.Contains(reply, "拒绝") {
		t.Errorf("Expected rejection notice to applicant, got %q", reply)
	}
}

func TestAdmin_DecisionButtonsRequireAdmin(t *testing.T) {
	store := stubs.NewMockStore()
	b, api := newTestBot(store, 0)

	b.handleCallbackQuery(callback(testUserID, testChatID, "grant:456"))

	ok, err := store.IsWhitelisted(context.Background(), 456)
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("Expected whitelist unchanged after non-admin button press")
	}
	if reply := api.lastReply(testChatID); reply != "无权限。" {
		t.Errorf("Expected no-permission reply, got %q", reply)
	}
}

func TestAdmin_ExtendRunningGrant(t *testing.T) {
	store := stubs.NewMockStore()
	ctx := context.Background()
	if err := store.Grant(ctx, 456, 10); err != nil {
		t.Fatal(err)
	}
	b, _ := newTestBot(store, 0)

	adminCommand("/extend 456 10")(b)

	member, _, err := store.Member(ctx, 456, "")
	if err != nil {
		t.Fatal(err)
	}
	if member.ExpiresAt == nil {
		t.Fatal("Expected an expiry after extend")
	}
	want := time.Now().AddDate(0, 0, 20)
	if diff := member.ExpiresAt.Sub(want); diff < -time.Minute || diff > time.Minute {
		t.Errorf("Expected extend to stack on the running grant, got %v", *member.ExpiresAt)
	}
}
