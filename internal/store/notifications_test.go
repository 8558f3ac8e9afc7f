package store

import (
	"context"
	"testing"
	"time"

	"github.com/erazemk/inspecasa/internal/db"
	"github.com/erazemk/inspecasa/internal/model"
)

func TestNotifications(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	alice, _ := CreateUser(ctx, database, "alice", "", "hash", model.RoleInspector)
	bob, _ := CreateUser(ctx, database, "bob", "", "hash", model.RoleInspector)

	due := time.Now().Add(24 * time.Hour)
	for _, prop := range []string{"p1", "p2"} {
		_, err := CreateNotification(ctx, database, &model.Notification{
			UserID:            alice.ID,
			Type:              model.NotificationInspectionDue,
			Title:             "Inspection due",
			Message:           "Tomorrow",
			RelatedPropertyID: prop,
			ScheduledAt:       due,
		})
		if err != nil {
			t.Fatalf("CreateNotification: %v", err)
		}
	}

	list, err := ListNotifications(ctx, database, alice.ID)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(list))
	}
	if list[0].RelatedPropertyID != "p2" {
		t.Errorf("expected newest first, got %q", list[0].RelatedPropertyID)
	}
	if list[0].IsRead {
		t.Error("expected new notification to be unread")
	}

	count, _ := CountUnreadNotifications(ctx, database, alice.ID)
	if count != 2 {
		t.Errorf("expected 2 unread, got %d", count)
	}

	// Bob cannot mark Alice's notifications.
	ok, err := MarkNotificationRead(ctx, database, bob.ID, list[0].ID)
	if err != nil {
		t.Fatalf("MarkNotificationRead: %v", err)
	}
	if ok {
		t.Error("expected marking another user's notification to fail")
	}

	ok, _ = MarkNotificationRead(ctx, database, alice.ID, list[0].ID)
	if !ok {
		t.Error("expected notification to be marked read")
	}
	count, _ = CountUnreadNotifications(ctx, database, alice.ID)
	if count != 1 {
		t.Errorf("expected 1 unread, got %d", count)
	}

	if err := MarkAllNotificationsRead(ctx, database, alice.ID); err != nil {
		t.Fatalf("MarkAllNotificationsRead: %v", err)
	}
	count, _ = CountUnreadNotifications(ctx, database, alice.ID)
	if count != 0 {
		t.Errorf("expected 0 unread, got %d", count)
	}
}

func TestHasDueNotification(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, _ := CreateUser(ctx, database, "alice", "", "hash", model.RoleInspector)

	exists, err := HasDueNotification(ctx, database, "p1", model.NotificationInspectionDue)
	if err != nil {
		t.Fatalf("HasDueNotification: %v", err)
	}
	if exists {
		t.Error("expected no notification yet")
	}

	CreateNotification(ctx, database, &model.Notification{
		UserID:            user.ID,
		Type:              model.NotificationInspectionDue,
		Title:             "Inspection due",
		Message:           "Tomorrow",
		RelatedPropertyID: "p1",
		ScheduledAt:       time.Now(),
	})

	exists, _ = HasDueNotification(ctx, database, "p1", model.NotificationInspectionDue)
	if !exists {
		t.Error("expected notification to exist")
	}
	exists, _ = HasDueNotification(ctx, database, "p2", model.NotificationInspectionDue)
	if exists {
		t.Error("expected no notification for another property")
	}
}
