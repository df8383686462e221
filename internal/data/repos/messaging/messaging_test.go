package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	domainbarter "github.com/yungbote/gardenbarter-backend/internal/domain/barter"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
)

func TestInboxRepoEnsureIsIdempotent(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewInboxRepo(db, testutil.Logger(t))

	u := testutil.SeedUser(t, ctx, tx, testutil.UniqueEmail("inboxrepo"))

	missing, err := repo.GetByUserID(dbc, u.ID)
	if err != nil || missing != nil {
		t.Fatalf("GetByUserID before create: got=%+v err=%v", missing, err)
	}
	first, err := repo.Ensure(dbc, u.ID)
	if err != nil || first == nil {
		t.Fatalf("Ensure: got=%+v err=%v", first, err)
	}
	second, err := repo.Ensure(dbc, u.ID)
	if err != nil || second == nil || second.ID != first.ID {
		t.Fatalf("Ensure twice: want id=%s got=%+v err=%v", first.ID, second, err)
	}
}

func TestConversationRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	convs := NewConversationRepo(db, log)
	msgs := NewMessageRepo(db, log)

	owner := testutil.SeedUser(t, ctx, tx, testutil.UniqueEmail("owner"))
	asker := testutil.SeedUser(t, ctx, tx, testutil.UniqueEmail("asker"))
	inbox := testutil.SeedInbox(t, ctx, tx, owner.ID)
	b := testutil.SeedBarter(t, ctx, tx, owner.ID, domainbarter.TypePlant, "Fig cutting")

	tuple := Tuple{BarterID: b.ID, BarterType: string(b.BarterType), SenderID: asker.ID, RecipientID: owner.ID}
	c1, created, err := convs.Ensure(dbc, inbox.ID, tuple)
	if err != nil || !created {
		t.Fatalf("Ensure: created=%v err=%v", created, err)
	}
	c2, created, err := convs.Ensure(dbc, inbox.ID, tuple)
	if err != nil || created || c2.ID != c1.ID {
		t.Fatalf("Ensure again: want same row, created=%v id=%s err=%v", created, c2.ID, err)
	}

	if err := convs.LinkBarter(dbc, b.ID, c1.ID); err != nil {
		t.Fatalf("LinkBarter: %v", err)
	}
	if err := convs.LinkBarter(dbc, b.ID, c1.ID); err != nil {
		t.Fatalf("LinkBarter twice: %v", err)
	}
	linked, err := convs.ListByBarter(dbc, b.ID)
	if err != nil || len(linked) != 1 {
		t.Fatalf("ListByBarter: err=%v len=%d", err, len(linked))
	}

	for i, body := range []string{"is it rooted?", "still available?"} {
		locked, err := convs.LockByID(dbc, c1.ID)
		if err != nil {
			t.Fatalf("LockByID: %v", err)
		}
		seq := locked.NextSeq + 1
		if _, err := msgs.Create(dbc, []*types.Message{{
			ConversationID: c1.ID,
			Seq:            seq,
			SenderID:       asker.ID,
			RecipientID:    owner.ID,
			Body:           body,
			DateReceived:   time.Now().UTC(),
		}}); err != nil {
			t.Fatalf("Create message %d: %v", i, err)
		}
		if err := convs.UpdateFields(dbc, c1.ID, map[string]interface{}{"next_seq": seq}); err != nil {
			t.Fatalf("UpdateFields: %v", err)
		}
	}

	thread, err := convs.GetThread(dbc, c1.ID)
	if err != nil || thread == nil {
		t.Fatalf("GetThread: got=%+v err=%v", thread, err)
	}
	if len(thread.Messages) != 2 || thread.Messages[0].Body != "is it rooted?" || thread.Messages[1].Seq != 2 {
		t.Fatalf("GetThread messages out of order: %+v", thread.Messages)
	}
	if thread.Sender == nil || thread.Sender.ID != asker.ID {
		t.Fatalf("GetThread sender not loaded")
	}

	found, err := convs.FindByTuple(dbc, tuple)
	if err != nil || found == nil || found.ID != c1.ID || len(found.Messages) != 2 {
		t.Fatalf("FindByTuple: got=%+v err=%v", found, err)
	}
	none, err := convs.FindByTuple(dbc, Tuple{BarterID: b.ID, BarterType: "plant", SenderID: owner.ID, RecipientID: asker.ID})
	if err != nil || none != nil {
		t.Fatalf("FindByTuple reversed: want nil got=%+v err=%v", none, err)
	}

	received, err := convs.ListByRecipient(dbc, owner.ID)
	if err != nil || len(received) != 1 {
		t.Fatalf("ListByRecipient(owner): err=%v len=%d", err, len(received))
	}
	sent, err := convs.ListByRecipient(dbc, asker.ID)
	if err != nil || len(sent) != 0 {
		t.Fatalf("ListByRecipient(asker): err=%v len=%d", err, len(sent))
	}

	listed, err := msgs.ListByConversation(dbc, c1.ID)
	if err != nil || len(listed) != 2 {
		t.Fatalf("ListByConversation: err=%v len=%d", err, len(listed))
	}

	if got, err := convs.GetByID(dbc, uuid.New()); err != nil || got != nil {
		t.Fatalf("GetByID unknown: got=%+v err=%v", got, err)
	}
}

func TestHardDeletedUserCascades(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	log := testutil.Logger(t)
	convs := NewConversationRepo(db, log)
	msgs := NewMessageRepo(db, log)

	owner := testutil.SeedUser(t, ctx, tx, testutil.UniqueEmail("cascade-owner"))
	asker := testutil.SeedUser(t, ctx, tx, testutil.UniqueEmail("cascade-asker"))
	inbox := testutil.SeedInbox(t, ctx, tx, owner.ID)
	b := testutil.SeedBarter(t, ctx, tx, owner.ID, domainbarter.TypeProduce, "Zucchini")

	c, _, err := convs.Ensure(dbc, inbox.ID, Tuple{BarterID: b.ID, BarterType: string(b.BarterType), SenderID: asker.ID, RecipientID: owner.ID})
	if err != nil {
		t.Fatalf("Ensure: %v", err)
	}
	if err := convs.LinkBarter(dbc, b.ID, c.ID); err != nil {
		t.Fatalf("LinkBarter: %v", err)
	}
	if _, err := msgs.Create(dbc, []*types.Message{{
		ConversationID: c.ID,
		Seq:            1,
		SenderID:       asker.ID,
		RecipientID:    owner.ID,
		Body:           "too many?",
		DateReceived:   time.Now().UTC(),
	}}); err != nil {
		t.Fatalf("Create message: %v", err)
	}

	if err := tx.WithContext(ctx).Unscoped().Where("id = ?", owner.ID).Delete(&types.User{}).Error; err != nil {
		t.Fatalf("hard delete user: %v", err)
	}

	checks := []struct {
		model interface{}
		where string
		arg   interface{}
	}{
		{&types.Inbox{}, "id = ?", inbox.ID},
		{&types.Barter{}, "id = ?", b.ID},
		{&types.Conversation{}, "id = ?", c.ID},
		{&types.Message{}, "conversation_id = ?", c.ID},
		{&types.BarterConversation{}, "conversation_id = ?", c.ID},
	}
	for _, ck := range checks {
		var n int64
		if err := tx.WithContext(ctx).Model(ck.model).Where(ck.where, ck.arg).Count(&n).Error; err != nil {
			t.Fatalf("count %T: %v", ck.model, err)
		}
		if n != 0 {
			t.Fatalf("%T: want 0 rows after owner delete got %d", ck.model, n)
		}
	}

	// Last: on Postgres a failed statement aborts the transaction.
	orphan := &types.Barter{
		ID:            uuid.New(),
		CreatorID:     owner.ID,
		BarterType:    domainbarter.TypeTool,
		Title:         "Orphan",
		IsFree:        true,
		Quantity:      1,
		QuantityUnits: domainbarter.UnitCount,
		PostalCode:    "97214",
		DateCreated:   time.Now().UTC(),
		DateExpires:   time.Now().UTC().Add(time.Hour),
	}
	if err := tx.WithContext(ctx).Create(orphan).Error; err == nil {
		t.Fatalf("listing for a deleted user must be rejected")
	}
}
