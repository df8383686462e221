package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos/testutil"
	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	email := testutil.UniqueEmail("userrepo")
	created, err := repo.Create(dbc, []*types.User{
		{
			Email:     email,
			Password:  "pw",
			FirstName: "A",
			LastName:  "B",
			IsActive:  true,
		},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil || created[0].MemberID == uuid.Nil {
		t.Fatalf("Create: expected ids to be assigned, got %+v", created)
	}

	gotByIDs, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(gotByIDs) != 1 || gotByIDs[0].ID != created[0].ID {
		t.Fatalf("GetByIDs: unexpected result: %+v", gotByIDs)
	}

	gotByEmails, err := repo.GetByEmails(dbc, []string{email})
	if err != nil {
		t.Fatalf("GetByEmails: %v", err)
	}
	if len(gotByEmails) != 1 || gotByEmails[0].Email != email {
		t.Fatalf("GetByEmails: unexpected result: %+v", gotByEmails)
	}

	exists, err := repo.EmailExists(dbc, email)
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	exists, err = repo.EmailExists(dbc, "nobody-"+email)
	if err != nil || exists {
		t.Fatalf("EmailExists(nobody): exists=%v err=%v", exists, err)
	}

	if err := repo.UpdateFields(dbc, created[0].ID, map[string]interface{}{"username": "sprout"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	at := time.Now().UTC().Truncate(time.Second)
	if err := repo.TouchLastLogin(dbc, created[0].ID, at); err != nil {
		t.Fatalf("TouchLastLogin: %v", err)
	}
	got, err := repo.GetByIDs(dbc, []uuid.UUID{created[0].ID})
	if err != nil || len(got) != 1 {
		t.Fatalf("GetByIDs after update: err=%v len=%d", err, len(got))
	}
	if got[0].Username != "sprout" {
		t.Fatalf("username: want=%q got=%q", "sprout", got[0].Username)
	}
	if got[0].LastLogin == nil || !got[0].LastLogin.Equal(at) {
		t.Fatalf("last_login: want=%v got=%v", at, got[0].LastLogin)
	}
}
