package user

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/studypath-backend/internal/data/repos/testutil"
	types "github.com/yungbote/studypath-backend/internal/domain"
	"github.com/yungbote/studypath-backend/internal/platform/dbctx"
)

func TestUserRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := NewUserRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	created, err := repo.Create(dbc, []*types.User{
		{Email: "userrepo@example.com", Password: "pw", Name: "A B"},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 1 || created[0].ID == uuid.Nil {
		t.Fatalf("Create: unexpected result: %+v", created)
	}

	got, err := repo.GetByID(dbc, created[0].ID)
	if err != nil || got.Email != "userrepo@example.com" {
		t.Fatalf("GetByID: got=%+v err=%v", got, err)
	}

	got, err = repo.GetByEmail(dbc, "  UserRepo@Example.com ")
	if err != nil || got.ID != created[0].ID {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}

	exists, err := repo.EmailExists(dbc, created[0].Email, uuid.Nil)
	if err != nil || !exists {
		t.Fatalf("EmailExists: exists=%v err=%v", exists, err)
	}
	exists, err = repo.EmailExists(dbc, created[0].Email, created[0].ID)
	if err != nil || exists {
		t.Fatalf("EmailExists (self excluded): exists=%v err=%v", exists, err)
	}

	if err := repo.UpdateFields(dbc, created[0].ID, map[string]interface{}{"name": "Grace"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	got, _ = repo.GetByID(dbc, created[0].ID)
	if got.Name != "Grace" {
		t.Fatalf("UpdateFields: expected Grace, got %q", got.Name)
	}
}

func TestUserActivityRepo(t *testing.T) {
	db := testutil.DB(t)
	repo := NewUserActivityRepo(db, testutil.Logger(t))
	dbc := dbctx.Context{Ctx: context.Background()}
	userID := uuid.New()

	empty, err := repo.Get(dbc, userID)
	if err != nil {
		t.Fatalf("Get (empty): %v", err)
	}
	if len(empty.Counts()) != 0 {
		t.Fatalf("Get (empty): expected no counts, got %v", empty.Counts())
	}

	for i := 0; i < 2; i++ {
		if _, err := repo.Increment(dbc, userID, "2024-05-02"); err != nil {
			t.Fatalf("Increment: %v", err)
		}
	}
	row, err := repo.Increment(dbc, userID, "2024-05-03")
	if err != nil {
		t.Fatalf("Increment: %v", err)
	}
	counts := row.Counts()
	if counts["2024-05-02"] != 2 || counts["2024-05-03"] != 1 {
		t.Fatalf("unexpected counts: %v", counts)
	}

	stored, err := repo.Get(dbc, userID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Counts()["2024-05-02"] != 2 {
		t.Fatalf("Get: unexpected counts: %v", stored.Counts())
	}
}
