package tasks_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ujjwalcurry30/Task-Tracker/internal/models"
	"github.com/ujjwalcurry30/Task-Tracker/internal/repository"
	"github.com/ujjwalcurry30/Task-Tracker/internal/taskquery"
	"github.com/ujjwalcurry30/Task-Tracker/internal/tasks"
	"github.com/ujjwalcurry30/Task-Tracker/internal/testutil"
)

var testDB *sql.DB

func TestMain(m *testing.M) {
	db, cleanup, err := testutil.StartPostgres()
	if err != nil {
		fmt.Printf("skipping tasks integration tests: %v\n", err)
		os.Exit(0)
	}
	testDB = db
	repository.CreateTableIfNotExists(testDB)

	code := m.Run()
	cleanup()
	os.Exit(code)
}

// createUser menyisipkan user langsung; test di sini tidak butuh credential store.
func createUser(t *testing.T, name string) int {
	t.Helper()
	var id int
	err := testDB.QueryRow(
		"INSERT INTO users (name, email, password_hash) VALUES ($1, $2, 'x') RETURNING id",
		name, fmt.Sprintf("%s_%d@example.com", name, time.Now().UnixNano()),
	).Scan(&id)
	require.NoError(t, err)
	return id
}

func newStore() *tasks.Store {
	// Tanpa Redis: store berjalan langsung ke database
	return tasks.NewStore(testDB, nil)
}

func mustCreate(t *testing.T, store *tasks.Store, ownerID int, p tasks.CreateParams) *models.Task {
	t.Helper()
	task, err := store.Create(context.Background(), ownerID, p)
	require.NoError(t, err)
	return task
}

func listIDs(t *testing.T, store *tasks.Store, callerID int, status, search, assignedTo string) []int {
	t.Helper()
	result, err := store.List(context.Background(), taskquery.Scoped(callerID, status, search, assignedTo))
	require.NoError(t, err)
	ids := make([]int, 0, len(result))
	for _, task := range result {
		ids = append(ids, task.ID)
	}
	return ids
}

func TestCreateDefaults(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_defaults")

	task := mustCreate(t, store, owner, tasks.CreateParams{Title: "  spaced title  "})

	assert.Equal(t, owner, task.OwnerID)
	assert.Equal(t, "spaced title", task.Title)
	assert.Nil(t, task.AssignedTo)
	assert.Nil(t, task.DueDate)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, models.StatusTodo, task.Status)
	assert.False(t, task.CreatedAt.IsZero())
}

func TestCreateValidation(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_validation")
	ctx := context.Background()

	_, err := store.Create(ctx, owner, tasks.CreateParams{Title: ""})
	assert.ErrorIs(t, err, tasks.ErrTitleRequired)

	_, err = store.Create(ctx, owner, tasks.CreateParams{Title: "   "})
	assert.ErrorIs(t, err, tasks.ErrTitleRequired)

	_, err = store.Create(ctx, owner, tasks.CreateParams{Title: "t", Priority: "urgent"})
	assert.ErrorIs(t, err, tasks.ErrInvalidPriority)

	_, err = store.Create(ctx, owner, tasks.CreateParams{Title: "t", Status: "archived"})
	assert.ErrorIs(t, err, tasks.ErrInvalidStatus)
}

func TestListVisibility(t *testing.T) {
	store := newStore()
	alice := createUser(t, "alice_vis")
	bob := createUser(t, "bob_vis")
	carol := createUser(t, "carol_vis")

	mine := mustCreate(t, store, alice, tasks.CreateParams{Title: "alice own"})
	delegated := mustCreate(t, store, bob, tasks.CreateParams{Title: "bob delegates", AssignedTo: &alice})
	mustCreate(t, store, bob, tasks.CreateParams{Title: "bob private"})
	mustCreate(t, store, carol, tasks.CreateParams{Title: "carol to bob", AssignedTo: &bob})

	ids := listIDs(t, store, alice, "", "", "")
	assert.ElementsMatch(t, []int{mine.ID, delegated.ID}, ids)
}

func TestListDefaultExcludesDone(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_done")
	done := models.StatusDone

	open := mustCreate(t, store, owner, tasks.CreateParams{Title: "open"})
	inProgress := mustCreate(t, store, owner, tasks.CreateParams{Title: "working", Status: models.StatusInProgress})
	finished := mustCreate(t, store, owner, tasks.CreateParams{Title: "finished", Status: done})

	assert.ElementsMatch(t, []int{open.ID, inProgress.ID}, listIDs(t, store, owner, "", "", ""))
	assert.ElementsMatch(t, []int{finished.ID}, listIDs(t, store, owner, done, "", ""))
	assert.ElementsMatch(t, []int{open.ID}, listIDs(t, store, owner, models.StatusTodo, "", ""))
}

func TestListUnassignedRequiresOwnership(t *testing.T) {
	store := newStore()
	alice := createUser(t, "alice_unassigned")
	bob := createUser(t, "bob_unassigned")

	mine := mustCreate(t, store, alice, tasks.CreateParams{Title: "alice unassigned"})
	mustCreate(t, store, bob, tasks.CreateParams{Title: "bob unassigned"})
	mustCreate(t, store, alice, tasks.CreateParams{Title: "alice assigned", AssignedTo: &bob})

	assert.ElementsMatch(t, []int{mine.ID}, listIDs(t, store, alice, "", "", taskquery.AssignedToUnassigned))
}

func TestListAssignedToMe(t *testing.T) {
	store := newStore()
	alice := createUser(t, "alice_me")
	bob := createUser(t, "bob_me")

	delegated := mustCreate(t, store, bob, tasks.CreateParams{Title: "for alice", AssignedTo: &alice})
	mustCreate(t, store, alice, tasks.CreateParams{Title: "alice own"})

	assert.ElementsMatch(t, []int{delegated.ID}, listIDs(t, store, alice, "", "", taskquery.AssignedToMe))
}

func TestListSearch(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_search")

	groceries := mustCreate(t, store, owner, tasks.CreateParams{Title: "Buy GROCERIES"})
	inDescription := mustCreate(t, store, owner, tasks.CreateParams{Title: "errands", Description: "groceries and stamps"})
	mustCreate(t, store, owner, tasks.CreateParams{Title: "unrelated"})

	assert.ElementsMatch(t, []int{groceries.ID, inDescription.ID},
		listIDs(t, store, owner, "", "groceries", ""))
}

func TestListOrdering(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_order")
	ctx := context.Background()

	first := mustCreate(t, store, owner, tasks.CreateParams{Title: "first"})
	second := mustCreate(t, store, owner, tasks.CreateParams{Title: "second"})
	third := mustCreate(t, store, owner, tasks.CreateParams{Title: "third"})

	// Paksa first lebih baru, second dan third imbang
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	_, err := testDB.ExecContext(ctx, "UPDATE tasks SET created_at = $1 WHERE id = $2", base.Add(time.Hour), first.ID)
	require.NoError(t, err)
	for _, id := range []int{second.ID, third.ID} {
		_, err := testDB.ExecContext(ctx, "UPDATE tasks SET created_at = $1 WHERE id = $2", base, id)
		require.NoError(t, err)
	}

	// Terbaru dulu; yang imbang mengikuti urutan insert
	assert.Equal(t, []int{first.ID, second.ID, third.ID}, listIDs(t, store, owner, "", "", ""))
}

func TestGetVisibility(t *testing.T) {
	store := newStore()
	alice := createUser(t, "alice_get")
	bob := createUser(t, "bob_get")
	carol := createUser(t, "carol_get")
	ctx := context.Background()

	task := mustCreate(t, store, alice, tasks.CreateParams{Title: "shared", AssignedTo: &bob})

	got, err := store.Get(ctx, alice, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, got.ID)

	_, err = store.Get(ctx, bob, task.ID)
	require.NoError(t, err)

	_, err = store.Get(ctx, carol, task.ID)
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestUpdatePartialFields(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_partial")
	ctx := context.Background()

	task := mustCreate(t, store, owner, tasks.CreateParams{
		Title:       "original",
		Description: "keep me",
		Priority:    models.PriorityHigh,
	})

	status := models.StatusInProgress
	updated, err := store.Update(ctx, owner, task.ID, tasks.UpdateParams{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.StatusInProgress, updated.Status)
	assert.Equal(t, "original", updated.Title)
	assert.Equal(t, "keep me", updated.Description)
	assert.Equal(t, models.PriorityHigh, updated.Priority)
	assert.Equal(t, owner, updated.OwnerID)
}

func TestUpdateValidation(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_upd_validation")
	ctx := context.Background()

	task := mustCreate(t, store, owner, tasks.CreateParams{Title: "valid"})

	empty := "   "
	_, err := store.Update(ctx, owner, task.ID, tasks.UpdateParams{Title: &empty})
	assert.ErrorIs(t, err, tasks.ErrTitleRequired)

	bogus := "bogus"
	_, err = store.Update(ctx, owner, task.ID, tasks.UpdateParams{Status: &bogus})
	assert.ErrorIs(t, err, tasks.ErrInvalidStatus)

	_, err = store.Update(ctx, owner, task.ID, tasks.UpdateParams{Priority: &bogus})
	assert.ErrorIs(t, err, tasks.ErrInvalidPriority)
}

func TestUpdateDueDateAndClear(t *testing.T) {
	store := newStore()
	owner := createUser(t, "owner_due")
	ctx := context.Background()

	task := mustCreate(t, store, owner, tasks.CreateParams{Title: "dated"})

	due := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	updated, err := store.Update(ctx, owner, task.ID, tasks.UpdateParams{DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, updated.DueDate)
	assert.Equal(t, due.Unix(), updated.DueDate.Unix())

	cleared, err := store.Update(ctx, owner, task.ID, tasks.UpdateParams{ClearDueDate: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.DueDate)
}

func TestUpdateAuthorization(t *testing.T) {
	store := newStore()
	alice := createUser(t, "alice_auth")
	bob := createUser(t, "bob_auth")
	ctx := context.Background()

	task := mustCreate(t, store, alice, tasks.CreateParams{Title: "alice only"})

	// Bukan owner, bukan assignee: tidak bisa dibedakan dari task yang tidak ada
	title := "hijacked"
	_, err := store.Update(ctx, bob, task.ID, tasks.UpdateParams{Title: &title})
	assert.ErrorIs(t, err, tasks.ErrNotFound)

	// Setelah di-assign, bob boleh update
	_, err = store.Update(ctx, alice, task.ID, tasks.UpdateParams{AssignedTo: &bob})
	require.NoError(t, err)

	done := models.StatusDone
	updated, err := store.Update(ctx, bob, task.ID, tasks.UpdateParams{Status: &done})
	require.NoError(t, err)
	assert.Equal(t, models.StatusDone, updated.Status)

	// Task selesai hilang dari list default bob, tetap muncul dengan status=done
	assert.NotContains(t, listIDs(t, store, bob, "", "", ""), task.ID)
	assert.Contains(t, listIDs(t, store, bob, models.StatusDone, "", ""), task.ID)
}

func TestUnassign(t *testing.T) {
	store := newStore()
	alice := createUser(t, "alice_unassign")
	bob := createUser(t, "bob_unassign")
	ctx := context.Background()

	task := mustCreate(t, store, alice, tasks.CreateParams{Title: "delegated", AssignedTo: &bob})

	zero := 0
	updated, err := store.Update(ctx, alice, task.ID, tasks.UpdateParams{AssignedTo: &zero})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)

	// Bob kehilangan akses setelah unassign
	_, err = store.Get(ctx, bob, task.ID)
	assert.ErrorIs(t, err, tasks.ErrNotFound)
}

func TestDeleteOwnerOnly(t *testing.T) {
	store := newStore()
	alice := createUser(t, "alice_del")
	bob := createUser(t, "bob_del")
	ctx := context.Background()

	task := mustCreate(t, store, alice, tasks.CreateParams{Title: "to delete", AssignedTo: &bob})

	// Assignee boleh baca dan update, tapi tidak boleh hapus
	assert.ErrorIs(t, store.Delete(ctx, bob, task.ID), tasks.ErrNotFound)

	require.NoError(t, store.Delete(ctx, alice, task.ID))

	// Hapus kedua kali: NotFound lagi
	assert.ErrorIs(t, store.Delete(ctx, alice, task.ID), tasks.ErrNotFound)
}
