package state

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ShayCichocki/devcrew/pkg/models"
)

func sampleSession(t *testing.T, db *DB) *models.Session {
	t.Helper()
	sess := models.NewSession(models.ModeRun, "Find bugs in wallet.ts", models.SessionParams{})
	root := models.NewAssignment(sess.ID, sess.Request)
	sess.Root = root

	a := root.NewChild("analyze wallet.ts", models.RoleAnalyzer)
	a.Iterations = 3
	a.Finish(models.Succeeded(models.RoleAnalyzer, "2 bugs"))

	q := root.NewChild("write tests", models.RoleQATester)
	q.Iterations = 1
	q.Finish(models.Failed(models.RoleQATester, models.NewFailure(models.FailureCapabilityViolation, "may not delegate")))

	root.Iterations = 2
	root.Finish(models.Succeeded(models.RoleManager, "final report"))
	sess.Complete(root.Result)

	if err := db.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if err := db.SaveTree(root); err != nil {
		t.Fatalf("SaveTree() error = %v", err)
	}
	return sess
}

func TestSession_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	sess := sampleSession(t, db)

	got, err := db.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Mode != models.ModeRun || got.Status != models.SessionCompleted {
		t.Errorf("got mode=%q status=%q", got.Mode, got.Status)
	}
	if got.Request != sess.Request {
		t.Errorf("Request = %q", got.Request)
	}
	if got.Root == nil || got.Root.ID != sess.Root.ID {
		t.Errorf("Root = %+v, want id %s", got.Root, sess.Root.ID)
	}
	if got.Result == nil || got.Result.Payload != "final report" {
		t.Errorf("Result = %+v", got.Result)
	}
	if got.EndedAt == nil {
		t.Error("EndedAt not stored")
	}
}

func TestSession_UpdateAndFailure(t *testing.T) {
	db := openTestDB(t)
	sess := models.NewSession(models.ModeTest, "Analyze auth", models.SessionParams{Iterations: 2, EvaluationModel: "judge"})
	if err := db.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}

	sess.Fail(models.WrapFailure(models.FailureEngine, errors.New("503"), "step 1"))
	if err := db.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession(update) error = %v", err)
	}

	got, err := db.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession() error = %v", err)
	}
	if got.Status != models.SessionFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	if got.Failure == nil || got.Failure.Kind != models.FailureEngine || got.Failure.Message != "step 1: 503" {
		t.Errorf("Failure = %+v", got.Failure)
	}
	if got.Params.Iterations != 2 || got.Params.EvaluationModel != "judge" {
		t.Errorf("Params = %+v", got.Params)
	}
}

func TestGetSession_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetSession("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetSession() error = %v, want ErrNotFound", err)
	}
}

func TestListSessions_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	base := time.Now().Add(-time.Hour)
	for i, req := range []string{"first", "second", "third"} {
		s := models.NewSession(models.ModeRun, req, models.SessionParams{})
		s.StartedAt = base.Add(time.Duration(i) * time.Minute)
		if err := db.SaveSession(s); err != nil {
			t.Fatalf("SaveSession() error = %v", err)
		}
	}

	all, err := db.ListSessions(0)
	if err != nil {
		t.Fatalf("ListSessions() error = %v", err)
	}
	if len(all) != 3 || all[0].Request != "third" || all[2].Request != "first" {
		t.Errorf("ListSessions() order = %v", all)
	}

	limited, _ := db.ListSessions(2)
	if len(limited) != 2 {
		t.Errorf("ListSessions(2) = %d sessions", len(limited))
	}
}

func TestLoadTree(t *testing.T) {
	db := openTestDB(t)
	sess := sampleSession(t, db)

	root, err := db.LoadTree(sess.Root.ID)
	if err != nil {
		t.Fatalf("LoadTree() error = %v", err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("Children = %d, want 2", len(root.Children))
	}

	a, q := root.Children[0], root.Children[1]
	if a.Assignee != models.RoleAnalyzer || a.Index != 0 || a.Iterations != 3 {
		t.Errorf("first child = %+v", a)
	}
	if a.Origin != models.RoleManager || a.ParentID != root.ID {
		t.Errorf("first child origin=%q parent=%q", a.Origin, a.ParentID)
	}
	if !a.Result.Success || a.Result.Payload != "2 bugs" {
		t.Errorf("first child result = %+v", a.Result)
	}
	if q.Result.Success || q.Result.Failure.Kind != models.FailureCapabilityViolation {
		t.Errorf("second child result = %+v", q.Result)
	}
	if q.Result.Failure.Role != models.RoleQATester {
		t.Errorf("failure role = %q", q.Result.Failure.Role)
	}

	// Loading a child gives just that subtree.
	child, err := db.LoadTree(a.ID)
	if err != nil {
		t.Fatalf("LoadTree(child) error = %v", err)
	}
	if child.ID != a.ID || len(child.Children) != 0 {
		t.Errorf("LoadTree(child) = %+v", child)
	}
}

func TestGetAssignment_NotFound(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.GetAssignment("unknown-123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAssignment() error = %v, want ErrNotFound", err)
	}
	if _, err := db.LoadTree("unknown-123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("LoadTree() error = %v, want ErrNotFound", err)
	}
}

func TestSaveAssignment_Concurrent(t *testing.T) {
	db := openTestDB(t)
	sess := models.NewSession(models.ModeRun, "r", models.SessionParams{})
	root := models.NewAssignment(sess.ID, "r")
	sess.Root = root
	if err := db.SaveSession(sess); err != nil {
		t.Fatalf("SaveSession() error = %v", err)
	}
	if err := db.SaveAssignment(root); err != nil {
		t.Fatalf("SaveAssignment(root) error = %v", err)
	}

	var children []*models.Assignment
	for i := 0; i < 8; i++ {
		children = append(children, root.NewChild("part", models.RoleAnalyzer))
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(children)*2)
	for _, c := range children {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Start()
			errs <- db.SaveAssignment(c)
			c.Finish(models.Succeeded(models.RoleAnalyzer, "ok"))
			errs <- db.SaveAssignment(c)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("SaveAssignment() error = %v", err)
		}
	}

	all, err := db.ListAssignments(sess.ID)
	if err != nil {
		t.Fatalf("ListAssignments() error = %v", err)
	}
	if len(all) != 9 {
		t.Fatalf("ListAssignments() = %d rows, want 9", len(all))
	}
	if all[0].ID != root.ID {
		t.Error("root should be listed first")
	}
	for i, a := range all[1:] {
		if a.Index != i {
			t.Errorf("child %d has Index %d", i, a.Index)
		}
		if a.Status != models.AssignmentCompleted {
			t.Errorf("child %d status = %q", i, a.Status)
		}
	}
}

func TestAssignment_RequiresSession(t *testing.T) {
	db := openTestDB(t)
	orphan := models.NewAssignment("no-such-session", "goal")
	if err := db.SaveAssignment(orphan); err == nil {
		t.Error("SaveAssignment() should fail without a session row")
	}
}

func TestIterations_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	sess := sampleSession(t, db)

	records := []IterationRecord{
		{OperationID: "op-1", Mode: models.ModeTest, Model: "judge", Outcome: models.IterationOutcome{
			Iteration: 1, SessionID: sess.ID, Success: true, Payload: "ok",
			RolesUsed: []models.Role{models.RoleManager, models.RoleSecuritySpecialist},
			Duration:  1500 * time.Millisecond, Score: 8, Rationale: "specific",
		}},
		{OperationID: "op-1", Mode: models.ModeTest, Model: "judge", Outcome: models.IterationOutcome{
			Iteration: 2, Success: false, Kind: models.FailureEngine, Message: "503",
		}},
	}
	for _, r := range records {
		if err := db.RecordIteration(r); err != nil {
			t.Fatalf("RecordIteration() error = %v", err)
		}
	}

	got, err := db.ListIterations("op-1")
	if err != nil {
		t.Fatalf("ListIterations() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListIterations() = %d, want 2", len(got))
	}
	first := got[0].Outcome
	if first.Score != 8 || first.Duration != 1500*time.Millisecond || len(first.RolesUsed) != 2 {
		t.Errorf("first = %+v", first)
	}
	if got[1].Outcome.Kind != models.FailureEngine || got[1].Outcome.Success {
		t.Errorf("second = %+v", got[1].Outcome)
	}
	if got[0].Model != "judge" {
		t.Errorf("Model = %q", got[0].Model)
	}

	// Duplicate iteration numbers within one operation are rejected.
	if err := db.RecordIteration(records[0]); err == nil {
		t.Error("RecordIteration() should reject a duplicate iteration")
	}
}

func TestRecoverStale(t *testing.T) {
	db := openTestDB(t)

	stale := models.NewSession(models.ModeRun, "crashed", models.SessionParams{})
	root := models.NewAssignment(stale.ID, "crashed")
	root.Start()
	stale.Root = root
	db.SaveSession(stale)
	db.SaveAssignment(root)

	done := sampleSession(t, db)

	n, err := db.RecoverStale()
	if err != nil {
		t.Fatalf("RecoverStale() error = %v", err)
	}
	if n != 1 {
		t.Errorf("RecoverStale() = %d, want 1", n)
	}

	got, _ := db.GetSession(stale.ID)
	if got.Status != models.SessionInterrupted || got.Failure.Kind != models.FailureInterrupted {
		t.Errorf("stale session = %+v", got)
	}
	a, _ := db.GetAssignment(root.ID)
	if a.Status != models.AssignmentFailed || a.Result.Failure.Kind != models.FailureInterrupted {
		t.Errorf("stale assignment = %+v", a)
	}

	untouched, _ := db.GetSession(done.ID)
	if untouched.Status != models.SessionCompleted {
		t.Errorf("completed session changed to %q", untouched.Status)
	}
}

func TestPurgeOldSessions(t *testing.T) {
	db := openTestDB(t)
	old := models.NewSession(models.ModeRun, "old", models.SessionParams{})
	old.StartedAt = time.Now().Add(-48 * time.Hour)
	db.SaveSession(old)
	sampleSession(t, db)

	n, err := db.PurgeOldSessions(24 * time.Hour)
	if err != nil {
		t.Fatalf("PurgeOldSessions() error = %v", err)
	}
	if n != 1 {
		t.Errorf("PurgeOldSessions() = %d, want 1", n)
	}
	if count, _ := db.CountSessions(); count != 1 {
		t.Errorf("CountSessions() = %d, want 1", count)
	}
}
