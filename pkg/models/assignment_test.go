package models

import "testing"

func TestAssignmentStatus_Valid(t *testing.T) {
	tests := []struct {
		name   string
		status AssignmentStatus
		want   bool
	}{
		{"pending is valid", AssignmentPending, true},
		{"running is valid", AssignmentRunning, true},
		{"completed is valid", AssignmentCompleted, true},
		{"failed is valid", AssignmentFailed, true},
		{"empty string is invalid", AssignmentStatus(""), false},
		{"unknown status is invalid", AssignmentStatus("done"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.status.Valid(); got != tt.want {
				t.Errorf("AssignmentStatus(%q).Valid() = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestNewAssignment(t *testing.T) {
	a := NewAssignment("sess-1", "Find bugs in wallet.go")

	if a.ID == "" {
		t.Error("NewAssignment() should assign an ID")
	}
	if a.Assignee != RoleManager {
		t.Errorf("Assignee = %q, want manager", a.Assignee)
	}
	if a.Origin != "" {
		t.Errorf("Origin = %q, want empty for top-level", a.Origin)
	}
	if !a.IsTopLevel() {
		t.Error("IsTopLevel() = false for root")
	}
	if a.Status != AssignmentPending {
		t.Errorf("Status = %q, want pending", a.Status)
	}
}

func TestAssignment_NewChild(t *testing.T) {
	root := NewAssignment("sess-1", "Review auth")
	child := root.NewChild("Check token expiry", RoleSecuritySpecialist)

	if child.ParentID != root.ID {
		t.Errorf("ParentID = %q, want %q", child.ParentID, root.ID)
	}
	if child.SessionID != "sess-1" {
		t.Errorf("SessionID = %q, want sess-1", child.SessionID)
	}
	if child.Origin != RoleManager {
		t.Errorf("Origin = %q, want manager", child.Origin)
	}
	if child.IsTopLevel() {
		t.Error("child should not be top-level")
	}
	if child.Index != 0 || root.NewChild("second", RoleQATester).Index != 1 {
		t.Error("NewChild() should number children in order")
	}
	if len(root.Children) != 2 || root.Children[0] != child {
		t.Error("NewChild() should append to Children")
	}
}

func TestAssignment_FinishOnce(t *testing.T) {
	a := NewAssignment("s", "g")
	a.Start()
	if a.Status != AssignmentRunning {
		t.Fatalf("Status = %q after Start", a.Status)
	}

	a.Finish(Succeeded(RoleManager, "done"))
	if a.Status != AssignmentCompleted || a.CompletedAt == nil {
		t.Fatalf("Status = %q, CompletedAt = %v", a.Status, a.CompletedAt)
	}

	// The first terminal result wins.
	a.Finish(Failed(RoleManager, NewFailure(FailureInterrupted, "late")))
	if a.Status != AssignmentCompleted || !a.Result.Success {
		t.Error("second Finish() overwrote the result")
	}
}

func TestFailed_SetsRole(t *testing.T) {
	r := Failed(RoleAnalyzer, NewFailure(FailureCapabilityViolation, "x"))
	if r.Success {
		t.Error("Failed() result should not succeed")
	}
	if r.Failure.Role != RoleAnalyzer {
		t.Errorf("Failure.Role = %q, want analyzer", r.Failure.Role)
	}
}

func TestAssignment_FindAndRolesUsed(t *testing.T) {
	root := NewAssignment("s", "g")
	a := root.NewChild("analyze", RoleAnalyzer)
	b := root.NewChild("test", RoleQATester)
	root.NewChild("analyze more", RoleAnalyzer)
	root.NewChild("refused", RoleUIDesigner)
	for _, n := range []*Assignment{root, a, b, root.Children[2]} {
		n.Iterations = 1
	}

	if got := root.Find(b.ID); got != b {
		t.Errorf("Find(%q) = %v, want child b", b.ID, got)
	}
	if got := root.Find(a.ID); got != a {
		t.Errorf("Find(%q) = %v, want child a", a.ID, got)
	}
	if root.Find("missing") != nil {
		t.Error("Find(missing) should be nil")
	}

	roles := root.RolesUsed()
	want := []Role{RoleManager, RoleAnalyzer, RoleQATester}
	if len(roles) != len(want) {
		t.Fatalf("RolesUsed() = %v, want %v", roles, want)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Errorf("RolesUsed()[%d] = %q, want %q", i, roles[i], want[i])
		}
	}
}
