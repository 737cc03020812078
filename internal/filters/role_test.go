package filters

import "testing"

func TestRoleAcceptorAccept(t *testing.T) {
	a := RoleAcceptor{UserRoles: []string{"product manager"}}

	cases := []struct {
		title string
		want  bool
	}{
		{"Senior Software Engineer", false},
		{"Staff Engineer", false},
		{"Director of Engineering", false},
		{"Software Engineer I", true},
		{"New Grad Software Engineer", true},
		{"Data Analyst", true},
		{"Product Manager", false}, // seniority token "manager" outranks the user role
		{"Executive Chef", false},
	}

	for _, tc := range cases {
		got, _ := a.Accept(tc.title)
		if got != tc.want {
			t.Errorf("Accept(%q) = %v, want %v", tc.title, got, tc.want)
		}
	}
}

func TestRoleAcceptorUserRolesOnlyExtend(t *testing.T) {
	// A user role list must never be able to reject an always-match title,
	// since user preferences can only extend the allowlist, not restrict it.
	a := RoleAcceptor{UserRoles: []string{"product manager"}}
	ok, _ := a.Accept("Software Engineer")
	if !ok {
		t.Error("always-match titles must pass regardless of UserRoles contents")
	}
}

func TestIsSenior(t *testing.T) {
	if !IsSenior("VP of Engineering") {
		t.Error("VP of Engineering should be flagged senior")
	}
	if IsSenior("Software Engineer") {
		t.Error("Software Engineer should not be flagged senior")
	}
}
