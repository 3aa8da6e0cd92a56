package auth

import (
	"context"
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("secret", Claims{UserID: "u1", EmployeeID: "e1", RoleName: RoleManager}, time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseToken("secret", token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != "u1" || claims.EmployeeID != "e1" || claims.RoleName != RoleManager {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if _, err := ParseToken("other", token); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestStaticPermissions(t *testing.T) {
	perms := NewStaticPermissions(RolePermissions)
	ctx := context.Background()

	cases := []struct {
		role string
		perm string
		want bool
	}{
		{RoleHR, PermEvaluationsClose, true},
		{RoleManager, PermEvaluationsClose, false},
		{RoleManager, PermEvaluationsWrite, true},
		{RoleEmployee, PermEvaluationsRespond, true},
		{RoleEmployee, PermOverridesWrite, false},
		{RoleAdmin, PermEvaluationsClose, true},
		{"", PermTemplatesRead, false},
	}
	for _, tc := range cases {
		got, err := perms.HasPermission(ctx, tc.role, tc.perm)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("%s/%s: expected %v, got %v", tc.role, tc.perm, tc.want, got)
		}
	}
}
