package model

import "testing"

func TestUser_ToPostAuthor(t *testing.T) {
	t.Parallel()

	avatar := "https://example.com/a.png"
	email := "jo@example.com"
	u := User{ID: "u1", Username: "jo", Email: &email, Avatar: &avatar, Level: 4, Role: UserRoleAdmin}

	a := u.ToPostAuthor()

	if a.ID != "u1" || a.Username != "jo" || a.Level != 4 {
		t.Errorf("unexpected author: %+v", a)
	}
	if a.Avatar == nil || *a.Avatar != avatar {
		t.Fatalf("expected avatar %q, got %v", avatar, a.Avatar)
	}
	if a.Avatar == u.Avatar {
		t.Error("author avatar must not alias the user's")
	}
}

func TestUser_ToPostAuthor_NoAvatar(t *testing.T) {
	t.Parallel()

	u := User{ID: "u1", Username: "jo"}
	a := u.ToPostAuthor()

	if a.Avatar != nil {
		t.Errorf("expected nil avatar, got %v", *a.Avatar)
	}
}

func TestUser_IsAdmin(t *testing.T) {
	t.Parallel()

	admin := &User{Role: UserRoleAdmin}
	member := &User{Role: UserRoleMember}

	if !admin.IsAdmin() {
		t.Error("admin should be admin")
	}
	if member.IsAdmin() {
		t.Error("member should not be admin")
	}
}
