package models

import (
	"testing"
)

func TestArticle_Image(t *testing.T) {
	a := &Article{}
	if a.HasImage() || a.ImageName() != "" {
		t.Errorf("article without image reports one: %q", a.ImageName())
	}
	name := "mon-titre-1f2e.png"
	a.Image = &name
	if !a.HasImage() || a.ImageName() != name {
		t.Errorf("ImageName() = %q, want %q", a.ImageName(), name)
	}
	empty := ""
	a.Image = &empty
	if a.HasImage() {
		t.Error("empty filename must not count as an image")
	}
}

func TestProfile_Codes(t *testing.T) {
	p := &Profile{Permissions: []Permission{
		{ResourceType: "article", Action: "*"},
		{ResourceType: "user", Action: "list"},
	}}
	got := p.Codes()
	want := []string{"article:*", "user:list"}
	if len(got) != len(want) {
		t.Fatalf("Codes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Codes()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestUser_DisplayName(t *testing.T) {
	u := &User{Email: "a@b.c"}
	if u.DisplayName() != "a@b.c" {
		t.Errorf("DisplayName() = %q", u.DisplayName())
	}
	u.Name = "Alice"
	if u.DisplayName() != "Alice" {
		t.Errorf("DisplayName() = %q", u.DisplayName())
	}
}
