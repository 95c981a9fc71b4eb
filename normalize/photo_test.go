package normalize

import (
	"net/url"
	"testing"
)

type stubAvatars struct{}

func (stubAvatars) AvatarURL(path string) (string, bool) {
	return "https://storage.test/avatars/" + path, true
}

type unconfiguredAvatars struct{}

func (unconfiguredAvatars) AvatarURL(string) (string, bool) { return "", false }

type countingAvatars struct{ calls int }

func (c *countingAvatars) AvatarURL(path string) (string, bool) {
	c.calls++
	return "https://storage.test/" + path, true
}

func TestCleanAvatarPath(t *testing.T) {
	tests := map[string]string{
		"u1.png":                 "u1.png",
		"/u1.png":                "u1.png",
		"avatars/u1.png":         "u1.png",
		"avatars/avatars/u1.png": "u1.png",
		"users/avatars/u1.png":   "users/avatars/u1.png",
	}
	for in, want := range tests {
		if got := CleanAvatarPath(in); got != want {
			t.Errorf("CleanAvatarPath(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPhotoPriority(t *testing.T) {
	row := Record{
		"id":        "r1",
		"account":   `{"avatar_path":"avatars/avatars/r1.jpg","photo_url":"https://account.example/r1.jpg"}`,
		"photo_url": "https://direct.example/r1.jpg",
	}

	got, ok := NewPhotoResolver(stubAvatars{}, nil).Resolve(row)
	if !ok || got != "https://storage.test/avatars/r1.jpg" {
		t.Fatalf("expected storage URL, got %q", got)
	}
}

func TestPhotoStrategies(t *testing.T) {
	tests := []struct {
		name    string
		avatars AvatarURLBuilder
		row     Record
		want    string
	}{
		{
			name:    "storage not configured",
			avatars: unconfiguredAvatars{},
			row:     Record{"account": `{"avatar_path":"x.png","photoUrl":"https://acc/x.png"}`},
			want:    "https://acc/x.png",
		},
		{
			name: "row key",
			row:  Record{"avatar": "https://row/a.png"},
			want: "https://row/a.png",
		},
		{
			name: "alternate container",
			row:  Record{"user_metadata": `{"profile_image":"https://meta/p.png"}`},
			want: "https://meta/p.png",
		},
		{
			name: "json text field",
			row:  Record{"zz_extra": ` {"profilePhoto":"https://scan/p.png"}`},
			want: "https://scan/p.png",
		},
		{
			name: "blank values skipped",
			row:  Record{"photo_url": "  ", "image": "https://row/i.png"},
			want: "https://row/i.png",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			got, _ := NewPhotoResolver(tc.avatars, nil).Resolve(tc.row)
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestPhotoNone(t *testing.T) {
	if got, ok := NewPhotoResolver(nil, nil).Resolve(Record{"id": 1, "notes": "{broken"}); ok {
		t.Fatalf("expected no photo, got %q", got)
	}
}

func TestSecurePhotoResolver(t *testing.T) {
	hosts := ParseHostList("lh3.googleusercontent.com, graph.facebook.com")
	r := NewSecurePhotoResolver(nil, nil, "/api/photo-proxy", hosts)

	got, _ := r.Resolve(Record{"photo_url": "http://cdn.example.com/a.png"})
	if got != "https://cdn.example.com/a.png" {
		t.Fatalf("expected https upgrade, got %q", got)
	}

	got, _ = r.Resolve(Record{"photo_url": "http://lh3.googleusercontent.com/a/b"})
	want := "/api/photo-proxy?url=" + url.QueryEscape("https://lh3.googleusercontent.com/a/b")
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestHostListMatch(t *testing.T) {
	hosts := ParseHostList("googleusercontent.com")
	if !hosts.Match("lh3.googleusercontent.com") || !hosts.Match("GOOGLEUSERCONTENT.COM") {
		t.Fatalf("expected subdomain and case-insensitive match")
	}
	if hosts.Match("evilgoogleusercontent.com") {
		t.Fatalf("unexpected suffix match without dot")
	}
}

func TestPhotoCacheByRowID(t *testing.T) {
	avatars := &countingAvatars{}
	cache := NewMemoryPhotoCache()
	r := NewPhotoResolver(avatars, cache)
	row := Record{"id": 7, "account": map[string]any{"avatar_path": "7.png"}}

	r.Resolve(row)
	r.Resolve(row)
	if avatars.calls != 1 {
		t.Fatalf("expected one lookup, got %d", avatars.calls)
	}

	r.Invalidate(7)
	r.Resolve(row)
	if avatars.calls != 2 {
		t.Fatalf("expected lookup after invalidation, got %d", avatars.calls)
	}

	r.Reset()
	if cache.Len() != 0 {
		t.Fatalf("expected empty cache after reset")
	}
}

func TestPhotoCacheRemembersMisses(t *testing.T) {
	cache := NewMemoryPhotoCache()
	r := NewPhotoResolver(nil, cache)
	if _, ok := r.Resolve(Record{"id": "x"}); ok {
		t.Fatalf("expected no photo")
	}
	if u, ok := cache.Get("x"); !ok || u != "" {
		t.Fatalf("expected cached miss, got %q %v", u, ok)
	}
}
