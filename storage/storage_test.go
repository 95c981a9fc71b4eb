package storage

import "testing"

func TestTemplateAvatarURL(t *testing.T) {
	urls := NewTemplateAvatarURLs("https://project.storage.test/", "", "tok en")

	got, ok := urls.AvatarURL("user 1/pic.png")
	if !ok {
		t.Fatalf("expected a URL")
	}
	want := "https://project.storage.test/storage/v1/object/authenticated/avatars/user%201/pic.png?token=tok+en"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTemplateAvatarURLUnconfigured(t *testing.T) {
	tests := []struct {
		name string
		urls *TemplateAvatarURLs
	}{
		{"nil", nil},
		{"no endpoint", NewTemplateAvatarURLs("", "avatars", "tok")},
		{"no token", NewTemplateAvatarURLs("https://x", "avatars", "")},
	}
	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			if u, ok := tc.urls.AvatarURL("a.png"); ok {
				t.Fatalf("expected no URL, got %q", u)
			}
		})
	}
}

func TestFileHelpers(t *testing.T) {
	if !isImageFile("Photo.JPG") || isImageFile("notes.pdf") || isImageFile("noext") {
		t.Fatalf("unexpected image detection")
	}
	if getContentType("webp") != "image/webp" || getContentType("bin") != "application/octet-stream" {
		t.Fatalf("unexpected content types")
	}
}
