package platform

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected Platform
	}{
		{"watch url", "https://www.youtube.com/watch?v=dQw4w9WgXcQ", YouTube},
		{"bare domain", "https://youtube.com/watch?v=dQw4w9WgXcQ", YouTube},
		{"mobile", "https://m.youtube.com/watch?v=dQw4w9WgXcQ", YouTube},
		{"music", "https://music.youtube.com/watch?v=dQw4w9WgXcQ", YouTube},
		{"short link", "https://youtu.be/dQw4w9WgXcQ", YouTube},
		{"shorts", "https://www.youtube.com/shorts/dQw4w9WgXcQ", YouTube},
		{"embed", "https://www.youtube-nocookie.com/embed/dQw4w9WgXcQ", YouTube},
		{"upper case host", "https://WWW.YOUTUBE.COM/watch?v=dQw4w9WgXcQ", YouTube},
		{"youtube channel page", "https://www.youtube.com/@someone", Unsupported},
		{"short link without id", "https://youtu.be/", Unsupported},
		{"tiktok", "https://www.tiktok.com/@user/video/1234567890", TikTok},
		{"tiktok short", "https://vm.tiktok.com/ZMabc123/", TikTok},
		{"facebook", "https://www.facebook.com/watch/?v=123", Facebook},
		{"fb.watch", "https://fb.watch/abc123/", Facebook},
		{"instagram", "https://www.instagram.com/reel/Cabc123/", Instagram},
		{"youtube in query", "https://evil.example/watch?next=youtube.com/watch?v=dQw4w9WgXcQ", Unsupported},
		{"youtube in path", "https://evil.example/youtu.be/dQw4w9WgXcQ", Unsupported},
		{"lookalike suffix", "https://notyoutube.com/watch?v=dQw4w9WgXcQ", Unsupported},
		{"lookalike prefix", "https://youtube.com.evil.example/watch?v=dQw4w9WgXcQ", Unsupported},
		{"vimeo", "https://vimeo.com/123456", Unsupported},
		{"non-http scheme", "ftp://youtube.com/watch?v=dQw4w9WgXcQ", Unsupported},
		{"not a url", "youtube video please", Unsupported},
		{"empty", "", Unsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.url); got != tt.expected {
				t.Errorf("Classify(%q) = %v, want %v", tt.url, got, tt.expected)
			}
		})
	}
}

func TestYouTubeVideoID(t *testing.T) {
	tests := []struct {
		url    string
		wantID string
		ok     bool
	}{
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://youtu.be/dQw4w9WgXcQ?t=42", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/shorts/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/embed/dQw4w9WgXcQ", "dQw4w9WgXcQ", true},
		{"https://www.youtube.com/watch?v=short", "", false},
		{"https://www.youtube.com/watch", "", false},
		{"https://www.youtube.com/watch?v=dQw4w9WgXcQ!", "", false},
		{"https://vimeo.com/watch?v=dQw4w9WgXcQ", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			id, ok := YouTubeVideoID(tt.url)
			if ok != tt.ok || id != tt.wantID {
				t.Errorf("YouTubeVideoID(%q) = %q, %v; want %q, %v", tt.url, id, ok, tt.wantID, tt.ok)
			}
		})
	}
}

func TestParsePlatform(t *testing.T) {
	for _, p := range []Platform{YouTube, TikTok, Facebook, Instagram} {
		got, ok := ParsePlatform(p.String())
		if !ok || got != p {
			t.Errorf("ParsePlatform(%q) = %v, %v", p.String(), got, ok)
		}
	}

	if _, ok := ParsePlatform("vimeo"); ok {
		t.Error("expected vimeo to be rejected")
	}
	if _, ok := ParsePlatform("YouTube"); ok {
		t.Error("expected tokens to be case sensitive")
	}
}

func TestPlatformNames(t *testing.T) {
	if Unsupported.String() != "unsupported" {
		t.Errorf("unexpected name %q", Unsupported.String())
	}
	if Instagram.String() != "instagram" {
		t.Errorf("unexpected name %q", Instagram.String())
	}
}
