package migrate

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeAssetSource struct {
	data      map[string][]byte
	err       error
	downloads []string
}

func (f *fakeAssetSource) DownloadAttachment(ctx context.Context, url string) ([]byte, error) {
	f.downloads = append(f.downloads, url)
	if f.err != nil {
		return nil, f.err
	}
	return f.data[url], nil
}

type fakeAssetSink struct {
	urls    map[string]string
	err     error
	uploads []string
}

func (f *fakeAssetSink) UploadFile(ctx context.Context, filename string, content []byte) (string, error) {
	f.uploads = append(f.uploads, filename)
	if f.err != nil {
		return "", f.err
	}
	return f.urls[filename], nil
}

func TestRehoster_UnsupportedTypeDegrades(t *testing.T) {
	source := &fakeAssetSource{}
	sink := &fakeAssetSink{}
	r := &Rehoster{Source: source, Sink: sink, BaseURL: "https://wiki.example.com"}

	body := `<p>tool: <img src="/download/attachments/101/setup.exe"></p>`
	got := r.Rehost(context.Background(), body, 101)

	if strings.Contains(got, "setup.exe\"") || strings.Contains(got, "<img") {
		t.Errorf("image marker not removed:\n%s", got)
	}
	if !strings.Contains(got, "attachment_101_setup.exe") || !strings.Contains(got, "unsupported file type") {
		t.Errorf("missing degrade note:\n%s", got)
	}
	if len(source.downloads) != 0 {
		t.Errorf("unsupported type must not be downloaded, got %v", source.downloads)
	}
	if len(sink.uploads) != 0 {
		t.Errorf("unsupported type must not be uploaded, got %v", sink.uploads)
	}
}

func TestRehoster_RoundTrip(t *testing.T) {
	const (
		src    = "/download/attachments/101/shot.png?version=2"
		full   = "https://wiki.example.com/download/attachments/101/shot.png?version=2"
		newURL = "https://forum.example.com/uploads/default/shot.png"
	)

	source := &fakeAssetSource{data: map[string][]byte{full: []byte("png-bytes")}}
	sink := &fakeAssetSink{urls: map[string]string{"attachment_101_shot.png": newURL}}
	r := &Rehoster{Source: source, Sink: sink, BaseURL: "https://wiki.example.com"}

	body := `<p>before <img src="` + src + `"> after</p>`
	got := r.Rehost(context.Background(), body, 101)

	if strings.Contains(got, src) {
		t.Errorf("original reference still present:\n%s", got)
	}
	if !strings.Contains(got, newURL) {
		t.Errorf("new reference missing:\n%s", got)
	}
	if strings.Contains(got, "---") {
		t.Errorf("no failure notes expected:\n%s", got)
	}
	if len(source.downloads) != 1 || source.downloads[0] != full {
		t.Errorf("downloads = %v, want [%s]", source.downloads, full)
	}
}

func TestRehoster_DownloadFailureDegrades(t *testing.T) {
	source := &fakeAssetSource{err: errors.New("connection refused")}
	sink := &fakeAssetSink{}
	r := &Rehoster{Source: source, Sink: sink, BaseURL: "https://wiki.example.com"}

	body := `<img src="/download/attachments/101/shot.png">`
	got := r.Rehost(context.Background(), body, 101)

	if strings.Contains(got, "<img") || strings.Contains(got, "![") {
		t.Errorf("marker should be removed:\n%s", got)
	}
	if !strings.Contains(got, "Failed to download attachment: attachment_101_shot.png") {
		t.Errorf("missing failure note:\n%s", got)
	}
	if !strings.Contains(got, "connection refused") {
		t.Errorf("note should name the cause:\n%s", got)
	}
}

func TestRehoster_UploadFailureNotesAccumulate(t *testing.T) {
	source := &fakeAssetSource{data: map[string][]byte{
		"https://wiki.example.com/a/one.png": []byte("1"),
		"https://wiki.example.com/a/two.png": []byte("2"),
	}}
	sink := &fakeAssetSink{err: errors.New("quota exceeded")}
	r := &Rehoster{Source: source, Sink: sink, BaseURL: "https://wiki.example.com"}

	body := `<img src="/a/one.png"> and <img src="/a/two.png">`
	got := r.Rehost(context.Background(), body, 7)

	one := strings.Index(got, "attachment_7_one.png")
	two := strings.Index(got, "attachment_7_two.png")
	if one < 0 || two < 0 {
		t.Fatalf("missing notes:\n%s", got)
	}
	if one > two {
		t.Errorf("notes out of encounter order:\n%s", got)
	}
	if !strings.Contains(got, "\n\n---\n\n") {
		t.Errorf("notes should follow a separator:\n%s", got)
	}
}

func TestRehoster_AbsoluteURLPassthrough(t *testing.T) {
	const full = "https://elsewhere.example.com/pic.png"
	source := &fakeAssetSource{data: map[string][]byte{full: []byte("x")}}
	sink := &fakeAssetSink{urls: map[string]string{"attachment_9_pic.png": "/uploads/pic.png"}}
	r := &Rehoster{Source: source, Sink: sink, BaseURL: "https://wiki.example.com"}

	r.Rehost(context.Background(), `<img src="`+full+`">`, 9)

	if len(source.downloads) != 1 || source.downloads[0] != full {
		t.Errorf("absolute URL must pass through unchanged, downloads = %v", source.downloads)
	}
}

func TestRehoster_DryRunTouchesNothing(t *testing.T) {
	source := &fakeAssetSource{}
	sink := &fakeAssetSink{}
	r := &Rehoster{Source: source, Sink: sink, BaseURL: "https://wiki.example.com", DryRun: true}

	r.Rehost(context.Background(), `<img src="/a/shot.png">`, 9)

	if len(source.downloads) != 0 || len(sink.uploads) != 0 {
		t.Error("dry run must not download or upload")
	}
}

func TestAttachmentFilename(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"simple", "/a/b/shot.png", "attachment_101_shot.png"},
		{"query stripped", "/a/shot.png?version=2&x=1", "attachment_101_shot.png"},
		{"no slash", "shot.png", "attachment_101_shot.png"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := attachmentFilename(101, tt.src); got != tt.want {
				t.Errorf("attachmentFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}
