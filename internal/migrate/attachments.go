package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/raphaelgruber/qmigrate/internal/transform"
)

// AssetSource downloads a binary asset from the legacy system.
type AssetSource interface {
	DownloadAttachment(ctx context.Context, url string) ([]byte, error)
}

// AssetSink uploads a binary asset to the destination and returns the URL
// it is now served from.
type AssetSink interface {
	UploadFile(ctx context.Context, filename string, content []byte) (string, error)
}

// allowedExtensions are the image formats the destination accepts. Anything
// else is never downloaded.
var allowedExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "png": true, "gif": true,
	"heic": true, "heif": true, "webp": true, "avif": true,
}

var (
	imgTagPattern  = regexp.MustCompile(`<img.*?>`)
	srcAttrPattern = regexp.MustCompile(`src="(.*?)"`)
)

// Rehoster moves embedded images from the source to the destination and
// rewrites the body to point at their new location. A failed attachment
// never aborts the item: its marker is removed and a note is appended.
type Rehoster struct {
	Source  AssetSource
	Sink    AssetSink
	BaseURL string
	Logger  *slog.Logger
	DryRun  bool
}

// Rehost scans body for embedded image markers, migrates each referenced
// asset, and returns the destination-ready Markdown with any failure notes
// appended after a separator, in encounter order.
func (r *Rehoster) Rehost(ctx context.Context, body string, itemID int64) string {
	var notes []string

	for _, tag := range imgTagPattern.FindAllString(body, -1) {
		m := srcAttrPattern.FindStringSubmatch(tag)
		if m == nil {
			r.logger().Warn("img tag without src attribute", "item", itemID, "tag", tag)
			continue
		}
		src := m[1]
		filename := attachmentFilename(itemID, src)
		fullURL := r.resolveURL(src)

		if r.DryRun {
			r.logger().Info("would migrate attachment", "item", itemID, "file", filename, "url", fullURL)
			continue
		}

		if !allowedExtensions[extensionOf(filename)] {
			body = strings.Replace(body, tag, "", 1)
			notes = append(notes, fmt.Sprintf(
				"*A file named '%s' was present in the original content but couldn't be uploaded due to unsupported file type.*", filename))
			r.logger().Warn("skipping unsupported attachment type", "item", itemID, "file", filename)
			continue
		}

		content, err := r.Source.DownloadAttachment(ctx, fullURL)
		if err != nil {
			body = strings.Replace(body, tag, "", 1)
			notes = append(notes, fmt.Sprintf("[Failed to download attachment: %s. Error: %s]", filename, err))
			r.logger().Warn("attachment download failed", "item", itemID, "file", filename, "error", err)
			continue
		}

		newURL, err := r.Sink.UploadFile(ctx, filename, content)
		switch {
		case err != nil:
			body = strings.Replace(body, tag, "", 1)
			notes = append(notes, fmt.Sprintf("[Error uploading file '%s': %s]", filename, err))
			r.logger().Warn("attachment upload failed", "item", itemID, "file", filename, "error", err)
		case newURL == "":
			body = strings.Replace(body, tag, "", 1)
			notes = append(notes, fmt.Sprintf(
				"*A file named '%s' was present in the original content but couldn't be uploaded.*", filename))
			r.logger().Warn("attachment upload returned no url", "item", itemID, "file", filename)
		default:
			// keep inline positioning: substitute the URL, not the marker
			body = strings.ReplaceAll(body, src, newURL)
			r.logger().Info("migrated attachment", "item", itemID, "file", filename, "url", newURL)
		}
	}

	out := transform.Markdown(body)
	if len(notes) > 0 {
		out += "\n\n---\n\n" + strings.Join(notes, "\n\n")
	}
	return out + "\n\n"
}

func (r *Rehoster) resolveURL(src string) string {
	if strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://") {
		return src
	}
	if !strings.HasPrefix(src, "/") {
		src = "/" + src
	}
	return strings.TrimRight(r.BaseURL, "/") + src
}

func (r *Rehoster) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// attachmentFilename derives a deterministic name from the item id and the
// URL tail, dropping any query string.
func attachmentFilename(itemID int64, src string) string {
	base := src
	if i := strings.LastIndex(base, "/"); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.Index(base, "?"); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("attachment_%d_%s", itemID, base)
}

func extensionOf(filename string) string {
	i := strings.LastIndex(filename, ".")
	if i < 0 || i == len(filename)-1 {
		return ""
	}
	return strings.ToLower(filename[i+1:])
}
