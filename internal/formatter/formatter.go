// package formatter renders embeds, batch results and provider listings as plain text, Markdown, HTML and CSV
package formatter

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"html"
	"io"
	"maps"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/oembed/internal/oembed"
	"github.com/desertthunder/oembed/internal/registry"
	"github.com/desertthunder/oembed/internal/services"
	"github.com/desertthunder/oembed/internal/shared"
	"github.com/desertthunder/oembed/internal/tasks"
)

// Format is an output format for batch results.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates a format name. The empty string selects text.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatCSV, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension used for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatCSV:
		return "csv"
	case FormatMarkdown:
		return "md"
	default:
		return "txt"
	}
}

// EmbedHTML returns markup that displays resp: the provider's HTML for video and rich responses,
// an img tag for photos and an anchor for links.
func EmbedHTML(resp *oembed.Response, sourceURL string) string {
	title := html.EscapeString(resp.TitleOr(sourceURL))

	switch v := resp.Variant.(type) {
	case oembed.Photo:
		return fmt.Sprintf(`<img src="%s" width="%d" height="%d" alt="%s">`,
			html.EscapeString(v.URL), v.Width, v.Height, title)
	case oembed.Video:
		return v.HTML
	case oembed.Rich:
		return v.HTML
	default:
		return fmt.Sprintf(`<a href="%s">%s</a>`, html.EscapeString(sourceURL), title)
	}
}

// EmbedToText converts an Embed to a plain text summary
func EmbedToText(embed *services.Embed) []byte {
	var buf bytes.Buffer
	resp := embed.Response

	buf.WriteString(fmt.Sprintf("URL: %s\n", embed.URL))
	buf.WriteString(fmt.Sprintf("Provider: %s\n", embed.Provider.Name))
	buf.WriteString(fmt.Sprintf("Endpoint: %s\n", embed.Endpoint.URL))
	buf.WriteString(fmt.Sprintf("Type: %s\n", resp.Kind()))

	if resp.Version != "" {
		buf.WriteString(fmt.Sprintf("Version: %s\n", resp.Version))
	}
	writeOptional(&buf, "Title", resp.Title)
	writeOptional(&buf, "Author", resp.AuthorName)
	writeOptional(&buf, "Author URL", resp.AuthorURL)
	writeOptional(&buf, "Cache Age", resp.CacheAge)
	writeOptional(&buf, "Thumbnail", resp.ThumbnailURL)

	if w, h := resp.Size(); w > 0 {
		if h > 0 {
			buf.WriteString(fmt.Sprintf("Size: %dx%d\n", w, h))
		} else {
			buf.WriteString(fmt.Sprintf("Width: %d\n", w))
		}
	}
	if p, ok := resp.Variant.(oembed.Photo); ok {
		buf.WriteString(fmt.Sprintf("Photo: %s\n", p.URL))
	}
	if markup := resp.HTML(); markup != "" {
		buf.WriteString(fmt.Sprintf("\n%s\n", markup))
	}
	if len(resp.Extra) > 0 {
		buf.WriteString(fmt.Sprintf("\nExtra fields: %s\n", strings.Join(slices.Sorted(maps.Keys(resp.Extra)), ", ")))
	}
	return buf.Bytes()
}

// EmbedToMarkdown converts an Embed to Markdown with an optional local thumbnail
func EmbedToMarkdown(embed *services.Embed, thumbnailFilename string) []byte {
	var buf bytes.Buffer
	resp := embed.Response

	buf.WriteString(fmt.Sprintf("# %s\n\n", resp.TitleOr(embed.URL)))

	switch {
	case thumbnailFilename != "":
		buf.WriteString(fmt.Sprintf("![Thumbnail](%s)\n\n", thumbnailFilename))
	case resp.ThumbnailURL != nil:
		buf.WriteString(fmt.Sprintf("![Thumbnail](%s)\n\n", *resp.ThumbnailURL))
	}

	buf.WriteString(fmt.Sprintf("**Source**: <%s>\n", embed.URL))
	buf.WriteString(fmt.Sprintf("**Provider**: %s\n", embed.Provider.Name))
	buf.WriteString(fmt.Sprintf("**Type**: %s\n", resp.Kind()))
	if resp.AuthorName != nil {
		if resp.AuthorURL != nil {
			buf.WriteString(fmt.Sprintf("**Author**: [%s](%s)\n", *resp.AuthorName, *resp.AuthorURL))
		} else {
			buf.WriteString(fmt.Sprintf("**Author**: %s\n", *resp.AuthorName))
		}
	}

	buf.WriteString("\n## Embed\n\n```html\n")
	buf.WriteString(EmbedHTML(resp, embed.URL))
	buf.WriteString("\n```\n")
	return buf.Bytes()
}

// BatchToCSV converts a BatchResult to CSV with columns: Index, URL, Outcome, Provider, Type, Title, Error
func BatchToCSV(result *tasks.BatchResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Index", "URL", "Outcome", "Provider", "Type", "Title", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, res := range result.Results {
		provider, kind, title := resultFields(res)
		errText := ""
		if res.Error != nil {
			errText = res.Error.Error()
		}
		record := []string{
			strconv.Itoa(res.Index + 1),
			res.URL,
			string(res.Outcome),
			provider,
			kind,
			title,
			errText,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// BatchToMarkdown converts a BatchResult to a Markdown report
func BatchToMarkdown(result *tasks.BatchResult) []byte {
	var buf bytes.Buffer
	run := result.Run

	buf.WriteString("# Batch Report\n\n")
	if run.ID() != "" {
		buf.WriteString(fmt.Sprintf("**Batch**: %s\n", run.ID()))
	}
	buf.WriteString(fmt.Sprintf("**URLs**: %d\n", result.Total()))
	buf.WriteString(fmt.Sprintf("**Fetched**: %d\n", run.Fetched()))
	buf.WriteString(fmt.Sprintf("**Unmatched**: %d\n", run.Unmatched()))
	buf.WriteString(fmt.Sprintf("**Failed**: %d\n", run.Failed()))
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n\n", result.Duration.Round(time.Millisecond)))

	buf.WriteString("## Results\n\n")
	buf.WriteString("| # | URL | Outcome | Provider | Title |\n")
	buf.WriteString("|---|-----|---------|----------|-------|\n")
	for _, res := range result.Results {
		provider, _, title := resultFields(res)
		if res.Error != nil && title == "" {
			title = res.Error.Error()
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
			res.Index+1, escapeCell(res.URL), res.Outcome, escapeCell(provider), escapeCell(title)))
	}
	return buf.Bytes()
}

// BatchToText converts a BatchResult to one line per URL followed by a summary
func BatchToText(result *tasks.BatchResult) []byte {
	var buf bytes.Buffer
	for _, res := range result.Results {
		switch res.Outcome {
		case tasks.OutcomeFetched:
			provider, kind, title := resultFields(res)
			buf.WriteString(fmt.Sprintf("%d. %s [%s %s] %s\n", res.Index+1, res.URL, provider, kind, title))
		default:
			buf.WriteString(fmt.Sprintf("%d. %s [%s] %v\n", res.Index+1, res.URL, res.Outcome, res.Error))
		}
	}
	run := result.Run
	buf.WriteString(fmt.Sprintf("\n%d fetched, %d unmatched, %d failed in %s\n",
		run.Fetched(), run.Unmatched(), run.Failed(), result.Duration.Round(time.Millisecond)))
	return buf.Bytes()
}

// BatchToJSON converts a BatchResult to JSON, one object per URL
func BatchToJSON(result *tasks.BatchResult) ([]byte, error) {
	type entry struct {
		URL      string           `json:"url"`
		Outcome  string           `json:"outcome"`
		Provider string           `json:"provider,omitempty"`
		Response *oembed.Response `json:"response,omitempty"`
		Error    string           `json:"error,omitempty"`
	}

	out := struct {
		Batch     string  `json:"batch,omitempty"`
		Fetched   int     `json:"fetched"`
		Unmatched int     `json:"unmatched"`
		Failed    int     `json:"failed"`
		Results   []entry `json:"results"`
	}{
		Batch:     result.Run.ID(),
		Fetched:   result.Run.Fetched(),
		Unmatched: result.Run.Unmatched(),
		Failed:    result.Run.Failed(),
		Results:   make([]entry, 0, len(result.Results)),
	}

	for _, res := range result.Results {
		e := entry{URL: res.URL, Outcome: string(res.Outcome)}
		if res.Embed != nil {
			e.Provider = res.Embed.Provider.Name
			e.Response = res.Embed.Response
		}
		if res.Error != nil {
			e.Error = res.Error.Error()
		}
		out.Results = append(out.Results, e)
	}
	return shared.MarshalJSON(out, true)
}

// FormatBatch renders a BatchResult in the given format
func FormatBatch(result *tasks.BatchResult, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return BatchToCSV(result)
	case FormatMarkdown:
		return BatchToMarkdown(result), nil
	case FormatJSON:
		return BatchToJSON(result)
	default:
		return BatchToText(result), nil
	}
}

// ProvidersToText lists providers with their endpoint and scheme counts
func ProvidersToText(providers []registry.Provider) []byte {
	var buf bytes.Buffer
	for i, p := range providers {
		discovery := ""
		if p.HasDiscovery() {
			discovery = " (discovery)"
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s [%d endpoints, %d schemes]%s\n",
			i+1, p.Name, p.URL, len(p.Endpoints), p.SchemeCount(), discovery))
	}
	return buf.Bytes()
}

// ProviderToMarkdown describes a single provider's endpoints and schemes
func ProviderToMarkdown(p registry.Provider) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", p.Name))
	buf.WriteString(fmt.Sprintf("**Website**: <%s>\n\n", p.URL))

	for i, ep := range p.Endpoints {
		buf.WriteString(fmt.Sprintf("## Endpoint %d\n\n", i+1))
		buf.WriteString(fmt.Sprintf("- URL: `%s`\n", ep.URL))
		if ep.Discovery {
			buf.WriteString("- Discovery: yes\n")
		}
		if len(ep.Formats) > 0 {
			buf.WriteString(fmt.Sprintf("- Formats: %s\n", strings.Join(ep.Formats, ", ")))
		}
		if len(ep.Schemes) > 0 {
			buf.WriteString("\n### Schemes\n\n")
			for _, s := range ep.Schemes {
				buf.WriteString(fmt.Sprintf("- `%s`\n", s))
			}
		}
		buf.WriteString("\n")
	}
	return buf.Bytes()
}

// maxThumbnailSize caps thumbnail downloads.
var maxThumbnailSize int64 = 20 << 20

// DownloadThumbnail downloads a thumbnail and returns the raw bytes
func DownloadThumbnail(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("%w: empty thumbnail URL", shared.ErrInvalidInput)
	}
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to download thumbnail: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to download thumbnail: status %d", shared.ErrTransport, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxThumbnailSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read thumbnail: %v", shared.ErrTransport, err)
	}
	if int64(len(data)) > maxThumbnailSize {
		return nil, fmt.Errorf("%w: %w: thumbnail exceeds %d bytes", shared.ErrTransport, shared.ErrResponseTooLarge, maxThumbnailSize)
	}
	return data, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
	Thumbnail string
	// ThumbnailErr is set when the thumbnail could not be downloaded; the export still succeeds.
	ThumbnailErr error
}

// WriteMarkdownExport writes an embed to {dir}/README.md, downloading its thumbnail next to it when client is non-nil.
//
// A failed thumbnail download is reported in [MarkdownExportResult.ThumbnailErr] and the README
// links the remote thumbnail instead.
func WriteMarkdownExport(ctx context.Context, embed *services.Embed, outputDir string, client *http.Client) (*MarkdownExportResult, error) {
	if outputDir == "" {
		return nil, fmt.Errorf("%w: output directory", shared.ErrMissingArgument)
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{Directory: outputDir, Files: []string{}}

	var thumbnailFilename string
	if thumb := embed.Response.ThumbnailURL; thumb != nil && client != nil {
		data, err := DownloadThumbnail(ctx, client, *thumb)
		if err != nil {
			result.ThumbnailErr = err
		} else {
			thumbnailFilename = "thumbnail" + thumbnailExt(*thumb)
			thumbnailPath := filepath.Join(outputDir, thumbnailFilename)
			if err := os.WriteFile(thumbnailPath, data, 0644); err != nil {
				return nil, fmt.Errorf("failed to save thumbnail: %w", err)
			}
			result.Thumbnail = thumbnailPath
			result.Files = append(result.Files, thumbnailPath)
		}
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, EmbedToMarkdown(embed, thumbnailFilename), 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)
	return result, nil
}

// WriteBatchExport writes a batch report to disk.
//
// Defaults to batch_{id}.{ext} (or batch.{ext} for unsaved runs) as the filename.
func WriteBatchExport(result *tasks.BatchResult, format Format, filePath string) (string, error) {
	if filePath == "" {
		filePath = "batch." + format.Extension()
		if id := result.Run.ID(); id != "" {
			filePath = fmt.Sprintf("batch_%s.%s", id, format.Extension())
		}
	}

	data, err := FormatBatch(result, format)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write batch file: %w", err)
	}
	return filePath, nil
}

func resultFields(res tasks.URLResult) (provider, kind, title string) {
	if res.Embed == nil {
		return "", "", ""
	}
	resp := res.Embed.Response
	return res.Embed.Provider.Name, string(resp.Kind()), resp.TitleOr("")
}

func writeOptional(buf *bytes.Buffer, label string, v *string) {
	if v != nil && *v != "" {
		buf.WriteString(fmt.Sprintf("%s: %s\n", label, *v))
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", `\|`), "\n", " ")
}

func thumbnailExt(rawURL string) string {
	p := rawURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	switch ext := strings.ToLower(path.Ext(p)); ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
