package digest

import (
	"strings"
	"time"

	"github.com/mcao2/prompt-digest/internal/snapshot"
)

// RenderOptions controls digest rendering.
type RenderOptions struct {
	// Limit bounds the entries shown per section. Negative values act as 0.
	Limit int
	// CategoryField is the preferred category property. Empty means the
	// current snapshot's inferred field.
	CategoryField string
	// HubLink is the trailing reference; empty means DefaultHubLink.
	HubLink string
	// Heading, when set, is printed first and followed by a blank line.
	Heading string
	// Labels defaults to DefaultLabels when zero.
	Labels   Labels
	Resolver snapshot.Resolver
}

// Render turns a classification into the digest text. The output depends
// only on c and opts and always ends with a single newline. Labels are
// never truncated.
func Render(c *Classification, opts RenderOptions) string {
	labels := opts.Labels
	if labels == (Labels{}) {
		labels = DefaultLabels()
	}
	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}
	field := opts.CategoryField
	if field == "" && c.Current != nil {
		field = c.Current.CategoryField
	}
	link := opts.HubLink
	if link == "" {
		link = DefaultHubLink
	}

	var lines []string
	if opts.Heading != "" {
		lines = append(lines, opts.Heading, "")
	}

	entry := func(r snapshot.Record, suffix string) string {
		pieces := []string{"- " + opts.Resolver.Label(r)}
		if cat, ok := opts.Resolver.Category(r, field); ok {
			pieces = append(pieces, "["+cat+"]")
		}
		if suffix != "" {
			pieces = append(pieces, suffix)
		}
		return strings.Join(pieces, " ")
	}

	section := func(name string, total int, line func(i int) string) {
		lines = append(lines, labels.header(name, total))
		if total == 0 {
			lines = append(lines, labels.None)
		}
		for i := 0; i < total && i < limit; i++ {
			lines = append(lines, line(i))
		}
		if rest := total - limit; rest > 0 {
			lines = append(lines, labels.overflow(rest))
		}
		lines = append(lines, "")
	}

	section(labels.New, len(c.New), func(i int) string { return entry(c.New[i], "") })
	section(labels.Updated, len(c.Updated), func(i int) string { return entry(c.Updated[i], "") })
	section(labels.Stale, len(c.Stale), func(i int) string {
		return entry(c.Stale[i].Record, labels.age(c.Stale[i].Days))
	})
	lines = append(lines, labels.link(link))

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

// Heading formats the digest title line for generatedAt in loc. A nil loc
// means local time.
func Heading(generatedAt time.Time, mode string, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return "[Prompt Digest / " + generatedAt.In(loc).Format("2006-01-02 15:04") + " / " + mode + "]"
}
