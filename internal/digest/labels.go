package digest

import "fmt"

// DefaultHubLink is used when no reference link is configured.
const DefaultHubLink = "prompt/PROMPT_KNOWLEDGE_HUB.md"

// Labels holds the fixed wording of a rendered digest.
type Labels struct {
	New     string
	Updated string
	Stale   string
	// None is the whole line printed for an empty section.
	None string
	// Header formats a section name and its total count.
	Header string
	// Overflow formats the number of entries left out.
	Overflow string
	// Age formats the elapsed days of a stale entry.
	Age string
	// Link formats the trailing reference line.
	Link string
}

// DefaultLabels returns the English wording.
func DefaultLabels() Labels {
	return Labels{
		New:      "New",
		Updated:  "Updated",
		Stale:    "Worth revisiting",
		None:     "- none",
		Header:   "■ %s (%d)",
		Overflow: "  … %d more",
		Age:      "%d days without update",
		Link:     "→ Details: %s",
	}
}

// JapaneseLabels returns the wording used by the LINE digest.
func JapaneseLabels() Labels {
	return Labels{
		New:      "新規",
		Updated:  "更新",
		Stale:    "利用推奨",
		None:     "- 該当なし",
		Header:   "■ %s (%d)",
		Overflow: "  … さらに %d 件",
		Age:      "%d日更新なし",
		Link:     "→ 詳細: %s",
	}
}

// LabelsFor returns the wording for a locale name. Unknown locales report
// ok=false and fall back to English.
func LabelsFor(locale string) (Labels, bool) {
	switch locale {
	case "", "en":
		return DefaultLabels(), true
	case "ja":
		return JapaneseLabels(), true
	default:
		return DefaultLabels(), false
	}
}

func (l Labels) header(name string, total int) string {
	return fmt.Sprintf(l.Header, name, total)
}

func (l Labels) overflow(n int) string { return fmt.Sprintf(l.Overflow, n) }

func (l Labels) age(days int) string { return fmt.Sprintf(l.Age, days) }

func (l Labels) link(target string) string { return fmt.Sprintf(l.Link, target) }
