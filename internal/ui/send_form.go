package ui

import (
	"fmt"
	"slices"

	"github.com/charmbracelet/huh"

	"github.com/mcao2/prompt-digest/internal/digest"
	"github.com/mcao2/prompt-digest/internal/sink"
)

// SendForm asks which sinks receive the digest and confirms the delivery
type SendForm struct {
	form   *huh.Form
	result *SendResult
}

type SendResult struct {
	Sinks     []string
	Confirmed bool
}

// NewSendForm offers every name in available, with the names in selected
// checked.
func NewSendForm(available, selected []string, counts digest.Counts) *SendForm {
	result := &SendResult{Sinks: slices.Clone(selected)}

	options := make([]huh.Option[string], 0, len(available))
	for _, name := range available {
		options = append(options, huh.NewOption(sinkLabel(name), name).Selected(slices.Contains(selected, name)))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewMultiSelect[string]().
				Title("Deliver the digest to").
				Options(options...).
				Value(&result.Sinks),

			huh.NewConfirm().
				Title("Send now?").
				Description(fmt.Sprintf("%d new · %d updated · %d worth revisiting", counts.New, counts.Updated, counts.Stale)).
				Affirmative("Send").
				Negative("Cancel").
				Value(&result.Confirmed),
		),
	)

	return &SendForm{
		form:   form,
		result: result,
	}
}

func (sf *SendForm) Run() (*SendResult, error) {
	if err := sf.form.Run(); err != nil {
		return nil, err
	}
	return sf.result.normalized(), nil
}

func (sf *SendForm) GetForm() *huh.Form {
	return sf.form
}

// normalized drops duplicate sinks and treats an empty choice as a
// cancellation.
func (r *SendResult) normalized() *SendResult {
	var sinks []string
	for _, s := range r.Sinks {
		if !slices.Contains(sinks, s) {
			sinks = append(sinks, s)
		}
	}
	out := &SendResult{Sinks: sinks, Confirmed: r.Confirmed}
	if len(sinks) == 0 {
		out.Confirmed = false
	}
	return out
}

func sinkLabel(name string) string {
	switch name {
	case sink.NameStdout:
		return "🖥  Terminal"
	case sink.NameFile:
		return "📄 File"
	case sink.NameClipboard:
		return "📋 Clipboard"
	case sink.NameLINE:
		return "💬 LINE"
	default:
		return name
	}
}
