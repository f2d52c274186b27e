package render

import (
	"fmt"
	"io"
	"strings"

	"fxconverter/internal/converter"
)

// Text writes a plain-text rendering of the converter form.
func Text(w io.Writer, s converter.State) error {
	v := NewView(s)

	var b strings.Builder
	b.WriteString("Convert Currency\n")
	if v.Error != "" {
		fmt.Fprintf(&b, "! %s\n", v.Error)
	}
	fmt.Fprintf(&b, "Amount: %s\n", v.Amount)
	fmt.Fprintf(&b, "From: %s\n", selector(v.From, v.Options))
	fmt.Fprintf(&b, "To: %s\n", selector(v.To, v.Options))
	b.WriteString(v.ResultLine)
	b.WriteString("\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// selector lists the options with the selected one in brackets.
func selector(selected string, options []string) string {
	if len(options) == 0 {
		return "[" + selected + "]"
	}
	parts := make([]string, len(options))
	for i, o := range options {
		if o == selected {
			parts[i] = "[" + o + "]"
		} else {
			parts[i] = o
		}
	}
	return strings.Join(parts, " ")
}
