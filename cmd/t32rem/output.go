package main

import (
	"fmt"
	"io"
	"os"

	"github.com/pterm/pterm"
	"github.com/tidwall/sjson"
	"golang.org/x/term"
)

// field is one named value of a command result.
type field struct {
	key   string
	value any
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func (a *app) jsonOutput() bool { return a.flags.output == "json" }

// emit writes a single result: a JSON object, a table on a terminal or
// tab separated lines otherwise.
func (a *app) emit(fields ...field) error {
	if a.jsonOutput() {
		doc := "{}"
		for _, f := range fields {
			var err error
			if doc, err = sjson.Set(doc, f.key, f.value); err != nil {
				return fmt.Errorf("encoding %s: %w", f.key, err)
			}
		}
		_, err := fmt.Fprintln(a.out, doc)
		return err
	}

	if isTerminal(a.out) {
		data := pterm.TableData{{"Field", "Value"}}
		for _, f := range fields {
			data = append(data, []string{f.key, fmt.Sprint(f.value)})
		}
		return a.renderTable(data)
	}

	for _, f := range fields {
		if _, err := fmt.Fprintf(a.out, "%s\t%v\n", f.key, f.value); err != nil {
			return err
		}
	}
	return nil
}

// emitList writes rows under key. In JSON each row becomes an object keyed
// by header.
func (a *app) emitList(key string, header []string, rows [][]string) error {
	if a.jsonOutput() {
		doc, err := sjson.Set("{}", key, []any{})
		if err != nil {
			return err
		}
		for _, row := range rows {
			obj := make(map[string]string, len(header))
			for j, col := range header {
				obj[col] = row[j]
			}
			if doc, err = sjson.Set(doc, key+".-1", obj); err != nil {
				return fmt.Errorf("encoding %s: %w", key, err)
			}
		}
		_, err = fmt.Fprintln(a.out, doc)
		return err
	}

	if isTerminal(a.out) {
		data := pterm.TableData{header}
		data = append(data, rows...)
		return a.renderTable(data)
	}

	for _, row := range rows {
		for j, col := range row {
			sep := "\t"
			if j == len(row)-1 {
				sep = "\n"
			}
			if _, err := fmt.Fprint(a.out, col, sep); err != nil {
				return err
			}
		}
	}
	return nil
}

func (a *app) renderTable(data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(a.out, s)
	return err
}

// emitText writes free text, e.g. window content, as is or as {"key": text}.
func (a *app) emitText(key, text string) error {
	if a.jsonOutput() {
		return a.emit(field{key, text})
	}
	_, err := io.WriteString(a.out, text)
	if err == nil && text != "" && text[len(text)-1] != '\n' {
		_, err = io.WriteString(a.out, "\n")
	}
	return err
}
