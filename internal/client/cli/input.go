package cli

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// isTerminal is a test seam for term.IsTerminal.
var isTerminal = term.IsTerminal

// clearValue typed at a prompt removes the current value.
const clearValue = "-"

// GetSimpleText prints a prompt to w and reads a single line of input from reader.
// The trailing newline is trimmed. If EOF occurs after some input was read,
// the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetMultiline prints a prompt to w and reads lines until an empty one. The
// collected text is joined with '\n'.
func GetMultiline(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n(press Enter on an empty line to finish)\n"); err != nil {
		return "", err
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			if err != nil && len(lines) == 0 {
				return "", err
			}
			break
		}
		lines = append(lines, line)
		if err != nil {
			break
		}
	}

	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// prompter asks for field values one at a time. Every answer may be empty
// to keep the current value or "-" to clear it.
type prompter struct {
	r *bufio.Reader
	w io.Writer
}

func (p prompter) ask(label, current string) (string, error) {
	prompt := label + ": "
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]: ", label, current)
	}
	return GetSimpleText(p.r, prompt, p.w)
}

func (p prompter) Text(label, current string) (string, error) {
	answer, err := p.ask(label, current)
	switch {
	case err != nil:
		return "", err
	case answer == "":
		return current, nil
	case answer == clearValue:
		return "", nil
	}
	return answer, nil
}

// Number re-asks until the answer is empty, "-" or a valid number.
func (p prompter) Number(label string, current *float64) (*float64, error) {
	shown := ""
	if current != nil {
		shown = strconv.FormatFloat(*current, 'f', -1, 64)
	}
	for {
		answer, err := p.ask(label, shown)
		switch {
		case err != nil:
			return nil, err
		case answer == "":
			return current, nil
		case answer == clearValue:
			return nil, nil
		}
		v, err := strconv.ParseFloat(answer, 64)
		if err == nil {
			return &v, nil
		}
		fmt.Fprintf(p.w, "%q is not a number\n", answer)
	}
}

func (p prompter) OptionalText(label string, current *string) (*string, error) {
	cur := ""
	if current != nil {
		cur = *current
	}
	answer, err := p.ask(label, cur)
	switch {
	case err != nil:
		return nil, err
	case answer == "":
		return current, nil
	case answer == clearValue:
		return nil, nil
	}
	return &answer, nil
}

func (p prompter) YesNo(label string, current bool) (bool, error) {
	shown := "y/N"
	if current {
		shown = "Y/n"
	}
	for {
		answer, err := GetSimpleText(p.r, fmt.Sprintf("%s [%s]: ", label, shown), p.w)
		if err != nil {
			return false, err
		}
		switch strings.ToLower(answer) {
		case "":
			return current, nil
		case "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.w, "please answer y or n")
	}
}

// Image asks for an image file and returns it as a data URL. The current
// payload is never echoed, only whether one is attached.
func (p prompter) Image(label string, current *string) (*string, error) {
	shown := ""
	if current != nil && *current != "" {
		shown = "attached"
	}
	for {
		answer, err := p.ask(label+" (image file)", shown)
		switch {
		case err != nil:
			return nil, err
		case answer == "":
			return current, nil
		case answer == clearValue:
			return nil, nil
		}
		url, err := ReadDataURL(answer)
		if err == nil {
			return &url, nil
		}
		fmt.Fprintf(p.w, "cannot attach %s: %v\n", answer, err)
	}
}

// ReadDataURL loads path and encodes it as a base64 data URL. The media type
// is sniffed from the content.
func ReadDataURL(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return "", fmt.Errorf("not an image (%s)", mime)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
