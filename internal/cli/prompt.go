package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// promptYesNo asks a yes/no question, returning def when the reader is
// closed or the answer is empty. Callers must only invoke it when an
// interactive terminal is available.
func promptYesNo(in io.Reader, out io.Writer, question string, def bool) bool {
	suffix := "[Y/n]"
	if !def {
		suffix = "[y/N]"
	}
	fmt.Fprintf(out, "%s %s: ", question, suffix)

	reader := bufio.NewReader(in)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return def
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	switch {
	case answer == "":
		return def
	case strings.HasPrefix(answer, "y"):
		return true
	case strings.HasPrefix(answer, "n"):
		return false
	default:
		return def
	}
}

// stdinIsTerminal reports whether manual prompting is possible at all.
func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
