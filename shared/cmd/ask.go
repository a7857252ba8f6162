package cmd

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strings"
)

// Asker holds a reader for reading input into CLI questions.
type Asker struct {
	reader *bufio.Reader
	out    io.Writer
}

// NewAsker returns an Asker reading answers from reader and writing questions to out.
func NewAsker(reader io.Reader, out io.Writer) Asker {
	return Asker{reader: bufio.NewReader(reader), out: out}
}

// AskBool asks a question and expect a yes/no answer.
func (a *Asker) AskBool(question string, defaultAnswer string) (bool, error) {
	for {
		answer, err := a.askQuestion(question, defaultAnswer)
		if err != nil {
			return false, err
		}

		if slices.Contains([]string{"yes", "y"}, strings.ToLower(answer)) {
			return true, nil
		} else if slices.Contains([]string{"no", "n"}, strings.ToLower(answer)) {
			return false, nil
		}

		_, _ = fmt.Fprintf(a.out, "Invalid input, try again.\n\n")
	}
}

// Ask a question on the output stream and read the answer from the input stream.
func (a *Asker) askQuestion(question, defaultAnswer string) (string, error) {
	_, _ = fmt.Fprint(a.out, question)

	answer, err := a.reader.ReadString('\n')
	if err != nil && (err != io.EOF || answer == "") {
		return "", fmt.Errorf("Failed reading answer: %w", err)
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return defaultAnswer, nil
	}

	return answer, nil
}
