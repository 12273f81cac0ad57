// Package cli implements the interactive collaborators of the executor for a terminal.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/fd1az/swap-router/business/routing/app"
	"github.com/fd1az/swap-router/internal/asset"
)

var _ app.ConfirmationPrompt = (*Prompt)(nil)

// Prompt asks for rate-change confirmation on a terminal.
type Prompt struct {
	in      *bufio.Reader
	out     io.Writer
	autoYes bool
}

type answer struct {
	text string
	err  error
}

// NewPrompt reads answers from in and writes questions to out.
// With autoYes every rate change is accepted without asking.
func NewPrompt(in io.Reader, out io.Writer, autoYes bool) *Prompt {
	return &Prompt{
		in:      bufio.NewReader(in),
		out:     out,
		autoYes: autoYes,
	}
}

// AskRateChanged implements app.ConfirmationPrompt. It blocks until the user
// answers or ctx is done.
func (p *Prompt) AskRateChanged(ctx context.Context, oldAmount, newAmount asset.Amount, symbol string) (bool, error) {
	diff := asset.PercentDiff(oldAmount.ToDecimal(), newAmount.ToDecimal())

	color.New(color.FgYellow, color.Bold).Fprintln(p.out, "\nRates have changed")
	fmt.Fprintf(p.out, "  Quoted:   %s %s\n", oldAmount.ToDecimal().String(), symbol)
	fmt.Fprintf(p.out, "  Now:      %s %s (%s%%)\n",
		color.CyanString(newAmount.ToDecimal().String()), symbol, diff.StringFixed(2))

	if p.autoYes {
		fmt.Fprintln(p.out, "  Accepting new rate (--yes)")
		return true, nil
	}

	fmt.Fprint(p.out, "\nAccept the new rate? (y/N): ")

	ch := make(chan answer, 1)
	go func() {
		text, err := p.in.ReadString('\n')
		ch <- answer{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, ctx.Err()
	case a := <-ch:
		if a.err != nil && a.err != io.EOF {
			return false, a.err
		}
		return isYes(a.text), nil
	}
}

// Confirm asks a yes/no question, used before swaps are sent.
func (p *Prompt) Confirm(question string) bool {
	if p.autoYes {
		return true
	}
	fmt.Fprintf(p.out, "\n%s (y/N): ", question)
	text, err := p.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false
	}
	return isYes(text)
}

func isYes(s string) bool {
	s = strings.TrimSpace(strings.ToLower(s))
	return s == "y" || s == "yes"
}
