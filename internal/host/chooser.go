package host

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mesh-intelligence/linkfield/pkg/types"
)

// ByID returns a Chooser that picks the candidate with the given record ID.
// An unknown ID is an error wrapping types.ErrNotFound.
func ByID(id string) Chooser {
	return ChooserFunc(func(ctx context.Context, candidates []Candidate) (*types.Record, error) {
		for _, c := range candidates {
			if c.Record.ID() == id {
				return c.Record, nil
			}
		}
		return nil, fmt.Errorf("record %q: %w", id, types.ErrNotFound)
	})
}

// Prompt returns a Chooser that lists the candidates on out and reads a
// 1-based choice from in. An empty line, "q", or end of input dismisses.
func Prompt(in io.Reader, out io.Writer) Chooser {
	reader := bufio.NewReader(in)
	return ChooserFunc(func(ctx context.Context, candidates []Candidate) (*types.Record, error) {
		if len(candidates) == 0 {
			fmt.Fprintln(out, "No records to choose from.")
			return nil, nil
		}
		for i, c := range candidates {
			fmt.Fprintf(out, "%3d) %s\n", i+1, c.Summary)
		}
		fmt.Fprint(out, "Choose a record (empty to cancel): ")

		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("read choice: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.EqualFold(line, "q") {
			return nil, nil
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(candidates) {
			return nil, fmt.Errorf("invalid choice %q", line)
		}
		return candidates[n-1].Record, nil
	})
}
