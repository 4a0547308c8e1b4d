package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const banner = `
  ____        _        _   _                _
 |  _ \  __ _| |_ __ _| | | | __ ___      _| | __
 | | | |/ _' | __/ _' | |_| |/ _' \ \ /\ / / |/ /
 | |_| | (_| | || (_| |  _  | (_| |\ V  V /|   <
 |____/ \__,_|\__\__,_|_| |_|\__,_| \_/\_/ |_|\_\
`

// seedPrompt is shown when no URL was given and stdin is a terminal.
const seedPrompt = "Please enter the URLs to crawl, separated by spaces: "

// isInteractive reports whether r is a terminal.
func isInteractive(r io.Reader) bool {
	f, ok := r.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// readSeeds returns the seed URLs of a crawl.
//
// Arguments win. Otherwise piped input is read in full, one or more URLs per
// line, skipping blank lines and lines starting with '#'. On a terminal the
// user is prompted for a single line of space separated URLs.
func readSeeds(args []string, in io.Reader, prompt io.Writer) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	if isInteractive(in) {
		fmt.Fprint(prompt, banner+"\n"+seedPrompt)
		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to read URLs: %w", err)
		}
		return strings.Fields(line), nil
	}

	var seeds []string
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, strings.Fields(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read URLs: %w", err)
	}
	return seeds, nil
}
