package collector

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadSymbols reads a symbol list with one symbol per line. Blank lines and
// lines starting with '#' are skipped, and symbols are upper-cased. Duplicates
// keep their first position.
func LoadSymbols(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open symbols file: %w", err)
	}
	defer f.Close()

	var symbols []string
	seen := make(map[string]bool)
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sym := strings.ToUpper(line)
		if seen[sym] {
			continue
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read symbols file: %w", err)
	}
	return symbols, nil
}

// MergeSymbols joins symbol lists in order, upper-cased and without duplicates.
func MergeSymbols(lists ...[]string) []string {
	var out []string
	seen := make(map[string]bool)
	for _, list := range lists {
		for _, s := range list {
			sym := strings.ToUpper(strings.TrimSpace(s))
			if sym == "" || seen[sym] {
				continue
			}
			seen[sym] = true
			out = append(out, sym)
		}
	}
	return out
}
