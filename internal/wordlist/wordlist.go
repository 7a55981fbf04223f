// Package wordlist provides the embedded enumeration wordlists.
package wordlist

import (
	"bufio"
	"embed"
	"strings"
)

//go:embed subdomains.txt directories.txt
var listsFS embed.FS

// Subdomains returns the embedded subdomain brute-force wordlist.
// Lines are trimmed; empty lines and comments are skipped.
func Subdomains() []string {
	return load("subdomains.txt")
}

// Directories returns the embedded content-discovery path wordlist.
func Directories() []string {
	return load("directories.txt")
}

func load(name string) []string {
	data, err := listsFS.ReadFile(name)
	if err != nil {
		return nil
	}

	var words []string
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words
}
