package object

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// readAlternates parses an objects/info/alternates file: one path per
// line, blank lines and "#"-prefixed comments ignored. A relative path is
// resolved against objectsDir (matching git's own alternates format,
// carried over from JGit's AlternateHandle since the teacher never
// implemented alternates itself).
func readAlternates(objectsDir string) ([]string, error) {
	path := filepath.Join(objectsDir, "info", "alternates")
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &IOError{Op: "read alternates", Err: err}
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(objectsDir, line)
		}
		out = append(out, filepath.Clean(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Op: "scan alternates", Err: err}
	}
	return out, nil
}

// resolveAlternateChain flattens an object directory's alternates,
// recursing into each alternate's own info/alternates file and
// de-duplicating by canonical path so a diamond or cyclic chain is only
// opened once (JGit's AlternateHandle.Manager does the same de-dup to
// guard against alternates loops).
func resolveAlternateChain(objectsDir string) ([]string, error) {
	seen := map[string]struct{}{filepath.Clean(objectsDir): {}}
	var chain []string

	var visit func(dir string) error
	visit = func(dir string) error {
		paths, err := readAlternates(dir)
		if err != nil {
			return err
		}
		for _, p := range paths {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			chain = append(chain, p)
			if err := visit(p); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(objectsDir); err != nil {
		return nil, err
	}
	return chain, nil
}
