//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stats prints Go lines of code per package directory, split into
// production and test lines, as one JSON record.
func Stats() error {
	prod := map[string]int{}
	test := map[string]int{}

	err := filepath.WalkDir(".", func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			switch {
			case path == "vendor", path == ".git", path == binaryDir, path == "magefiles":
				return filepath.SkipDir
			case strings.HasPrefix(d.Name(), "_"), d.Name() == "testdata":
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		pkg := filepath.ToSlash(filepath.Dir(path))
		if strings.HasSuffix(path, "_test.go") {
			test[pkg] += count
		} else {
			prod[pkg] += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	var prodTotal, testTotal int
	for _, n := range prod {
		prodTotal += n
	}
	for _, n := range test {
		testTotal += n
	}

	record := map[string]any{
		"go_loc_prod":   prodTotal,
		"go_loc_test":   testTotal,
		"go_loc":        prodTotal + testTotal,
		"packages_prod": prod,
		"packages_test": test,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
