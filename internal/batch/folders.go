package batch

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	sheetExts     = []string{".xlsx"}
	resumeExts    = []string{".txt", ".md", ".docx"}
	candidateExts = []string{".xlsx", ".txt", ".md", ".docx"}

	readDir = os.ReadDir
)

// DiscoverFolders returns the immediate subdirectories of dir that directly
// contain an application spreadsheet or a resume file, sorted. A missing or
// non-directory dir yields an empty list. A subdirectory that cannot be read
// is kept so that loading it fails as a candidate of its own.
func DiscoverFolders(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return []string{}, nil
	}

	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	folders := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		files, err := filesWithExt(path, candidateExts)
		if err != nil || len(files) > 0 {
			abs, err := filepath.Abs(path)
			if err != nil {
				return nil, err
			}
			folders = append(folders, abs)
		}
	}

	sort.Strings(folders)
	return folders, nil
}

// filesWithExt lists regular files in dir whose extension is one of exts,
// sorted by name.
func filesWithExt(dir string, exts []string) ([]string, error) {
	entries, err := readDir(dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), "~$") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		for _, want := range exts {
			if ext == want {
				files = append(files, filepath.Join(dir, entry.Name()))
				break
			}
		}
	}
	sort.Strings(files)
	return files, nil
}
