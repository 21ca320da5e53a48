package ide

import (
	"sort"
	"strings"

	"ide-go/internal/fs"
)

// buildTree groups tracked file paths into a FOLDER/FILE tree. Hidden leaves
// (placeholders, dotfiles, ignored names) are dropped but still make their
// folders appear; hidden folders are dropped with everything below them.
func buildTree(project, rev string, files []string, hidden *fs.IgnoreMatcher) []*FileEntry {
	prefix := "/"
	if project != "" {
		prefix = "/" + project + "/"
	}

	root := &FileEntry{Kind: KindFolder, Children: []*FileEntry{}}
	folders := map[string]*FileEntry{"": root}

	for _, file := range files {
		if file == "" {
			continue
		}
		parts := strings.Split(file, "/")
		dirs, leaf := parts[:len(parts)-1], parts[len(parts)-1]

		skip := false
		for _, d := range dirs {
			if fs.IsHiddenName(d) {
				skip = true
				break
			}
		}
		if skip {
			continue
		}

		parent := root
		for i := range dirs {
			key := strings.Join(dirs[:i+1], "/")
			folder, ok := folders[key]
			if !ok {
				if hidden.Match(key) {
					skip = true
					break
				}
				folder = &FileEntry{
					Kind:     KindFolder,
					Name:     dirs[i],
					Path:     prefix + key,
					Rev:      rev,
					Children: []*FileEntry{},
				}
				folders[key] = folder
				parent.Children = append(parent.Children, folder)
			}
			parent = folder
		}
		if skip || hidden.Match(file) {
			continue
		}

		parent.Children = append(parent.Children, &FileEntry{
			Kind:     KindFile,
			Name:     leaf,
			Path:     prefix + file,
			Rev:      rev,
			Children: []*FileEntry{},
		})
	}

	sortTree(root.Children)
	return root.Children
}

func sortTree(entries []*FileEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	for _, e := range entries {
		sortTree(e.Children)
	}
}
