package manifest

import (
	"os"

	"github.com/meridian-labs/climecat/pkg/datastore"
	"github.com/meridian-labs/climecat/pkg/log"
)

// IsCurrent reports whether the datastore described by info still
// reflects currentFiles on disk. Every stale outcome is a warning
// naming the reason, never an error; the caller decides to rebuild.
func IsCurrent(info datastore.Info, currentFiles map[string]bool, logger log.Logger) bool {
	hashfile := PathFor(info.JSONHandle)

	if _, err := os.Stat(hashfile); err != nil {
		logger.Warn("no hash file found for datastore, regeneration required",
			log.String("hashfile", hashfile))
		return false
	}

	stored, err := Load(hashfile)
	if err != nil {
		logger.Warn("hash file unreadable, regeneration required",
			log.String("hashfile", hashfile), log.Err(err))
		return false
	}

	recorded := stored.Files()
	if !sameFileSet(currentFiles, recorded) {
		reason := "missing files from"
		if len(currentFiles) > len(recorded) {
			reason = "extra files in"
		}
		logger.Warn("experiment directory and datastore do not match ("+reason+" experiment directory), regeneration required",
			log.Int("experiment_files", len(currentFiles)),
			log.Int("datastore_files", len(recorded)))
		return false
	}

	files := make([]string, 0, len(currentFiles))
	for file := range currentFiles {
		files = append(files, file)
	}
	fresh, err := Build(files)
	if err != nil {
		logger.Warn("failed to hash experiment files, regeneration required", log.Err(err))
		return false
	}
	if !fresh.Equals(stored) {
		logger.Warn("experiment directory and datastore do not match (differing hashes), regeneration required")
		return false
	}

	logger.Info("datastore integrity verified")
	return true
}

func sameFileSet(a, b map[string]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for file := range a {
		if !b[file] {
			return false
		}
	}
	return true
}
