package session

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// branchSlugMax caps the branch portion of a generated session name.
const branchSlugMax = 20

// GenerateName derives the deterministic backend session name for a
// project/branch pair: "{repo}_{branch-slug}_{4 hex}". The hash suffix is
// the first two bytes of SHA-256 over "{project}:{branch}", which keeps
// same-named branches of different projects apart and lets a later
// invocation rediscover sessions created by an earlier one without a
// lookup table.
func GenerateName(projectName, branch string) string {
	repo := path.Base(projectName)

	slug := strings.ReplaceAll(branch, "/", "-")
	if runes := []rune(slug); len(runes) > branchSlugMax {
		slug = string(runes[:branchSlugMax])
	}

	sum := sha256.Sum256([]byte(projectName + ":" + branch))
	return fmt.Sprintf("%s_%s_%s", repo, slug, hex.EncodeToString(sum[:2]))
}
