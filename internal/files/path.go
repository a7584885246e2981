package files

import "strings"

// RootPrefix is the fixed directory the scaffolded application lives in
// inside the sandbox. Editor paths are relative to it; remote paths
// include it.
const RootPrefix = "app"

// ToRemote maps an editor-relative path to the remote absolute path.
// Callers supply normalized forward-slash relative paths; this is a pure
// string prefix operation, not a filesystem lookup.
func ToRemote(editorPath string) string {
	return RootPrefix + "/" + strings.TrimPrefix(editorPath, "/")
}

// ToEditor strips the project-root prefix from a remote path. A path
// outside the root comes back unchanged.
func ToEditor(remotePath string) string {
	if remotePath == RootPrefix {
		return ""
	}
	return strings.TrimPrefix(remotePath, RootPrefix+"/")
}
