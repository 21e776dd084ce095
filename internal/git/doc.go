// Package git checks where decrypted files land relative to a git work tree.
//
// Checks performed for each written file:
//   - Whether the output directory is inside a git work tree
//   - Whether the file is tracked by git (should not be)
//   - Whether the file is covered by .gitignore (should be)
//
// These checks help users avoid accidentally committing decrypted secrets.
package git
