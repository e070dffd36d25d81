// Package vfs wraps the native virtual file table.
//
// A VFS owns one mjVFS and hands named byte buffers to the model loaders
// without touching the filesystem. Its semantics follow the native table:
//
//   - names are unique while present; adding an existing name fails with
//     errors.ErrDuplicateName and leaves the table untouched
//   - the table has a fixed capacity (mjMAXVFS); adding beyond it fails with
//     errors.ErrTableFull and has no partial effect
//   - names are limited to mjMAXVFSNAME-1 bytes and may not contain NUL;
//     these limits are checked before the native call
//
// Add copies the caller's bytes into a native buffer sized by the engine;
// the two lengths are asserted equal before copying. Get returns a copy,
// never a view of native memory.
//
// A VFS is safe for concurrent use. Use holds the table lock while a native
// loader reads from it:
//
//	err := v.Use(func(h native.VFSHandle) error {
//		m := lib.LoadXML(name, h, errBuf)
//		...
//	})
//
// Close releases the table and every file buffer it holds exactly once.
package vfs
