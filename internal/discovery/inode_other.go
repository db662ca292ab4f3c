//go:build !unix

package discovery

import "os"

type inodeSet struct{}

func newInodeSet() *inodeSet { return &inodeSet{} }

// addOnce is a no-op cycle guard on platforms without a portable
// device+inode pair (e.g. Windows); every path is treated as unseen.
func (s *inodeSet) addOnce(info os.FileInfo) bool { return true }
