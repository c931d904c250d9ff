//go:build !unix

package kbstore

import "os"

func canRead(p string) bool {
	f, err := os.Open(p)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

func canWrite(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().Perm()&0o200 != 0
}
