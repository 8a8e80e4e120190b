// Package mmap maps segment files read-only.
//
//	f, err := mmap.Map("segments/0b3c....vfs")
//	if err != nil { ... }
//	defer f.Close()
//	_ = f.Prefetch()
//	data, _ := f.Bytes()
//
// Unix builds use mmap(2) and madvise(2). Windows uses MapViewOfFile and
// Prefetch does nothing. Slices handed out by Bytes or Section must not be
// touched after Close.
package mmap
