//go:build !linux && !darwin

package main

func maxRSSBytes() (uint64, bool) { return 0, false }
