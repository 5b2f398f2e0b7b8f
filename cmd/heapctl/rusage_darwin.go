//go:build darwin

package main

const rssIsKilobytes = false
